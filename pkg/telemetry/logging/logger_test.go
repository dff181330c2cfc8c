package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		level   string
		wantErr bool
	}{
		{"debug", false},
		{"info", false},
		{"warn", false},
		{"error", false},
		{"", false},
		{"verbose", true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			_, err := New(Config{Level: tt.level, Format: "json"})
			if (err != nil) != tt.wantErr {
				t.Errorf("New(level=%q) error = %v, wantErr %v", tt.level, err, tt.wantErr)
			}
		})
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Config{Format: "xml"}); err == nil {
		t.Fatal("New() accepted an unknown format")
	}
}

func TestRedactionMasksPatientIdentifiers(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	logger.Info("claim evaluated",
		"claim_id", "C-1001",
		"patient_id", "P-445566",
		"provider_id", "PR-9",
	)

	var record map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("log output is not JSON: %v\n%s", err, buf.String())
	}
	if got := record["patient_id"]; got != "P-******" {
		t.Errorf("patient_id = %v, want P-******", got)
	}
	if got := record["claim_id"]; got != "C-1001" {
		t.Errorf("claim_id = %v, want unmasked C-1001", got)
	}
	if got := record["provider_id"]; got != "PR-9" {
		t.Errorf("provider_id = %v, want unmasked PR-9", got)
	}
}

func TestRedactionAppliesToWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	logger.With("patient_id", "P-445566").Info("history loaded")

	if strings.Contains(buf.String(), "P-445566") {
		t.Errorf("pre-bound patient identifier leaked: %s", buf.String())
	}
}

func TestRedactionDisabled(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Format: "json", DisableRedaction: true, Writer: &buf})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	logger.Info("claim evaluated", "patient_id", "P-445566")
	if !strings.Contains(buf.String(), "P-445566") {
		t.Errorf("identifier masked with redaction disabled: %s", buf.String())
	}
}

func TestMask(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"P-445566", "P-******"},
		{"ab", "****"},
		{"", "****"},
	}
	for _, tt := range tests {
		if got := Mask(tt.in); got != tt.want {
			t.Errorf("Mask(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
