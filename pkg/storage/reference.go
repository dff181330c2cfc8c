package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite" // cgo-free SQLite driver

	"veritas-health/sentinel/pkg/claim"
	"veritas-health/sentinel/pkg/enrichment"
)

// ReferenceConfig contains configuration for the code reference store.
type ReferenceConfig struct {
	// Path is the database file path.
	Path string `yaml:"path"`

	// BusyTimeout is how long to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// DefaultReferenceConfig returns the default reference store configuration.
func DefaultReferenceConfig() ReferenceConfig {
	return ReferenceConfig{
		Path:        "data/reference.db",
		BusyTimeout: 5 * time.Second,
	}
}

// ReferenceStore is the SQLite procedure reference set. It implements the
// code-reference and membership enrichment boundaries.
type ReferenceStore struct {
	db     *sql.DB
	logger *slog.Logger
}

var (
	_ enrichment.CodeReferenceStore = (*ReferenceStore)(nil)
	_ enrichment.MembershipSource   = (*ReferenceStore)(nil)
)

// NewReferenceStore opens (creating if needed) the reference database.
func NewReferenceStore(config ReferenceConfig, logger *slog.Logger) (*ReferenceStore, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("storage: reference path cannot be empty")
	}
	if config.BusyTimeout <= 0 {
		config.BusyTimeout = DefaultReferenceConfig().BusyTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "storage.reference")

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)",
		config.Path, config.BusyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open reference %s: %w", config.Path, err)
	}
	if _, err := db.Exec(ReferenceSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: create reference schema: %w", err)
	}

	logger.Info("reference store opened", "path", config.Path)
	return &ReferenceStore{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (r *ReferenceStore) Close() error {
	return r.db.Close()
}

// ProcedureRecord is one reference-set entry for seeding.
type ProcedureRecord struct {
	// Info is the procedure reference data.
	Info enrichment.ProcedureInfo

	// Restricted marks the code as carrying a diagnosis pairing list.
	Restricted bool

	// AllowedDiagnoses is the pairing list; only written when Restricted.
	AllowedDiagnoses []string
}

// UpsertProcedure inserts or replaces one procedure record and its
// pairing list.
func (r *ReferenceStore) UpsertProcedure(ctx context.Context, rec ProcedureRecord) error {
	bundled, err := json.Marshal(rec.Info.BundledWith)
	if err != nil {
		return fmt.Errorf("storage: marshal bundle list: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: begin reference tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO procedure_codes
		(code, active, active_from, active_until, fee_min_cents, fee_max_cents, bundled_with, restricted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Info.Code, rec.Info.Active,
		nullableTime(rec.Info.ActiveFrom), nullableTime(rec.Info.ActiveUntil),
		int64(rec.Info.FeeMin), int64(rec.Info.FeeMax),
		string(bundled), rec.Restricted,
	)
	if err != nil {
		return fmt.Errorf("storage: upsert procedure %q: %w", rec.Info.Code, err)
	}

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM allowed_diagnoses WHERE procedure_code = ?`, rec.Info.Code); err != nil {
		return fmt.Errorf("storage: clear pairings for %q: %w", rec.Info.Code, err)
	}
	if rec.Restricted {
		for _, dx := range rec.AllowedDiagnoses {
			if _, err = tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO allowed_diagnoses (procedure_code, diagnosis_code)
				VALUES (?, ?)`, rec.Info.Code, dx); err != nil {
				return fmt.Errorf("storage: insert pairing %q/%q: %w", rec.Info.Code, dx, err)
			}
		}
	}

	return tx.Commit()
}

// UpsertProviderLinks inserts or replaces a provider's link counts.
func (r *ReferenceStore) UpsertProviderLinks(ctx context.Context, providerID string, facilityLinks, payerLinks int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO provider_links (provider_id, facility_links, payer_links)
		VALUES (?, ?, ?)`, providerID, facilityLinks, payerLinks)
	if err != nil {
		return fmt.Errorf("storage: upsert provider links %q: %w", providerID, err)
	}
	return nil
}

// Procedure returns the reference record for a procedure code, or
// (nil, nil) if the code is not in the reference set.
func (r *ReferenceStore) Procedure(ctx context.Context, code string) (*enrichment.ProcedureInfo, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT code, active, active_from, active_until, fee_min_cents, fee_max_cents, bundled_with
		FROM procedure_codes WHERE code = ?`, code)

	var info enrichment.ProcedureInfo
	var from, until sql.NullTime
	var feeMin, feeMax int64
	var bundled string
	err := row.Scan(&info.Code, &info.Active, &from, &until, &feeMin, &feeMax, &bundled)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: load procedure %q: %w", code, err)
	}

	if from.Valid {
		info.ActiveFrom = from.Time
	}
	if until.Valid {
		info.ActiveUntil = until.Time
	}
	info.FeeMin = claim.Money(feeMin)
	info.FeeMax = claim.Money(feeMax)
	if err := json.Unmarshal([]byte(bundled), &info.BundledWith); err != nil {
		return nil, fmt.Errorf("storage: decode bundle list for %q: %w", code, err)
	}
	return &info, nil
}

// AllowedDiagnoses returns the diagnosis pairing list for a procedure
// code. A nil slice with a nil error means the code carries no pairing
// list; a non-nil empty slice means the list exists and approves nothing.
func (r *ReferenceStore) AllowedDiagnoses(ctx context.Context, procedureCode string) ([]string, error) {
	var restricted bool
	err := r.db.QueryRowContext(ctx,
		`SELECT restricted FROM procedure_codes WHERE code = ?`, procedureCode).Scan(&restricted)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: load restriction for %q: %w", procedureCode, err)
	}
	if !restricted {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT diagnosis_code FROM allowed_diagnoses
		WHERE procedure_code = ? ORDER BY diagnosis_code`, procedureCode)
	if err != nil {
		return nil, fmt.Errorf("storage: load pairings for %q: %w", procedureCode, err)
	}
	defer rows.Close()

	diagnoses := make([]string, 0, 4)
	for rows.Next() {
		var dx string
		if err := rows.Scan(&dx); err != nil {
			return nil, fmt.Errorf("storage: scan pairing row: %w", err)
		}
		diagnoses = append(diagnoses, dx)
	}
	return diagnoses, rows.Err()
}

// ProviderMembership returns a provider's facility and payer link counts.
// An unknown provider has zero links.
func (r *ReferenceStore) ProviderMembership(ctx context.Context, providerID string) (facilityLinks, payerLinks int, err error) {
	err = r.db.QueryRowContext(ctx, `
		SELECT facility_links, payer_links FROM provider_links
		WHERE provider_id = ?`, providerID).Scan(&facilityLinks, &payerLinks)
	if err == sql.ErrNoRows {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("storage: load provider links %q: %w", providerID, err)
	}
	return facilityLinks, payerLinks, nil
}

func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
