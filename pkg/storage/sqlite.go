package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"veritas-health/sentinel/pkg/claim"
	"veritas-health/sentinel/pkg/enrichment"
	"veritas-health/sentinel/pkg/evaluation"
	"veritas-health/sentinel/pkg/rules"
)

// Config contains configuration for the claim store.
type Config struct {
	// Path is the database file path.
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// BusyTimeout is how long to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// DefaultConfig returns the default claim store configuration.
func DefaultConfig() Config {
	return Config{
		Path:         "data/claims.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		BusyTimeout:  5 * time.Second,
	}
}

// Store is the SQLite claim and evaluation-result store. It implements
// the claim-loading, history-enrichment and result-sink boundaries.
type Store struct {
	db     *sql.DB
	config Config
	logger *slog.Logger
}

// Compile-time boundary checks.
var (
	_ evaluation.ClaimStore   = (*Store)(nil)
	_ evaluation.ResultSink   = (*Store)(nil)
	_ enrichment.HistoryStore = (*Store)(nil)
)

// NewStore opens (creating if needed) the claim database at config.Path.
func NewStore(config Config, logger *slog.Logger) (*Store, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("storage: path cannot be empty")
	}
	def := DefaultConfig()
	if config.MaxOpenConns <= 0 {
		config.MaxOpenConns = def.MaxOpenConns
	}
	if config.MaxIdleConns <= 0 {
		config.MaxIdleConns = def.MaxIdleConns
	}
	if config.BusyTimeout <= 0 {
		config.BusyTimeout = def.BusyTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "storage.claims")

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", config.Path, err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &Store{db: db, config: config, logger: logger}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("claim store opened",
		"path", config.Path,
		"schema_version", SchemaVersion,
	)
	return s, nil
}

func (s *Store) initialize() error {
	if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("storage: enable wal: %w", err)
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", s.config.BusyTimeout.Milliseconds())); err != nil {
		return fmt.Errorf("storage: set busy timeout: %w", err)
	}
	if _, err := s.db.Exec(Schema); err != nil {
		return fmt.Errorf("storage: create schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveClaim inserts or replaces a claim.
func (s *Store) SaveClaim(ctx context.Context, c claim.Claim) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO claims
		(id, patient_id, provider_id, payer_id, procedure_code, diagnosis_code,
		 billed_amount_cents, service_date, bill_date, documentation)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.PatientID, c.ProviderID, c.PayerID, c.ProcedureCode, c.DiagnosisCode,
		int64(c.BilledAmount), c.ServiceDate, c.BillDate, c.Documentation,
	)
	if err != nil {
		return fmt.Errorf("storage: save claim %q: %w", c.ID, err)
	}
	return nil
}

// Claim returns the claim with the given ID, or an error wrapping
// evaluation.ErrClaimNotFound.
func (s *Store) Claim(ctx context.Context, id string) (claim.Claim, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, patient_id, provider_id, payer_id, procedure_code, diagnosis_code,
		       billed_amount_cents, service_date, bill_date, documentation
		FROM claims WHERE id = ?`, id)

	var c claim.Claim
	var cents int64
	err := row.Scan(&c.ID, &c.PatientID, &c.ProviderID, &c.PayerID, &c.ProcedureCode,
		&c.DiagnosisCode, &cents, &c.ServiceDate, &c.BillDate, &c.Documentation)
	if err == sql.ErrNoRows {
		return claim.Claim{}, fmt.Errorf("storage: claim %q: %w", id, evaluation.ErrClaimNotFound)
	}
	if err != nil {
		return claim.Claim{}, fmt.Errorf("storage: load claim %q: %w", id, err)
	}
	c.BilledAmount = claim.Money(cents)
	return c, nil
}

// PendingClaimIDs returns up to limit IDs of claims that have no stored
// evaluation yet, oldest bill date first.
func (s *Store) PendingClaimIDs(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM claims
		WHERE id NOT IN (SELECT claim_id FROM evaluations)
		ORDER BY bill_date ASC, id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: list pending claims: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("storage: scan pending claim id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ProviderClaims returns the provider's claims with service dates at or
// before until, ordered by service date ascending. The claim with
// excludeClaimID is left out: a stored claim must not appear in its own
// baseline.
func (s *Store) ProviderClaims(ctx context.Context, providerID string, until time.Time, excludeClaimID string) ([]enrichment.HistoricalClaim, error) {
	return s.historicalClaims(ctx, "provider_id", providerID, until, excludeClaimID)
}

// PatientClaims returns the patient's claims with service dates at or
// before until, ordered by service date ascending, excluding the claim
// with excludeClaimID.
func (s *Store) PatientClaims(ctx context.Context, patientID string, until time.Time, excludeClaimID string) ([]enrichment.HistoricalClaim, error) {
	return s.historicalClaims(ctx, "patient_id", patientID, until, excludeClaimID)
}

func (s *Store) historicalClaims(ctx context.Context, column, id string, until time.Time, excludeClaimID string) ([]enrichment.HistoricalClaim, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, patient_id, provider_id, procedure_code, service_date, billed_amount_cents
		FROM claims WHERE %s = ? AND service_date <= ? AND id != ?
		ORDER BY service_date ASC`, column),
		id, until, excludeClaimID)
	if err != nil {
		return nil, fmt.Errorf("storage: history for %s %q: %w", column, id, err)
	}
	defer rows.Close()

	var claims []enrichment.HistoricalClaim
	for rows.Next() {
		var h enrichment.HistoricalClaim
		var cents int64
		if err := rows.Scan(&h.ClaimID, &h.PatientID, &h.ProviderID, &h.ProcedureCode,
			&h.ServiceDate, &cents); err != nil {
			return nil, fmt.Errorf("storage: scan history row: %w", err)
		}
		h.Amount = claim.Money(cents)
		claims = append(claims, h)
	}
	return claims, rows.Err()
}

// SaveResult persists an evaluation result and its per-rule outcomes in
// one transaction.
func (s *Store) SaveResult(ctx context.Context, result *evaluation.EvaluationResult) error {
	engineJSON, err := json.Marshal(result.EngineOutcomes)
	if err != nil {
		return fmt.Errorf("storage: marshal engine outcomes: %w", err)
	}
	contribJSON, err := json.Marshal(result.Contributions)
	if err != nil {
		return fmt.Errorf("storage: marshal contributions: %w", err)
	}
	warnings := result.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	warningsJSON, err := json.Marshal(warnings)
	if err != nil {
		return fmt.Errorf("storage: marshal warnings: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: begin result tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO evaluations
		(evaluation_id, claim_id, evaluated_at, compliance_score, rules_completed,
		 chain_terminated, composite_score, score_available, risk_level,
		 engine_outcomes, contributions, warnings, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.EvaluationID, result.ClaimID, result.EvaluatedAt, result.ComplianceScore,
		result.RulesCompleted, result.ChainTerminated, result.CompositeScore,
		result.ScoreAvailable, result.RiskLevel,
		string(engineJSON), string(contribJSON), string(warningsJSON),
		result.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("storage: insert evaluation %q: %w", result.EvaluationID, err)
	}

	for _, out := range result.RuleOutcomes {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO evaluation_rules
			(evaluation_id, rule_id, priority, category, result, severity, message, warning)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			result.EvaluationID, out.RuleID, out.Priority, string(out.Category),
			string(out.Result), out.Severity, out.Message, out.Warning,
		)
		if err != nil {
			return fmt.Errorf("storage: insert rule outcome %q/%q: %w",
				result.EvaluationID, out.RuleID, err)
		}
	}

	return tx.Commit()
}

// ResultsBetween returns the evaluation results with evaluated_at in
// [from, to), oldest first, with their per-rule outcomes reattached.
func (s *Store) ResultsBetween(ctx context.Context, from, to time.Time) ([]*evaluation.EvaluationResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT evaluation_id, claim_id, evaluated_at, compliance_score, rules_completed,
		       chain_terminated, composite_score, score_available, risk_level,
		       engine_outcomes, contributions, warnings, duration_ms
		FROM evaluations
		WHERE evaluated_at >= ? AND evaluated_at < ?
		ORDER BY evaluated_at ASC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("storage: list evaluations: %w", err)
	}
	defer rows.Close()

	var results []*evaluation.EvaluationResult
	for rows.Next() {
		var r evaluation.EvaluationResult
		var engineJSON, contribJSON, warningsJSON string
		var durationMS int64
		err := rows.Scan(&r.EvaluationID, &r.ClaimID, &r.EvaluatedAt, &r.ComplianceScore,
			&r.RulesCompleted, &r.ChainTerminated, &r.CompositeScore, &r.ScoreAvailable,
			&r.RiskLevel, &engineJSON, &contribJSON, &warningsJSON, &durationMS)
		if err != nil {
			return nil, fmt.Errorf("storage: scan evaluation row: %w", err)
		}
		if err := json.Unmarshal([]byte(engineJSON), &r.EngineOutcomes); err != nil {
			return nil, fmt.Errorf("storage: decode engine outcomes %q: %w", r.EvaluationID, err)
		}
		if err := json.Unmarshal([]byte(contribJSON), &r.Contributions); err != nil {
			return nil, fmt.Errorf("storage: decode contributions %q: %w", r.EvaluationID, err)
		}
		if err := json.Unmarshal([]byte(warningsJSON), &r.Warnings); err != nil {
			return nil, fmt.Errorf("storage: decode warnings %q: %w", r.EvaluationID, err)
		}
		r.Duration = time.Duration(durationMS) * time.Millisecond
		results = append(results, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, r := range results {
		outcomes, err := s.ruleOutcomes(ctx, r.EvaluationID)
		if err != nil {
			return nil, err
		}
		r.RuleOutcomes = outcomes
	}
	return results, nil
}

func (s *Store) ruleOutcomes(ctx context.Context, evaluationID string) ([]rules.Outcome, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rule_id, priority, category, result, severity, message, warning
		FROM evaluation_rules WHERE evaluation_id = ?
		ORDER BY priority ASC`, evaluationID)
	if err != nil {
		return nil, fmt.Errorf("storage: rule outcomes %q: %w", evaluationID, err)
	}
	defer rows.Close()

	var outcomes []rules.Outcome
	for rows.Next() {
		var out rules.Outcome
		var category, result string
		if err := rows.Scan(&out.RuleID, &out.Priority, &category, &result,
			&out.Severity, &out.Message, &out.Warning); err != nil {
			return nil, fmt.Errorf("storage: scan rule outcome: %w", err)
		}
		out.Category = rules.Category(category)
		out.Result = rules.Result(result)
		outcomes = append(outcomes, out)
	}
	return outcomes, rows.Err()
}

// ResultCount returns how many evaluation results are stored.
func (s *Store) ResultCount(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM evaluations`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("storage: count evaluations: %w", err)
	}
	return n, nil
}

// DeleteResultsBefore removes evaluation results older than cutoff,
// including their per-rule rows, and returns how many evaluations were
// deleted. The retention scheduler calls this periodically.
func (s *Store) DeleteResultsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("storage: begin retention tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		DELETE FROM evaluation_rules WHERE evaluation_id IN
		(SELECT evaluation_id FROM evaluations WHERE evaluated_at < ?)`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("storage: delete rule outcomes: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM evaluations WHERE evaluated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("storage: delete evaluations: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("storage: rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info("expired evaluation results deleted",
			"deleted", deleted,
			"cutoff", cutoff,
		)
	}
	return deleted, nil
}
