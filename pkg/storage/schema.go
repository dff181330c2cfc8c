package storage

// SchemaVersion is the current claim database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements creating the claim database schema.
const Schema = `
-- Claims under management. Historical claims are simply other rows of
-- this table; enrichment reads them through the provider/patient indexes.
CREATE TABLE IF NOT EXISTS claims (
    id TEXT PRIMARY KEY,
    patient_id TEXT NOT NULL,
    provider_id TEXT NOT NULL,
    payer_id TEXT NOT NULL DEFAULT '',
    procedure_code TEXT NOT NULL,
    diagnosis_code TEXT NOT NULL DEFAULT '',
    billed_amount_cents INTEGER NOT NULL,
    service_date TIMESTAMP NOT NULL,
    bill_date TIMESTAMP NOT NULL,
    documentation TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_claims_provider ON claims(provider_id, service_date);
CREATE INDEX IF NOT EXISTS idx_claims_patient ON claims(patient_id, service_date);

-- One row per completed evaluation. Engine outcomes and contributions are
-- stored as JSON documents; per-rule outcomes get their own rows so they
-- can be queried by rule.
CREATE TABLE IF NOT EXISTS evaluations (
    evaluation_id TEXT PRIMARY KEY,
    claim_id TEXT NOT NULL,
    evaluated_at TIMESTAMP NOT NULL,
    compliance_score REAL NOT NULL,
    rules_completed BOOLEAN NOT NULL,
    chain_terminated BOOLEAN NOT NULL,
    composite_score REAL NOT NULL,
    score_available BOOLEAN NOT NULL,
    risk_level TEXT NOT NULL,
    engine_outcomes TEXT NOT NULL,
    contributions TEXT NOT NULL,
    warnings TEXT NOT NULL DEFAULT '[]',
    duration_ms INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_evaluations_claim ON evaluations(claim_id);
CREATE INDEX IF NOT EXISTS idx_evaluations_time ON evaluations(evaluated_at);

CREATE TABLE IF NOT EXISTS evaluation_rules (
    evaluation_id TEXT NOT NULL,
    rule_id TEXT NOT NULL,
    priority INTEGER NOT NULL,
    category TEXT NOT NULL,
    result TEXT NOT NULL,
    severity REAL NOT NULL,
    message TEXT NOT NULL DEFAULT '',
    warning TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (evaluation_id, rule_id)
);
`

// ReferenceSchema contains the SQL statements creating the code reference
// database schema.
const ReferenceSchema = `
CREATE TABLE IF NOT EXISTS procedure_codes (
    code TEXT PRIMARY KEY,
    active BOOLEAN NOT NULL,
    active_from TIMESTAMP,
    active_until TIMESTAMP,
    fee_min_cents INTEGER NOT NULL DEFAULT 0,
    fee_max_cents INTEGER NOT NULL DEFAULT 0,
    bundled_with TEXT NOT NULL DEFAULT '[]',
    -- restricted marks codes that carry a diagnosis pairing list; for an
    -- unrestricted code any diagnosis is acceptable.
    restricted BOOLEAN NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS allowed_diagnoses (
    procedure_code TEXT NOT NULL,
    diagnosis_code TEXT NOT NULL,
    PRIMARY KEY (procedure_code, diagnosis_code)
);

CREATE TABLE IF NOT EXISTS provider_links (
    provider_id TEXT PRIMARY KEY,
    facility_links INTEGER NOT NULL DEFAULT 0,
    payer_links INTEGER NOT NULL DEFAULT 0
);
`
