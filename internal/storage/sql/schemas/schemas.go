package schemas

// The entity column carries the full resource as JSON; the remaining
// columns exist for filtering and uniqueness. Status-bearing columns are
// kept in sync with the entity on every write.

const SQLITE_SCHEMA = `
CREATE TABLE IF NOT EXISTS tournaments (
    id TEXT PRIMARY KEY,
    category TEXT NOT NULL,
    phase TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    entity TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS participants (
    id TEXT PRIMARY KEY,
    tournament_id TEXT NOT NULL,
    hotkey TEXT NOT NULL,
    registration_order INTEGER NOT NULL,
    status TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    entity TEXT NOT NULL,
    UNIQUE (tournament_id, hotkey),
    UNIQUE (tournament_id, registration_order)
);

CREATE TABLE IF NOT EXISTS epochs (
    id TEXT PRIMARY KEY,
    tournament_id TEXT NOT NULL,
    status TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    entity TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    tournament_id TEXT NOT NULL,
    hotkey TEXT NOT NULL,
    test_date TEXT NOT NULL,
    network TEXT NOT NULL,
    window_days INTEGER NOT NULL,
    run_order INTEGER NOT NULL,
    status TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    entity TEXT NOT NULL,
    UNIQUE (tournament_id, hotkey, test_date, network, window_days)
);

CREATE TABLE IF NOT EXISTS results (
    id TEXT PRIMARY KEY,
    tournament_id TEXT NOT NULL,
    hotkey TEXT NOT NULL,
    rank INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    entity TEXT NOT NULL,
    UNIQUE (tournament_id, hotkey)
);

CREATE TABLE IF NOT EXISTS baselines (
    id TEXT PRIMARY KEY,
    category TEXT NOT NULL,
    status TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    entity TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tournaments_category_phase
ON tournaments (category, phase);

CREATE INDEX IF NOT EXISTS idx_participants_tournament
ON participants (tournament_id, registration_order);

CREATE INDEX IF NOT EXISTS idx_runs_tournament_date
ON runs (tournament_id, test_date);

CREATE INDEX IF NOT EXISTS idx_runs_tournament_hotkey
ON runs (tournament_id, hotkey);

CREATE INDEX IF NOT EXISTS idx_results_tournament
ON results (tournament_id, rank);

CREATE INDEX IF NOT EXISTS idx_baselines_category_status
ON baselines (category, status);
`

const POSTGRES_SCHEMA = `
CREATE TABLE IF NOT EXISTS tournaments (
    id TEXT PRIMARY KEY,
    category TEXT NOT NULL,
    phase TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    entity JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS participants (
    id TEXT PRIMARY KEY,
    tournament_id TEXT NOT NULL,
    hotkey TEXT NOT NULL,
    registration_order INTEGER NOT NULL,
    status TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    entity JSONB NOT NULL,
    UNIQUE (tournament_id, hotkey),
    UNIQUE (tournament_id, registration_order)
);

CREATE TABLE IF NOT EXISTS epochs (
    id TEXT PRIMARY KEY,
    tournament_id TEXT NOT NULL,
    status TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    entity JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    tournament_id TEXT NOT NULL,
    hotkey TEXT NOT NULL,
    test_date TEXT NOT NULL,
    network TEXT NOT NULL,
    window_days INTEGER NOT NULL,
    run_order INTEGER NOT NULL,
    status TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    entity JSONB NOT NULL,
    UNIQUE (tournament_id, hotkey, test_date, network, window_days)
);

CREATE TABLE IF NOT EXISTS results (
    id TEXT PRIMARY KEY,
    tournament_id TEXT NOT NULL,
    hotkey TEXT NOT NULL,
    rank INTEGER NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    entity JSONB NOT NULL,
    UNIQUE (tournament_id, hotkey)
);

CREATE TABLE IF NOT EXISTS baselines (
    id TEXT PRIMARY KEY,
    category TEXT NOT NULL,
    status TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    entity JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tournaments_category_phase
ON tournaments (category, phase);

CREATE INDEX IF NOT EXISTS idx_participants_tournament
ON participants (tournament_id, registration_order);

CREATE INDEX IF NOT EXISTS idx_runs_tournament_date
ON runs (tournament_id, test_date);

CREATE INDEX IF NOT EXISTS idx_runs_tournament_hotkey
ON runs (tournament_id, hotkey);

CREATE INDEX IF NOT EXISTS idx_results_tournament
ON results (tournament_id, rank);

CREATE INDEX IF NOT EXISTS idx_baselines_category_status
ON baselines (category, status);
`

func SchemaForDriver(driver string) string {
	switch driver {
	case "sqlite":
		return SQLITE_SCHEMA
	case "pgx":
		return POSTGRES_SCHEMA
	default:
		return ""
	}
}
