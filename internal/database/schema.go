package database

// engineSchema is the single source of truth for the engine database.
// All statements are idempotent so Migrate can run on every startup.
const engineSchema = `
CREATE TABLE IF NOT EXISTS workouts (
    id            TEXT PRIMARY KEY,
    user_id       TEXT NOT NULL,
    title         TEXT NOT NULL,
    type          TEXT NOT NULL,
    date          INTEGER NOT NULL, -- unix seconds, normalized to local noon
    duration_min  INTEGER NOT NULL DEFAULT 0,
    intensity     TEXT NOT NULL DEFAULT 'easy',
    status        TEXT NOT NULL DEFAULT 'planned',
    source        TEXT NOT NULL DEFAULT 'manual',
    confirmed     INTEGER NOT NULL DEFAULT 0,
    ai_reason     TEXT NOT NULL DEFAULT '',
    ai_confidence REAL NOT NULL DEFAULT 0,
    estimated_tss REAL NOT NULL DEFAULT 0,
    actual_tss    REAL NOT NULL DEFAULT 0,
    notes         TEXT NOT NULL DEFAULT '',
    prescription  TEXT NOT NULL DEFAULT '',
    created_at    INTEGER NOT NULL,
    updated_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_workouts_user_date ON workouts(user_id, date);

CREATE TABLE IF NOT EXISTS check_ins (
    id              TEXT PRIMARY KEY,
    user_id         TEXT NOT NULL,
    date            INTEGER NOT NULL,
    readiness       REAL NOT NULL DEFAULT 0,
    feedback        TEXT NOT NULL DEFAULT '',
    status          TEXT NOT NULL DEFAULT 'pending',
    override_reason TEXT NOT NULL DEFAULT '',
    created_at      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_check_ins_user_date ON check_ins(user_id, date);

CREATE TABLE IF NOT EXISTS proposals (
    id          TEXT PRIMARY KEY,
    user_id     TEXT NOT NULL,
    workout_id  TEXT NOT NULL DEFAULT '',
    check_in_id TEXT NOT NULL DEFAULT '',
    source_type TEXT NOT NULL,
    summary     TEXT NOT NULL DEFAULT '',
    patch       TEXT NOT NULL,
    confidence  REAL NOT NULL DEFAULT 0,
    status      TEXT NOT NULL DEFAULT 'PENDING',
    created_at  INTEGER NOT NULL,
    decided_at  INTEGER
);
CREATE INDEX IF NOT EXISTS idx_proposals_user_status ON proposals(user_id, status);

CREATE TABLE IF NOT EXISTS athletes (
    user_id           TEXT PRIMARY KEY,
    sport             TEXT NOT NULL DEFAULT 'run',
    level             TEXT NOT NULL DEFAULT 'intermediate',
    weekly_hours_goal REAL NOT NULL DEFAULT 6,
    identity_mode     TEXT NOT NULL DEFAULT 'competitive',
    rigidity          TEXT NOT NULL DEFAULT 'LOCKED_1_DAY',
    planner_enabled   INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS audit_log (
    id         TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL,
    action     TEXT NOT NULL,
    entity_id  TEXT NOT NULL DEFAULT '',
    detail     TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL
);
`
