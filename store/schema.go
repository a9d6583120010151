package store

// schemaSQL is the base DDL. Later changes go through migrations.
const schemaSQL = `
-- One row per successful parse
CREATE TABLE IF NOT EXISTS parse_runs (
    id TEXT PRIMARY KEY,
    filename TEXT NOT NULL DEFAULT '',
    format TEXT NOT NULL,
    mode TEXT NOT NULL,
    method TEXT NOT NULL DEFAULT '',
    content_hash TEXT NOT NULL DEFAULT '',
    product_count INTEGER NOT NULL DEFAULT 0,
    variation_count INTEGER NOT NULL DEFAULT 0,
    warning_count INTEGER NOT NULL DEFAULT 0,
    products JSON NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_parse_runs_hash ON parse_runs(content_hash);

-- Preferred product order, position 0 first
CREATE TABLE IF NOT EXISTS product_order (
    position INTEGER PRIMARY KEY,
    code TEXT NOT NULL UNIQUE
);
`
