// Package db provides SQLite database management for the ZenMoney import history.
package db

// Schema defines the SQL statements to create database tables.
const Schema = `
-- Import history table
-- Tracks which ZenMoney rows have been appended to Beancount files
CREATE TABLE IF NOT EXISTS import_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    fingerprint TEXT NOT NULL UNIQUE,  -- SHA-256 of the raw row
    kind TEXT NOT NULL,                -- expense, income, transfer, ...
    txn_date TEXT NOT NULL,            -- YYYY-MM-DD
    payee TEXT NOT NULL DEFAULT '',
    source_file TEXT NOT NULL,         -- ZenMoney export the row came from
    beancount_file TEXT NOT NULL,      -- Beancount file the transaction went to
    imported_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_import_history_date
    ON import_history(txn_date);

-- Import metadata table
-- Stores key-value metadata about import runs
CREATE TABLE IF NOT EXISTS import_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// InitializeSchema initializes the database schema.
// It creates all tables if they don't exist.
func InitializeSchema(conn *Connection) error {
	if _, err := conn.Exec(Schema); err != nil {
		return err
	}
	return nil
}
