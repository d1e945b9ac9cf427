package db

import (
	"database/sql"
	"fmt"
	"time"
)

// Metadata keys written by the CLI.
const (
	MetaLastImportFile = "last_import_file"
)

// ImportRecord represents an import history record.
type ImportRecord struct {
	ID            int64
	Fingerprint   string
	Kind          string
	TxnDate       string
	Payee         string
	SourceFile    string
	BeancountFile string
	ImportedAt    time.Time
}

// ImportHistory manages import history operations.
type ImportHistory struct {
	conn *Connection
}

// NewImportHistory creates a new ImportHistory instance.
func NewImportHistory(conn *Connection) *ImportHistory {
	return &ImportHistory{conn: conn}
}

const insertImport = `
	INSERT INTO import_history (fingerprint, kind, txn_date, payee, source_file, beancount_file)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(fingerprint) DO UPDATE SET
		kind = excluded.kind,
		txn_date = excluded.txn_date,
		payee = excluded.payee,
		source_file = excluded.source_file,
		beancount_file = excluded.beancount_file,
		imported_at = CURRENT_TIMESTAMP
`

// RecordImport records an imported row.
// If the fingerprint already exists, the record is updated.
func (h *ImportHistory) RecordImport(record ImportRecord) error {
	_, err := h.conn.Exec(insertImport,
		record.Fingerprint,
		record.Kind,
		record.TxnDate,
		record.Payee,
		record.SourceFile,
		record.BeancountFile,
	)
	if err != nil {
		return fmt.Errorf("failed to record import: %w", err)
	}
	return nil
}

// RecordImports records several rows in one database transaction.
func (h *ImportHistory) RecordImports(records []ImportRecord) error {
	return h.conn.Transaction(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(insertImport)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, record := range records {
			if _, err := stmt.Exec(
				record.Fingerprint,
				record.Kind,
				record.TxnDate,
				record.Payee,
				record.SourceFile,
				record.BeancountFile,
			); err != nil {
				return fmt.Errorf("failed to record import %s: %w", record.Fingerprint, err)
			}
		}
		return nil
	})
}

// IsImported checks if a row has been imported.
func (h *ImportHistory) IsImported(fingerprint string) (bool, error) {
	var count int
	err := h.conn.QueryRow(`SELECT COUNT(*) FROM import_history WHERE fingerprint = ?`, fingerprint).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check if imported: %w", err)
	}
	return count > 0, nil
}

// GetImportRecord retrieves a record by fingerprint. It returns nil when
// the row was never imported.
func (h *ImportHistory) GetImportRecord(fingerprint string) (*ImportRecord, error) {
	query := `
		SELECT id, fingerprint, kind, txn_date, payee, source_file, beancount_file, imported_at
		FROM import_history
		WHERE fingerprint = ?
	`

	var record ImportRecord
	err := h.conn.QueryRow(query, fingerprint).Scan(
		&record.ID,
		&record.Fingerprint,
		&record.Kind,
		&record.TxnDate,
		&record.Payee,
		&record.SourceFile,
		&record.BeancountFile,
		&record.ImportedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get import record: %w", err)
	}

	return &record, nil
}

// ImportedFingerprints returns the set of all imported fingerprints.
// This is useful for bulk filtering.
func (h *ImportHistory) ImportedFingerprints() (map[string]bool, error) {
	rows, err := h.conn.Query(`SELECT fingerprint FROM import_history`)
	if err != nil {
		return nil, fmt.Errorf("failed to get imported fingerprints: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, fmt.Errorf("failed to scan fingerprint: %w", err)
		}
		seen[fp] = true
	}

	return seen, rows.Err()
}

// DeleteImport deletes an import record.
// Use case: force re-import of a row.
func (h *ImportHistory) DeleteImport(fingerprint string) (bool, error) {
	result, err := h.conn.Exec(`DELETE FROM import_history WHERE fingerprint = ?`, fingerprint)
	if err != nil {
		return false, fmt.Errorf("failed to delete import record: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

// Stats represents import statistics.
type Stats struct {
	TotalRows  int
	ByKind     map[string]int
	FirstDate  sql.NullString
	LastDate   sql.NullString
	LastImport sql.NullString
}

// GetStats retrieves import statistics.
func (h *ImportHistory) GetStats() (*Stats, error) {
	stats := Stats{ByKind: make(map[string]int)}

	err := h.conn.QueryRow(`SELECT COUNT(*), MIN(txn_date), MAX(txn_date), MAX(imported_at) FROM import_history`).
		Scan(&stats.TotalRows, &stats.FirstDate, &stats.LastDate, &stats.LastImport)
	if err != nil {
		return nil, fmt.Errorf("failed to get import totals: %w", err)
	}

	rows, err := h.conn.Query(`SELECT kind, COUNT(*) FROM import_history GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("failed to get counts by kind: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("failed to scan kind count: %w", err)
		}
		stats.ByKind[kind] = count
	}

	return &stats, rows.Err()
}

// GetMetadata retrieves a metadata value.
func (h *ImportHistory) GetMetadata(key string) (string, error) {
	var value string
	err := h.conn.QueryRow(`SELECT value FROM import_metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get metadata: %w", err)
	}

	return value, nil
}

// SetMetadata sets a metadata value.
func (h *ImportHistory) SetMetadata(key, value string) error {
	query := `
		INSERT INTO import_metadata (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`

	if _, err := h.conn.Exec(query, key, value); err != nil {
		return fmt.Errorf("failed to set metadata: %w", err)
	}

	return nil
}
