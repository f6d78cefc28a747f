package records

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const createTimeRecordsTable = `
CREATE TABLE IF NOT EXISTS time_records (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	seconds      INTEGER NOT NULL,
	completed_at TEXT    NOT NULL,
	difficulty   TEXT    NOT NULL
);`

// SQLiteBackend keeps records in a SQLite table. Rows keep insertion order
// through their id, so equal durations load back in the order they were won.
// Transactions begin IMMEDIATE, taking the write lock up front, so updates
// from several processes run one after another.
type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLiteBackend opens (and creates if missing) the database file at dsn.
func OpenSQLiteBackend(ctx context.Context, dsn string) (*SQLiteBackend, error) {
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate")
	if err != nil {
		return nil, err
	}
	// A single connection serializes writers within the process
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, createTimeRecordsTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create time_records: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (backend *SQLiteBackend) Load(ctx context.Context) ([]TimeRecord, error) {
	return loadTimeRecords(ctx, backend.db)
}

func loadTimeRecords(ctx context.Context, db queryer) ([]TimeRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT seconds, completed_at, difficulty
		FROM time_records
		ORDER BY seconds ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []TimeRecord
	for rows.Next() {
		var (
			record      TimeRecord
			completedAt string
		)
		if err := rows.Scan(&record.Seconds, &completedAt, &record.Difficulty); err != nil {
			return nil, err
		}
		record.CompletedAt, _ = time.Parse(time.RFC3339, completedAt)
		records = append(records, record)
	}
	return records, rows.Err()
}

// Update re-reads and replaces the table contents in one transaction.
func (backend *SQLiteBackend) Update(ctx context.Context, change Change) ([]TimeRecord, error) {
	tx, err := backend.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	current, err := loadTimeRecords(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("read time_records: %w", err)
	}
	updated := change(current)

	if _, err := tx.ExecContext(ctx, `DELETE FROM time_records`); err != nil {
		return nil, fmt.Errorf("clear time_records: %w", err)
	}
	for _, record := range updated {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO time_records (seconds, completed_at, difficulty) VALUES (?, ?, ?)`,
			record.Seconds, record.CompletedAt.Format(time.RFC3339), record.Difficulty,
		); err != nil {
			return nil, fmt.Errorf("insert time record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit time_records: %w", err)
	}
	return updated, nil
}

func (backend *SQLiteBackend) Close() error {
	return backend.db.Close()
}
