package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"wedding-rsvp/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS responses (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	submitted_at       TEXT NOT NULL DEFAULT '',
	contact_name       TEXT NOT NULL DEFAULT '',
	contact_email      TEXT NOT NULL DEFAULT '',
	contact_phone      TEXT NOT NULL DEFAULT '',
	attending          TEXT NOT NULL CHECK (attending IN ('Yes', 'No')),
	guest_first_name   TEXT NOT NULL DEFAULT '',
	guest_last_name    TEXT NOT NULL DEFAULT '',
	dietary_preference TEXT NOT NULL DEFAULT '',
	dietary_notes      TEXT NOT NULL DEFAULT '',
	starter_choice     TEXT NOT NULL DEFAULT '',
	main_choice        TEXT NOT NULL DEFAULT '',
	dessert_choice     TEXT NOT NULL DEFAULT '',
	comments           TEXT NOT NULL DEFAULT ''
)`

// SQLiteBackend stores responses in a SQLite table whose columns mirror models.Columns.
// Each batch runs in one transaction.
type SQLiteBackend struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the database at path
func OpenSQLite(path string) (*SQLiteBackend, error) {
	// immediate transactions take the write lock at BEGIN, so a batch never
	// fails half way on a busy database
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on&_txlock=immediate", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows one writer; the Store already serializes writes
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = FULL",
		"PRAGMA busy_timeout = 5000",
		sqliteSchema,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", firstLine(stmt), err)
		}
	}

	return &SQLiteBackend{db: db, path: path}, nil
}

var (
	sqliteColumns = strings.Join(models.Columns, ", ")
	sqliteInsert  = fmt.Sprintf("INSERT INTO responses (%s) VALUES (%s)",
		sqliteColumns, strings.TrimSuffix(strings.Repeat("?, ", len(models.Columns)), ", "))
)

func (b *SQLiteBackend) Load(ctx context.Context) ([]models.Response, error) {
	const op = "load"
	rows, err := b.db.QueryContext(ctx, "SELECT "+sqliteColumns+" FROM responses ORDER BY id")
	if err != nil {
		return nil, ioError(op, fmt.Errorf("failed to query responses: %w", err))
	}
	defer rows.Close()

	records := []models.Response{}
	fields := make([]string, len(models.Columns))
	dest := make([]any, len(fields))
	for i := range fields {
		dest[i] = &fields[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, corruptError(op, fmt.Errorf("failed to scan response row: %w", err))
		}
		rec, err := models.FromRow(fields)
		if err != nil {
			return nil, corruptError(op, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, ioError(op, fmt.Errorf("error iterating response rows: %w", err))
	}
	return records, nil
}

func (b *SQLiteBackend) Newest(ctx context.Context) (time.Time, error) {
	const op = "newest"
	var ts sql.NullString
	if err := b.db.QueryRowContext(ctx,
		"SELECT MAX(submitted_at) FROM responses WHERE submitted_at != ''").Scan(&ts); err != nil {
		return time.Time{}, ioError(op, fmt.Errorf("failed to query newest response: %w", err))
	}
	if !ts.Valid {
		return time.Time{}, nil
	}
	t, err := time.Parse(models.TimeLayout, ts.String)
	if err != nil {
		return time.Time{}, corruptError(op, fmt.Errorf("invalid submitted_at %q: %w", ts.String, err))
	}
	return t, nil
}

// LockPath returns the lock file next to the database
func (b *SQLiteBackend) LockPath() string {
	return b.path + ".lock"
}

func (b *SQLiteBackend) Append(ctx context.Context, records []models.Response) error {
	return b.inTx(ctx, "append", func(tx *sql.Tx) error {
		return insertAll(ctx, tx, records)
	})
}

func (b *SQLiteBackend) Replace(ctx context.Context, records []models.Response) error {
	return b.inTx(ctx, "replace", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM responses"); err != nil {
			return fmt.Errorf("failed to clear responses: %w", err)
		}
		return insertAll(ctx, tx, records)
	})
}

// Check opens and rolls back a write transaction
func (b *SQLiteBackend) Check(ctx context.Context) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return ioError("check", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM responses WHERE 0"); err != nil {
		return ioError("check", err)
	}
	return nil
}

func (b *SQLiteBackend) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *SQLiteBackend) inTx(ctx context.Context, op string, fn func(*sql.Tx) error) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return ioError(op, fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return ioError(op, err)
	}
	if err := tx.Commit(); err != nil {
		return ioError(op, fmt.Errorf("failed to commit: %w", err))
	}
	return nil
}

func insertAll(ctx context.Context, tx *sql.Tx, records []models.Response) error {
	stmt, err := tx.PrepareContext(ctx, sqliteInsert)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		row := r.Row()
		args := make([]any, len(row))
		for j, v := range row {
			args[j] = v
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert record %d: %w", i+1, err)
		}
	}
	return nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
