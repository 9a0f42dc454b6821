package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jonathan/intern-autoapply/internal/types"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS submissions (
	link         TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	company      TEXT NOT NULL,
	submitted_at TEXT NOT NULL
)`

// SQLiteStore keeps the ledger in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite ledger path is required")
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite ledger: %w", err)
	}
	db.SetMaxOpenConns(1) // one writer
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite ledger: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create submissions table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Has reports whether link has been recorded.
func (s *SQLiteStore) Has(ctx context.Context, link string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM submissions WHERE link = ?`, types.CanonicalLink(link)).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query ledger: %w", err)
	}
	return true, nil
}

// Record inserts rec unless its link is already present.
func (s *SQLiteStore) Record(ctx context.Context, rec types.SubmissionRecord) error {
	rec, err := normalize(rec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO submissions (link, title, company, submitted_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (link) DO NOTHING`,
		rec.Link, rec.Title, rec.Company, rec.Timestamp.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to record submission: %w", err)
	}
	return nil
}

// Records returns every record in insertion order.
func (s *SQLiteStore) Records(ctx context.Context) ([]types.SubmissionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT link, title, company, submitted_at FROM submissions ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []types.SubmissionRecord
	for rows.Next() {
		var rec types.SubmissionRecord
		var at string
		if err := rows.Scan(&rec.Link, &rec.Title, &rec.Company, &at); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		if rec.Timestamp, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("bad timestamp for %s: %w", rec.Link, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
