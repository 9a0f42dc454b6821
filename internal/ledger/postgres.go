package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/intern-autoapply/internal/types"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS submissions (
	link         TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	company      TEXT NOT NULL,
	submitted_at TIMESTAMPTZ NOT NULL
)`

// PostgresStore keeps the ledger in PostgreSQL so several machines can share it.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to databaseURL and creates the submissions table if needed.
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required for the postgres ledger")
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create submissions table: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Has reports whether link has been recorded.
func (s *PostgresStore) Has(ctx context.Context, link string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM submissions WHERE link = $1)`, types.CanonicalLink(link),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to query ledger: %w", err)
	}
	return exists, nil
}

// Record inserts rec unless its link is already present.
func (s *PostgresStore) Record(ctx context.Context, rec types.SubmissionRecord) error {
	rec, err := normalize(rec)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO submissions (link, title, company, submitted_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (link) DO NOTHING`,
		rec.Link, rec.Title, rec.Company, rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to record submission: %w", err)
	}
	return nil
}

// Records returns every record ordered by submission time.
func (s *PostgresStore) Records(ctx context.Context) ([]types.SubmissionRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT link, title, company, submitted_at FROM submissions ORDER BY submitted_at, link`)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.SubmissionRecord, error) {
		var rec types.SubmissionRecord
		err := row.Scan(&rec.Link, &rec.Title, &rec.Company, &rec.Timestamp)
		return rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan submissions: %w", err)
	}
	return out, nil
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
