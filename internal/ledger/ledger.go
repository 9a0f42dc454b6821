// Package ledger persists which postings have already been applied to, keyed by canonical link.
// A link is recorded at most once and never removed.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonathan/intern-autoapply/internal/config"
	"github.com/jonathan/intern-autoapply/internal/types"
)

// Store is the submission ledger.
type Store interface {
	// Has reports whether the canonical form of link has been recorded.
	Has(ctx context.Context, link string) (bool, error)
	// Record adds rec. Recording a link that is already present is a no-op.
	Record(ctx context.Context, rec types.SubmissionRecord) error
	// Records returns every record in submission order.
	Records(ctx context.Context) ([]types.SubmissionRecord, error)
	Close() error
}

// ErrLocked is returned when another process holds the file ledger.
var ErrLocked = errors.New("ledger is locked by another process")

// Open returns the backend selected by cfg.LedgerBackend (file when empty).
func Open(ctx context.Context, cfg config.Config) (Store, error) {
	switch cfg.LedgerBackend {
	case "", config.LedgerFile:
		return OpenFile(cfg.LedgerLog, cfg.LedgerDetails)
	case config.LedgerSQLite:
		return OpenSQLite(ctx, cfg.SQLitePath)
	case config.LedgerPostgres:
		return OpenPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.LedgerBackend)
	}
}

// ReadRecords lists the ledger selected by cfg without holding it open. The file backend
// reads without the writer lock; the database backends allow concurrent readers anyway.
func ReadRecords(ctx context.Context, cfg config.Config) ([]types.SubmissionRecord, error) {
	if cfg.LedgerBackend == "" || cfg.LedgerBackend == config.LedgerFile {
		return ReadFile(ctx, cfg.LedgerLog, cfg.LedgerDetails)
	}
	store, err := Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()
	return store.Records(ctx)
}

func normalize(rec types.SubmissionRecord) (types.SubmissionRecord, error) {
	rec.Link = types.CanonicalLink(rec.Link)
	if rec.Link == "" {
		return rec, fmt.Errorf("submission record has no link")
	}
	if rec.Timestamp.IsZero() {
		return rec, fmt.Errorf("submission record for %s has no timestamp", rec.Link)
	}
	rec.Timestamp = rec.Timestamp.UTC()
	return rec, nil
}
