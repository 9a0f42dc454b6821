package ledger

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"github.com/jonathan/intern-autoapply/internal/schemas"
	"github.com/jonathan/intern-autoapply/internal/types"
)

// FileStore keeps the ledger in two files: a line-per-link log and a JSON array of
// full records. An OS lock on "<log>.lock" keeps a second process out.
type FileStore struct {
	logPath     string
	detailsPath string
	lock        *flock.Flock

	mu      sync.Mutex
	links   map[string]struct{}
	records []types.SubmissionRecord
}

// OpenFile loads both files (missing files start empty) and takes the writer lock.
func OpenFile(logPath, detailsPath string) (*FileStore, error) {
	if logPath == "" || detailsPath == "" {
		return nil, fmt.Errorf("ledger log and details paths are required")
	}

	lock := flock.New(logPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock ledger: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", logPath, ErrLocked)
	}

	s := &FileStore{
		logPath:     logPath,
		detailsPath: detailsPath,
		lock:        lock,
		links:       make(map[string]struct{}),
	}
	if err := s.load(); err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	return s, nil
}

// ReadFile returns the records in the details file without taking the writer lock,
// so a listing can run while another process records. The details file is only ever
// replaced by rename, so the read sees a whole file.
func ReadFile(ctx context.Context, logPath, detailsPath string) ([]types.SubmissionRecord, error) {
	s := &FileStore{
		logPath:     logPath,
		detailsPath: detailsPath,
		links:       make(map[string]struct{}),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s.Records(ctx)
}

func (s *FileStore) load() error {
	f, err := os.Open(s.logPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return fmt.Errorf("failed to open ledger log: %w", err)
	default:
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if link := types.CanonicalLink(scanner.Text()); link != "" {
				s.links[link] = struct{}{}
			}
		}
		_ = f.Close()
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read ledger log: %w", err)
		}
	}

	data, err := os.ReadFile(s.detailsPath)
	if errors.Is(err, os.ErrNotExist) || (err == nil && strings.TrimSpace(string(data)) == "") {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read ledger details: %w", err)
	}
	if err := schemas.Validate(schemas.SubmissionRecords, data); err != nil {
		return fmt.Errorf("ledger details %s: %w", s.detailsPath, err)
	}
	if err := json.Unmarshal(data, &s.records); err != nil {
		return fmt.Errorf("failed to parse ledger details: %w", err)
	}

	// A record whose log line was lost still counts as submitted.
	for i := range s.records {
		s.records[i].Link = types.CanonicalLink(s.records[i].Link)
		rec := s.records[i]
		if _, ok := s.links[rec.Link]; !ok {
			log.Printf("[LEDGER] %s is in the details file but not the log; treating it as submitted", rec.Link)
			s.links[rec.Link] = struct{}{}
		}
	}
	return nil
}

// Has reports whether link has been recorded.
func (s *FileStore) Has(_ context.Context, link string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.links[types.CanonicalLink(link)]
	return ok, nil
}

// Record appends the link to the log, then rewrites the details file.
func (s *FileStore) Record(_ context.Context, rec types.SubmissionRecord) error {
	rec, err := normalize(rec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.links[rec.Link]; ok {
		return nil
	}

	if err := appendLine(s.logPath, rec.Link); err != nil {
		return err
	}
	s.links[rec.Link] = struct{}{}

	records := append(s.records, rec)
	if err := writeJSONAtomic(s.detailsPath, records); err != nil {
		return err
	}
	s.records = records
	log.Printf("[LEDGER] Recorded %s", rec.Link)
	return nil
}

// Records returns a copy of every record.
func (s *FileStore) Records(_ context.Context) ([]types.SubmissionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.SubmissionRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

// Close releases the writer lock.
func (s *FileStore) Close() error {
	return s.lock.Unlock()
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open ledger log: %w", err)
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to append to ledger log: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to sync ledger log: %w", err)
	}
	return f.Close()
}

func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal ledger details: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create ledger details: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write ledger details: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync ledger details: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write ledger details: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace ledger details: %w", err)
	}
	return nil
}
