package listing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonathan/intern-autoapply/internal/types"
)

// CSVHeader is the column order of the postings file.
var CSVHeader = []string{"Title", "Company", "Location", "Stipend", "Duration", "Link", "Skills", "Who can apply", "Description"}

func row(p types.Posting) []string {
	return []string{p.Title, p.Company, p.Location, p.Stipend, p.Duration, p.Link, p.Skills, p.WhoCanApply, p.Description}
}

// WriteCSV writes the header and one row per posting.
func WriteCSV(w io.Writer, postings []types.Posting) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, p := range postings {
		if err := cw.Write(row(p)); err != nil {
			return fmt.Errorf("failed to write CSV row for %s: %w", p.Link, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reads postings by header name, so column order does not matter.
// Rows whose Link is missing or not a URL are dropped; other empty fields become "N/A".
func ReadCSV(r io.Reader) ([]types.Posting, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	if _, ok := col["Link"]; !ok {
		return nil, fmt.Errorf("CSV has no Link column")
	}

	get := func(rec []string, name string) string {
		if i, ok := col[name]; ok && i < len(rec) {
			return rec[i]
		}
		return ""
	}

	var postings []types.Posting
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}

		p := types.Posting{
			Title:       get(rec, "Title"),
			Company:     get(rec, "Company"),
			Location:    get(rec, "Location"),
			Stipend:     get(rec, "Stipend"),
			Duration:    get(rec, "Duration"),
			Link:        get(rec, "Link"),
			Skills:      get(rec, "Skills"),
			WhoCanApply: get(rec, "Who can apply"),
			Description: get(rec, "Description"),
		}.WithDefaults()

		if err := p.Validate(); err != nil {
			log.Printf("[LISTING] Dropped CSV line %d: unusable link %q", line, p.Link)
			continue
		}
		postings = append(postings, p)
	}
	return postings, nil
}

// SaveCSV replaces the postings file at path.
func SaveCSV(path string, postings []types.Posting) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create postings file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := WriteCSV(tmp, postings); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write postings file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace postings file: %w", err)
	}
	return nil
}

// LoadCSV reads the postings file at path.
func LoadCSV(path string) ([]types.Posting, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("postings file not found: %w", err)
		}
		return nil, fmt.Errorf("failed to open postings file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadCSV(f)
}
