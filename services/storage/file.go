package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sjsage522/fundgrubenotifier/internal/crawler"
	"sjsage522/fundgrubenotifier/internal/delta"
)

var csvHeader = []string{"name", "price", "store", "image", "time"}

// legacyTimeLayout is the naive local timestamp found in results files
// written by earlier releases, e.g. "2026-10-19 10:00:00.123456"
const legacyTimeLayout = "2006-01-02 15:04:05.999999999"

// FileStore implements Storage with a CSV result file and a plain text
// error marker file
type FileStore struct {
	resultsPath string
	errorPath   string
}

// NewFileStore creates a store for the given files; neither has to exist yet
func NewFileStore(resultsPath, errorPath string) *FileStore {
	return &FileStore{resultsPath: resultsPath, errorPath: errorPath}
}

// LoadResults reads the result CSV. A missing file is an empty result set
func (s *FileStore) LoadResults(_ context.Context) ([]delta.Record, error) {
	f, err := os.Open(s.resultsPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open results: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(csvHeader)

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read results header: %w", err)
	}
	if strings.Join(header, ",") != strings.Join(csvHeader, ",") {
		return nil, fmt.Errorf("unexpected results header %q", strings.Join(header, ","))
	}

	var records []delta.Record
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read results: %w", err)
		}
		seen, err := parseTime(row[4])
		if err != nil {
			return nil, fmt.Errorf("parse time on line %d: %w", len(records)+2, err)
		}
		records = append(records, delta.Record{
			Product: crawler.Product{Name: row[0], Price: row[1], Store: row[2], Image: row[3]},
			Time:    seen,
		})
	}
	return records, nil
}

// parseTime reads an RFC 3339 timestamp, falling back to the legacy layout
func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err == nil {
		return t, nil
	}
	if legacy, legacyErr := time.ParseInLocation(legacyTimeLayout, value, time.Local); legacyErr == nil {
		return legacy.UTC(), nil
	}
	return time.Time{}, err
}

// SaveResults replaces the result CSV. The file is written next to the
// target and renamed so a crash never leaves half a snapshot behind
func (s *FileStore) SaveResults(_ context.Context, records []delta.Record) error {
	dir := filepath.Dir(s.resultsPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create results directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.resultsPath)+".*")
	if err != nil {
		return fmt.Errorf("create results file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	w := csv.NewWriter(tmp)
	if err := w.Write(csvHeader); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write results header: %w", err)
	}
	for _, rec := range records {
		row := []string{rec.Name, rec.Price, rec.Store, rec.Image, rec.Time.Format(time.RFC3339Nano)}
		if err := w.Write(row); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("write results: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("flush results: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close results file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.resultsPath); err != nil {
		return fmt.Errorf("replace results file: %w", err)
	}
	return nil
}

// LoadErrorCategory returns the content of the marker file
func (s *FileStore) LoadErrorCategory(_ context.Context) (string, error) {
	data, err := os.ReadFile(s.errorPath)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read error marker: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// SaveErrorCategory writes the marker file
func (s *FileStore) SaveErrorCategory(_ context.Context, category string) error {
	if err := os.MkdirAll(filepath.Dir(s.errorPath), 0o750); err != nil {
		return fmt.Errorf("create error marker directory: %w", err)
	}
	if err := os.WriteFile(s.errorPath, []byte(category), 0o644); err != nil {
		return fmt.Errorf("write error marker: %w", err)
	}
	return nil
}

// ClearErrorCategory removes the marker file
func (s *FileStore) ClearErrorCategory(_ context.Context) error {
	if err := os.Remove(s.errorPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove error marker: %w", err)
	}
	return nil
}

// Close is a no-op; files are not held open between calls
func (s *FileStore) Close() error {
	return nil
}
