package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"sjsage522/fundgrubenotifier/internal/crawler"
	"sjsage522/fundgrubenotifier/internal/delta"
	"sjsage522/fundgrubenotifier/migrations"
)

// SQLite implements Storage backed by a SQLite database
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection keeps ":memory:" databases intact across calls
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection
func (s *SQLite) Close() error {
	return s.db.Close()
}

// LoadResults returns the stored snapshot in the order it was saved
func (s *SQLite) LoadResults(ctx context.Context) ([]delta.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, price, store, image, time FROM results ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []delta.Record
	for rows.Next() {
		var (
			p    crawler.Product
			seen string
		)
		if err := rows.Scan(&p.Name, &p.Price, &p.Store, &p.Image, &seen); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, seen)
		if err != nil {
			return nil, fmt.Errorf("parse result time: %w", err)
		}
		records = append(records, delta.Record{Product: p, Time: t})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return records, nil
}

// SaveResults replaces the snapshot in a single transaction
func (s *SQLite) SaveResults(ctx context.Context, records []delta.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM results`); err != nil {
		return fmt.Errorf("clear results: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO results (name, price, store, image, time) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.Name, r.Price, r.Store, r.Image, r.Time.Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("insert result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit results: %w", err)
	}
	return nil
}

// LoadErrorCategory returns the stored category, "" when none is stored
func (s *SQLite) LoadErrorCategory(ctx context.Context) (string, error) {
	var category string
	err := s.db.QueryRowContext(ctx, `SELECT category FROM error_state WHERE id = 1`).Scan(&category)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query error state: %w", err)
	}
	return category, nil
}

// SaveErrorCategory stores category, replacing any previous one
func (s *SQLite) SaveErrorCategory(ctx context.Context, category string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO error_state (id, category, updated) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET category = excluded.category, updated = excluded.updated`,
		category, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("save error state: %w", err)
	}
	return nil
}

// ClearErrorCategory removes the stored category
func (s *SQLite) ClearErrorCategory(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM error_state`); err != nil {
		return fmt.Errorf("clear error state: %w", err)
	}
	return nil
}
