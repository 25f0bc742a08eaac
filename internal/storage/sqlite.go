// Package storage provides the SQLite implementation of Storage.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/contractguard/contractguard/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS raw_texts (
		fingerprint TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS summaries (
		fingerprint TEXT PRIMARY KEY,
		summary TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS payments (
		fingerprint TEXT PRIMARY KEY,
		id TEXT NOT NULL,
		email TEXT,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_raw_texts_created_at ON raw_texts(created_at);
	CREATE INDEX IF NOT EXISTS idx_summaries_created_at ON summaries(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// UpsertRawText inserts the extracted text for a fingerprint. The table is
// write-once: a conflicting insert is a no-op, since the text is derived from
// the same bytes that produced the fingerprint.
func (s *SQLiteStorage) UpsertRawText(ctx context.Context, fingerprint, text string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO raw_texts (fingerprint, text, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(fingerprint) DO NOTHING`,
		fingerprint, text, time.Now().UTC(),
	)
	return err
}

// GetRawText returns the stored extracted text for a fingerprint.
func (s *SQLiteStorage) GetRawText(ctx context.Context, fingerprint string) (*models.RawText, error) {
	var rec models.RawText
	err := s.db.QueryRowContext(ctx,
		`SELECT fingerprint, text, created_at FROM raw_texts WHERE fingerprint = ?`,
		fingerprint,
	).Scan(&rec.Fingerprint, &rec.Text, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("raw text %s: %w", fingerprint, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// UpsertSummary inserts or overwrites the analysis result for a fingerprint.
// Overwrite keeps created_at and bumps updated_at (refresh semantics).
func (s *SQLiteStorage) UpsertSummary(ctx context.Context, fingerprint, summary string) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO summaries (fingerprint, summary, created_at, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(fingerprint) DO UPDATE SET summary = excluded.summary, updated_at = excluded.updated_at`,
		fingerprint, summary, now, now,
	)
	return err
}

// GetSummary returns the cached analysis result for a fingerprint.
func (s *SQLiteStorage) GetSummary(ctx context.Context, fingerprint string) (*models.Summary, error) {
	var rec models.Summary
	err := s.db.QueryRowContext(ctx,
		`SELECT fingerprint, summary, created_at, updated_at FROM summaries WHERE fingerprint = ?`,
		fingerprint,
	).Scan(&rec.Fingerprint, &rec.Summary, &rec.CreatedAt, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("summary %s: %w", fingerprint, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// RecordPayment idempotently marks a fingerprint as paid. A second insert for
// the same fingerprint is a no-op, so gateway webhook retries never create
// duplicate authorization rows.
func (s *SQLiteStorage) RecordPayment(ctx context.Context, fingerprint, email string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO payments (fingerprint, id, email, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(fingerprint) DO NOTHING`,
		fingerprint, uuid.New().String(), email, time.Now().UTC(),
	)
	return err
}

// HasPayment reports whether a payment record exists for the fingerprint.
func (s *SQLiteStorage) HasPayment(ctx context.Context, fingerprint string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM payments WHERE fingerprint = ?`, fingerprint,
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetPayment returns the payment record for a fingerprint.
func (s *SQLiteStorage) GetPayment(ctx context.Context, fingerprint string) (*models.Payment, error) {
	var rec models.Payment
	var email sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT fingerprint, id, email, created_at FROM payments WHERE fingerprint = ?`,
		fingerprint,
	).Scan(&rec.Fingerprint, &rec.ID, &email, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("payment %s: %w", fingerprint, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	rec.Email = email.String
	return &rec, nil
}

// CountRawTexts returns the number of stored documents.
func (s *SQLiteStorage) CountRawTexts(ctx context.Context) (int64, error) {
	return s.countTable(ctx, "raw_texts")
}

// CountSummaries returns the number of cached analysis results.
func (s *SQLiteStorage) CountSummaries(ctx context.Context) (int64, error) {
	return s.countTable(ctx, "summaries")
}

// CountPayments returns the number of payment records.
func (s *SQLiteStorage) CountPayments(ctx context.Context) (int64, error) {
	return s.countTable(ctx, "payments")
}

func (s *SQLiteStorage) countTable(ctx context.Context, table string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM `+table).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
