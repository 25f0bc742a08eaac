// Package storage defines the persistence interface for the three
// fingerprint-keyed tables: raw texts, summaries, and payments.
package storage

import (
	"context"
	"errors"

	"github.com/contractguard/contractguard/internal/models"
)

// ErrNotFound is returned when no record exists for a fingerprint.
var ErrNotFound = errors.New("record not found")

// Storage is the persistent store collaborator. All writes are
// upsert-by-key; the store never assumes atomic check-then-act across calls.
type Storage interface {
	// Raw text: write-once per fingerprint (first write wins, later writes are no-ops).
	UpsertRawText(ctx context.Context, fingerprint, text string) error
	GetRawText(ctx context.Context, fingerprint string) (*models.RawText, error)

	// Summaries: overwrite on conflict (refresh replaces the cached result).
	UpsertSummary(ctx context.Context, fingerprint, summary string) error
	GetSummary(ctx context.Context, fingerprint string) (*models.Summary, error)

	// Payments: idempotent insert; existence alone authorizes a fingerprint.
	RecordPayment(ctx context.Context, fingerprint, email string) error
	HasPayment(ctx context.Context, fingerprint string) (bool, error)
	GetPayment(ctx context.Context, fingerprint string) (*models.Payment, error)

	// Stats
	CountRawTexts(ctx context.Context) (int64, error)
	CountSummaries(ctx context.Context) (int64, error)
	CountPayments(ctx context.Context) (int64, error)

	Close() error
}
