package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStorage_RawTextWriteOnce(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.UpsertRawText(ctx, "fp1", "first extraction"); err != nil {
		t.Fatal(err)
	}
	// A second submission of the same bytes must not replace the record.
	if err := store.UpsertRawText(ctx, "fp1", "second extraction"); err != nil {
		t.Fatal(err)
	}

	rec, err := store.GetRawText(ctx, "fp1")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Text != "first extraction" {
		t.Errorf("raw text overwritten: got %q", rec.Text)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestSQLiteStorage_RawTextNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetRawText(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStorage_SummaryOverwrite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.UpsertSummary(ctx, "fp1", "v1"); err != nil {
		t.Fatal(err)
	}
	first, err := store.GetSummary(ctx, "fp1")
	if err != nil {
		t.Fatal(err)
	}
	if first.Summary != "v1" {
		t.Errorf("got %q", first.Summary)
	}

	// Refresh overwrites in place.
	if err := store.UpsertSummary(ctx, "fp1", "v2"); err != nil {
		t.Fatal(err)
	}
	second, err := store.GetSummary(ctx, "fp1")
	if err != nil {
		t.Fatal(err)
	}
	if second.Summary != "v2" {
		t.Errorf("summary not overwritten: got %q", second.Summary)
	}
	if second.CreatedAt != first.CreatedAt {
		t.Error("overwrite should keep created_at")
	}

	n, err := store.CountSummaries(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 summary row, got %d", n)
	}
}

func TestSQLiteStorage_PaymentIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	paid, err := store.HasPayment(ctx, "fp1")
	if err != nil {
		t.Fatal(err)
	}
	if paid {
		t.Error("fresh fingerprint should not be paid")
	}

	if err := store.RecordPayment(ctx, "fp1", "user@example.com"); err != nil {
		t.Fatal(err)
	}
	// Webhook retry: same fingerprint recorded again.
	if err := store.RecordPayment(ctx, "fp1", "user@example.com"); err != nil {
		t.Fatal(err)
	}

	paid, err = store.HasPayment(ctx, "fp1")
	if err != nil {
		t.Fatal(err)
	}
	if !paid {
		t.Error("fingerprint should be paid after RecordPayment")
	}

	n, err := store.CountPayments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 payment row after retry, got %d", n)
	}

	rec, err := store.GetPayment(ctx, "fp1")
	if err != nil {
		t.Fatal(err)
	}
	if rec.ID == "" {
		t.Error("payment record ID should be set")
	}
	if rec.Email != "user@example.com" {
		t.Errorf("email: got %q", rec.Email)
	}
}

func TestSQLiteStorage_Counts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, fp := range []string{"a", "b", "c"} {
		if err := store.UpsertRawText(ctx, fp, "text "+fp); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.UpsertSummary(ctx, "a", "summary"); err != nil {
		t.Fatal(err)
	}

	docs, err := store.CountRawTexts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if docs != 3 {
		t.Errorf("raw texts: got %d", docs)
	}
	sums, err := store.CountSummaries(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if sums != 1 {
		t.Errorf("summaries: got %d", sums)
	}
}
