// Package payment holds the authorization gate and the Stripe checkout
// integration. A fingerprint moves Unpaid -> PaymentPending -> Paid; Paid is
// terminal and is represented purely by a payment record existing in the
// store, so authorization survives restarts and repeated webhook deliveries.
package payment

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/contractguard/contractguard/internal/storage"
)

// Gate answers "may this fingerprint be analyzed?" by consulting payment
// records. It never charges anyone itself; recording goes through the
// verified webhook path only.
type Gate struct {
	store  storage.Storage
	logger *zap.Logger
}

// NewGate creates a gate over the given store.
func NewGate(store storage.Storage, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{store: store, logger: logger}
}

// IsAuthorized reports whether a payment record exists for the fingerprint.
func (g *Gate) IsAuthorized(ctx context.Context, fingerprint string) (bool, error) {
	paid, err := g.store.HasPayment(ctx, fingerprint)
	if err != nil {
		return false, fmt.Errorf("failed to check payment for %s: %w", fingerprint, err)
	}
	return paid, nil
}

// RecordPayment marks a fingerprint as paid. Safe to call repeatedly for the
// same fingerprint; duplicate webhook deliveries collapse into one record.
func (g *Gate) RecordPayment(ctx context.Context, fingerprint, email string) error {
	if err := g.store.RecordPayment(ctx, fingerprint, email); err != nil {
		return fmt.Errorf("failed to record payment for %s: %w", fingerprint, err)
	}
	g.logger.Info("payment recorded", zap.String("fingerprint", fingerprint))
	return nil
}
