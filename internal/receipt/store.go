// Package receipt caches the last order receipt per user in Redis. The
// receipt is a write-once snapshot taken at checkout; it is a cache over the
// authoritative order record, with an explicit TTL and schema version.
package receipt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"checkout-service/internal/checkout"
	"checkout-service/internal/models"
	"checkout-service/internal/redisclient"
)

// Backend is the key/value surface the store needs from Redis.
type Backend interface {
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	GetJSON(ctx context.Context, key string, out interface{}) error
	TTL(ctx context.Context, key string) (time.Duration, error)
}

type Store struct {
	backend Backend
	ttl     time.Duration
}

// NewStore creates a receipt store with the given TTL.
func NewStore(backend Backend, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &Store{backend: backend, ttl: ttl}
}

func receiptKey(userID int64) string {
	return fmt.Sprintf("receipt:%d", userID)
}

// Write stores the receipt for a user, replacing any previous one.
func (s *Store) Write(ctx context.Context, receipt *models.Receipt) error {
	receipt.SchemaVersion = models.ReceiptSchemaVersion
	return s.backend.SetJSON(ctx, receiptKey(receipt.UserID), receipt, s.ttl)
}

// Get returns the user's last receipt. Receipts written under an older schema
// version are treated as absent rather than surfaced in a shape callers no
// longer expect.
func (s *Store) Get(ctx context.Context, userID int64) (*models.Receipt, error) {
	var receipt models.Receipt
	err := s.backend.GetJSON(ctx, receiptKey(userID), &receipt)
	if errors.Is(err, redisclient.ErrNotFound) {
		return nil, checkout.ErrNoReceipt
	}
	if err != nil {
		return nil, err
	}
	if receipt.SchemaVersion != models.ReceiptSchemaVersion {
		return nil, checkout.ErrNoReceipt
	}
	return &receipt, nil
}

// Update rewrites a reconciled receipt, preserving the remaining TTL.
func (s *Store) Update(ctx context.Context, receipt *models.Receipt) error {
	ttl := s.ttl
	if remaining, err := s.backend.TTL(ctx, receiptKey(receipt.UserID)); err == nil && remaining > 0 {
		ttl = remaining
	}
	return s.backend.SetJSON(ctx, receiptKey(receipt.UserID), receipt, ttl)
}
