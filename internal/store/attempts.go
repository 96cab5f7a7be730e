package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Attempt is one journaled checkout attempt.
type Attempt struct {
	ID            string          `db:"id" json:"id"`
	UserID        int64           `db:"user_id" json:"user_id"`
	State         string          `db:"state" json:"state"`
	OrderID       sql.NullInt64   `db:"order_id" json:"order_id,omitempty"`
	TotalPrice    sql.NullFloat64 `db:"total_price" json:"total_price,omitempty"`
	FailureReason sql.NullString  `db:"failure_reason" json:"failure_reason,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// Transition is one recorded state change of an attempt.
type Transition struct {
	ID        int64     `db:"id" json:"id"`
	AttemptID string    `db:"attempt_id" json:"attempt_id"`
	State     string    `db:"state" json:"state"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// StartAttempt journals a new checkout attempt in its initial state.
func (s *Store) StartAttempt(ctx context.Context, attemptID string, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO checkout_attempts (id, user_id, state) VALUES ($1, $2, 'IDLE')",
		attemptID, userID)
	if err != nil {
		return fmt.Errorf("failed to journal attempt: %w", err)
	}
	return s.appendTransition(ctx, attemptID, "IDLE")
}

// RecordState advances an attempt to a new state.
func (s *Store) RecordState(ctx context.Context, attemptID, state string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE checkout_attempts SET state = $1, updated_at = NOW() WHERE id = $2",
		state, attemptID)
	if err != nil {
		return err
	}
	return s.appendTransition(ctx, attemptID, state)
}

// RecordOrder attaches the placed order and its total to an attempt.
func (s *Store) RecordOrder(ctx context.Context, attemptID string, orderID int64, totalPrice float64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE checkout_attempts SET order_id = $1, total_price = $2, updated_at = NOW() WHERE id = $3",
		orderID, totalPrice, attemptID)
	return err
}

// RecordFailure marks an attempt as failed at the given state.
func (s *Store) RecordFailure(ctx context.Context, attemptID, state, reason string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE checkout_attempts SET state = $1, failure_reason = $2, updated_at = NOW() WHERE id = $3",
		state, reason, attemptID)
	if err != nil {
		return err
	}
	return s.appendTransition(ctx, attemptID, state)
}

func (s *Store) appendTransition(ctx context.Context, attemptID, state string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO checkout_attempt_transitions (attempt_id, state) VALUES ($1, $2)",
		attemptID, state)
	return err
}

// GetAttempt retrieves an attempt by id.
func (s *Store) GetAttempt(ctx context.Context, attemptID string) (*Attempt, error) {
	var attempt Attempt
	err := s.db.GetContext(ctx, &attempt,
		"SELECT * FROM checkout_attempts WHERE id = $1", attemptID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("attempt not found: %s", attemptID)
	}
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

// GetAttemptsByUserID retrieves a user's attempts, newest first.
func (s *Store) GetAttemptsByUserID(ctx context.Context, userID int64) ([]Attempt, error) {
	var attempts []Attempt
	err := s.db.SelectContext(ctx, &attempts,
		"SELECT * FROM checkout_attempts WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return attempts, err
}

// GetTransitionsByAttemptID retrieves the state history of an attempt.
func (s *Store) GetTransitionsByAttemptID(ctx context.Context, attemptID string) ([]Transition, error) {
	var transitions []Transition
	err := s.db.SelectContext(ctx, &transitions,
		"SELECT * FROM checkout_attempt_transitions WHERE attempt_id = $1 ORDER BY id", attemptID)
	return transitions, err
}
