package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session records expire together with the 30-day session cookie
const sessionTTL = 30 * 24 * time.Hour

// SessionRepository handles database operations for subscriber sessions
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// CreateSession records a completed checkout. Creation is idempotent per
// (customer, subscription) pair: re-invoking the success handler for the same
// purchase (e.g. a reloaded success page) reuses the existing record instead
// of minting a second cookie value.
func (r *SessionRepository) CreateSession(customerID, subscriptionID, email string) (*SessionRecord, error) {
	existing, err := r.getByCustomerAndSubscription(customerID, subscriptionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now().UTC()
	record := &SessionRecord{
		SessionID:            uuid.NewString(),
		StripeCustomerID:     customerID,
		StripeSubscriptionID: subscriptionID,
		Email:                email,
		Status:               SessionStatusActive,
		CreatedAt:            now,
		UpdatedAt:            now,
		ExpiresAt:            now.Add(sessionTTL),
	}

	_, err = r.db.Exec(`
		INSERT INTO sessions (session_id, stripe_customer_id, stripe_subscription_id,
			email, status, created_at, updated_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, record.SessionID, record.StripeCustomerID, record.StripeSubscriptionID,
		record.Email, record.Status, record.CreatedAt, record.UpdatedAt, record.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return record, nil
}

// GetSession returns the session record for a cookie value, or nil if absent
// or expired
func (r *SessionRepository) GetSession(sessionID string) (*SessionRecord, error) {
	row := r.db.QueryRow(`
		SELECT session_id, stripe_customer_id, stripe_subscription_id,
			email, status, created_at, updated_at, expires_at
		FROM sessions
		WHERE session_id = ? AND expires_at > ?
	`, sessionID, time.Now().UTC())

	record, err := scanSession(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return record, nil
}

// UpdateStatusByCustomer applies a status transition to every session record
// tied to a billing customer. A customer accumulates records across
// re-subscriptions; the provider's events are keyed by customer, so all of
// them move together. Returns the number of records updated.
func (r *SessionRepository) UpdateStatusByCustomer(customerID, status string) (int, error) {
	result, err := r.db.Exec(`
		UPDATE sessions
		SET status = ?, updated_at = ?
		WHERE stripe_customer_id = ?
	`, status, time.Now().UTC(), customerID)
	if err != nil {
		return 0, fmt.Errorf("failed to update session status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return int(affected), nil
}

func (r *SessionRepository) getByCustomerAndSubscription(customerID, subscriptionID string) (*SessionRecord, error) {
	row := r.db.QueryRow(`
		SELECT session_id, stripe_customer_id, stripe_subscription_id,
			email, status, created_at, updated_at, expires_at
		FROM sessions
		WHERE stripe_customer_id = ? AND stripe_subscription_id = ?
		LIMIT 1
	`, customerID, subscriptionID)

	record, err := scanSession(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up session by subscription: %w", err)
	}
	return record, nil
}

func scanSession(scan func(dest ...any) error) (*SessionRecord, error) {
	var s SessionRecord
	err := scan(&s.SessionID, &s.StripeCustomerID, &s.StripeSubscriptionID,
		&s.Email, &s.Status, &s.CreatedAt, &s.UpdatedAt, &s.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
