package database

import (
	"testing"
	"time"
)

func TestCreateSession(t *testing.T) {
	repo := NewSessionRepository(newTestDB(t))

	record, err := repo.CreateSession("cus_123", "sub_456", "reader@example.com")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if record.SessionID == "" {
		t.Error("Expected a generated session id")
	}
	if record.Status != SessionStatusActive {
		t.Errorf("Expected status active, got %s", record.Status)
	}

	ttl := record.ExpiresAt.Sub(record.CreatedAt)
	if ttl != 30*24*time.Hour {
		t.Errorf("Expected 30-day TTL, got %s", ttl)
	}

	fetched, err := repo.GetSession(record.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if fetched == nil {
		t.Fatal("Expected to fetch the created session")
	}
	if fetched.StripeCustomerID != "cus_123" || fetched.StripeSubscriptionID != "sub_456" {
		t.Errorf("Stored identifiers do not match: %+v", fetched)
	}
}

func TestCreateSessionIdempotentPerPurchase(t *testing.T) {
	repo := NewSessionRepository(newTestDB(t))

	first, err := repo.CreateSession("cus_123", "sub_456", "reader@example.com")
	if err != nil {
		t.Fatal(err)
	}

	// Reloading the success page re-invokes the handler with the same purchase
	second, err := repo.CreateSession("cus_123", "sub_456", "reader@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if second.SessionID != first.SessionID {
		t.Errorf("Expected the existing record to be reused, got %s and %s",
			first.SessionID, second.SessionID)
	}

	// A re-subscription (new subscription id) gets its own record
	third, err := repo.CreateSession("cus_123", "sub_789", "reader@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if third.SessionID == first.SessionID {
		t.Error("Expected a new record for a new subscription")
	}
}

func TestGetSessionAbsent(t *testing.T) {
	repo := NewSessionRepository(newTestDB(t))

	record, err := repo.GetSession("not-a-session")
	if err != nil {
		t.Fatal(err)
	}
	if record != nil {
		t.Errorf("Expected nil for unknown session, got %+v", record)
	}
}

func TestGetSessionExpired(t *testing.T) {
	db := newTestDB(t)
	repo := NewSessionRepository(db)

	record, err := repo.CreateSession("cus_123", "sub_456", "")
	if err != nil {
		t.Fatal(err)
	}

	_, err = db.Exec(`UPDATE sessions SET expires_at = ? WHERE session_id = ?`,
		time.Now().UTC().Add(-time.Hour), record.SessionID)
	if err != nil {
		t.Fatal(err)
	}

	fetched, err := repo.GetSession(record.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if fetched != nil {
		t.Error("Expected expired session to read as absent")
	}
}

func TestUpdateStatusByCustomerFansOut(t *testing.T) {
	repo := NewSessionRepository(newTestDB(t))

	// One customer, two records accumulated across re-subscriptions
	first, err := repo.CreateSession("cus_123", "sub_456", "")
	if err != nil {
		t.Fatal(err)
	}
	second, err := repo.CreateSession("cus_123", "sub_789", "")
	if err != nil {
		t.Fatal(err)
	}
	other, err := repo.CreateSession("cus_999", "sub_000", "")
	if err != nil {
		t.Fatal(err)
	}

	affected, err := repo.UpdateStatusByCustomer("cus_123", SessionStatusCancelled)
	if err != nil {
		t.Fatal(err)
	}
	if affected != 2 {
		t.Errorf("Expected 2 records updated, got %d", affected)
	}

	for _, id := range []string{first.SessionID, second.SessionID} {
		record, err := repo.GetSession(id)
		if err != nil {
			t.Fatal(err)
		}
		if record.Status != SessionStatusCancelled {
			t.Errorf("Session %s: expected cancelled, got %s", id, record.Status)
		}
	}

	unaffected, err := repo.GetSession(other.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if unaffected.Status != SessionStatusActive {
		t.Errorf("Unrelated customer's session changed status: %s", unaffected.Status)
	}
}

func TestUpdateStatusByCustomerIdempotent(t *testing.T) {
	repo := NewSessionRepository(newTestDB(t))

	record, err := repo.CreateSession("cus_123", "sub_456", "")
	if err != nil {
		t.Fatal(err)
	}

	// Delivering the same cancellation twice leaves the status cancelled
	for i := 0; i < 2; i++ {
		if _, err := repo.UpdateStatusByCustomer("cus_123", SessionStatusCancelled); err != nil {
			t.Fatal(err)
		}
		fetched, err := repo.GetSession(record.SessionID)
		if err != nil {
			t.Fatal(err)
		}
		if fetched.Status != SessionStatusCancelled {
			t.Errorf("Delivery %d: expected cancelled, got %s", i+1, fetched.Status)
		}
	}
}

func TestUpdateStatusByCustomerUnknownCustomer(t *testing.T) {
	repo := NewSessionRepository(newTestDB(t))

	affected, err := repo.UpdateStatusByCustomer("cus_unknown", SessionStatusCancelled)
	if err != nil {
		t.Fatalf("Unknown customer should not be an error: %v", err)
	}
	if affected != 0 {
		t.Errorf("Expected 0 records updated, got %d", affected)
	}
}
