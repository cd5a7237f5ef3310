package billing

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stripe/stripe-go/v82"

	"github.com/rloz/brief-server/app/database"
)

type fakeSessionStore struct {
	updates  []statusUpdate
	affected int
	err      error
}

type statusUpdate struct {
	customerID string
	status     string
}

func (f *fakeSessionStore) UpdateStatusByCustomer(customerID, status string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.updates = append(f.updates, statusUpdate{customerID, status})
	return f.affected, nil
}

func subscriptionEvent(eventType, customerID, providerStatus string) stripe.Event {
	raw, _ := json.Marshal(map[string]any{
		"customer": customerID,
		"status":   providerStatus,
	})
	return stripe.Event{
		Type: stripe.EventType(eventType),
		Data: &stripe.EventData{Raw: json.RawMessage(raw)},
	}
}

func TestApplyTransitions(t *testing.T) {
	cases := []struct {
		name       string
		event      stripe.Event
		wantStatus string
	}{
		{
			"subscription deleted",
			subscriptionEvent("customer.subscription.deleted", "cus_123", "canceled"),
			database.SessionStatusCancelled,
		},
		{
			"subscription updated to active",
			subscriptionEvent("customer.subscription.updated", "cus_123", "active"),
			database.SessionStatusActive,
		},
		{
			"subscription updated to past_due",
			subscriptionEvent("customer.subscription.updated", "cus_123", "past_due"),
			database.SessionStatusPastDue,
		},
		{
			"subscription updated to unpaid",
			subscriptionEvent("customer.subscription.updated", "cus_123", "unpaid"),
			database.SessionStatusCancelled,
		},
		{
			"subscription updated to incomplete",
			subscriptionEvent("customer.subscription.updated", "cus_123", "incomplete"),
			database.SessionStatusCancelled,
		},
		{
			"invoice payment failed",
			subscriptionEvent("invoice.payment_failed", "cus_123", ""),
			database.SessionStatusPastDue,
		},
	}

	for _, c := range cases {
		store := &fakeSessionStore{affected: 1}
		sync := NewSynchronizer(store, "whsec_test")

		if err := sync.Apply(c.event); err != nil {
			t.Errorf("%s: unexpected error: %v", c.name, err)
			continue
		}
		if len(store.updates) != 1 {
			t.Errorf("%s: expected 1 status update, got %d", c.name, len(store.updates))
			continue
		}
		update := store.updates[0]
		if update.customerID != "cus_123" {
			t.Errorf("%s: expected customer cus_123, got %s", c.name, update.customerID)
		}
		if update.status != c.wantStatus {
			t.Errorf("%s: expected status %s, got %s", c.name, c.wantStatus, update.status)
		}
	}
}

func TestApplyIgnoresUnknownEventTypes(t *testing.T) {
	store := &fakeSessionStore{affected: 1}
	sync := NewSynchronizer(store, "whsec_test")

	event := subscriptionEvent("customer.created", "cus_123", "")
	if err := sync.Apply(event); err != nil {
		t.Errorf("Unknown event type should not be an error: %v", err)
	}
	if len(store.updates) != 0 {
		t.Errorf("Unknown event type should not touch the store, got %d updates", len(store.updates))
	}
}

func TestApplyUnknownCustomerIsBenign(t *testing.T) {
	store := &fakeSessionStore{affected: 0}
	sync := NewSynchronizer(store, "whsec_test")

	event := subscriptionEvent("customer.subscription.deleted", "cus_unknown", "canceled")
	if err := sync.Apply(event); err != nil {
		t.Errorf("Webhook for customer with no records should succeed: %v", err)
	}
}

func TestApplyRepeatedDeliveryIsIdempotent(t *testing.T) {
	store := &fakeSessionStore{affected: 1}
	sync := NewSynchronizer(store, "whsec_test")

	event := subscriptionEvent("customer.subscription.deleted", "cus_123", "canceled")
	for i := 0; i < 2; i++ {
		if err := sync.Apply(event); err != nil {
			t.Fatalf("Delivery %d failed: %v", i+1, err)
		}
	}

	for i, update := range store.updates {
		if update.status != database.SessionStatusCancelled {
			t.Errorf("Delivery %d: expected cancelled, got %s", i+1, update.status)
		}
	}
}

func TestApplyPropagatesStoreErrors(t *testing.T) {
	store := &fakeSessionStore{err: errors.New("store unreachable")}
	sync := NewSynchronizer(store, "whsec_test")

	event := subscriptionEvent("customer.subscription.deleted", "cus_123", "canceled")
	if err := sync.Apply(event); err == nil {
		t.Error("Expected store error to propagate so the provider retries delivery")
	}
}

func TestApplyMissingCustomer(t *testing.T) {
	store := &fakeSessionStore{affected: 1}
	sync := NewSynchronizer(store, "whsec_test")

	event := stripe.Event{
		Type: "customer.subscription.deleted",
		Data: &stripe.EventData{Raw: json.RawMessage(`{"status": "canceled"}`)},
	}
	if err := sync.Apply(event); err == nil {
		t.Error("Expected error for event without customer id")
	}
}

func TestVerifyEventRejectsBadSignature(t *testing.T) {
	sync := NewSynchronizer(&fakeSessionStore{}, "whsec_test")

	_, err := sync.VerifyEvent([]byte(`{}`), "t=1,v1=deadbeef")
	if err == nil {
		t.Error("Expected signature verification to fail")
	}
}
