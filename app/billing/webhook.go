package billing

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/rloz/brief-server/app/database"
)

type SessionStore interface {
	UpdateStatusByCustomer(customerID, status string) (int, error)
}

// Synchronizer mirrors billing provider events into the local session store.
// The provider is authoritative; every local status transition is driven by
// an explicit, verified event.
type Synchronizer struct {
	sessions SessionStore
	secret   string
}

func NewSynchronizer(sessions SessionStore, webhookSecret string) *Synchronizer {
	return &Synchronizer{
		sessions: sessions,
		secret:   webhookSecret,
	}
}

// VerifyEvent checks the provider signature on a raw webhook payload.
// Verification failure must reject the delivery before any state change.
func (s *Synchronizer) VerifyEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, sigHeader, s.secret)
}

// Apply applies one verified event to the session store. Unknown event types
// and unknown customers are benign: the delivery succeeds without a state
// change, so the provider does not retry something unactionable. Retries of
// known events are safe because each transition is absolute, not relative.
func (s *Synchronizer) Apply(event stripe.Event) error {
	customerID, status, ok, err := transitionFor(event)
	if err != nil {
		return err
	}
	if !ok {
		slog.Debug("Ignoring webhook event", "type", event.Type)
		return nil
	}
	if customerID == "" {
		return fmt.Errorf("event %s carries no customer id", event.Type)
	}

	affected, err := s.sessions.UpdateStatusByCustomer(customerID, status)
	if err != nil {
		return fmt.Errorf("failed to apply %s: %w", event.Type, err)
	}
	if affected == 0 {
		slog.Info("Webhook for customer with no session records",
			"type", event.Type, "customer", customerID)
		return nil
	}

	slog.Info("Applied subscription status", "type", event.Type,
		"customer", customerID, "status", status, "sessions", affected)
	return nil
}

// transitionFor maps a provider event to a local status transition.
// ok=false means the event type is not ours to handle.
func transitionFor(event stripe.Event) (customerID, status string, ok bool, err error) {
	switch event.Type {
	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return "", "", false, fmt.Errorf("failed to decode subscription: %w", err)
		}
		return customerIDOf(sub.Customer), database.SessionStatusCancelled, true, nil

	case "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return "", "", false, fmt.Errorf("failed to decode subscription: %w", err)
		}
		return customerIDOf(sub.Customer), statusFor(sub.Status), true, nil

	case "invoice.payment_failed":
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			return "", "", false, fmt.Errorf("failed to decode invoice: %w", err)
		}
		return customerIDOf(invoice.Customer), database.SessionStatusPastDue, true, nil
	}

	return "", "", false, nil
}

// statusFor collapses the provider's subscription statuses onto the local
// three-state model; anything that is neither active nor past_due reads as
// cancelled.
func statusFor(status stripe.SubscriptionStatus) string {
	switch status {
	case stripe.SubscriptionStatusActive:
		return database.SessionStatusActive
	case stripe.SubscriptionStatusPastDue:
		return database.SessionStatusPastDue
	default:
		return database.SessionStatusCancelled
	}
}

func customerIDOf(customer *stripe.Customer) string {
	if customer == nil {
		return ""
	}
	return customer.ID
}
