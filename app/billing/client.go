package billing

import (
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	portalsession "github.com/stripe/stripe-go/v82/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
)

// ErrPaymentIncomplete is returned when a checkout session cannot be
// confirmed as paid. Billing authority lives with the provider; no local
// session is created until the purchase is confirmed.
var ErrPaymentIncomplete = errors.New("checkout session is not confirmed paid")

// CheckoutResult is the confirmed-paid outcome of a checkout session.
type CheckoutResult struct {
	CustomerID     string
	SubscriptionID string
	Email          string
}

// Client wraps the billing provider calls: starting a purchase, starting an
// account-management flow, and resolving a completed checkout.
type Client struct{}

// NewClient configures the Stripe API key and returns a client.
func NewClient(secretKey string) *Client {
	stripe.Key = secretKey
	return &Client{}
}

// CreateCheckoutSession starts a subscription purchase and returns the
// provider-hosted checkout URL.
func (c *Client) CreateCheckoutSession(priceID, successURL, cancelURL string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
	}

	session, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}
	if session.URL == "" {
		return "", fmt.Errorf("checkout session %s has no URL", session.ID)
	}

	return session.URL, nil
}

// CreatePortalSession starts a billing-portal flow for an existing customer
// and returns the provider-hosted portal URL.
func (c *Client) CreatePortalSession(customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}

	session, err := portalsession.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create portal session: %w", err)
	}

	return session.URL, nil
}

// ResolveCheckout retrieves a checkout session by id and returns its
// customer, subscription and email only if the payment is confirmed paid.
func (c *Client) ResolveCheckout(checkoutSessionID string) (*CheckoutResult, error) {
	params := &stripe.CheckoutSessionParams{}
	params.AddExpand("subscription")

	session, err := checkoutsession.Get(checkoutSessionID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve checkout session: %w", err)
	}

	if session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return nil, ErrPaymentIncomplete
	}
	if session.Customer == nil || session.Subscription == nil {
		return nil, fmt.Errorf("checkout session %s is missing customer or subscription", checkoutSessionID)
	}

	result := &CheckoutResult{
		CustomerID:     session.Customer.ID,
		SubscriptionID: session.Subscription.ID,
	}
	if session.CustomerDetails != nil {
		result.Email = session.CustomerDetails.Email
	}

	return result, nil
}
