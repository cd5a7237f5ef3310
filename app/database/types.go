package database

import (
	"time"
)

// Brief represents a dated content record in the database
type Brief struct {
	ID        string      // Derived: calendar day + category slug
	Title     string
	Date      string      // ISO-8601, stored as submitted
	Summary   string
	Category  string
	Body      string      // Markdown
	Items     []BriefItem // Ordered link references
	IsLatest  bool        // Exactly one brief carries this flag
	CreatedAt time.Time
}

// BriefItem is a single link reference within a brief
type BriefItem struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Source  string `json:"source"`
	Snippet string `json:"snippet"`
}

// Session statuses mirror the billing provider's subscription state
const (
	SessionStatusActive    = "active"
	SessionStatusPastDue   = "past_due"
	SessionStatusCancelled = "cancelled"
)

// SessionRecord is the local mirror of one subscription's access state,
// keyed by the opaque cookie value
type SessionRecord struct {
	SessionID            string
	StripeCustomerID     string
	StripeSubscriptionID string
	Email                string
	Status               string
	CreatedAt            time.Time
	UpdatedAt            time.Time
	ExpiresAt            time.Time
}
