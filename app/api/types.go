package api

import (
	"github.com/stripe/stripe-go/v82"

	"github.com/rloz/brief-server/app/access"
	"github.com/rloz/brief-server/app/billing"
	"github.com/rloz/brief-server/app/cfg"
	"github.com/rloz/brief-server/app/config"
	"github.com/rloz/brief-server/app/database"
)

type BriefStore interface {
	GetBrief(id string) (*database.Brief, error)
	ListBriefs() ([]database.Brief, error)
	GetBriefCount() (int, error)
	IngestBrief(b database.Brief) (bool, error)
}

type SessionStore interface {
	GetSession(sessionID string) (*database.SessionRecord, error)
	CreateSession(customerID, subscriptionID, email string) (*database.SessionRecord, error)
}

type CheckoutClient interface {
	CreateCheckoutSession(priceID, successURL, cancelURL string) (string, error)
	CreatePortalSession(customerID, returnURL string) (string, error)
	ResolveCheckout(checkoutSessionID string) (*billing.CheckoutResult, error)
}

type WebhookSynchronizer interface {
	VerifyEvent(payload []byte, sigHeader string) (stripe.Event, error)
	Apply(event stripe.Event) error
}

var _ BriefStore = (*database.BriefRepository)(nil)
var _ SessionStore = (*database.SessionRepository)(nil)
var _ CheckoutClient = (*billing.Client)(nil)
var _ WebhookSynchronizer = (*billing.Synchronizer)(nil)

type Handler struct {
	conf        *cfg.Cfg
	site        *config.SiteConfig
	briefRepo   BriefStore
	sessionRepo SessionStore
	authorizer  *access.Authorizer
	billing     CheckoutClient
	webhooks    WebhookSynchronizer
}

// briefResponse is the JSON shape for a brief. The body is only included on
// authorized point reads; the list endpoint exposes metadata.
type briefResponse struct {
	ID       string               `json:"id"`
	Title    string               `json:"title"`
	Date     string               `json:"date"`
	Summary  string               `json:"summary"`
	Category string               `json:"category"`
	Body     string               `json:"body,omitempty"`
	Items    []database.BriefItem `json:"items"`
	IsLatest bool                 `json:"is_latest"`
}

func newBriefResponse(b *database.Brief, includeBody bool) briefResponse {
	resp := briefResponse{
		ID:       b.ID,
		Title:    b.Title,
		Date:     b.Date,
		Summary:  b.Summary,
		Category: b.Category,
		Items:    b.Items,
		IsLatest: b.IsLatest,
	}
	if includeBody {
		resp.Body = b.Body
	}
	return resp
}
