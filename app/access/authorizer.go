package access

import (
	"log/slog"

	"github.com/rloz/brief-server/app/config"
	"github.com/rloz/brief-server/app/database"
)

// Decision is the outcome of an access check for a requested brief
type Decision int

const (
	// Allow grants access to the brief
	Allow Decision = iota
	// NotFound hides the brief; deliberately indistinguishable from a
	// missing resource
	NotFound
	// Redirect sends the reader to the subscription offer page
	Redirect
)

type SessionStore interface {
	GetSession(sessionID string) (*database.SessionRecord, error)
}

// Authorizer decides per request whether a reader may see a brief. Decisions
// are never cached: subscription status changes asynchronously via webhook.
type Authorizer struct {
	sessions   SessionStore
	site       *config.SiteConfig
	ownerToken string
}

func NewAuthorizer(sessions SessionStore, site *config.SiteConfig, ownerToken string) *Authorizer {
	return &Authorizer{
		sessions:   sessions,
		site:       site,
		ownerToken: ownerToken,
	}
}

// Authorize evaluates the access rules for a brief: private categories
// require the owner token, the latest brief is always free, and everything
// else needs an active subscriber session. Session lookup failures deny
// access (fail closed) rather than erroring.
func (a *Authorizer) Authorize(b *database.Brief, ownerToken, sessionID string) Decision {
	if a.site.IsPrivateCategory(b.Category) {
		if a.ownerToken != "" && ownerToken == a.ownerToken {
			return Allow
		}
		return NotFound
	}

	if b.IsLatest {
		return Allow
	}

	if sessionID == "" {
		return Redirect
	}

	record, err := a.sessions.GetSession(sessionID)
	if err != nil {
		slog.Error("Session lookup failed, denying access", "error", err)
		return Redirect
	}
	if record == nil || record.Status != database.SessionStatusActive {
		return Redirect
	}

	return Allow
}
