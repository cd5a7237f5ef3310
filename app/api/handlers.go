package api

import (
	"crypto/subtle"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rloz/brief-server/app/access"
	"github.com/rloz/brief-server/app/billing"
	"github.com/rloz/brief-server/app/brief"
	"github.com/rloz/brief-server/app/cfg"
	"github.com/rloz/brief-server/app/config"
	"github.com/rloz/brief-server/app/database"
)

const (
	sessionCookieName = "brief_session"
	// Cookie lifetime matches the store-side session TTL
	sessionCookieMaxAge = 30 * 24 * 60 * 60
)

func NewHandler(conf *cfg.Cfg, site *config.SiteConfig, briefRepo BriefStore,
	sessionRepo SessionStore, authorizer *access.Authorizer,
	billingClient CheckoutClient, webhooks WebhookSynchronizer) *Handler {
	return &Handler{
		conf:        conf,
		site:        site,
		briefRepo:   briefRepo,
		sessionRepo: sessionRepo,
		authorizer:  authorizer,
		billing:     billingClient,
		webhooks:    webhooks,
	}
}

// IngestBrief accepts a structured payload from the automated writer and
// performs the idempotent ingest write.
func (h *Handler) IngestBrief(c *gin.Context) {
	if !h.validIngestKey(c) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var payload brief.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	if err := brief.Validate(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := brief.DeriveID(payload.Date, payload.Category)

	items := make([]database.BriefItem, len(payload.Items))
	for i, item := range payload.Items {
		items[i] = database.BriefItem(item)
	}

	created, err := h.briefRepo.IngestBrief(database.Brief{
		ID:       id,
		Title:    payload.Title,
		Date:     payload.Date,
		Summary:  payload.Summary,
		Category: payload.Category,
		Body:     payload.Body,
		Items:    items,
	})
	if err != nil {
		if errors.Is(err, database.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{
				"error": "Brief with id \"" + id + "\" already exists with different content",
			})
			return
		}
		slog.Error("Ingest transaction failed", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save brief"})
		return
	}

	if created {
		c.JSON(http.StatusCreated, gin.H{"id": id})
	} else {
		// Idempotent re-ingest of identical content
		c.JSON(http.StatusOK, gin.H{"id": id})
	}
}

// validIngestKey compares the bearer token against the configured ingest key
// in constant time. An unconfigured key rejects everything.
func (h *Handler) validIngestKey(c *gin.Context) bool {
	if h.conf.IngestAPIKey == "" {
		return false
	}
	auth := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.conf.IngestAPIKey)) == 1
}

// ListBriefs returns all briefs newest-first. Bodies are withheld; archived
// content is only served through the authorized point read.
func (h *Handler) ListBriefs(c *gin.Context) {
	briefs, err := h.briefRepo.ListBriefs()
	if err != nil {
		slog.Error("Database error", "operation", "list_briefs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	responses := make([]briefResponse, 0, len(briefs))
	for i := range briefs {
		responses = append(responses, newBriefResponse(&briefs[i], false))
	}

	c.JSON(http.StatusOK, gin.H{
		"briefs": responses,
		"total":  len(responses),
	})
}

// GetBrief serves a single brief, re-evaluating access on every request.
func (h *Handler) GetBrief(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing brief id"})
		return
	}

	b, err := h.briefRepo.GetBrief(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_brief", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if b == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Brief not found"})
		return
	}

	switch h.authorizer.Authorize(b, c.Query("token"), h.sessionID(c)) {
	case access.NotFound:
		// Same response as a missing resource
		c.JSON(http.StatusNotFound, gin.H{"error": "Brief not found"})
	case access.Redirect:
		c.Redirect(http.StatusSeeOther, h.conf.SubscribePath)
	case access.Allow:
		c.JSON(http.StatusOK, newBriefResponse(b, true))
	}
}

// GetHealth reports store and configuration status.
func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   h.conf.Version,
	}

	if count, err := h.briefRepo.GetBriefCount(); err == nil {
		health["briefs"] = count
	}

	health["plans"] = len(h.site.Plans)

	c.JSON(http.StatusOK, health)
}

// StripeCheckout starts a subscription purchase and redirects to the
// provider-hosted checkout page. The subscribe page posts an HTML form;
// API clients post JSON.
func (h *Handler) StripeCheckout(c *gin.Context) {
	priceID := h.checkoutPriceID(c)
	if priceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "priceId required"})
		return
	}

	if len(h.site.Plans) > 0 && h.site.PlanByPriceID(priceID) == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown price id"})
		return
	}

	successURL := h.conf.BaseUrl + "/api/stripe/success?checkout_session_id={CHECKOUT_SESSION_ID}"
	cancelURL := h.conf.BaseUrl + h.conf.SubscribePath

	url, err := h.billing.CreateCheckoutSession(priceID, successURL, cancelURL)
	if err != nil {
		slog.Error("Stripe checkout error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create checkout session"})
		return
	}

	c.Redirect(http.StatusSeeOther, url)
}

func (h *Handler) checkoutPriceID(c *gin.Context) string {
	if strings.Contains(c.ContentType(), "application/json") {
		var body struct {
			PriceID string `json:"priceId"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			return ""
		}
		return body.PriceID
	}
	return c.PostForm("priceId")
}

// StripeSuccess resolves a completed checkout, creates or reuses the local
// session record, and hands the reader their session cookie. Any failure
// redirects back to the subscribe page; the provider-side purchase state is
// unaffected and the redirect is safe to retry.
func (h *Handler) StripeSuccess(c *gin.Context) {
	failure := h.conf.BaseUrl + h.conf.SubscribePath + "?error=payment_incomplete"

	checkoutSessionID := c.Query("checkout_session_id")
	if checkoutSessionID == "" {
		c.Redirect(http.StatusSeeOther, failure)
		return
	}

	result, err := h.billing.ResolveCheckout(checkoutSessionID)
	if err != nil {
		if !errors.Is(err, billing.ErrPaymentIncomplete) {
			slog.Error("Failed to resolve checkout session", "error", err)
		}
		c.Redirect(http.StatusSeeOther, failure)
		return
	}

	record, err := h.sessionRepo.CreateSession(result.CustomerID, result.SubscriptionID, result.Email)
	if err != nil {
		slog.Error("Failed to create session record", "error", err)
		c.Redirect(http.StatusSeeOther, failure)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, record.SessionID, sessionCookieMaxAge, "/", "", !h.conf.Debug, true)
	c.Redirect(http.StatusSeeOther, h.conf.BaseUrl+h.conf.BriefsPath)
}

// StripePortal opens the billing provider's account-management portal for an
// active subscriber.
func (h *Handler) StripePortal(c *gin.Context) {
	record := h.activeSession(c)
	if record == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	url, err := h.billing.CreatePortalSession(record.StripeCustomerID, h.conf.BaseUrl+h.conf.AccountPath)
	if err != nil {
		slog.Error("Stripe portal error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create portal session"})
		return
	}

	c.Redirect(http.StatusSeeOther, url)
}

// StripeWebhook verifies and applies asynchronous billing events. Signature
// failures are client errors; a handler fault after verification is a server
// error so the provider retries the (idempotent) delivery.
func (h *Handler) StripeWebhook(c *gin.Context) {
	sig := c.GetHeader("Stripe-Signature")
	if sig == "" || h.conf.StripeWebhookSecret == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing stripe-signature or webhook secret"})
		return
	}

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	event, err := h.webhooks.VerifyEvent(payload, sig)
	if err != nil {
		slog.Error("Webhook signature verification failed", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
		return
	}

	if err := h.webhooks.Apply(event); err != nil {
		slog.Error("Webhook handler error", "type", event.Type, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Handler error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *Handler) sessionID(c *gin.Context) string {
	sessionID, err := c.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return sessionID
}

// activeSession returns the caller's session record only when it exists and
// is active. Store failures read as no session (fail closed).
func (h *Handler) activeSession(c *gin.Context) *database.SessionRecord {
	sessionID := h.sessionID(c)
	if sessionID == "" {
		return nil
	}
	record, err := h.sessionRepo.GetSession(sessionID)
	if err != nil {
		slog.Error("Session lookup failed", "error", err)
		return nil
	}
	if record == nil || record.Status != database.SessionStatusActive {
		return nil
	}
	return record
}
