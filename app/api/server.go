package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler) *gin.Engine {
	// Set Gin mode (can be controlled via GIN_MODE environment variable)
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// Middleware
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	// CORS middleware for API endpoints
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler)

	return r
}

// setupRoutes configures all the application routes
func setupRoutes(r *gin.Engine, handler *Handler) {
	// Brief endpoints; ingest authenticates inside the handler with a
	// constant-time bearer compare
	briefs := r.Group("/api/briefs")
	{
		briefs.GET("", handler.ListBriefs)
		briefs.GET("/:id", handler.GetBrief)
		briefs.POST("/ingest", handler.IngestBrief)
	}

	// Billing endpoints
	stripe := r.Group("/api/stripe")
	{
		stripe.POST("/checkout", handler.StripeCheckout)
		stripe.GET("/success", handler.StripeSuccess)
		stripe.POST("/portal", handler.StripePortal)
		stripe.POST("/webhook", handler.StripeWebhook)
	}

	// Health endpoint
	r.GET("/health", handler.GetHealth)

	// Root endpoint with basic information
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service":     "Brief Server",
			"description": "Brief ingestion and subscriber-access service",
			"endpoints": map[string]string{
				"briefs":   "/api/briefs",
				"brief":    "/api/briefs/<id>",
				"ingest":   "/api/briefs/ingest (POST, requires Authorization: Bearer <key>)",
				"checkout": "/api/stripe/checkout (POST)",
				"portal":   "/api/stripe/portal (POST, requires session cookie)",
				"webhook":  "/api/stripe/webhook (POST, Stripe only)",
				"health":   "/health",
			},
		})
	})

	// Favicon handler (return 204 to avoid 404s)
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}
