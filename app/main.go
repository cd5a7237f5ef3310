package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rloz/brief-server/app/access"
	"github.com/rloz/brief-server/app/api"
	"github.com/rloz/brief-server/app/billing"
	"github.com/rloz/brief-server/app/cfg"
	"github.com/rloz/brief-server/app/config"
	"github.com/rloz/brief-server/app/database"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Load configuration from environment variables and command-line flags
	conf, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if conf == nil {
		// Help was shown, exit gracefully
		return
	}

	log.Printf("Starting Brief server (version %s)...", conf.Version)

	// Database connection
	log.Printf("Opening database at %s...", conf.DBPath)
	db, err := database.NewConnection(conf.DBPath)
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	defer db.Close()

	log.Println("Running database migrations...")
	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
	log.Printf("Database ready (schema version %d, dirty: %t)", version, dirty)

	// Load site configuration
	log.Printf("Loading site configuration from %s...", conf.SiteConfigPath)
	site, err := config.NewLoader(conf.SiteConfigPath).Load()
	if err != nil {
		log.Fatal("Failed to load site configuration:", err)
	}
	log.Printf("Loaded %d plans, %d private categories", len(site.Plans), len(site.PrivateCategories))

	// Initialize repositories
	briefRepo := database.NewBriefRepository(db)
	sessionRepo := database.NewSessionRepository(db)

	// Initialize core components
	billingClient := billing.NewClient(conf.StripeSecretKey)
	webhooks := billing.NewSynchronizer(sessionRepo, conf.StripeWebhookSecret)
	authorizer := access.NewAuthorizer(sessionRepo, site, conf.OwnerAccessToken)

	// Initialize HTTP server
	log.Println("Initializing HTTP server...")
	apiHandler := api.NewHandler(conf, site, briefRepo, sessionRepo, authorizer, billingClient, webhooks)
	server := api.NewServer(apiHandler)

	httpServer := &http.Server{
		Addr:         ":" + conf.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start HTTP server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		log.Printf("Starting HTTP server on port %s", conf.Port)
		log.Printf("API endpoints available:")
		log.Printf("  List briefs:   http://localhost:%s/api/briefs", conf.Port)
		log.Printf("  Brief:         http://localhost:%s/api/briefs/<id>", conf.Port)
		log.Printf("  Health check:  http://localhost:%s/health", conf.Port)

		if conf.IngestAPIKey != "" {
			log.Printf("  Ingest:        http://localhost:%s/api/briefs/ingest (POST, requires bearer key)", conf.Port)
		} else {
			log.Printf("  Ingest:        DISABLED (BRIEF_API_KEY not set)")
		}
		if conf.StripeSecretKey != "" {
			log.Printf("  Checkout:      http://localhost:%s/api/stripe/checkout (POST)", conf.Port)
			log.Printf("  Webhook:       http://localhost:%s/api/stripe/webhook (POST)", conf.Port)
		} else {
			log.Printf("  Billing:       DISABLED (STRIPE_SECRET_KEY not set)")
		}

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	log.Println("Brief server started successfully!")
	log.Println("Press Ctrl+C to shutdown gracefully...")

	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
	case err := <-serverErrChan:
		log.Printf("Server error: %v", err)
	}

	// Graceful shutdown
	log.Println("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	} else {
		log.Println("HTTP server stopped")
	}

	log.Println("Brief server shutdown complete")
}
