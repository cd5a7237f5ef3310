package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./briefs.db" description:"Path to the SQLite database file"`

	// HTTP configuration
	Port    string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl string `long:"base-url" env:"BASE_URL" default:"http://localhost:8080" description:"Public base URL for redirects (e.g., https://example.com)"`

	// Content configuration
	SiteConfigPath string `long:"site-config" env:"SITE_CONFIG" default:"./site.yml" description:"Path to the site configuration file (plans, private categories)"`
	SubscribePath  string `long:"subscribe-path" env:"SUBSCRIBE_PATH" default:"/subscribe" description:"Path readers are redirected to when a subscription is required"`
	BriefsPath     string `long:"briefs-path" env:"BRIEFS_PATH" default:"/briefs" description:"Path readers are redirected to after a successful checkout"`
	AccountPath    string `long:"account-path" env:"ACCOUNT_PATH" default:"/account" description:"Path readers return to after the billing portal"`

	// Secrets
	IngestAPIKey        string `long:"ingest-api-key" env:"BRIEF_API_KEY" description:"Bearer token for the ingest endpoint (ingest disabled when empty)"`
	OwnerAccessToken    string `long:"owner-access-token" env:"OWNER_ACCESS_TOKEN" description:"Access token for private-category briefs"`
	StripeSecretKey     string `long:"stripe-secret-key" env:"STRIPE_SECRET_KEY" description:"Stripe API secret key"`
	StripeWebhookSecret string `long:"stripe-webhook-secret" env:"STRIPE_WEBHOOK_SECRET" description:"Stripe webhook signing secret"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:              raw.DBPath,
		Port:                raw.Port,
		BaseUrl:             raw.BaseUrl,
		SiteConfigPath:      raw.SiteConfigPath,
		SubscribePath:       raw.SubscribePath,
		BriefsPath:          raw.BriefsPath,
		AccountPath:         raw.AccountPath,
		IngestAPIKey:        raw.IngestAPIKey,
		OwnerAccessToken:    raw.OwnerAccessToken,
		StripeSecretKey:     raw.StripeSecretKey,
		StripeWebhookSecret: raw.StripeWebhookSecret,
		Timezone:            raw.Timezone,
		Debug:               raw.Debug,
		Version:             GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
