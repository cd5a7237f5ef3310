package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// HTTP configuration
	Port    string
	BaseUrl string

	// Content configuration
	SiteConfigPath string
	SubscribePath  string
	BriefsPath     string
	AccountPath    string

	// Secrets
	IngestAPIKey        string
	OwnerAccessToken    string
	StripeSecretKey     string
	StripeWebhookSecret string

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
