package config

// SiteConfig represents the deploy-time site configuration
type SiteConfig struct {
	Plans             []Plan   `yaml:"plans"`
	PrivateCategories []string `yaml:"private_categories"`
}

// Plan describes one purchasable subscription plan
type Plan struct {
	Name    string `yaml:"name"`
	PriceID string `yaml:"price_id"`
}
