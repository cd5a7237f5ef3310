package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and validation of the site configuration
type Loader struct {
	path string
}

// NewLoader creates a new site configuration loader
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads the site configuration file. A missing file is not an error:
// the service can run with no plans and no private categories configured.
func (l *Loader) Load() (*SiteConfig, error) {
	if _, err := os.Stat(l.path); os.IsNotExist(err) {
		return &SiteConfig{}, nil
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config SiteConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := l.validate(&config); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", l.path, err)
	}

	return &config, nil
}

// validate checks the configuration for required fields
func (l *Loader) validate(config *SiteConfig) error {
	for i, plan := range config.Plans {
		if strings.TrimSpace(plan.Name) == "" {
			return fmt.Errorf("plans[%d]: name is required", i)
		}
		if strings.TrimSpace(plan.PriceID) == "" {
			return fmt.Errorf("plans[%d]: price_id is required", i)
		}
	}
	for i, category := range config.PrivateCategories {
		if strings.TrimSpace(category) == "" {
			return fmt.Errorf("private_categories[%d]: empty entry", i)
		}
	}
	return nil
}

// IsPrivateCategory reports whether the given category is restricted to
// owner-token access. Comparison is case-insensitive.
func (c *SiteConfig) IsPrivateCategory(category string) bool {
	for _, private := range c.PrivateCategories {
		if strings.EqualFold(private, category) {
			return true
		}
	}
	return false
}

// PlanByPriceID returns the configured plan for a Stripe price id, if any.
func (c *SiteConfig) PlanByPriceID(priceID string) *Plan {
	for i := range c.Plans {
		if c.Plans[i].PriceID == priceID {
			return &c.Plans[i]
		}
	}
	return nil
}
