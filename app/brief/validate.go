package brief

import (
	"fmt"
	"strings"
	"time"
)

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// Validate checks a writer payload against the ingestion contract. The
// returned error names the offending field so the writer can act on it.
func Validate(p *Payload) error {
	scalars := []struct {
		name  string
		value string
	}{
		{"title", p.Title},
		{"date", p.Date},
		{"summary", p.Summary},
		{"category", p.Category},
		{"body", p.Body},
	}
	for _, field := range scalars {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("missing or empty field: %s", field.name)
		}
	}

	if _, err := ParseDate(p.Date); err != nil {
		return fmt.Errorf("field \"date\" is not a valid ISO 8601 date")
	}

	if len(p.Items) == 0 {
		return fmt.Errorf("field \"items\" must be a non-empty array")
	}

	for i, item := range p.Items {
		itemScalars := []struct {
			name  string
			value string
		}{
			{"title", item.Title},
			{"url", item.URL},
			{"source", item.Source},
			{"snippet", item.Snippet},
		}
		for _, field := range itemScalars {
			if strings.TrimSpace(field.value) == "" {
				return fmt.Errorf("items[%d].%s is missing or empty", i, field.name)
			}
		}
		if !IsSafeURL(item.URL) {
			return fmt.Errorf("items[%d].url failed URL safety check", i)
		}
	}

	return nil
}

// ParseDate parses a payload date, accepting a full RFC 3339 timestamp or a
// bare calendar day.
func ParseDate(date string) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, date); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
