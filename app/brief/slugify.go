package brief

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify converts a category name to its URL-safe slug: diacritics are
// folded, letters lowercased, runs of non-alphanumeric characters collapse
// to a single hyphen, and leading/trailing hyphens are trimmed.
func Slugify(s string) string {
	if folded, _, err := transform.String(foldTransformer, s); err == nil {
		s = folded
	}

	var b strings.Builder
	b.Grow(len(s))

	lastHyphen := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}

	return strings.Trim(b.String(), "-")
}

// DeriveID computes the deterministic brief id from a payload's date and
// category: the calendar day followed by the category slug. Re-ingesting the
// same logical brief on the same day yields the same id.
func DeriveID(date, category string) string {
	day := date
	if len(day) > 10 {
		day = day[:10]
	}
	return day + "-" + Slugify(category)
}
