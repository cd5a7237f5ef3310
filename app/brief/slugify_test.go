package brief

import "testing"

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"AI/ML", "ai-ml"},
		{"  AI  ", "ai"},
		{"Security", "security"},
		{"Large   Language Models", "large-language-models"},
		{"C++ & Rust!", "c-rust"},
		{"---", ""},
		{"", ""},
		{"Café Culture", "cafe-culture"},
		{"2026 Outlook", "2026-outlook"},
	}

	for _, c := range cases {
		if got := Slugify(c.in); got != c.want {
			t.Errorf("Slugify(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestDeriveID(t *testing.T) {
	cases := []struct {
		date     string
		category string
		want     string
	}{
		{"2026-02-18T06:00:00Z", "AI/ML", "2026-02-18-ai-ml"},
		{"2026-02-18T06:00:00Z", "  AI  ", "2026-02-18-ai"},
		{"2026-02-18", "Security", "2026-02-18-security"},
	}

	for _, c := range cases {
		if got := DeriveID(c.date, c.category); got != c.want {
			t.Errorf("DeriveID(%q, %q) = %q, want %q", c.date, c.category, got, c.want)
		}
	}
}

func TestDeriveIDIsStable(t *testing.T) {
	// Re-ingesting the same logical brief the same day must produce the same id
	first := DeriveID("2026-02-18T06:00:00Z", "AI/ML")
	second := DeriveID("2026-02-18T18:30:00Z", "AI/ML")
	if first != second {
		t.Errorf("Expected same id for same day and category, got %q and %q", first, second)
	}
}
