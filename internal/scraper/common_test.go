package scraper

import (
	"testing"
	"time"
)

func TestParsePostedAt(t *testing.T) {
	cases := []string{
		"2024-01-02",
		"2024-01-02T15:04:05-0700",
		"2024-01-02T15:04:05",
		time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC).Format(time.RFC3339),
	}

	for _, value := range cases {
		parsed, err := parsePostedAt(value)
		if err != nil {
			t.Fatalf("expected parse success for %s: %v", value, err)
		}
		if parsed.IsZero() {
			t.Fatalf("parsed time should not be zero for %s", value)
		}
	}
	if _, err := parsePostedAt("Posted 3 Days Ago"); err == nil {
		t.Fatalf("expected relative phrase to be rejected")
	}
}

func TestPostedAtValueEpochMillis(t *testing.T) {
	got := postedAtValue(float64(1704164645000))
	want := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("postedAtValue() = %v, want %v", got, want)
	}
}

func TestAbsoluteURL(t *testing.T) {
	base := "https://example.com/path/page"
	cases := []struct {
		href string
		want string
	}{
		{"/jobs/1", "https://example.com/jobs/1"},
		{"jobs/2", "https://example.com/path/jobs/2"},
		{"https://other.com/a", "https://other.com/a"},
		{"//cdn.example.com/asset", "https://cdn.example.com/asset"},
		{"#apply", ""},
		{"javascript:void(0)", ""},
	}

	for _, tc := range cases {
		got := absoluteURL(base, tc.href)
		if got != tc.want {
			t.Fatalf("absoluteURL(%q) = %q, want %q", tc.href, got, tc.want)
		}
	}
}

func TestHTMLText(t *testing.T) {
	got := htmlText("&lt;p&gt;Analyze &amp;amp; model   NGS data&lt;/p&gt;")
	if got != "Analyze & model NGS data" {
		t.Fatalf("htmlText() = %q", got)
	}
	if got := htmlText("plain  text"); got != "plain text" {
		t.Fatalf("htmlText(plain) = %q", got)
	}
}
