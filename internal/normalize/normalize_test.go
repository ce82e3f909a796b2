package normalize

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/athifer/biodsjobs/internal/models"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newNormalizer() *Normalizer {
	n := New()
	n.Now = func() time.Time { return fixedNow }
	return n
}

var target = models.Target{Token: "acme", Name: "Acme Bio", OriginURL: "https://acme.com/careers", Platform: models.PlatformGreenhouse}

func TestNormalizeDefaults(t *testing.T) {
	got, err := newNormalizer().Normalize(models.Candidate{Title: "  Data\n Engineer ", URL: "https://Acme.com/jobs/1#apply"}, target)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if got.Title != "Data Engineer" {
		t.Fatalf("Title = %q", got.Title)
	}
	if got.URL != "https://acme.com/jobs/1" {
		t.Fatalf("URL = %q", got.URL)
	}
	if got.Company != "Acme Bio" || got.Source != "greenhouse" || got.TargetToken != "acme" {
		t.Fatalf("unexpected identity fields: %+v", got)
	}
	if got.Location != DefaultLocation {
		t.Fatalf("Location = %q", got.Location)
	}
	if !got.PostedAt.Equal(fixedNow) {
		t.Fatalf("PostedAt = %v", got.PostedAt)
	}
	if got.Description != "Position at Acme Bio — Data Engineer" {
		t.Fatalf("Description = %q", got.Description)
	}
}

func TestNormalizeCaps(t *testing.T) {
	c := models.Candidate{
		Title:       strings.Repeat("t", 250),
		URL:         "https://acme.com/jobs/2",
		Description: strings.Repeat("d", 900),
	}
	got, err := newNormalizer().Normalize(c, target)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if n := len([]rune(got.Title)); n != DefaultTitleMax {
		t.Fatalf("title length = %d", n)
	}
	if n := len([]rune(got.Description)); n != DefaultDescriptionMax+3 {
		t.Fatalf("description length = %d", n)
	}
}

func TestNormalizeRejects(t *testing.T) {
	cases := []models.Candidate{
		{Title: "   ", URL: "https://acme.com/jobs/1"},
		{Title: "Scientist", URL: "/jobs/1"},
		{Title: "Scientist", URL: "mailto:jobs@acme.com"},
		{Title: "Scientist"},
	}
	for _, c := range cases {
		if _, err := newNormalizer().Normalize(c, target); !errors.Is(err, ErrInvalidCandidate) {
			t.Fatalf("Normalize(%+v) error = %v, want ErrInvalidCandidate", c, err)
		}
	}
}

func TestNormalizeUnicode(t *testing.T) {
	// "e" followed by a combining acute accent composes to a single rune.
	got, err := newNormalizer().Normalize(models.Candidate{Title: "Re\u0301sume\u0301 Analyst &amp; Scientist", URL: "https://acme.com/x"}, target)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if got.Title != "R\u00e9sum\u00e9 Analyst & Scientist" {
		t.Fatalf("Title = %q", got.Title)
	}
}

func TestNormalizeSourceFallback(t *testing.T) {
	got, err := newNormalizer().Normalize(models.Candidate{Title: "Scientist", URL: "https://x.com/1", PostedAt: fixedNow.Add(-time.Hour)}, models.Target{Token: "x"})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if got.Source != "unknown" || got.Company != "x" {
		t.Fatalf("unexpected fallback fields: %+v", got)
	}
	if !got.PostedAt.Equal(fixedNow.Add(-time.Hour)) {
		t.Fatalf("PostedAt should be kept")
	}
}
