// Package normalize turns strategy candidates into storable postings.
package normalize

import (
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/athifer/biodsjobs/internal/models"
)

// ErrInvalidCandidate marks a candidate that cannot become a posting. Callers
// drop such candidates instead of failing the target.
var ErrInvalidCandidate = errors.New("invalid candidate")

const (
	DefaultTitleMax       = 200
	DefaultDescriptionMax = 500
	DefaultLocation       = "Not specified"
)

type Normalizer struct {
	TitleMax       int
	DescriptionMax int
	Now            func() time.Time
}

func New() *Normalizer {
	return &Normalizer{
		TitleMax:       DefaultTitleMax,
		DescriptionMax: DefaultDescriptionMax,
		Now:            time.Now,
	}
}

// Normalize cleans the candidate's text fields, takes the company from the
// target and fills defaults.
func (n *Normalizer) Normalize(c models.Candidate, t models.Target) (models.Posting, error) {
	title := clip(Text(c.Title), n.TitleMax)
	if title == "" {
		return models.Posting{}, fmt.Errorf("%w: empty title", ErrInvalidCandidate)
	}
	link, err := canonicalURL(c.URL)
	if err != nil {
		return models.Posting{}, fmt.Errorf("%w: %v", ErrInvalidCandidate, err)
	}

	company := Text(t.Name)
	if company == "" {
		company = Text(t.Token)
	}

	location := Text(c.Location)
	if location == "" {
		location = DefaultLocation
	}

	posted := c.PostedAt
	if posted.IsZero() {
		posted = n.now()
	}

	description := Text(c.Description)
	if description == "" {
		description = fmt.Sprintf("Position at %s — %s", company, title)
	}
	description = ellipsize(description, n.DescriptionMax)

	return models.Posting{
		URL:         link,
		Title:       title,
		Company:     company,
		Location:    location,
		Source:      t.Source(),
		TargetToken: t.Token,
		PostedAt:    posted.UTC(),
		Description: description,
	}, nil
}

// Text unescapes entities, collapses whitespace and applies NFC.
func Text(value string) string {
	value = html.UnescapeString(value)
	value = strings.Join(strings.Fields(value), " ")
	return norm.NFC.String(value)
}

func (n *Normalizer) now() time.Time {
	if n.Now == nil {
		return time.Now()
	}
	return n.Now()
}

func canonicalURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("empty url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("url %q is not absolute http(s)", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("url %q has no host", raw)
	}
	u.Scheme = scheme
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	return u.String(), nil
}

func clip(value string, max int) string {
	runes := []rune(value)
	if max > 0 && len(runes) > max {
		return strings.TrimSpace(string(runes[:max]))
	}
	return value
}

func ellipsize(value string, max int) string {
	runes := []rune(value)
	if max <= 0 || len(runes) <= max {
		return value
	}
	return strings.TrimSpace(string(runes[:max])) + "..."
}
