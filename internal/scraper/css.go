package scraper

import (
	"bytes"
	"context"

	"github.com/PuerkitoBio/goquery"

	"github.com/athifer/biodsjobs/internal/models"
)

// selectorGroups are tried in order; the first group yielding a relevant
// candidate wins.
var selectorGroups = []string{
	`[data-testid*="job"], [data-test*="job"]`,
	`.job-listing, .job-item, .job-card, .position`,
	`[class*="job"], [class*="position"], [class*="role"]`,
	`li[data-automation-id], div[data-automation-id]`,
	`.careers-position, .career-opportunity`,
}

var (
	titleSelectors    = []string{"h1", "h2", "h3", "h4", ".title", ".job-title", `[data-testid*="title"]`, "a"}
	locationSelectors = []string{".location", ".job-location", `[data-testid*="location"]`}
)

const minCSSTitleLen = 5

// CSSHeuristic matches common job-card class and attribute patterns.
type CSSHeuristic struct {
	cfg Config
}

func NewCSSHeuristic(cfg Config) *CSSHeuristic {
	return &CSSHeuristic{cfg: cfg.withDefaults()}
}

func (s *CSSHeuristic) Name() string { return StrategyCSSHeuristic }

func (s *CSSHeuristic) Extract(_ context.Context, in Input) Outcome {
	if !in.Result.OK() || len(in.Result.Body) == 0 {
		return Outcome{}
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(in.Result.Body))
	if err != nil {
		return Outcome{Err: &ParseError{Strategy: s.Name(), Source: "html", Err: err}}
	}

	for _, group := range selectorGroups {
		elements := doc.Find(group)
		if elements.Length() == 0 {
			continue
		}
		var (
			jobs     []models.Candidate
			relevant bool
		)
		elements.EachWithBreak(func(i int, el *goquery.Selection) bool {
			if i >= s.cfg.CSSItemCap {
				return false
			}
			job, ok := candidateFromElement(el)
			if !ok {
				return true
			}
			if in.accepts(job.Title) {
				relevant = true
			}
			jobs = append(jobs, job)
			return true
		})
		if relevant {
			return Outcome{Candidates: jobs}
		}
	}
	return Outcome{}
}

func candidateFromElement(el *goquery.Selection) (models.Candidate, bool) {
	var title, link string
	for _, selector := range titleSelectors {
		node := el.Find(selector).First()
		if node.Length() == 0 {
			continue
		}
		title = cleanText(node.Text())
		if goquery.NodeName(node) == "a" {
			link, _ = node.Attr("href")
		} else if link == "" {
			link, _ = node.Find("a[href]").First().Attr("href")
		}
		if len(title) > minCSSTitleLen {
			break
		}
	}
	if len(title) < minCSSTitleLen {
		return models.Candidate{}, false
	}
	if link == "" {
		link = nearestLink(el)
	}

	location := defaultLocation
	for _, selector := range locationSelectors {
		node := el.Find(selector).First()
		if node.Length() == 0 {
			continue
		}
		if text := cleanText(node.Text()); text != "" {
			location = text
		}
		break
	}

	return models.Candidate{
		Title:    title,
		Location: location,
		URL:      link,
		Strategy: StrategyCSSHeuristic,
	}, true
}

// nearestLink returns the element's own href, a contained link, or the closest
// enclosing link.
func nearestLink(el *goquery.Selection) string {
	if goquery.NodeName(el) == "a" {
		if href, ok := el.Attr("href"); ok {
			return href
		}
	}
	if href, ok := el.Find("a[href]").First().Attr("href"); ok {
		return href
	}
	if href, ok := el.Closest("a[href]").Attr("href"); ok {
		return href
	}
	return ""
}
