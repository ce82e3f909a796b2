package scraper

import (
	"strings"

	"github.com/athifer/biodsjobs/internal/models"
)

// listKeys are the response fields that may hold the job array, in lookup order.
var listKeys = []string{"jobPostings", "jobs", "postings", "searchResults", "results", "data", "body", "content", "result"}

// itemFields maps each logical posting attribute to the candidate keys tried
// in order. Dotted keys walk nested objects.
var itemFields = struct {
	title       []string
	location    []string
	url         []string
	description []string
	posted      []string
}{
	title:       []string{"title", "jobTitle", "name", "positionTitle", "text", "jobOpeningName"},
	location:    []string{"locationsText", "location.name", "location", "primaryLocation", "categories.location", "locationName", "city"},
	url:         []string{"url", "jobUrl", "externalUrl", "applyUrl", "absolute_url", "hostedUrl", "externalPath"},
	description: []string{"descriptionPlain", "description", "content", "summary"},
	posted:      []string{"postedOn", "datePosted", "updated_at", "createdAt", "postedDate"},
}

// extractItems finds the job array in a decoded API response.
func extractItems(data any) []map[string]any {
	switch v := data.(type) {
	case []any:
		return objectItems(v)
	case map[string]any:
		for _, key := range listKeys {
			switch inner := v[key].(type) {
			case []any:
				if items := objectItems(inner); len(items) > 0 {
					return items
				}
			case map[string]any:
				if jobs, ok := inner["jobs"].([]any); ok {
					if items := objectItems(jobs); len(items) > 0 {
						return items
					}
				}
				for _, nested := range listKeys {
					if list, ok := inner[nested].([]any); ok {
						if items := objectItems(list); len(items) > 0 {
							return items
						}
					}
				}
			}
		}
	}
	return nil
}

func objectItems(list []any) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func lookup(item map[string]any, keys []string) (string, string) {
	for _, key := range keys {
		if value := stringValue(pathValue(item, key)); value != "" {
			return value, key
		}
	}
	return "", ""
}

// candidateFromItem maps one API item through the lookup table. Workday's
// externalPath is relative to the site root, not the host.
func candidateFromItem(item map[string]any, siteURL string) (models.Candidate, bool) {
	title, _ := lookup(item, itemFields.title)
	if title == "" {
		return models.Candidate{}, false
	}
	cand := models.Candidate{Title: title, Strategy: StrategyAPIProbe}
	cand.Location, _ = lookup(item, itemFields.location)

	link, key := lookup(item, itemFields.url)
	if key == "externalPath" && siteURL != "" {
		link = strings.TrimRight(siteURL, "/") + "/" + strings.TrimLeft(link, "/")
	}
	cand.URL = link

	if desc, _ := lookup(item, itemFields.description); desc != "" {
		cand.Description = htmlText(desc)
	}
	for _, key := range itemFields.posted {
		if ts := postedAtValue(pathValue(item, key)); !ts.IsZero() {
			cand.PostedAt = ts
			break
		}
	}
	return cand, true
}
