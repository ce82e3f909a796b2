package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/athifer/biodsjobs/internal/models"
)

// StructuredData reads schema.org JobPosting objects from JSON-LD blocks.
type StructuredData struct{}

func NewStructuredData() *StructuredData { return &StructuredData{} }

func (s *StructuredData) Name() string { return StrategyStructuredData }

func (s *StructuredData) Extract(_ context.Context, in Input) Outcome {
	if !in.Result.OK() || len(in.Result.Body) == 0 {
		return Outcome{}
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(in.Result.Body))
	if err != nil {
		return Outcome{Err: &ParseError{Strategy: s.Name(), Source: "html", Err: err}}
	}
	return Outcome{Candidates: parseJSONLDJobs(doc)}
}

func parseJSONLDJobs(doc *goquery.Document) []models.Candidate {
	var jobs []models.Candidate
	seen := map[string]struct{}{}

	doc.Find("script[type='application/ld+json']").Each(func(_ int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return
		}

		data, err := decodeJSONLD(raw)
		if err != nil {
			return
		}

		for _, job := range extractJobsFromJSONLD(data) {
			key := strings.ToLower(job.URL + "|" + job.Title)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			jobs = append(jobs, job)
		}
	})

	return jobs
}

func decodeJSONLD(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "<!--")
	raw = strings.TrimSuffix(raw, "-->")
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "//<![CDATA[")
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "//]]>")
	raw = strings.ReplaceAll(raw, "\u2028", "")
	raw = strings.ReplaceAll(raw, "\u2029", "")

	var data any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, err
	}
	return data, nil
}

func extractJobsFromJSONLD(data any) []models.Candidate {
	var jobs []models.Candidate

	switch value := data.(type) {
	case []any:
		for _, item := range value {
			jobs = append(jobs, extractJobsFromJSONLD(item)...)
		}
	case map[string]any:
		for _, typ := range jsonLDTypes(value) {
			switch typ {
			case "jobposting":
				if job, ok := candidateFromJobPosting(value); ok {
					jobs = append(jobs, job)
				}
				return jobs
			case "itemlist":
				jobs = append(jobs, jobsFromItemList(value)...)
			case "listitem":
				if item, ok := value["item"]; ok {
					jobs = append(jobs, extractJobsFromJSONLD(item)...)
				}
			}
		}
		if graph, ok := value["@graph"]; ok {
			jobs = append(jobs, extractJobsFromJSONLD(graph)...)
		}
		if main, ok := value["mainEntity"]; ok {
			jobs = append(jobs, extractJobsFromJSONLD(main)...)
		}
	}

	return jobs
}

// jsonLDTypes lowercases @type, which may be a string or a list.
func jsonLDTypes(value map[string]any) []string {
	raw := value["@type"]
	if raw == nil {
		raw = value["type"]
	}
	switch v := raw.(type) {
	case string:
		return []string{strings.ToLower(v)}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, strings.ToLower(s))
			}
		}
		return out
	}
	return nil
}

func jobsFromItemList(value map[string]any) []models.Candidate {
	items, ok := value["itemListElement"]
	if !ok {
		return nil
	}

	var jobs []models.Candidate
	switch list := items.(type) {
	case []any:
		for _, item := range list {
			jobs = append(jobs, extractJobsFromJSONLD(item)...)
		}
	case map[string]any:
		jobs = append(jobs, extractJobsFromJSONLD(list)...)
	}
	return jobs
}

func candidateFromJobPosting(value map[string]any) (models.Candidate, bool) {
	job := models.Candidate{Strategy: StrategyStructuredData}
	job.Title = cleanText(stringValue(value["title"], value["name"]))
	if job.Title == "" {
		return job, false
	}
	job.URL = stringValue(value["url"], value["@id"])
	job.Location = locationFromJSONLD(value["jobLocation"])
	if job.Location == "" && strings.EqualFold(stringValue(value["jobLocationType"]), "TELECOMMUTE") {
		job.Location = "Remote"
	}
	job.Description = htmlText(stringValue(value["description"]))
	job.PostedAt = postedAtValue(value["datePosted"])
	return job, true
}

func locationFromJSONLD(value any) string {
	if value == nil {
		return ""
	}

	switch v := value.(type) {
	case []any:
		var parts []string
		for _, item := range v {
			loc := locationFromJSONLD(item)
			if loc != "" {
				parts = append(parts, loc)
			}
		}
		return strings.Join(parts, "; ")
	case map[string]any:
		if addressMap, ok := v["address"].(map[string]any); ok {
			return joinAddress(addressMap)
		}
		if name := stringValue(v["name"]); name != "" {
			return name
		}
		return joinAddress(v)
	case string:
		return strings.TrimSpace(v)
	}

	return ""
}

func joinAddress(value map[string]any) string {
	parts := []string{
		stringValue(value["addressLocality"]),
		stringValue(value["addressRegion"]),
		stringValue(value["addressCountry"]),
	}
	var cleaned []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		cleaned = append(cleaned, part)
	}
	return strings.Join(cleaned, ", ")
}
