package scraper

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const defaultLocation = "Not specified"

func cleanText(value string) string {
	value = html.UnescapeString(value)
	return strings.Join(strings.Fields(value), " ")
}

// htmlText flattens an HTML fragment (possibly entity-escaped) to plain text.
func htmlText(value string) string {
	value = html.UnescapeString(value)
	if !strings.Contains(value, "<") {
		return cleanText(value)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(value))
	if err != nil {
		return cleanText(value)
	}
	return cleanText(doc.Text())
}

func absoluteURL(base string, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	baseURL, err := url.Parse(base)
	if err != nil || baseURL.Host == "" {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(ref).String()
}

func parsePostedAt(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	layouts := []string{
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02",
		"2006-01-02T15:04:05-0700",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time format: %s", value)
}

// postedAtValue accepts a date string or an epoch in milliseconds.
func postedAtValue(value any) time.Time {
	switch v := value.(type) {
	case string:
		if ts, err := parsePostedAt(v); err == nil {
			return ts
		}
	case float64:
		if v > 1e11 {
			return time.UnixMilli(int64(v)).UTC()
		}
		if v > 0 {
			return time.Unix(int64(v), 0).UTC()
		}
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return postedAtValue(float64(n))
		}
	}
	return time.Time{}
}

func stringValue(values ...any) string {
	for _, value := range values {
		switch v := value.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		case float64:
			return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
		case json.Number:
			return v.String()
		case map[string]any:
			if name := stringValue(v["name"]); name != "" {
				return name
			}
		case []any:
			var parts []string
			for _, item := range v {
				if s := stringValue(item); s != "" {
					parts = append(parts, s)
				}
			}
			if len(parts) > 0 {
				return strings.Join(parts, "; ")
			}
		}
	}
	return ""
}

func mapValue(value any, key string) any {
	m, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	return m[key]
}

// pathValue walks a dotted path such as "categories.location".
func pathValue(value any, path string) any {
	current := value
	for _, key := range strings.Split(path, ".") {
		current = mapValue(current, key)
		if current == nil {
			return nil
		}
	}
	return current
}
