// Package relevance decides which extracted titles belong to the domain and
// ranks accepted postings.
package relevance

import (
	"regexp"
	"strings"
)

// DefaultKeywords gate candidate titles. Order matters: the keyword-proximity
// strategy scans only the first few.
var DefaultKeywords = []string{
	"scientist", "research", "data", "computational", "bioinformatics",
	"clinical", "genomics", "biostatistics", "biologist", "engineer",
	"analyst", "director", "manager", "associate", "principal", "lead",
	"machine learning", "ai", "software", "informatics", "statistics",
	"computational biology", "drug discovery", "clinical trial",
	"regulatory affairs", "quality assurance",
}

// matcher is a lowercased keyword. Keywords of three characters or fewer
// match only on word boundaries so "ai" does not hit "maintenance".
type matcher struct {
	keyword string
	re      *regexp.Regexp
}

func newMatchers(keywords []string) []matcher {
	out := make([]matcher, 0, len(keywords))
	seen := map[string]struct{}{}
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		m := matcher{keyword: kw}
		if len([]rune(kw)) <= 3 {
			m.re = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(kw) + `\b`)
		}
		out = append(out, m)
	}
	return out
}

// in reports whether the keyword occurs in text, which must already be lowercased.
func (m matcher) in(text string) bool {
	if m.re != nil {
		return m.re.MatchString(text)
	}
	return strings.Contains(text, m.keyword)
}

// Filter is the relevance gate applied to candidate titles.
type Filter struct {
	matchers []matcher
}

func NewFilter(keywords []string) *Filter {
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	return &Filter{matchers: newMatchers(keywords)}
}

func (f *Filter) IsRelevant(title string) bool {
	title = strings.ToLower(strings.TrimSpace(title))
	if title == "" {
		return false
	}
	for _, m := range f.matchers {
		if m.in(title) {
			return true
		}
	}
	return false
}
