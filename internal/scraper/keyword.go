package scraper

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/athifer/biodsjobs/internal/models"
)

// titleHosts are the parent elements whose text may stand in for a title.
var titleHosts = map[atom.Atom]bool{
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true,
	atom.A: true, atom.Span: true, atom.Div: true, atom.Li: true,
}

var skipped = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Noscript: true, atom.Template: true, atom.Head: true,
}

// KeywordProximity is the last-resort strategy: it finds text nodes that mention
// a domain keyword and treats the enclosing element's text as a title.
type KeywordProximity struct {
	cfg      Config
	patterns []*regexp.Regexp
}

func NewKeywordProximity(cfg Config) *KeywordProximity {
	cfg = cfg.withDefaults()
	k := &KeywordProximity{cfg: cfg}
	for i, kw := range cfg.Keywords {
		if i >= cfg.KeywordScan {
			break
		}
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		k.patterns = append(k.patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(kw)+`\b`))
	}
	return k
}

func (k *KeywordProximity) Name() string { return StrategyKeyword }

func (k *KeywordProximity) Extract(ctx context.Context, in Input) Outcome {
	if !in.Result.OK() || len(in.Result.Body) == 0 || len(k.patterns) == 0 {
		return Outcome{}
	}
	root, err := html.Parse(bytes.NewReader(in.Result.Body))
	if err != nil {
		return Outcome{Err: &ParseError{Strategy: k.Name(), Source: "html", Err: err}}
	}

	textNodes := collectTextNodes(root)
	var jobs []models.Candidate
	seen := map[string]struct{}{}

	for _, pattern := range k.patterns {
		if ctx.Err() != nil || len(jobs) >= k.cfg.KeywordTotalCap {
			break
		}
		matched := 0
		for _, node := range textNodes {
			if matched >= k.cfg.PerKeywordCap || len(jobs) >= k.cfg.KeywordTotalCap {
				break
			}
			if !pattern.MatchString(node.Data) {
				continue
			}
			matched++

			parent := node.Parent
			if parent == nil || parent.Type != html.ElementNode || !titleHosts[parent.DataAtom] {
				continue
			}
			title := cleanText(nodeText(parent))
			n := utf8.RuneCountInString(title)
			if n < k.cfg.MinTitleLen || n > k.cfg.MaxTitleLen {
				continue
			}
			link := linkNear(parent)
			key := strings.ToLower(title) + "|" + link
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			jobs = append(jobs, models.Candidate{
				Title:    title,
				Location: defaultLocation,
				URL:      link,
				Strategy: StrategyKeyword,
			})
		}
	}
	return Outcome{Candidates: jobs}
}

func collectTextNodes(root *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipped[n.DataAtom] {
			return
		}
		if n.Type == html.TextNode && strings.TrimSpace(n.Data) != "" {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// linkNear returns the href of n itself, its first descendant link, or the
// nearest ancestor link.
func linkNear(n *html.Node) string {
	if href := attr(n, "href"); n.DataAtom == atom.A && href != "" {
		return href
	}
	if href := firstDescendantHref(n); href != "" {
		return href
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.DataAtom == atom.A {
			if href := attr(p, "href"); href != "" {
				return href
			}
		}
	}
	return ""
}

func firstDescendantHref(n *html.Node) string {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.A {
			if href := attr(c, "href"); href != "" {
				return href
			}
		}
		if href := firstDescendantHref(c); href != "" {
			return href
		}
	}
	return ""
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}
