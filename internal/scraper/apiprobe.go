package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"github.com/athifer/biodsjobs/internal/models"
	"github.com/athifer/biodsjobs/internal/network"
)

var workdaySearchPayload = []byte(`{"appliedFacets":{},"limit":50,"offset":0,"searchText":""}`)

// endpoint is one probe location. post endpoints are tried with the
// pagination payload first and then with GET.
type endpoint struct {
	url  string
	post bool
	// site is the root that relative item paths resolve against.
	site string
}

// APIProbe queries public job-list endpoints of known platforms and accepts
// the first JSON response that carries a job array.
type APIProbe struct {
	fetcher Fetcher
	cfg     Config
}

func NewAPIProbe(fetcher Fetcher, cfg Config) *APIProbe {
	return &APIProbe{fetcher: fetcher, cfg: cfg.withDefaults()}
}

func (p *APIProbe) Name() string { return StrategyAPIProbe }

func (p *APIProbe) Extract(ctx context.Context, in Input) Outcome {
	if p.fetcher == nil {
		return Outcome{}
	}
	endpoints := probeEndpoints(in)
	if len(endpoints) == 0 {
		return Outcome{}
	}

	var lastErr error
	for _, ep := range endpoints {
		if ctx.Err() != nil {
			return Outcome{Err: ctx.Err()}
		}
		methods := []string{"GET"}
		if ep.post {
			methods = []string{"POST", "GET"}
		}
		for _, method := range methods {
			items, err := p.try(ctx, ep, method)
			if err != nil {
				lastErr = err
				if network.IsNetworkError(err) && ctx.Err() != nil {
					return Outcome{Err: err}
				}
				continue
			}
			if len(items) == 0 {
				continue
			}
			return Outcome{Candidates: p.candidates(items, ep, in)}
		}
	}

	var parseErr *ParseError
	if errors.As(lastErr, &parseErr) {
		return Outcome{Err: lastErr}
	}
	return Outcome{}
}

func (p *APIProbe) try(ctx context.Context, ep endpoint, method string) ([]map[string]any, error) {
	req := network.Request{
		URL:     ep.url,
		Method:  method,
		Headers: map[string]string{"accept": "application/json"},
	}
	if method == "POST" {
		req.Body = workdaySearchPayload
		req.Headers["content-type"] = "application/json"
	}
	res, err := p.fetcher.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return nil, nil
	}
	body := strings.TrimSpace(string(res.Body))
	if body == "" || (body[0] != '{' && body[0] != '[') {
		return nil, nil
	}
	var data any
	if err := json.Unmarshal([]byte(body), &data); err != nil {
		return nil, &ParseError{Strategy: StrategyAPIProbe, Source: ep.url, Err: err}
	}
	return extractItems(data), nil
}

func (p *APIProbe) candidates(items []map[string]any, ep endpoint, in Input) []models.Candidate {
	if len(items) > p.cfg.APIItemCap {
		items = items[:p.cfg.APIItemCap]
	}
	site := ep.site
	if site == "" {
		site = in.Target.OriginURL
	}
	out := make([]models.Candidate, 0, len(items))
	for _, item := range items {
		cand, ok := candidateFromItem(item, site)
		if !ok {
			continue
		}
		if cand.URL == "" {
			cand.URL = in.Target.OriginURL
		}
		out = append(out, cand)
	}
	return out
}

// probeEndpoints lists the endpoints to try for a target: the registry hint
// first, then platform-specific patterns.
func probeEndpoints(in Input) []endpoint {
	var out []endpoint
	seen := map[string]struct{}{}
	add := func(ep endpoint) {
		if ep.url == "" {
			return
		}
		if _, ok := seen[ep.url]; ok {
			return
		}
		seen[ep.url] = struct{}{}
		out = append(out, ep)
	}

	if hint := strings.TrimSpace(in.Target.APIHint); hint != "" {
		add(endpoint{url: hint, post: in.Platform == models.PlatformWorkday || in.Platform == models.PlatformUnknown || in.Platform == ""})
	}

	origin := strings.TrimRight(strings.TrimSpace(in.Target.OriginURL), "/")
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return out
	}
	root := u.Scheme + "://" + u.Host

	switch in.Platform {
	case models.PlatformWorkday:
		for _, ep := range workdayEndpoints(u) {
			add(ep)
		}
	case models.PlatformGreenhouse:
		add(endpoint{url: "https://boards-api.greenhouse.io/v1/boards/" + boardToken(u, in.Target.Token) + "/jobs?content=true"})
	case models.PlatformLever:
		add(endpoint{url: "https://api.lever.co/v0/postings/" + boardToken(u, in.Target.Token) + "?mode=json"})
	case models.PlatformBambooHR:
		add(endpoint{url: root + "/careers/list", site: root + "/careers"})
	case models.PlatformTalentBrew:
		add(endpoint{url: root + "/api/jobs"})
	case models.PlatformICIMS:
		add(endpoint{url: origin + "/search"})
		add(endpoint{url: origin + "/api/jobs"})
	default:
		if in.SiteType == models.SiteScriptRendered {
			add(endpoint{url: origin + "/api/jobs"})
			add(endpoint{url: root + "/api/jobs"})
		}
	}
	return out
}

// workdayEndpoints derives the CXS search endpoint from a site URL such as
// https://acme.wd1.myworkdayjobs.com/en-US/External, plus legacy patterns.
func workdayEndpoints(u *url.URL) []endpoint {
	root := u.Scheme + "://" + u.Host
	base := root + strings.TrimRight(u.Path, "/")

	var out []endpoint
	tenant := strings.Split(u.Host, ".")[0]
	segments := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	if len(segments) > 0 && isLocale(segments[0]) {
		segments = segments[1:]
	}
	if len(segments) > 0 && tenant != "" {
		site := segments[0]
		out = append(out, endpoint{
			url:  root + "/wday/cxs/" + tenant + "/" + site + "/jobs",
			post: true,
			site: root + "/" + site,
		})
	}
	for _, raw := range []string{
		base + "/fs/searchPaginated/jobs",
		base + "/searchPaginated/jobs",
		root + "/wday/cxs/jobs/api/search",
		base + "/jobs",
		base + "/api/jobs",
	} {
		out = append(out, endpoint{url: raw, post: true, site: base})
	}
	return out
}

func isLocale(segment string) bool {
	if len(segment) != 5 || segment[2] != '-' {
		return false
	}
	return strings.ToLower(segment[:2]) == segment[:2] && strings.ToUpper(segment[3:]) == segment[3:]
}

// boardToken takes the board name from URLs like boards.greenhouse.io/{token}
// or jobs.lever.co/{token}, falling back to the registry token.
func boardToken(u *url.URL, fallback string) string {
	host := strings.ToLower(u.Host)
	if strings.HasSuffix(host, "greenhouse.io") || strings.HasSuffix(host, "lever.co") {
		segments := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
		if len(segments) > 0 {
			return segments[0]
		}
	}
	return url.PathEscape(strings.TrimSpace(fallback))
}
