package scraper

import (
	"context"
	"strings"
	"sync"

	"github.com/athifer/biodsjobs/internal/models"
	"github.com/athifer/biodsjobs/internal/network"
)

type containsGate []string

func (g containsGate) IsRelevant(title string) bool {
	title = strings.ToLower(title)
	for _, kw := range g {
		if strings.Contains(title, kw) {
			return true
		}
	}
	return false
}

var testGate = containsGate{"scientist", "data", "engineer", "bioinformatics", "computational"}

type fakeResponse struct {
	status int
	body   string
}

// fakeFetcher answers by "METHOD URL" first, then by URL alone.
type fakeFetcher struct {
	mu        sync.Mutex
	responses map[string]fakeResponse
	calls     []string
}

func (f *fakeFetcher) Fetch(_ context.Context, req network.Request) (models.FetchResult, error) {
	method := req.Method
	if method == "" {
		method = "GET"
	}
	f.mu.Lock()
	f.calls = append(f.calls, method+" "+req.URL)
	resp, ok := f.responses[method+" "+req.URL]
	if !ok {
		resp, ok = f.responses[req.URL]
	}
	f.mu.Unlock()
	if !ok {
		resp = fakeResponse{status: 404}
	}
	return models.FetchResult{
		RequestURL: req.URL,
		FinalURL:   req.URL,
		StatusCode: resp.status,
		Status:     models.ClassifyStatus(resp.status),
		Body:       []byte(resp.body),
	}, nil
}

func page(origin, body string) Input {
	return Input{
		Target: models.Target{Token: "acme", Name: "Acme Bio", OriginURL: origin},
		Result: models.FetchResult{FinalURL: origin, StatusCode: 200, Status: models.StatusSuccess, Body: []byte(body)},
		Gate:   testGate,
	}
}
