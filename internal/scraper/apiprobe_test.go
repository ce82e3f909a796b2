package scraper

import (
	"context"
	"net/url"
	"testing"

	"github.com/athifer/biodsjobs/internal/models"
)

func TestAPIProbeFallsBackToOrigin(t *testing.T) {
	fetcher := &fakeFetcher{responses: map[string]fakeResponse{
		"https://api.acme.test/jobs": {status: 200, body: `{"jobPostings": [{"title": "Data Engineer", "location": "Remote"}]}`},
	}}
	in := page("https://acme.test/careers", "")
	in.Target.APIHint = "https://api.acme.test/jobs"
	in.Platform = models.PlatformWorkday

	out := NewAPIProbe(fetcher, Config{}).Extract(context.Background(), in)
	if out.Err != nil {
		t.Fatalf("Extract() error = %v", out.Err)
	}
	if len(out.Candidates) != 1 {
		t.Fatalf("len(Candidates) = %d, want 1", len(out.Candidates))
	}
	got := out.Candidates[0]
	if got.Title != "Data Engineer" || got.Location != "Remote" {
		t.Fatalf("unexpected candidate: %+v", got)
	}
	if got.URL != "https://acme.test/careers" {
		t.Fatalf("URL = %q, want origin fallback", got.URL)
	}
	if len(fetcher.calls) == 0 || fetcher.calls[0] != "POST https://api.acme.test/jobs" {
		t.Fatalf("expected POST first, calls = %v", fetcher.calls)
	}
}

func TestAPIProbeWorkdayCXS(t *testing.T) {
	fetcher := &fakeFetcher{responses: map[string]fakeResponse{
		"POST https://acme.wd1.myworkdayjobs.com/wday/cxs/acme/External/jobs": {status: 200, body: `{
			"total": 2,
			"jobPostings": [
				{"title": "Scientist II, Genomics", "externalPath": "/job/Boston/Scientist-II_R1", "locationsText": "Boston, MA", "postedOn": "Posted Today"},
				{"title": "Associate Director", "externalPath": "/job/Remote/AD_R2", "locationsText": "Remote"}
			]}`},
	}}
	in := page("https://acme.wd1.myworkdayjobs.com/en-US/External", "")
	in.Platform = models.PlatformWorkday

	out := NewAPIProbe(fetcher, Config{}).Extract(context.Background(), in)
	if len(out.Candidates) != 2 {
		t.Fatalf("len(Candidates) = %d, want 2 (calls %v)", len(out.Candidates), fetcher.calls)
	}
	if want := "https://acme.wd1.myworkdayjobs.com/External/job/Boston/Scientist-II_R1"; out.Candidates[0].URL != want {
		t.Fatalf("URL = %q, want %q", out.Candidates[0].URL, want)
	}
	if out.Candidates[0].Location != "Boston, MA" {
		t.Fatalf("Location = %q", out.Candidates[0].Location)
	}
}

func TestAPIProbeLeverTopLevelArray(t *testing.T) {
	fetcher := &fakeFetcher{responses: map[string]fakeResponse{
		"https://api.lever.co/v0/postings/recursion?mode=json": {status: 200, body: `[
			{"text": "Machine Learning Engineer", "hostedUrl": "https://jobs.lever.co/recursion/1",
			 "categories": {"location": "Salt Lake City"}, "descriptionPlain": "Build models", "createdAt": 1704164645000}
		]`},
	}}
	in := page("https://jobs.lever.co/recursion", "")
	in.Platform = models.PlatformLever

	out := NewAPIProbe(fetcher, Config{}).Extract(context.Background(), in)
	if len(out.Candidates) != 1 {
		t.Fatalf("len(Candidates) = %d, want 1", len(out.Candidates))
	}
	got := out.Candidates[0]
	if got.Location != "Salt Lake City" || got.URL != "https://jobs.lever.co/recursion/1" || got.Description != "Build models" {
		t.Fatalf("unexpected candidate: %+v", got)
	}
	if got.PostedAt.IsZero() {
		t.Fatalf("createdAt should map to PostedAt")
	}
	for _, call := range fetcher.calls {
		if call[:4] == "POST" {
			t.Fatalf("lever should only be probed with GET, calls = %v", fetcher.calls)
		}
	}
}

func TestAPIProbeGreenhouse(t *testing.T) {
	fetcher := &fakeFetcher{responses: map[string]fakeResponse{
		"https://boards-api.greenhouse.io/v1/boards/genentech/jobs?content=true": {status: 200, body: `{"jobs":[
			{"title":"Bioinformatics Scientist","absolute_url":"https://boards.greenhouse.io/genentech/jobs/9","location":{"name":"South San Francisco"},
			 "content":"&lt;p&gt;Analyze data&lt;/p&gt;","updated_at":"2024-02-01T10:00:00-05:00"}]}`},
	}}
	in := page("https://boards.greenhouse.io/genentech", "")
	in.Platform = models.PlatformGreenhouse

	out := NewAPIProbe(fetcher, Config{}).Extract(context.Background(), in)
	if len(out.Candidates) != 1 {
		t.Fatalf("len(Candidates) = %d, want 1", len(out.Candidates))
	}
	got := out.Candidates[0]
	if got.Location != "South San Francisco" || got.Description != "Analyze data" {
		t.Fatalf("unexpected candidate: %+v", got)
	}
}

func TestAPIProbeMalformedJSONIsParseError(t *testing.T) {
	fetcher := &fakeFetcher{responses: map[string]fakeResponse{
		"https://acme.test/api/jobs": {status: 200, body: `{"jobs": [`},
	}}
	in := page("https://acme.test", "")
	in.Platform = models.PlatformTalentBrew

	out := NewAPIProbe(fetcher, Config{}).Extract(context.Background(), in)
	if out.Err == nil {
		t.Fatalf("expected parse error")
	}
	if _, ok := out.Err.(*ParseError); !ok {
		t.Fatalf("error type = %T, want *ParseError", out.Err)
	}
}

func TestAPIProbeSkipsGenericSites(t *testing.T) {
	fetcher := &fakeFetcher{}
	in := page("https://acme.test/careers", "<html></html>")
	in.SiteType = models.SiteGenericMarkup

	out := NewAPIProbe(fetcher, Config{}).Extract(context.Background(), in)
	if len(out.Candidates) != 0 || out.Err != nil || len(fetcher.calls) != 0 {
		t.Fatalf("generic site should not be probed: %+v calls=%v", out, fetcher.calls)
	}
}

func TestExtractItemsNested(t *testing.T) {
	data := map[string]any{"data": map[string]any{"jobs": []any{map[string]any{"title": "A"}}}}
	if got := extractItems(data); len(got) != 1 {
		t.Fatalf("extractItems(nested) = %v", got)
	}
	data = map[string]any{"result": []any{map[string]any{"jobOpeningName": "B"}}}
	if got := extractItems(data); len(got) != 1 {
		t.Fatalf("extractItems(result) = %v", got)
	}
	if got := extractItems(map[string]any{"total": 3}); got != nil {
		t.Fatalf("extractItems(no list) = %v", got)
	}
}

func TestBoardToken(t *testing.T) {
	u, _ := url.Parse("https://job-boards.greenhouse.io/tempus/jobs")
	if got := boardToken(u, "fallback"); got != "tempus" {
		t.Fatalf("boardToken() = %q", got)
	}
	u, _ = url.Parse("https://careers.example.com/")
	if got := boardToken(u, "example"); got != "example" {
		t.Fatalf("boardToken(fallback) = %q", got)
	}
}
