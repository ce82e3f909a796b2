package classify

import (
	"strings"
	"testing"

	"github.com/athifer/biodsjobs/internal/models"
)

func ok(finalURL, body string) models.FetchResult {
	return models.FetchResult{FinalURL: finalURL, Status: models.StatusSuccess, StatusCode: 200, Body: []byte(body)}
}

func TestClassify(t *testing.T) {
	c := New()
	big := "<html><body>" + strings.Repeat("<p>lorem ipsum</p>", 2000) + `<div id="root"></div></body></html>`

	cases := []struct {
		name   string
		target models.Target
		res    models.FetchResult
		want   models.SiteType
	}{
		{
			name:   "hint wins",
			target: models.Target{Platform: models.PlatformLever, OriginURL: "https://example.com/careers"},
			res:    ok("https://example.com/careers", "<html></html>"),
			want:   models.SitePlatformAPI,
		},
		{
			name:   "workday host",
			target: models.Target{OriginURL: "https://amgen.wd1.myworkdayjobs.com/Careers"},
			res:    ok("https://amgen.wd1.myworkdayjobs.com/en-US/Careers", "<html></html>"),
			want:   models.SitePlatformAPI,
		},
		{
			name:   "icims body marker",
			target: models.Target{OriginURL: "https://example.com/jobs"},
			res:    ok("https://example.com/jobs", `<iframe src="https://careers-acme.icims.com/jobs"></iframe>`),
			want:   models.SitePlatformMarkup,
		},
		{
			name:   "thin react shell",
			target: models.Target{OriginURL: "https://example.com/jobs"},
			res:    ok("https://example.com/jobs", `<html><body><div id="root"></div><script src="/app.js"></script></body></html>`),
			want:   models.SiteScriptRendered,
		},
		{
			name:   "large page with signature stays generic",
			target: models.Target{OriginURL: "https://example.com/jobs"},
			res:    ok("https://example.com/jobs", big),
			want:   models.SiteGenericMarkup,
		},
		{
			name:   "plain markup",
			target: models.Target{OriginURL: "https://example.com/jobs"},
			res:    ok("https://example.com/jobs", `<html><body><ul><li>Scientist</li></ul></body></html>`),
			want:   models.SiteGenericMarkup,
		},
		{
			name:   "server error",
			target: models.Target{OriginURL: "https://example.com/jobs"},
			res:    models.FetchResult{Status: models.StatusServerError, StatusCode: 503},
			want:   models.SiteUnknown,
		},
		{
			name:   "network error",
			target: models.Target{Platform: models.PlatformGreenhouse},
			res:    models.FetchResult{Status: models.StatusNetworkError},
			want:   models.SiteUnknown,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.Classify(tc.target, tc.res); got != tc.want {
				t.Fatalf("Classify() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestPlatformFromHosts(t *testing.T) {
	c := New()
	cases := map[string]models.Platform{
		"https://boards.greenhouse.io/genentech": models.PlatformGreenhouse,
		"https://jobs.lever.co/recursion":        models.PlatformLever,
		"https://acme.bamboohr.com/careers/":     models.PlatformBambooHR,
		"https://chc.tbe.taleo.net/chc01/ats":    models.PlatformTaleo,
		"https://notlever.co.uk/jobs":            models.PlatformUnknown,
	}
	for raw, want := range cases {
		got := c.Platform(models.Target{OriginURL: raw}, models.FetchResult{})
		if got != want {
			t.Fatalf("Platform(%s) = %s, want %s", raw, got, want)
		}
	}
}

func TestRegistrableDomain(t *testing.T) {
	if got := RegistrableDomain("https://careers.amgen.co.uk/x"); got != "amgen.co.uk" {
		t.Fatalf("RegistrableDomain() = %q", got)
	}
	if got := RegistrableDomain("::bad"); got != "" {
		t.Fatalf("RegistrableDomain(bad) = %q", got)
	}
}
