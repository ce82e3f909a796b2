// Package classify guesses which extraction approach suits a fetched careers page.
// The result is advisory: the strategy chain runs regardless.
package classify

import (
	"bytes"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/athifer/biodsjobs/internal/models"
)

// ThinPageBytes is the body size under which a page with a framework
// signature is considered script-rendered.
const ThinPageBytes = 15000

type platformMarker struct {
	platform models.Platform
	domains  []string
	body     []string
	api      bool
}

var platformMarkers = []platformMarker{
	{platform: models.PlatformWorkday, domains: []string{"myworkdayjobs.com", "myworkdaysite.com", "workday.com"}, body: []string{"myworkdayjobs.com", "wday/cxs"}, api: true},
	{platform: models.PlatformGreenhouse, domains: []string{"greenhouse.io"}, body: []string{"boards.greenhouse.io", "job-boards.greenhouse.io", "greenhouse.io/embed"}, api: true},
	{platform: models.PlatformLever, domains: []string{"lever.co"}, body: []string{"jobs.lever.co", "api.lever.co"}, api: true},
	{platform: models.PlatformBambooHR, domains: []string{"bamboohr.com"}, body: []string{"bamboohr.com"}, api: true},
	{platform: models.PlatformTalentBrew, domains: []string{"talentbrew.com"}, body: []string{"tbcdn.talentbrew.com", "talentbrew"}, api: true},
	{platform: models.PlatformICIMS, domains: []string{"icims.com"}, body: []string{"icims.com"}},
	{platform: models.PlatformTaleo, domains: []string{"taleo.net"}, body: []string{"taleo.net", "taleo"}},
}

var scriptSignatures = [][]byte{
	[]byte(`id="__next"`),
	[]byte(`__NEXT_DATA__`),
	[]byte(`id="root"`),
	[]byte(`id="app"`),
	[]byte(`ng-version`),
	[]byte(`data-reactroot`),
	[]byte(`window.__INITIAL_STATE__`),
	[]byte(`__NUXT__`),
	[]byte(`enable javascript`),
}

type Classifier struct{}

func New() *Classifier {
	return &Classifier{}
}

// Classify assigns a SiteType to a fetch result. Priority: platform marker,
// then script-rendered signature on a thin page, then generic markup. Failed
// or non-success fetches are unknown.
func (c *Classifier) Classify(target models.Target, res models.FetchResult) models.SiteType {
	if !res.OK() {
		return models.SiteUnknown
	}
	if p := c.Platform(target, res); p != models.PlatformUnknown {
		if supportsAPI(p) {
			return models.SitePlatformAPI
		}
		return models.SitePlatformMarkup
	}
	if len(res.Body) < ThinPageBytes && hasScriptSignature(res.Body) {
		return models.SiteScriptRendered
	}
	return models.SiteGenericMarkup
}

// Platform detects the applicant tracking system behind a target. The
// registry hint wins, then the final and origin hosts, then body markers.
func (c *Classifier) Platform(target models.Target, res models.FetchResult) models.Platform {
	if target.Platform != "" && target.Platform != models.PlatformUnknown {
		return target.Platform
	}
	for _, raw := range []string{res.FinalURL, target.OriginURL} {
		if p := platformFromHost(raw); p != models.PlatformUnknown {
			return p
		}
	}
	if len(res.Body) == 0 {
		return models.PlatformUnknown
	}
	lower := bytes.ToLower(res.Body)
	for _, marker := range platformMarkers {
		for _, needle := range marker.body {
			if bytes.Contains(lower, []byte(needle)) {
				return marker.platform
			}
		}
	}
	return models.PlatformUnknown
}

func supportsAPI(p models.Platform) bool {
	for _, marker := range platformMarkers {
		if marker.platform == p {
			return marker.api
		}
	}
	return false
}

func platformFromHost(raw string) models.Platform {
	domain := RegistrableDomain(raw)
	if domain == "" {
		return models.PlatformUnknown
	}
	for _, marker := range platformMarkers {
		for _, d := range marker.domains {
			if domain == d {
				return marker.platform
			}
		}
	}
	return models.PlatformUnknown
}

// RegistrableDomain returns the eTLD+1 of a URL's host, or "" when it cannot be derived.
func RegistrableDomain(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Hostname() == "" {
		return ""
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(strings.ToLower(u.Hostname()))
	if err != nil {
		return ""
	}
	return domain
}

func hasScriptSignature(body []byte) bool {
	lower := bytes.ToLower(body)
	for _, sig := range scriptSignatures {
		if bytes.Contains(lower, bytes.ToLower(sig)) {
			return true
		}
	}
	return false
}
