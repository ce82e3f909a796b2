package models

import "strings"

// Platform is an applicant tracking system hint attached to a target.
type Platform string

const (
	PlatformUnknown    Platform = "unknown"
	PlatformWorkday    Platform = "workday"
	PlatformGreenhouse Platform = "greenhouse"
	PlatformLever      Platform = "lever"
	PlatformBambooHR   Platform = "bamboohr"
	PlatformTalentBrew Platform = "talentbrew"
	PlatformICIMS      Platform = "icims"
	PlatformTaleo      Platform = "taleo"
)

var knownPlatforms = map[string]Platform{
	"workday":    PlatformWorkday,
	"greenhouse": PlatformGreenhouse,
	"lever":      PlatformLever,
	"bamboohr":   PlatformBambooHR,
	"bamboo":     PlatformBambooHR,
	"talentbrew": PlatformTalentBrew,
	"icims":      PlatformICIMS,
	"taleo":      PlatformTaleo,
}

// ParsePlatform maps a free-form hint to a Platform. Unrecognized values map to PlatformUnknown.
func ParsePlatform(value string) Platform {
	if p, ok := knownPlatforms[strings.ToLower(strings.TrimSpace(value))]; ok {
		return p
	}
	return PlatformUnknown
}

// Target is one external careers site configured for extraction.
type Target struct {
	Token     string   `json:"token" yaml:"token"`
	Name      string   `json:"name" yaml:"name"`
	OriginURL string   `json:"url" yaml:"url"`
	Platform  Platform `json:"platform,omitempty" yaml:"platform,omitempty"`
	APIHint   string   `json:"api,omitempty" yaml:"api,omitempty"`
}

// Source returns the value recorded as a posting's source.
func (t Target) Source() string {
	if t.Platform == "" {
		return string(PlatformUnknown)
	}
	return string(t.Platform)
}
