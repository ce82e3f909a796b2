package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/athifer/biodsjobs/internal/models"
)

const sampleTargets = `# Career sites to extract postings from.
# platform is optional: workday, greenhouse, lever, bamboohr, talentbrew, icims, taleo.
# api is an optional auth-free JSON endpoint tried before any other strategy.
targets:
  - token: example-greenhouse
    name: Example Therapeutics
    url: https://boards.greenhouse.io/example
    platform: greenhouse
  - token: example-workday
    name: Example Pharma
    url: https://example.wd1.myworkdayjobs.com/en-US/External
    platform: workday
`

type targetsFile struct {
	Targets []models.Target `yaml:"targets"`
}

// LoadTargets reads a registry file. Both a top-level list and a
// "targets:" mapping are accepted.
func LoadTargets(path string) ([]models.Target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	targets, err := ParseTargets(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return targets, nil
}

func ParseTargets(data []byte) ([]models.Target, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var targets []models.Target
	if trimmed[0] == '-' || trimmed[0] == '[' {
		if err := yaml.Unmarshal(trimmed, &targets); err != nil {
			return nil, err
		}
	} else {
		var file targetsFile
		if err := yaml.Unmarshal(trimmed, &file); err != nil {
			return nil, err
		}
		targets = file.Targets
	}

	for i := range targets {
		t := &targets[i]
		t.Token = strings.TrimSpace(t.Token)
		t.Name = strings.TrimSpace(t.Name)
		t.OriginURL = strings.TrimSpace(t.OriginURL)
		t.APIHint = strings.TrimSpace(t.APIHint)
		if t.Platform != "" {
			t.Platform = models.ParsePlatform(string(t.Platform))
		}
	}
	return targets, nil
}

// ValidateTargets returns every problem found in the registry.
func ValidateTargets(targets []models.Target) []error {
	var problems []error
	seen := map[string]int{}
	for i, t := range targets {
		label := t.Token
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
		}
		if t.Token == "" {
			problems = append(problems, fmt.Errorf("target %s: token is required", label))
		} else if first, ok := seen[t.Token]; ok {
			problems = append(problems, fmt.Errorf("target %s: duplicate token (first at #%d)", label, first+1))
		} else {
			seen[t.Token] = i
		}
		if err := checkURL(t.OriginURL); err != nil {
			problems = append(problems, fmt.Errorf("target %s: url: %w", label, err))
		}
		if t.APIHint != "" {
			if err := checkURL(t.APIHint); err != nil {
				problems = append(problems, fmt.Errorf("target %s: api: %w", label, err))
			}
		}
	}
	return problems
}

func checkURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("missing")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%q is not an absolute http(s) url", raw)
	}
	return nil
}
