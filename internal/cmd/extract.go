package cmd

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/athifer/biodsjobs/internal/classify"
	"github.com/athifer/biodsjobs/internal/models"
)

type ExtractCmd struct {
	URL      string `arg:"" help:"Careers page URL."`
	Name     string `help:"Company name recorded on postings. Defaults to the site's domain."`
	Platform string `help:"Platform hint: workday, greenhouse, lever, bamboohr, talentbrew, icims, taleo."`
	API      string `name:"api" help:"Auth-free JSON endpoint probed before anything else."`
	Query    string `help:"Extra query terms that raise relevance scores."`
	Format   string `help:"Output format: table, csv, tsv, json, md."`
	Output   string `short:"o" help:"Write postings to a file."`
	Links    string `help:"Link style in tables: short or full." enum:"short,full" default:"short"`
	Proxies  string `help:"Comma-separated proxy URLs."`
}

func (e *ExtractCmd) Run(ctx *Context) error {
	target, err := adHocTarget(e.URL, e.Name, e.Platform, e.API)
	if err != nil {
		return err
	}

	fetcher, err := newFetcher(ctx, e.Proxies)
	if err != nil {
		return err
	}
	runner, err := newRunner(ctx, fetcher, nil, nil, e.Query)
	if err != nil {
		return err
	}

	ext, err := runner.Extract(context.Background(), target)
	if err != nil {
		return err
	}

	for _, attempt := range ext.Chain.Attempts {
		event := ctx.Logger.Debug().Str("strategy", attempt.Strategy).Int("produced", attempt.Produced).Int("accepted", attempt.Accepted)
		if attempt.Err != nil {
			event = event.Err(attempt.Err)
		}
		event.Msg("attempt")
	}
	if !ctx.JSONOutput && ctx.Err != nil {
		fmt.Fprintf(ctx.Err, "site_type=%s platform=%s strategy=%s postings=%d dropped=%d\n",
			ext.SiteType, ext.Platform, dash(ext.Chain.Strategy), len(ext.Postings), ext.Dropped)
	}
	return writePostings(ctx, ext.Postings, e.Format, e.Output, e.Links)
}

// adHocTarget builds a registry entry for a URL given on the command line.
func adHocTarget(rawURL, name, platform, api string) (models.Target, error) {
	rawURL = strings.TrimSpace(rawURL)
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return models.Target{}, fmt.Errorf("not an absolute http(s) url: %q", rawURL)
	}

	token := classify.RegistrableDomain(rawURL)
	if token == "" {
		token = strings.ToLower(u.Hostname())
	}
	if strings.TrimSpace(name) == "" {
		name = token
	}

	target := models.Target{
		Token:     token,
		Name:      strings.TrimSpace(name),
		OriginURL: rawURL,
		APIHint:   strings.TrimSpace(api),
	}
	if strings.TrimSpace(platform) != "" {
		target.Platform = models.ParsePlatform(platform)
	}
	return target, nil
}
