package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/athifer/biodsjobs/internal/classify"
	"github.com/athifer/biodsjobs/internal/network"
)

type ClassifyCmd struct {
	URL      string `arg:"" help:"Page URL."`
	Platform string `help:"Platform hint."`
	Proxies  string `help:"Comma-separated proxy URLs."`
}

type classifyResult struct {
	URL        string `json:"url"`
	FinalURL   string `json:"final_url"`
	StatusCode int    `json:"status_code"`
	Status     string `json:"status"`
	Bytes      int    `json:"bytes"`
	SiteType   string `json:"site_type"`
	Platform   string `json:"platform"`
	ElapsedMS  int64  `json:"elapsed_ms"`
	Error      string `json:"error,omitempty"`
}

func (c *ClassifyCmd) Run(ctx *Context) error {
	target, err := adHocTarget(c.URL, "", c.Platform, "")
	if err != nil {
		return err
	}
	fetcher, err := newFetcher(ctx, c.Proxies)
	if err != nil {
		return err
	}

	res, ferr := fetcher.Fetch(context.Background(), network.Request{URL: target.OriginURL})
	classifier := classify.New()
	out := classifyResult{
		URL:        target.OriginURL,
		FinalURL:   res.FinalURL,
		StatusCode: res.StatusCode,
		Status:     string(res.Status),
		Bytes:      len(res.Body),
		SiteType:   string(classifier.Classify(target, res)),
		Platform:   string(classifier.Platform(target, res)),
		ElapsedMS:  res.Elapsed.Milliseconds(),
	}
	if ferr != nil {
		out.Error = ferr.Error()
	}

	if ctx.JSONOutput {
		enc := json.NewEncoder(ctx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	if ctx.PlainText {
		line := []string{out.URL, out.SiteType, out.Platform, fmt.Sprintf("%d", out.StatusCode), out.Error}
		_, err := fmt.Fprintln(ctx.Out, strings.Join(line, "\t"))
		return err
	}

	tw := tabwriter.NewWriter(ctx.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "url\t%s\n", out.URL)
	fmt.Fprintf(tw, "final_url\t%s\n", dash(out.FinalURL))
	fmt.Fprintf(tw, "status\t%d (%s)\n", out.StatusCode, out.Status)
	fmt.Fprintf(tw, "bytes\t%d\n", out.Bytes)
	fmt.Fprintf(tw, "site_type\t%s\n", out.SiteType)
	fmt.Fprintf(tw, "platform\t%s\n", out.Platform)
	fmt.Fprintf(tw, "elapsed\t%s\n", res.Elapsed.Round(time.Millisecond))
	if out.Error != "" {
		fmt.Fprintf(tw, "error\t%s\n", out.Error)
	}
	return tw.Flush()
}
