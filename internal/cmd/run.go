package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/athifer/biodsjobs/internal/models"
	"github.com/athifer/biodsjobs/internal/store"
)

type RunCmd struct {
	Targets string   `help:"Target registry file. Defaults to targets.yaml in the config dir."`
	Only    []string `help:"Only run these target tokens (comma-separated)."`
	Query   string   `help:"Extra query terms that raise relevance scores."`
	Proxies string   `help:"Comma-separated proxy URLs."`
	DryRun  bool     `name:"dry-run" help:"Extract and report without touching the store."`
}

type runOptions struct {
	targetsFile string
	only        []string
	query       string
	proxies     string
	dryRun      bool
}

func (r *RunCmd) options() runOptions {
	return runOptions{targetsFile: r.Targets, only: r.Only, query: r.Query, proxies: r.Proxies, dryRun: r.DryRun}
}

func (r *RunCmd) Run(ctx *Context) error {
	c, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := runOnce(c, ctx, r.options())
	if report.RunID != "" {
		if werr := writeRunReport(ctx, report); werr != nil {
			return werr
		}
	}
	return err
}

// runOnce loads the registry, opens the store and performs one run.
func runOnce(c context.Context, ctx *Context, opts runOptions) (models.RunReport, error) {
	targets, err := loadTargets(ctx, opts.targetsFile, opts.only)
	if err != nil {
		return models.RunReport{}, err
	}
	if len(targets) == 0 {
		return models.RunReport{}, fmt.Errorf("no targets configured")
	}

	fetcher, err := newFetcher(ctx, opts.proxies)
	if err != nil {
		return models.RunReport{}, err
	}

	var (
		sink       store.Sink
		reconciler store.Reconciler
	)
	if !opts.dryRun {
		h, err := openStore(c, ctx)
		if err != nil {
			return models.RunReport{}, err
		}
		defer h.Close()
		sink, reconciler = h.Sink, h.Reconciler
	}

	runner, err := newRunner(ctx, fetcher, sink, reconciler, opts.query)
	if err != nil {
		return models.RunReport{}, err
	}
	return runner.Run(c, targets)
}

func writeRunReport(ctx *Context, report models.RunReport) error {
	if ctx.JSONOutput {
		enc := json.NewEncoder(ctx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	if ctx.PlainText {
		for _, t := range report.Targets {
			line := []string{t.Token, string(t.Status), string(t.SiteType), t.Strategy, fmt.Sprintf("%d", t.Upserted), fmt.Sprintf("%d", t.Dropped), t.Elapsed.Round(time.Millisecond).String(), t.Err}
			fmt.Fprintln(ctx.Out, strings.Join(line, "\t"))
		}
		return nil
	}

	tw := tabwriter.NewWriter(ctx.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "target\tstatus\tsite\tstrategy\tupserted\tdropped\telapsed\terror")
	for _, t := range report.Targets {
		status := string(t.Status)
		if ctx.UI != nil {
			status = ctx.UI.TargetStatus(t.Status)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			t.Token, status, dash(string(t.SiteType)), dash(t.Strategy), t.Upserted, t.Dropped,
			t.Elapsed.Round(time.Millisecond), t.Err)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if ctx.UI != nil {
		for _, t := range report.Targets {
			if t.Status != models.TargetOK {
				ctx.UI.Warnf("%s %s: %s", t.Token, t.Status, dash(t.Err))
			}
		}
		ctx.UI.Successf("%s", formatRunSummary(report))
	}
	return nil
}

func formatRunSummary(report models.RunReport) string {
	ok, upserted := 0, 0
	for _, t := range report.Targets {
		if t.Status == models.TargetOK {
			ok++
		}
		upserted += t.Upserted
	}
	return fmt.Sprintf("run %s: %d/%d targets ok, %d postings upserted, %d urls observed",
		report.RunID, ok, len(report.Targets), upserted, len(report.ObservedURLs))
}

func dash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
