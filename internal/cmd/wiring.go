package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/muesli/termenv"

	"github.com/athifer/biodsjobs/internal/classify"
	"github.com/athifer/biodsjobs/internal/config"
	"github.com/athifer/biodsjobs/internal/export"
	"github.com/athifer/biodsjobs/internal/models"
	"github.com/athifer/biodsjobs/internal/network"
	"github.com/athifer/biodsjobs/internal/pipeline"
	"github.com/athifer/biodsjobs/internal/relevance"
	"github.com/athifer/biodsjobs/internal/scraper"
	"github.com/athifer/biodsjobs/internal/store"
)

const proxyBenchWindow = 5 * time.Minute

func newFetcher(ctx *Context, proxiesFlag string) (*network.Client, error) {
	cfg := ctx.Config
	proxies, err := config.LoadProxies(proxiesFlag, cfg)
	if err != nil {
		return nil, err
	}
	var rotator *network.Rotator
	if len(proxies) > 0 {
		rotator, err = network.NewRotator(proxies, proxyBenchWindow)
		if err != nil {
			return nil, err
		}
	}
	return network.NewClient(network.Options{
		Timeout:      cfg.RequestTimeout(),
		MaxBodyBytes: cfg.MaxBodyBytes,
		Limiter:      network.NewLimiter(cfg.RequestsPerSecond, cfg.Burst),
		Rotator:      rotator,
		Logger:       ctx.Logger,
	})
}

func newRunner(ctx *Context, fetcher scraper.Fetcher, sink store.Sink, reconciler store.Reconciler, query string) (*pipeline.Runner, error) {
	cfg := ctx.Config
	keywords := cfg.Keywords
	if len(keywords) == 0 {
		keywords = relevance.DefaultKeywords
	}
	gate := relevance.NewFilter(keywords)
	chain := scraper.NewChain(gate, ctx.Logger, scraper.DefaultStrategies(fetcher, scraper.Config{Keywords: keywords})...)

	deps := pipeline.Deps{
		Fetcher:    fetcher,
		Classifier: classify.New(),
		Chain:      chain,
		Scorer:     relevance.NewScorer(relevance.ScoreConfig{Primary: cfg.PrimaryKeywords, Penalty: cfg.PenaltyKeywords}),
		Sink:       sink,
		Reconciler: reconciler,
	}
	return pipeline.New(deps, pipeline.Options{
		Concurrency:          cfg.Concurrency,
		TargetTimeout:        cfg.TargetTimeout(),
		MaxPostingsPerTarget: cfg.MaxPostingsPerTarget,
		Query:                query,
	}, ctx.Logger)
}

// storeHandle bundles the configured backends.
type storeHandle struct {
	Sink       store.Sink
	Lister     store.Lister
	Reconciler store.Reconciler
	Postgres   *store.Postgres
	closers    []func()
}

func (h *storeHandle) Close() {
	for i := len(h.closers) - 1; i >= 0; i-- {
		h.closers[i]()
	}
}

func openStore(c context.Context, ctx *Context) (*storeHandle, error) {
	cfg := ctx.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	h := &storeHandle{}
	var reconcilers store.Reconcilers
	switch cfg.Store {
	case config.StoreMemory:
		s := store.NewMemory(cfg.RetireAfterMisses)
		h.Sink, h.Lister = s, s
		reconcilers = append(reconcilers, s)
	case config.StoreFile:
		s, err := store.OpenFile(cfg.StoreFilePath(ctx.ConfigDir), cfg.RetireAfterMisses)
		if err != nil {
			return nil, err
		}
		h.Sink, h.Lister = s, s
		reconcilers = append(reconcilers, s)
	case config.StorePostgres:
		pg, err := store.ConnectPostgres(c, cfg.DatabaseURL, cfg.RetireAfterMisses)
		if err != nil {
			return nil, err
		}
		h.Sink, h.Lister, h.Postgres = pg, pg, pg
		h.closers = append(h.closers, pg.Close)
		reconcilers = append(reconcilers, pg)
	}

	if strings.TrimSpace(cfg.RedisURL) != "" {
		client, err := store.NewRedisClient(c, cfg.RedisURL)
		if err != nil {
			h.Close()
			return nil, err
		}
		h.closers = append(h.closers, func() { _ = client.Close() })
		reconcilers = append(reconcilers, store.NewRedisRunLog(client))
	}

	h.Reconciler = reconcilers
	return h, nil
}

func loadTargets(ctx *Context, path string, only []string) ([]models.Target, error) {
	if strings.TrimSpace(path) == "" {
		path = ctx.Config.TargetsPath(ctx.ConfigDir)
	}
	targets, err := config.LoadTargets(path)
	if err != nil {
		return nil, fmt.Errorf("load targets: %w", err)
	}
	if problems := config.ValidateTargets(targets); len(problems) > 0 {
		return nil, fmt.Errorf("invalid targets file %s: %w", path, problems[0])
	}
	if len(only) == 0 {
		return targets, nil
	}

	want := make(map[string]struct{}, len(only))
	for _, token := range only {
		want[strings.TrimSpace(token)] = struct{}{}
	}
	filtered := make([]models.Target, 0, len(want))
	for _, t := range targets {
		if _, ok := want[t.Token]; ok {
			filtered = append(filtered, t)
			delete(want, t.Token)
		}
	}
	if len(want) > 0 {
		missing := make([]string, 0, len(want))
		for token := range want {
			missing = append(missing, token)
		}
		sort.Strings(missing)
		return nil, fmt.Errorf("unknown target: %s", strings.Join(missing, ", "))
	}
	return filtered, nil
}

func resolveFormat(ctx *Context, value string, outputPath string) (export.Format, error) {
	if outputPath != "" {
		if ctx.JSONOutput {
			return export.FormatJSON, nil
		}
		if ctx.PlainText {
			return export.FormatTSV, nil
		}
		if value == "" {
			return export.FormatCSV, nil
		}
		return export.ParseFormat(value)
	}

	if ctx.JSONOutput {
		return export.FormatJSON, nil
	}
	if ctx.PlainText {
		return export.FormatTSV, nil
	}
	if value != "" {
		return export.ParseFormat(value)
	}
	if isTTY(ctx.Out) {
		return export.FormatTable, nil
	}
	return export.FormatCSV, nil
}

func writePostings(ctx *Context, postings []models.Posting, formatFlag, outputPath, links string) error {
	format, err := resolveFormat(ctx, formatFlag, outputPath)
	if err != nil {
		return err
	}

	writer := ctx.Out
	if outputPath != "" {
		file, err := os.Create(outputPath)
		if err != nil {
			return err
		}
		defer file.Close()
		writer = file
	}

	colorEnabled := ctx.UI != nil && ctx.UI.ColorEnabled && outputPath == ""
	hyperlinks := colorEnabled && isTTY(writer)
	linkStyle := export.LinkStyleShort
	if strings.EqualFold(links, string(export.LinkStyleFull)) {
		linkStyle = export.LinkStyleFull
	}
	return export.WritePostings(writer, postings, format, export.WriteOptions{
		ColorEnabled: colorEnabled,
		Hyperlinks:   hyperlinks,
		LinkStyle:    linkStyle,
	})
}

func isTTY(out io.Writer) bool {
	output := termenv.NewOutput(out)
	return output.ColorProfile() != termenv.Ascii
}
