// Package pipeline runs extraction across a target registry and feeds the store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/athifer/biodsjobs/internal/models"
	"github.com/athifer/biodsjobs/internal/network"
	"github.com/athifer/biodsjobs/internal/normalize"
	"github.com/athifer/biodsjobs/internal/relevance"
	"github.com/athifer/biodsjobs/internal/scraper"
	"github.com/athifer/biodsjobs/internal/store"
)

// ErrStore wraps sink and reconciler failures. It is the only error that
// aborts a run.
var ErrStore = errors.New("store failure")

// ErrTargetTimeout marks a target whose per-target budget ran out.
var ErrTargetTimeout = errors.New("target timeout")

// ErrHTTPStatus marks a target whose page answered with a non-success status
// and yielded nothing.
var ErrHTTPStatus = errors.New("unexpected http status")

const (
	DefaultConcurrency          = 4
	DefaultTargetTimeout        = 90 * time.Second
	DefaultMaxPostingsPerTarget = 15
)

// Classifier labels a fetched page.
type Classifier interface {
	Classify(target models.Target, res models.FetchResult) models.SiteType
	Platform(target models.Target, res models.FetchResult) models.Platform
}

// Extractor is the strategy chain.
type Extractor interface {
	Extract(ctx context.Context, in scraper.Input) scraper.ChainResult
}

type Options struct {
	Concurrency          int
	TargetTimeout        time.Duration
	MaxPostingsPerTarget int
	// Query adds query-term weight to relevance scores.
	Query string
}

func (o Options) withDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.TargetTimeout <= 0 {
		o.TargetTimeout = DefaultTargetTimeout
	}
	if o.MaxPostingsPerTarget <= 0 {
		o.MaxPostingsPerTarget = DefaultMaxPostingsPerTarget
	}
	return o
}

// Deps are the collaborators of a Runner. Sink and Reconciler may be nil
// for dry runs.
type Deps struct {
	Fetcher    scraper.Fetcher
	Classifier Classifier
	Chain      Extractor
	Normalizer *normalize.Normalizer
	Scorer     *relevance.Scorer
	Sink       store.Sink
	Reconciler store.Reconciler
}

type Runner struct {
	deps   Deps
	opts   Options
	logger zerolog.Logger

	newRunID func() string
	now      func() time.Time
}

func New(deps Deps, opts Options, logger zerolog.Logger) (*Runner, error) {
	if deps.Fetcher == nil || deps.Classifier == nil || deps.Chain == nil {
		return nil, fmt.Errorf("pipeline: fetcher, classifier and chain are required")
	}
	if deps.Normalizer == nil {
		deps.Normalizer = normalize.New()
	}
	if deps.Scorer == nil {
		deps.Scorer = relevance.NewScorer(relevance.ScoreConfig{})
	}
	return &Runner{
		deps:     deps,
		opts:     opts.withDefaults(),
		logger:   logger,
		newRunID: uuid.NewString,
		now:      time.Now,
	}, nil
}

// Extraction is the outcome of one target before it reaches the store.
type Extraction struct {
	Target   models.Target
	Fetch    models.FetchResult
	SiteType models.SiteType
	Platform models.Platform
	Chain    scraper.ChainResult
	Postings []models.Posting
	Dropped  int
	Elapsed  time.Duration
}

// Extract fetches, classifies, runs the chain, normalizes and scores one
// target under the per-target timeout. Nothing is stored.
func (r *Runner) Extract(ctx context.Context, target models.Target) (Extraction, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.TargetTimeout)
	defer cancel()

	start := r.now()
	ext := Extraction{Target: target, SiteType: models.SiteUnknown}
	logger := r.logger.With().Str("target", target.Token).Logger()

	res, err := r.deps.Fetcher.Fetch(ctx, network.Request{URL: target.OriginURL})
	ext.Fetch = res
	if err != nil {
		ext.Elapsed = r.now().Sub(start)
		if budgetSpent(ctx, err) {
			return ext, fmt.Errorf("%w: %w", ErrTargetTimeout, err)
		}
		if cerr := ctx.Err(); cerr != nil {
			return ext, fmt.Errorf("%w: %v", cerr, err)
		}
		return ext, err
	}

	ext.SiteType = r.deps.Classifier.Classify(target, res)
	ext.Platform = r.deps.Classifier.Platform(target, res)
	logger.Debug().Str("site_type", string(ext.SiteType)).Str("platform", string(ext.Platform)).Msg("classified")

	ext.Chain = r.deps.Chain.Extract(ctx, scraper.Input{
		Target:   target,
		Result:   res,
		Platform: ext.Platform,
		SiteType: ext.SiteType,
	})
	ext.Elapsed = r.now().Sub(start)
	if err := ctx.Err(); err != nil {
		ext.Chain = scraper.ChainResult{Attempts: ext.Chain.Attempts}
		if budgetSpent(ctx, err) {
			return ext, fmt.Errorf("%w: %w", ErrTargetTimeout, err)
		}
		return ext, err
	}
	if len(ext.Chain.Candidates) == 0 && !res.OK() {
		return ext, fmt.Errorf("%w: %d from %s", ErrHTTPStatus, res.StatusCode, res.FinalURL)
	}

	seen := make(map[string]struct{}, len(ext.Chain.Candidates))
	for _, cand := range ext.Chain.Candidates {
		posting, err := r.deps.Normalizer.Normalize(cand, target)
		if err != nil {
			ext.Dropped++
			logger.Debug().Err(err).Str("title", cand.Title).Msg("candidate dropped")
			continue
		}
		if _, dup := seen[posting.URL]; dup {
			ext.Dropped++
			continue
		}
		if len(ext.Postings) >= r.opts.MaxPostingsPerTarget {
			ext.Dropped++
			continue
		}
		seen[posting.URL] = struct{}{}
		posting.RelevanceScore = r.deps.Scorer.Score(posting, r.opts.Query)
		ext.Postings = append(ext.Postings, posting)
	}
	return ext, nil
}

// budgetSpent reports whether err stems from the per-target deadline rather
// than a single request timing out.
func budgetSpent(targetCtx context.Context, err error) bool {
	return errors.Is(targetCtx.Err(), context.DeadlineExceeded) || errors.Is(err, network.ErrRateBudget)
}

// Run processes every target with bounded concurrency, upserts accepted
// postings and reconciles the observed URL set. Per-target failures are
// recorded in the report; only store failures and cancellation are returned.
func (r *Runner) Run(ctx context.Context, targets []models.Target) (models.RunReport, error) {
	report := models.RunReport{
		RunID:     r.newRunID(),
		StartedAt: r.now().UTC(),
		Targets:   make([]models.TargetResult, len(targets)),
	}
	logger := r.logger.With().Str("run_id", report.RunID).Logger()
	logger.Info().Int("targets", len(targets)).Msg("run started")

	reg := newRegistry()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)
	for i, target := range targets {
		g.Go(func() error {
			result, err := r.runTarget(gctx, target, reg, logger)
			report.Targets[i] = result
			return err
		})
	}
	err := g.Wait()

	report.ObservedURLs = reg.urls()
	report.FinishedAt = r.now().UTC()

	if err != nil {
		logger.Error().Err(err).Msg("run aborted")
		return report, fmt.Errorf("%w: %w", ErrStore, err)
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	if r.deps.Reconciler != nil {
		if err := r.deps.Reconciler.Reconcile(ctx, report); err != nil {
			logger.Error().Err(err).Msg("reconcile failed")
			return report, fmt.Errorf("%w: reconcile: %w", ErrStore, err)
		}
	}

	logger.Info().
		Int("completed", len(report.CompletedTokens())).
		Int("observed", len(report.ObservedURLs)).
		Dur("elapsed", report.FinishedAt.Sub(report.StartedAt)).
		Msg("run finished")
	return report, nil
}

func (r *Runner) runTarget(ctx context.Context, target models.Target, reg *registry, logger zerolog.Logger) (models.TargetResult, error) {
	result := models.TargetResult{Token: target.Token, Status: models.TargetOK}
	logger = logger.With().Str("target", target.Token).Logger()

	ext, err := r.Extract(ctx, target)
	result.SiteType = ext.SiteType
	result.Platform = ext.Platform
	result.Strategy = ext.Chain.Strategy
	result.Candidates = len(ext.Chain.Candidates)
	result.Accepted = len(ext.Postings)
	result.Dropped = ext.Dropped
	result.Elapsed = ext.Elapsed
	if err != nil {
		result.Status = models.TargetFailed
		if errors.Is(err, ErrTargetTimeout) && ctx.Err() == nil {
			result.Status = models.TargetTimedOut
		}
		result.Accepted = 0
		result.Err = err.Error()
		logger.Warn().Err(err).Str("status", string(result.Status)).Msg("target skipped")
		return result, nil
	}

	for _, posting := range ext.Postings {
		if !reg.claim(posting.URL, target.Token) {
			result.Dropped++
			logger.Debug().Str("url", posting.URL).Msg("url already claimed by another target")
			continue
		}
		if r.deps.Sink != nil {
			if err := r.deps.Sink.Upsert(ctx, posting); err != nil {
				result.Status = models.TargetFailed
				result.Err = err.Error()
				return result, fmt.Errorf("upsert %s: %w", posting.URL, err)
			}
		}
		result.Upserted++
	}

	logger.Info().
		Str("strategy", result.Strategy).
		Str("site_type", string(result.SiteType)).
		Int("upserted", result.Upserted).
		Int("dropped", result.Dropped).
		Dur("elapsed", result.Elapsed).
		Msg("target finished")
	return result, nil
}

// registry is the run-wide observed URL set. The first target to claim a URL
// owns it for the run.
type registry struct {
	mu     sync.Mutex
	owners map[string]string
}

func newRegistry() *registry {
	return &registry{owners: map[string]string{}}
}

func (r *registry) claim(url, token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.owners[url]; ok {
		return false
	}
	r.owners[url] = token
	return true
}

func (r *registry) urls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.owners))
	for u := range r.owners {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}
