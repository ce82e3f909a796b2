package scraper

import (
	"context"
	"fmt"

	"github.com/athifer/biodsjobs/internal/models"
	"github.com/athifer/biodsjobs/internal/network"
)

const (
	StrategyAPIProbe       = "api-probe"
	StrategyStructuredData = "structured-data"
	StrategyCSSHeuristic   = "css-heuristic"
	StrategyKeyword        = "keyword-proximity"
)

// Fetcher is the subset of network.Client used by strategies that issue requests.
type Fetcher interface {
	Fetch(ctx context.Context, req network.Request) (models.FetchResult, error)
}

// Gate decides whether a candidate title is relevant.
type Gate interface {
	IsRelevant(title string) bool
}

// Input is everything a strategy may read for one target.
type Input struct {
	Target   models.Target
	Result   models.FetchResult
	Platform models.Platform
	SiteType models.SiteType
	Gate     Gate
}

// Base returns the URL relative links resolve against.
func (in Input) Base() string {
	if in.Result.FinalURL != "" {
		return in.Result.FinalURL
	}
	return in.Target.OriginURL
}

func (in Input) accepts(title string) bool {
	return in.Gate == nil || in.Gate.IsRelevant(title)
}

// Outcome is a strategy's result. A non-nil Err means the strategy produced nothing.
type Outcome struct {
	Candidates []models.Candidate
	Err        error
}

type Strategy interface {
	Name() string
	Extract(ctx context.Context, in Input) Outcome
}

// ParseError marks malformed JSON or HTML encountered by a strategy.
type ParseError struct {
	Strategy string
	Source   string
	Err      error
}

func (e *ParseError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s: parse %s: %v", e.Strategy, e.Source, e.Err)
	}
	return fmt.Sprintf("%s: parse: %v", e.Strategy, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
