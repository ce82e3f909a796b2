package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/athifer/biodsjobs/internal/models"
)

// Attempt records what one strategy did for a target.
type Attempt struct {
	Strategy string
	Produced int
	Accepted int
	Err      error
}

// ChainResult holds the accepted candidates of the winning strategy.
type ChainResult struct {
	Strategy   string
	Candidates []models.Candidate
	Attempts   []Attempt
}

// Chain runs strategies in order and stops at the first one that yields a
// candidate accepted by the gate.
type Chain struct {
	strategies []Strategy
	gate       Gate
	logger     zerolog.Logger
}

func NewChain(gate Gate, logger zerolog.Logger, strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies, gate: gate, logger: logger}
}

// DefaultStrategies returns the canonical order: API probe, structured data,
// CSS heuristic, keyword proximity.
func DefaultStrategies(fetcher Fetcher, cfg Config) []Strategy {
	return []Strategy{
		NewAPIProbe(fetcher, cfg),
		NewStructuredData(),
		NewCSSHeuristic(cfg),
		NewKeywordProximity(cfg),
	}
}

func (c *Chain) Extract(ctx context.Context, in Input) ChainResult {
	in.Gate = c.gate
	var result ChainResult
	logger := c.logger.With().Str("target", in.Target.Token).Logger()

	for _, strategy := range c.strategies {
		if ctx.Err() != nil {
			break
		}
		outcome := runStrategy(ctx, strategy, in)
		attempt := Attempt{Strategy: strategy.Name(), Produced: len(outcome.Candidates), Err: outcome.Err}

		var accepted []models.Candidate
		if outcome.Err == nil {
			for _, cand := range outcome.Candidates {
				cand = resolveCandidate(cand, in, strategy.Name())
				if cand.Title == "" || cand.URL == "" {
					continue
				}
				if c.gate != nil && !c.gate.IsRelevant(cand.Title) {
					continue
				}
				accepted = append(accepted, cand)
			}
		}
		attempt.Accepted = len(accepted)
		result.Attempts = append(result.Attempts, attempt)

		event := logger.Debug().Str("strategy", strategy.Name()).Int("produced", attempt.Produced).Int("accepted", attempt.Accepted)
		if outcome.Err != nil {
			event = event.Err(outcome.Err)
		}
		event.Msg("strategy finished")

		if len(accepted) > 0 {
			result.Strategy = strategy.Name()
			result.Candidates = accepted
			return result
		}
	}
	return result
}

func runStrategy(ctx context.Context, strategy Strategy, in Input) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = Outcome{Err: fmt.Errorf("%s: panic: %v", strategy.Name(), r)}
		}
	}()
	return strategy.Extract(ctx, in)
}

func resolveCandidate(cand models.Candidate, in Input, strategy string) models.Candidate {
	cand.Title = cleanText(cand.Title)
	cand.Location = cleanText(cand.Location)
	if cand.Strategy == "" {
		cand.Strategy = strategy
	}
	cand.URL = absoluteURL(in.Base(), cand.URL)
	if cand.URL == "" {
		cand.URL = strings.TrimSpace(in.Target.OriginURL)
	}
	return cand
}
