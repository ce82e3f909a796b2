package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/athifer/biodsjobs/internal/models"
	"github.com/athifer/biodsjobs/internal/relevance"
)

type ScoreCmd struct {
	Title       string `arg:"" help:"Posting title."`
	Description string `help:"Posting description."`
	Query       string `help:"Extra query terms."`
}

type scoreResult struct {
	Title    string  `json:"title"`
	Relevant bool    `json:"relevant"`
	Score    float64 `json:"score"`
}

func (s *ScoreCmd) Run(ctx *Context) error {
	cfg := ctx.Config
	filter := relevance.NewFilter(cfg.Keywords)
	scorer := relevance.NewScorer(relevance.ScoreConfig{Primary: cfg.PrimaryKeywords, Penalty: cfg.PenaltyKeywords})

	out := scoreResult{
		Title:    s.Title,
		Relevant: filter.IsRelevant(s.Title),
		Score:    scorer.Score(models.Posting{Title: s.Title, Description: s.Description}, s.Query),
	}

	if ctx.JSONOutput {
		enc := json.NewEncoder(ctx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	if ctx.PlainText {
		_, err := fmt.Fprintf(ctx.Out, "%t\t%g\t%s\n", out.Relevant, out.Score, out.Title)
		return err
	}
	_, err := fmt.Fprintf(ctx.Out, "relevant=%t score=%g\n", out.Relevant, out.Score)
	return err
}
