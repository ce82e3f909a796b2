package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/athifer/biodsjobs/internal/export"
	"github.com/athifer/biodsjobs/internal/models"
	"github.com/athifer/biodsjobs/internal/store"
)

type PostingsCmd struct {
	List PostingsListCmd `cmd:"" help:"Print stored postings."`
	Diff PostingsDiffCmd `cmd:"" help:"Write postings of export A missing from export B."`
}

type PostingsListCmd struct {
	All      bool    `help:"Include retired postings."`
	MinScore float64 `name:"min-score" help:"Only postings with at least this relevance score."`
	Target   string  `help:"Only postings of this target token."`
	Sort     string  `help:"Order: seen or score." enum:"seen,score" default:"seen"`
	Limit    int     `help:"Maximum postings to print (0 = all)."`
	Format   string  `help:"Output format: table, csv, tsv, json, md."`
	Output   string  `short:"o" help:"Write postings to a file."`
	Links    string  `help:"Link style in tables: short or full." enum:"short,full" default:"short"`
}

type PostingsDiffCmd struct {
	New   string `name:"new" required:"" help:"Path to new postings JSON file (A)."`
	Seen  string `name:"seen" required:"" help:"Path to seen postings JSON file (B). Missing file is treated as empty."`
	Out   string `name:"out" required:"" help:"Output path for unseen postings JSON file (C)."`
	Stats bool   `name:"stats" help:"Print comparison stats."`
}

func (p *PostingsListCmd) Run(ctx *Context) error {
	c := context.Background()
	h, err := openStore(c, ctx)
	if err != nil {
		return err
	}
	defer h.Close()

	records, err := h.Lister.List(c, p.All)
	if err != nil {
		return err
	}
	return writePostings(ctx, selectPostings(records, p.Target, p.MinScore, p.Sort, p.Limit), p.Format, p.Output, p.Links)
}

func selectPostings(records []store.Record, target string, minScore float64, order string, limit int) []models.Posting {
	postings := make([]models.Posting, 0, len(records))
	for _, rec := range records {
		if target != "" && rec.TargetToken != target {
			continue
		}
		if rec.RelevanceScore < minScore {
			continue
		}
		postings = append(postings, rec.Posting)
	}
	if order == "score" {
		sort.SliceStable(postings, func(i, j int) bool {
			return postings[i].RelevanceScore > postings[j].RelevanceScore
		})
	}
	if limit > 0 && len(postings) > limit {
		postings = postings[:limit]
	}
	return postings
}

func (d *PostingsDiffCmd) Run(ctx *Context) error {
	newPostings, err := store.ReadPostings(d.New)
	if err != nil {
		return fmt.Errorf("read --new: %w", err)
	}
	seenPostings, err := readPostingsAllowMissing(d.Seen)
	if err != nil {
		return fmt.Errorf("read --seen: %w", err)
	}

	unseen, stats := store.Diff(newPostings, seenPostings)
	if err := writePostingsFile(d.Out, unseen); err != nil {
		return fmt.Errorf("write --out: %w", err)
	}

	if d.Stats {
		_, err := fmt.Fprintf(
			ctx.Out,
			"total_new=%d total_seen=%d invalid_skipped=%d unseen_emitted=%d\n",
			stats.TotalNew,
			stats.TotalSeen,
			stats.InvalidSkipped(),
			stats.Unseen,
		)
		return err
	}
	return nil
}

func readPostingsAllowMissing(path string) ([]models.Posting, error) {
	postings, err := store.ReadPostings(path)
	if errors.Is(err, os.ErrNotExist) {
		return []models.Posting{}, nil
	}
	return postings, err
}

func writePostingsFile(path string, postings []models.Posting) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WritePostings(file, postings, export.FormatJSON, export.WriteOptions{}); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
