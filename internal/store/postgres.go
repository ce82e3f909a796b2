package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/athifer/biodsjobs/internal/models"
)

// Postgres stores postings in a single table keyed by url.
type Postgres struct {
	pool        *pgxpool.Pool
	retireAfter int
}

func ConnectPostgres(ctx context.Context, databaseURL string, retireAfter int) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, unavailable("connect", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, unavailable("ping", err)
	}
	return &Postgres{pool: pool, retireAfter: retireAfter}, nil
}

func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// Upsert inserts or refreshes a posting. The stored company, target token and
// earliest posted_at are kept on conflict.
func (p *Postgres) Upsert(ctx context.Context, posting models.Posting) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO postings (url, title, company, location, source, target_token, posted_at, description, relevance_score)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (url) DO UPDATE SET
			title           = EXCLUDED.title,
			location        = EXCLUDED.location,
			source          = EXCLUDED.source,
			posted_at       = LEAST(postings.posted_at, EXCLUDED.posted_at),
			description     = EXCLUDED.description,
			relevance_score = EXCLUDED.relevance_score,
			last_seen       = now(),
			miss_count      = 0,
			retired_at      = NULL`,
		posting.URL, posting.Title, posting.Company, posting.Location, posting.Source,
		posting.TargetToken, posting.PostedAt, posting.Description, posting.RelevanceScore,
	)
	if err != nil {
		return unavailable("upsert "+posting.URL, err)
	}
	return nil
}

// Reconcile counts a miss for unobserved postings of completed targets and
// retires those at the threshold, in one transaction.
func (p *Postgres) Reconcile(ctx context.Context, report models.RunReport) error {
	completed := make([]string, 0, len(report.Targets))
	failed := 0
	for _, t := range report.Targets {
		if t.Status == models.TargetOK {
			completed = append(completed, t.Token)
		} else {
			failed++
		}
	}
	observed := report.ObservedURLs
	if observed == nil {
		observed = []string{}
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return unavailable("begin", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	missed, err := tx.Exec(ctx, `
		UPDATE postings SET miss_count = miss_count + 1
		WHERE retired_at IS NULL
		  AND target_token = ANY($1)
		  AND NOT (url = ANY($2))`, completed, observed)
	if err != nil {
		return unavailable("count misses", err)
	}

	var retired int64
	if p.retireAfter > 0 {
		tag, err := tx.Exec(ctx, `
			UPDATE postings SET retired_at = now()
			WHERE retired_at IS NULL
			  AND target_token = ANY($1)
			  AND miss_count >= $2`, completed, p.retireAfter)
		if err != nil {
			return unavailable("retire", err)
		}
		retired = tag.RowsAffected()
	}

	if report.RunID != "" {
		_, err = tx.Exec(ctx, `
			INSERT INTO runs (run_id, started_at, finished_at, targets, failed, observed_urls, missed, retired)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (run_id) DO NOTHING`,
			report.RunID, report.StartedAt, report.FinishedAt, len(report.Targets), failed,
			len(observed), missed.RowsAffected(), retired)
		if err != nil {
			return unavailable("record run", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return unavailable("commit", err)
	}
	return nil
}

func (p *Postgres) List(ctx context.Context, includeRetired bool) ([]Record, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT url, title, company, location, source, target_token, posted_at, description,
		       relevance_score, first_seen, last_seen, miss_count, retired_at
		FROM postings
		WHERE $1 OR retired_at IS NULL
		ORDER BY last_seen DESC, relevance_score DESC, url`, includeRetired)
	if err != nil {
		return nil, unavailable("list", err)
	}
	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Record, error) {
		var r Record
		err := row.Scan(&r.URL, &r.Title, &r.Company, &r.Location, &r.Source, &r.TargetToken,
			&r.PostedAt, &r.Description, &r.RelevanceScore, &r.FirstSeen, &r.LastSeen,
			&r.MissCount, &r.RetiredAt)
		return r, err
	})
	if err != nil {
		return nil, unavailable("scan", err)
	}
	return records, nil
}
