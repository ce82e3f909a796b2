package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/athifer/biodsjobs/internal/models"
)

const (
	runKeyPrefix = "biodsjobs:run:"
	latestRunKey = "biodsjobs:run:latest"
	runTTL       = 7 * 24 * time.Hour
)

// NewRedisClient parses url and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", url, err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, unavailable("redis ping", err)
	}
	return client, nil
}

// RunSummary is the JSON value stored under the latest-run key.
type RunSummary struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Targets    int       `json:"targets"`
	Completed  int       `json:"completed"`
	Observed   int       `json:"observed"`
}

// RedisRunLog records the observed URL set of each run with an expiry.
type RedisRunLog struct {
	client *redis.Client
}

func NewRedisRunLog(client *redis.Client) *RedisRunLog {
	return &RedisRunLog{client: client}
}

func runURLsKey(runID string) string {
	return runKeyPrefix + runID + ":urls"
}

func (r *RedisRunLog) Reconcile(ctx context.Context, report models.RunReport) error {
	if report.RunID == "" {
		return fmt.Errorf("run log: report has no run id")
	}
	summary, err := json.Marshal(RunSummary{
		RunID:      report.RunID,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Targets:    len(report.Targets),
		Completed:  len(report.CompletedTokens()),
		Observed:   len(report.ObservedURLs),
	})
	if err != nil {
		return err
	}

	key := runURLsKey(report.RunID)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(report.ObservedURLs) > 0 {
			members := make([]any, len(report.ObservedURLs))
			for i, u := range report.ObservedURLs {
				members[i] = u
			}
			pipe.SAdd(ctx, key, members...)
			pipe.Expire(ctx, key, runTTL)
		}
		pipe.Set(ctx, latestRunKey, summary, 0)
		return nil
	})
	if err != nil {
		return unavailable("redis run log", err)
	}
	return nil
}

// Latest returns the summary of the most recent run, if any.
func (r *RedisRunLog) Latest(ctx context.Context) (RunSummary, bool, error) {
	raw, err := r.client.Get(ctx, latestRunKey).Bytes()
	if err == redis.Nil {
		return RunSummary{}, false, nil
	}
	if err != nil {
		return RunSummary{}, false, unavailable("redis get", err)
	}
	var s RunSummary
	if err := json.Unmarshal(raw, &s); err != nil {
		return RunSummary{}, false, fmt.Errorf("decode run summary: %w", err)
	}
	return s, true, nil
}

// ObservedURLs returns the URL set stored for runID.
func (r *RedisRunLog) ObservedURLs(ctx context.Context, runID string) ([]string, error) {
	urls, err := r.client.SMembers(ctx, runURLsKey(runID)).Result()
	if err != nil {
		return nil, unavailable("redis smembers", err)
	}
	return urls, nil
}
