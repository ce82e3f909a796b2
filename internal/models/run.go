package models

import "time"

type TargetStatus string

const (
	TargetOK       TargetStatus = "ok"
	TargetFailed   TargetStatus = "failed"
	TargetTimedOut TargetStatus = "timed-out"
)

// TargetResult summarizes one target within a run.
type TargetResult struct {
	Token      string        `json:"token"`
	Status     TargetStatus  `json:"status"`
	SiteType   SiteType      `json:"site_type,omitempty"`
	Platform   Platform      `json:"platform,omitempty"`
	Strategy   string        `json:"strategy,omitempty"`
	Candidates int           `json:"candidates"`
	Accepted   int           `json:"accepted"`
	Upserted   int           `json:"upserted"`
	Dropped    int           `json:"dropped"`
	Elapsed    time.Duration `json:"elapsed"`
	Err        string        `json:"error,omitempty"`
}

// RunReport carries the observed URL set of a run to reconciliation.
type RunReport struct {
	RunID        string         `json:"run_id"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   time.Time      `json:"finished_at"`
	Targets      []TargetResult `json:"targets"`
	ObservedURLs []string       `json:"observed_urls"`
}

// CompletedTokens returns the tokens whose extraction finished without error.
// Only these targets may contribute misses during reconciliation.
func (r RunReport) CompletedTokens() map[string]struct{} {
	out := make(map[string]struct{}, len(r.Targets))
	for _, t := range r.Targets {
		if t.Status == TargetOK {
			out[t.Token] = struct{}{}
		}
	}
	return out
}

// Observed returns the observed URL set as a lookup map.
func (r RunReport) Observed() map[string]struct{} {
	out := make(map[string]struct{}, len(r.ObservedURLs))
	for _, u := range r.ObservedURLs {
		out[u] = struct{}{}
	}
	return out
}
