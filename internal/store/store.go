// Package store persists postings keyed by URL and reconciles runs.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/athifer/biodsjobs/internal/models"
)

// ErrUnavailable wraps failures of the backing store. The pipeline treats it
// as a run-level error.
var ErrUnavailable = errors.New("store unavailable")

// Sink receives postings. Upsert is idempotent per URL: repeated calls
// overwrite mutable fields and never create a second row.
type Sink interface {
	Upsert(ctx context.Context, p models.Posting) error
}

// Reconciler consumes the observed URL set of a finished run.
type Reconciler interface {
	Reconcile(ctx context.Context, report models.RunReport) error
}

// Record is a stored posting plus bookkeeping.
type Record struct {
	models.Posting
	FirstSeen time.Time  `json:"first_seen"`
	LastSeen  time.Time  `json:"last_seen"`
	MissCount int        `json:"miss_count"`
	RetiredAt *time.Time `json:"retired_at,omitempty"`
}

// Active reports whether the record has not been retired.
func (r Record) Active() bool { return r.RetiredAt == nil }

// Lister returns stored records, newest first.
type Lister interface {
	List(ctx context.Context, includeRetired bool) ([]Record, error)
}

// Reconcilers runs each reconciler in order and stops at the first error.
type Reconcilers []Reconciler

func (rs Reconcilers) Reconcile(ctx context.Context, report models.RunReport) error {
	for _, r := range rs {
		if r == nil {
			continue
		}
		if err := r.Reconcile(ctx, report); err != nil {
			return err
		}
	}
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}
