package store

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/athifer/biodsjobs/internal/models"
)

// DiffStats captures stats for A-B unseen filtering of posting exports.
type DiffStats struct {
	TotalNew    int
	TotalSeen   int
	InvalidNew  int
	InvalidSeen int
	Unseen      int
}

// InvalidSkipped returns the total records without a usable url.
func (s DiffStats) InvalidSkipped() int {
	return s.InvalidNew + s.InvalidSeen
}

// Key is the comparison key of a posting: its url without surrounding space
// or a trailing slash.
func Key(p models.Posting) (string, bool) {
	key := strings.TrimSuffix(strings.TrimSpace(p.URL), "/")
	return key, key != ""
}

// Diff returns postings from newPostings whose url is not in seenPostings.
// Duplicate urls in newPostings are emitted once.
func Diff(newPostings, seenPostings []models.Posting) ([]models.Posting, DiffStats) {
	stats := DiffStats{
		TotalNew:  len(newPostings),
		TotalSeen: len(seenPostings),
	}

	seenKeys := make(map[string]struct{}, len(seenPostings))
	for _, p := range seenPostings {
		key, ok := Key(p)
		if !ok {
			stats.InvalidSeen++
			continue
		}
		seenKeys[key] = struct{}{}
	}

	newKeys := make(map[string]struct{}, len(newPostings))
	unseen := make([]models.Posting, 0, len(newPostings))
	for _, p := range newPostings {
		key, ok := Key(p)
		if !ok {
			stats.InvalidNew++
			continue
		}
		if _, exists := newKeys[key]; exists {
			continue
		}
		newKeys[key] = struct{}{}
		if _, exists := seenKeys[key]; exists {
			continue
		}
		unseen = append(unseen, p)
	}

	stats.Unseen = len(unseen)
	return unseen, stats
}

// ReadPostings reads a JSON array of postings, as written by the json export.
func ReadPostings(path string) ([]models.Posting, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return []models.Posting{}, nil
	}
	var postings []models.Posting
	if err := json.Unmarshal(data, &postings); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return postings, nil
}
