package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/athifer/biodsjobs/internal/models"
)

// LocalStats counts store activity for one process.
type LocalStats struct {
	Upserts  int
	Inserted int
	Updated  int
	Missed   int
	Retired  int
}

// Local keeps postings in memory and, when path is set, mirrors them to a
// JSON file after every upsert and reconciliation.
type Local struct {
	path        string
	retireAfter int
	now         func() time.Time

	mu      sync.Mutex
	records map[string]*Record
	stats   LocalStats
}

// NewMemory returns a store that never touches disk.
func NewMemory(retireAfter int) *Local {
	return &Local{retireAfter: retireAfter, now: time.Now, records: map[string]*Record{}}
}

// OpenFile loads path if it exists. A missing file is an empty store.
func OpenFile(path string, retireAfter int) (*Local, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("path is required")
	}
	s := NewMemory(retireAfter)
	s.path = path

	records, err := ReadRecordsAllowMissing(path)
	if err != nil {
		return nil, err
	}
	for i := range records {
		rec := records[i]
		s.records[rec.URL] = &rec
	}
	return s, nil
}

func (s *Local) Upsert(_ context.Context, p models.Posting) error {
	if strings.TrimSpace(p.URL) == "" {
		return fmt.Errorf("upsert: posting has no url")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	s.stats.Upserts++
	rec, ok := s.records[p.URL]
	if !ok {
		s.records[p.URL] = &Record{Posting: p, FirstSeen: now, LastSeen: now}
		s.stats.Inserted++
		return s.saveLocked()
	}

	company, token, posted := rec.Company, rec.TargetToken, rec.PostedAt
	rec.Posting = p
	// The first writer owns the company and the target token.
	if company != "" {
		rec.Company = company
	}
	if token != "" {
		rec.TargetToken = token
	}
	if !posted.IsZero() && posted.Before(p.PostedAt) {
		rec.PostedAt = posted
	}
	rec.LastSeen = now
	rec.MissCount = 0
	rec.RetiredAt = nil
	s.stats.Updated++
	return s.saveLocked()
}

// Reconcile adds a miss to every active record of a completed target whose
// URL was not observed, retires records at the threshold and saves.
func (s *Local) Reconcile(_ context.Context, report models.RunReport) error {
	completed := report.CompletedTokens()
	observed := report.Observed()

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	for url, rec := range s.records {
		if !rec.Active() {
			continue
		}
		if _, ok := completed[rec.TargetToken]; !ok {
			continue
		}
		if _, ok := observed[url]; ok {
			continue
		}
		rec.MissCount++
		s.stats.Missed++
		if s.retireAfter > 0 && rec.MissCount >= s.retireAfter {
			retired := now
			rec.RetiredAt = &retired
			s.stats.Retired++
		}
	}
	return s.saveLocked()
}

// saveLocked writes every record to path. Callers hold s.mu.
func (s *Local) saveLocked() error {
	if s.path == "" {
		return nil
	}
	if err := WriteRecords(s.path, s.snapshot(true)); err != nil {
		return unavailable("write "+s.path, err)
	}
	return nil
}

func (s *Local) List(_ context.Context, includeRetired bool) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(includeRetired), nil
}

// Get returns the record for url.
func (s *Local) Get(url string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[url]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

func (s *Local) Stats() LocalStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *Local) snapshot(includeRetired bool) []Record {
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		if !includeRetired && !rec.Active() {
			continue
		}
		out = append(out, *rec)
	}
	sortRecords(out)
	return out
}

func sortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].LastSeen.Equal(records[j].LastSeen) {
			return records[i].LastSeen.After(records[j].LastSeen)
		}
		if records[i].RelevanceScore != records[j].RelevanceScore {
			return records[i].RelevanceScore > records[j].RelevanceScore
		}
		return records[i].URL < records[j].URL
	})
}

// ReadRecords reads a JSON array of records from path.
func ReadRecords(path string) ([]Record, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return []Record{}, nil
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if records == nil {
		return []Record{}, nil
	}
	return records, nil
}

// ReadRecordsAllowMissing treats a missing file as an empty store.
func ReadRecordsAllowMissing(path string) ([]Record, error) {
	records, err := ReadRecords(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Record{}, nil
		}
		return nil, err
	}
	return records, nil
}

// WriteRecords writes records as pretty JSON through a temp file and rename.
func WriteRecords(path string, records []Record) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path is required")
	}
	if records == nil {
		records = []Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
