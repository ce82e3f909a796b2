package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/athifer/biodsjobs/internal/models"
)

func TestKey(t *testing.T) {
	got, ok := Key(models.Posting{URL: "  https://acme.com/jobs/1/ "})
	require.True(t, ok)
	assert.Equal(t, "https://acme.com/jobs/1", got)

	_, ok = Key(models.Posting{URL: "   "})
	assert.False(t, ok)
}

func TestDiff(t *testing.T) {
	newPostings := []models.Posting{
		{Title: "Data Scientist", URL: "https://acme.com/1"},
		{Title: "Data Scientist (dupe)", URL: "https://acme.com/1"},
		{Title: "Bioinformatician", URL: "https://acme.com/2"},
		{Title: "No URL"},
	}
	seenPostings := []models.Posting{
		{Title: "Data Scientist", URL: "https://acme.com/1/"},
		{Title: "Broken"},
	}

	unseen, stats := Diff(newPostings, seenPostings)
	require.Len(t, unseen, 1)
	assert.Equal(t, "Bioinformatician", unseen[0].Title)
	assert.Equal(t, DiffStats{TotalNew: 4, TotalSeen: 2, InvalidNew: 1, InvalidSeen: 1, Unseen: 1}, stats)
	assert.Equal(t, 2, stats.InvalidSkipped())
}

func TestReadPostings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "postings.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"url": "https://acme.com/1", "title": "Scientist", "target": "acme"}]`), 0o644))

	got, err := ReadPostings(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "acme", got[0].TargetToken)

	_, err = ReadPostings(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
