package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/athifer/biodsjobs/internal/models"
)

// These tests talk to real servers and are skipped unless the URLs are set.

func TestPostgresUpsertAndReconcile(t *testing.T) {
	dsn := os.Getenv("BIODSJOBS_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("BIODSJOBS_TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pg, err := ConnectPostgres(ctx, dsn, 1)
	require.NoError(t, err)
	defer pg.Close()
	require.NoError(t, pg.Migrate(ctx, "up", zerolog.Nop()))

	token := "it-" + uuid.NewString()[:8]
	p := posting("https://example.com/"+token+"/1", token)
	require.NoError(t, pg.Upsert(ctx, p))
	p.Company = "Someone Else"
	p.TargetToken = "other-" + token
	require.NoError(t, pg.Upsert(ctx, p))

	records, err := pg.List(ctx, true)
	require.NoError(t, err)
	var found []Record
	for _, r := range records {
		if r.TargetToken == token {
			found = append(found, r)
		}
	}
	require.Len(t, found, 1)
	assert.Equal(t, "Acme Bio", found[0].Company)

	rep := models.RunReport{
		RunID:      uuid.NewString(),
		StartedAt:  time.Now().UTC(),
		FinishedAt: time.Now().UTC(),
		Targets:    []models.TargetResult{{Token: token, Status: models.TargetOK}},
	}
	require.NoError(t, pg.Reconcile(ctx, rep))

	active, err := pg.List(ctx, false)
	require.NoError(t, err)
	for _, r := range active {
		assert.NotEqual(t, token, r.TargetToken)
	}
}

func TestRedisRunLog(t *testing.T) {
	url := os.Getenv("BIODSJOBS_TEST_REDIS_URL")
	if url == "" {
		t.Skip("BIODSJOBS_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	client, err := NewRedisClient(ctx, url)
	require.NoError(t, err)
	defer client.Close()

	log := NewRedisRunLog(client)
	rep := models.RunReport{
		RunID:        uuid.NewString(),
		Targets:      []models.TargetResult{{Token: "acme", Status: models.TargetOK}},
		ObservedURLs: []string{"https://acme.com/1", "https://acme.com/2"},
	}
	require.NoError(t, log.Reconcile(ctx, rep))

	summary, ok, err := log.Latest(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rep.RunID, summary.RunID)
	assert.Equal(t, 2, summary.Observed)

	urls, err := log.ObservedURLs(ctx, rep.RunID)
	require.NoError(t, err)
	assert.ElementsMatch(t, rep.ObservedURLs, urls)

	ttl, err := client.TTL(ctx, runURLsKey(rep.RunID)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestNewRedisClientRejectsBadURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "not a url")
	assert.Error(t, err)
}
