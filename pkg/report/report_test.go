package report

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2gfhixs/OGREE/pkg/contracts"
	"github.com/2gfhixs/OGREE/pkg/store"
)

func newTestRepo(t *testing.T) *store.SQLiteRepository {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "ogree.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	db.SetMaxOpenConns(1)

	repo, err := store.NewSQLiteRepository(context.Background(), db)
	require.NoError(t, err)
	return repo
}

func insertAlert(t *testing.T, repo *store.SQLiteRepository, id, tier, summary string, score float64) {
	t.Helper()
	et := time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)
	_, err := repo.InsertAlert(context.Background(), &contracts.Alert{
		AlertID:        id,
		Tier:           tier,
		EventType:      "chain_progression",
		EventTime:      &et,
		IngestTime:     time.Now().UTC(),
		CanonicalDocID: "doc-" + id,
		ScoreSummary:   contracts.Payload{"score": score},
		Summary:        summary,
	})
	require.NoError(t, err)
}

func fixedBuilder(repo *store.SQLiteRepository) *Builder {
	b := NewBuilder(repo)
	b.now = func() time.Time { return time.Date(2026, 8, 24, 6, 0, 0, 0, time.UTC) }
	return b
}

func TestBuildSubjectAndOrder(t *testing.T) {
	repo := newTestRepo(t)
	insertAlert(t, repo, "a-low", "low", "low alert", 0.3)
	insertAlert(t, repo, "a-high", "high", "high alert", 1.0)
	insertAlert(t, repo, "a-med", "medium", "medium alert", 0.6)

	rep, err := fixedBuilder(repo).Build(context.Background(), 12, 10)
	require.NoError(t, err)

	assert.Equal(t, "OGREE Alpha — Top Alerts (AK) — 2026-08-24", rep.Subject)
	assert.False(t, rep.Empty())
	require.Len(t, rep.Sections, 3)
	assert.Equal(t, "high", rep.Sections[0].Tier)
	assert.Equal(t, "medium", rep.Sections[1].Tier)
	assert.Equal(t, "low", rep.Sections[2].Tier)
	require.Len(t, rep.Sections[0].Items, 1)
	assert.Equal(t, "high alert", rep.Sections[0].Items[0].Summary)
	require.NotNil(t, rep.Sections[0].Items[0].Score)
	assert.Equal(t, 1.0, *rep.Sections[0].Items[0].Score)
}

func TestBuildUnknownTierCountsAsLow(t *testing.T) {
	repo := newTestRepo(t)
	insertAlert(t, repo, "a-odd", "urgent", "odd tier", 0.4)

	rep, err := fixedBuilder(repo).Build(context.Background(), 12, 10)
	require.NoError(t, err)

	require.Len(t, rep.Sections, 1)
	assert.Equal(t, "low", rep.Sections[0].Tier)
}

func TestBuildTruncatesPerTier(t *testing.T) {
	repo := newTestRepo(t)
	for i := 0; i < 5; i++ {
		insertAlert(t, repo, fmt.Sprintf("a-%d", i), "high", fmt.Sprintf("alert %d", i), 1.0)
	}

	rep, err := fixedBuilder(repo).Build(context.Background(), 12, 2)
	require.NoError(t, err)

	require.Len(t, rep.Sections, 1)
	assert.Len(t, rep.Sections[0].Items, 2)
}

func TestBuildEmptyWindow(t *testing.T) {
	repo := newTestRepo(t)

	rep, err := fixedBuilder(repo).Build(context.Background(), 12, 10)
	require.NoError(t, err)

	assert.True(t, rep.Empty())
	assert.Equal(t, "No new alerts in last 12h.", RenderText(rep))
}

func TestRenderText(t *testing.T) {
	et := time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)
	score := 0.6
	rep := &Report{
		Subject: "OGREE Alpha — Top Alerts (AK) — 2026-08-24",
		Sections: []Section{
			{Tier: "high", Items: []Item{{Summary: "big one", EventTime: &et, Score: nil}}},
			{Tier: "medium", Items: []Item{{Summary: "mid one", EventTime: nil, Score: &score}}},
		},
	}
	out := RenderText(rep)

	assert.Contains(t, out, "HIGH:\n  - big one (event_time=2026-08-20T09:30:00Z, score=<nil>)")
	assert.Contains(t, out, "MEDIUM:\n  - mid one (event_time=<nil>, score=0.6)")
	// Sections are blank-line separated, with no trailing whitespace.
	assert.NotContains(t, out, "\n\n\n")
	assert.Equal(t, out, strings.TrimSpace(out))
}
