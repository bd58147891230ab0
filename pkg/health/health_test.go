package health

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2gfhixs/OGREE/pkg/chain"
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

func TestSummarizeChainRowsEmpty(t *testing.T) {
	s := SummarizeChainRows(nil)
	assert.Equal(t, 0, s.Lineages)
	assert.Equal(t, 0.0, s.AvgScore)
	assert.Equal(t, 0.0, s.CompanyResolutionPct)
}

func TestSummarizeChainRows(t *testing.T) {
	rows := []chain.Row{
		{Score: 1.0, HasInsiderBuy: true, ConvergenceScore: 3, CompanyID: "PERMIAN_RESOURCES"},
		{Score: 0.6, ConvergenceScore: 2},
		{Score: 0.3},
	}
	s := SummarizeChainRows(rows)

	assert.Equal(t, 3, s.Lineages)
	assert.Equal(t, 0.6333, s.AvgScore)
	assert.Equal(t, 1, s.LineagesHighScore)
	assert.Equal(t, 1, s.LineagesWithInsider)
	assert.Equal(t, 1, s.LineagesConvergenceWatch)
	assert.Equal(t, 1, s.LineagesConvergence3Plus)
	assert.Equal(t, 1, s.LineagesWithCompanyID)
	assert.Equal(t, 33.33, s.CompanyResolutionPct)
}

func TestSummarizeAlertRows(t *testing.T) {
	companyID := "RAMACO_RESOURCES"
	alerts := []store.AlertRow{
		{Tier: "high", CompanyID: &companyID, ScoreSummary: contracts.Payload{"score": 1.1, "convergence_score": 5.0}},
		{Tier: "medium", ScoreSummary: contracts.Payload{"score": 0.6}},
		{Tier: "low", ScoreSummary: contracts.Payload{"score": 0.3}},
		{Tier: "low"},
	}
	s := SummarizeAlertRows(alerts)

	assert.Equal(t, 4, s.Alerts)
	assert.Equal(t, 0.5, s.AvgScore)
	assert.Equal(t, TierCounts{High: 1, Low: 2, Medium: 1}, s.TierCounts)
	assert.Equal(t, 1, s.AlertsWithCompanyID)
	assert.Equal(t, 25.0, s.CompanyResolutionPct)
	assert.Equal(t, 1, s.AlertsConvergence3)
}

func TestComputeSnapshotEndToEnd(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	id := "evt-1"
	_, _, err := repo.InsertRawEvent(ctx, &contracts.RawEvent{
		SourceSystem:  "tx_rrc",
		SourceEventID: &id,
		EventTime:     &now,
		IngestTime:    now,
		PayloadJSON: contracts.Payload{
			"type":       "permit_filed",
			"lineage_id": "TX:42-301-00001",
			"region":     "Texas",
		},
		ContentHash:    "h1",
		CanonicalDocID: "tx_rrc:1",
	})
	require.NoError(t, err)

	_, err = repo.InsertAlert(ctx, &contracts.Alert{
		AlertID:        "a1",
		Tier:           "low",
		EventType:      "chain_progression",
		IngestTime:     now,
		CanonicalDocID: "doc-a1",
		ScoreSummary:   contracts.Payload{"score": 0.3},
		Summary:        "low alert",
	})
	require.NoError(t, err)

	snap, err := Compute(ctx, repo, 72, 24)
	require.NoError(t, err)

	assert.Equal(t, 72, snap.EventWindowHours)
	assert.Equal(t, 24, snap.AlertWindowHours)
	assert.Equal(t, map[string]int{"tx_rrc": 1}, snap.SourceCounts)
	assert.Equal(t, 1, snap.Chain.Lineages)
	assert.Equal(t, 0.3, snap.Chain.AvgScore)
	assert.Equal(t, 1, snap.Alerts.Alerts)
	assert.Equal(t, TierCounts{Low: 1}, snap.Alerts.TierCounts)
}

func TestRenderText(t *testing.T) {
	snap := &Snapshot{
		GeneratedAt:      "2026-08-24T12:00:00Z",
		EventWindowHours: 72,
		AlertWindowHours: 24,
		SourceCounts:     map[string]int{"tx_rrc": 4, "alaska_wells": 2},
		Chain:            ChainSummary{Lineages: 2, AvgScore: 0.8, LineagesHighScore: 1, CompanyResolutionPct: 50.0},
		Alerts:           AlertSummary{Alerts: 1, AvgScore: 1.0, TierCounts: TierCounts{High: 1}},
	}
	out := RenderText(snap)

	assert.Contains(t, out, "Generated:            2026-08-24T12:00:00Z")
	assert.Contains(t, out, "  - alaska_wells: 2")
	assert.Contains(t, out, "  - tx_rrc: 4")
	assert.Contains(t, out, "  - lineages: 2")
	assert.Contains(t, out, "  - lineage company resolution: 50%")
	assert.Contains(t, out, `"high":1`)

	empty := &Snapshot{}
	assert.Contains(t, RenderText(empty), "  - none")
}
