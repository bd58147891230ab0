package adapters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2gfhixs/OGREE/pkg/contracts"
)

func TestTexasNormalizeTypeAliases(t *testing.T) {
	a := NewTexasRRC(newTestRepo(t), nil)
	cases := map[string]string{
		"w1_filed": "permit_filed",
		"W1 Filed": "permit_filed",
		"spud":     "spud_reported",
		"w2_filed": "completion_reported",
		"pr_filed": "production_reported",
		"oddball":  "oddball",
	}
	for raw, want := range cases {
		p := a.Normalize(contracts.Payload{"type": raw})
		assert.Equal(t, want, p["type"], raw)
	}
}

func TestTexasNormalizeDefaultsAndCoercion(t *testing.T) {
	a := NewTexasRRC(newTestRepo(t), nil)
	p := a.Normalize(contracts.Payload{
		"type":           "w1_filed",
		"api":            "42-301-00001",
		"permit_no":      "889001",
		"operator":       " Permian  Resources  Operating ",
		"depth_proposed": "12400",
		"latitude":       "31.9201",
	})

	assert.Equal(t, "Texas", p["region"])
	assert.Equal(t, "Permian Resources Operating", p["operator"])
	assert.Equal(t, "889001", p["permit_id"])
	assert.Equal(t, 12400.0, p["depth_proposed"])
	assert.Equal(t, 31.9201, p["latitude"])
	assert.Equal(t, "TX:42-301-00001", p["lineage_id"])
}

func TestTexasLineagePermitFallback(t *testing.T) {
	assert.Equal(t, "TX:42-301-00001", TexasLineageID(contracts.Payload{"api": "42-301-00001", "permit_no": "889001"}))
	assert.Equal(t, "TX:permit:889001", TexasLineageID(contracts.Payload{"permit_no": "889001"}))
	assert.Equal(t, "", TexasLineageID(contracts.Payload{}))
}

func TestTexasIngestProgression(t *testing.T) {
	repo := newTestRepo(t)
	a := NewTexasRRC(repo, nil)
	ctx := context.Background()

	stats, err := a.Ingest(ctx, "testdata/tx_rrc.jsonl")
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Processed)
	assert.Equal(t, 5, stats.Inserted)

	rows, err := repo.LoadRecentEvents(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 5)

	sameLineage := 0
	for _, row := range rows {
		if contracts.PayloadString(row.PayloadJSON, "lineage_id") == "TX:42-301-00001" {
			sameLineage++
		}
	}
	assert.Equal(t, 4, sameLineage)

	again, err := a.Ingest(ctx, "testdata/tx_rrc.jsonl")
	require.NoError(t, err)
	assert.Equal(t, 0, again.Inserted)
}
