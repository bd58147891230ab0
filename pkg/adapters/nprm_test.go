package adapters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2gfhixs/OGREE/pkg/contracts"
)

func TestNPRMNormalizeTypeAliases(t *testing.T) {
	a := NewNPRMCongressional(newTestRepo(t), nil, nil)
	cases := map[string]string{
		"nprm":                    "policy_nprm_open",
		"nprm_open":               "policy_nprm_open",
		"comment_deadline":        "policy_comment_deadline",
		"public_comment_deadline": "policy_comment_deadline",
		"congressional_trade":     "congressional_trade_disclosure",
		"house_trade_disclosure":  "congressional_trade_disclosure",
		"committee_advance":       "legislation_committee_advance",
		"oddball":                 "oddball",
	}
	for raw, want := range cases {
		p := a.Normalize(contracts.Payload{"type": raw})
		assert.Equal(t, want, p["type"], raw)
	}
}

func TestNPRMLineageFallbackOrder(t *testing.T) {
	a := NewNPRMCongressional(newTestRepo(t), testResolver(), nil)

	p := a.Normalize(contracts.Payload{"company": "Permian Resources", "bill_id": "HR-4482", "docket_id": "BLM-AK-2026-0007"})
	assert.Equal(t, "POLICY:PERMIAN_RESOURCES", p["lineage_id"])

	p = a.Normalize(contracts.Payload{"bill_id": "HR-4482", "docket_id": "BLM-AK-2026-0007"})
	billLineage := contracts.PayloadString(p, "lineage_id")
	require.NotEmpty(t, billLineage)

	p = a.Normalize(contracts.Payload{"docket_id": "BLM-AK-2026-0007"})
	docketLineage := contracts.PayloadString(p, "lineage_id")
	require.NotEmpty(t, docketLineage)
	assert.NotEqual(t, billLineage, docketLineage)

	p = a.Normalize(contracts.Payload{"legislator": "Rep. Alex Hale"})
	assert.Nil(t, p["lineage_id"])
}

func TestNPRMIngestFixture(t *testing.T) {
	repo := newTestRepo(t)
	a := NewNPRMCongressional(repo, testResolver(), nil)
	ctx := context.Background()

	stats, err := a.Ingest(ctx, "testdata/policy_signals.jsonl")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Processed)
	assert.Equal(t, 3, stats.Inserted)

	rows, err := repo.LoadRecentEvents(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// The NPRM row has no envelope event_time; the comment deadline
	// backfills it.
	types := map[string]bool{}
	for _, row := range rows {
		types[contracts.PayloadString(row.PayloadJSON, "type")] = true
		require.NotNil(t, row.EventTime)
	}
	assert.True(t, types["policy_nprm_open"])
	assert.True(t, types["congressional_trade_disclosure"])
	assert.True(t, types["legislation_committee_advance"])

	again, err := a.Ingest(ctx, "testdata/policy_signals.jsonl")
	require.NoError(t, err)
	assert.Equal(t, 0, again.Inserted)
}
