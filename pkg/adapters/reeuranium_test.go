package adapters

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2gfhixs/OGREE/pkg/contracts"
)

func TestREENormalizeCommodityAliases(t *testing.T) {
	a := NewREEUranium(newTestRepo(t), nil)
	cases := map[string]string{
		"rare earths": "REE",
		"Rare Earth":  "REE",
		"REE":         "REE",
		"u3o8":        "uranium",
		"Uranium":     "uranium",
		"lithium":     "lithium",
	}
	for raw, want := range cases {
		p := a.Normalize(contracts.Payload{"commodity": raw})
		assert.Equal(t, want, p["commodity"], raw)
	}

	p := a.Normalize(contracts.Payload{})
	assert.Nil(t, p["commodity"])
}

func TestREENormalizeNumericCoercion(t *testing.T) {
	a := NewREEUranium(newTestRepo(t), nil)
	p := a.Normalize(contracts.Payload{
		"type":      "drill_assay",
		"company":   "Ramaco Resources",
		"project":   "Brook Mine",
		"treo_pct":  "0.42",
		"u3o8_ppm":  2150,
		"gt_metric": "pending",
	})

	assert.Equal(t, 0.42, p["treo_pct"])
	assert.Equal(t, 2150.0, p["u3o8_ppm"])
	assert.Nil(t, p["gt_metric"])
}

func TestREELineageProjectAndPolicy(t *testing.T) {
	project := REELineageID(contracts.Payload{"company": "Ramaco Resources", "project": "Brook Mine"})
	require.Len(t, project, 20)
	assert.Equal(t, project, REELineageID(contracts.Payload{"company": "Ramaco Resources", "project": "Brook Mine", "type": "drill_assay"}))

	policy := REELineageID(contracts.Payload{"type": "policy_designation", "policy": "critical_minerals_list", "commodity": "uranium"})
	require.Len(t, policy, 20)
	assert.NotEqual(t, project, policy)

	assert.Equal(t, "", REELineageID(contracts.Payload{"company": "Ramaco Resources"}))
}

func TestREESyntheticID(t *testing.T) {
	a := NewREEUranium(newTestRepo(t), nil)

	id := a.syntheticID(contracts.Payload{"company": "Ramaco Resources", "type": "drill_assay", "project": "Brook Mine"})
	require.NotEmpty(t, id)
	assert.Equal(t, "ree_", id[:4])
	assert.Len(t, id, 4+24)

	assert.Equal(t, "", a.syntheticID(contracts.Payload{}))
}

func TestREEIngestFixture(t *testing.T) {
	repo := newTestRepo(t)
	a := NewREEUranium(repo, nil)
	ctx := context.Background()

	stats, err := a.Ingest(ctx, "testdata/ree_uranium.jsonl")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.Processed, 15)
	assert.GreaterOrEqual(t, stats.Inserted, 15)
	assert.Equal(t, stats.Processed, stats.Inserted)

	again, err := a.Ingest(ctx, "testdata/ree_uranium.jsonl")
	require.NoError(t, err)
	assert.Equal(t, 0, again.Inserted)

	counts, err := repo.LoadSourceCounts(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, stats.Processed, counts[SourceREEUranium])
}

func TestREEFixtureCoversLifecycles(t *testing.T) {
	records, err := IterFixture("testdata/ree_uranium.jsonl")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(records), 15)

	typesSeen := map[string]bool{}
	uraniumTypes := map[string]bool{}
	for _, rec := range records {
		require.NotNil(t, rec.Payload)
		typ := contracts.PayloadString(rec.Payload, "type")
		require.NotEmpty(t, typ)
		typesSeen[typ] = true
		if strings.EqualFold(contracts.PayloadString(rec.Payload, "commodity"), "uranium") {
			uraniumTypes[typ] = true
		}
	}

	for _, typ := range []string{"claims_staked", "exploration_permit", "drill_assay", "resource_estimate", "financing_closed"} {
		assert.True(t, typesSeen[typ], typ)
	}
	for _, typ := range []string{"claims_staked", "drill_assay", "resource_estimate", "offtake_agreement"} {
		assert.True(t, uraniumTypes[typ], "uranium "+typ)
	}
	assert.True(t, typesSeen["policy_designation"])
}
