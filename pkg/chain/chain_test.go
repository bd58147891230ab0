package chain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2gfhixs/OGREE/pkg/contracts"
	"github.com/2gfhixs/OGREE/pkg/store"
)

func event(lineage, eventType string, at time.Time, extra contracts.Payload) store.EventRow {
	pj := contracts.Payload{"lineage_id": lineage, "type": eventType}
	for k, v := range extra {
		pj[k] = v
	}
	t := at
	return store.EventRow{PayloadJSON: pj, EventTime: &t, IngestTime: at}
}

var base = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func TestComputeDiscardsEventsWithoutLineage(t *testing.T) {
	rows := Compute([]store.EventRow{
		{PayloadJSON: contracts.Payload{"type": "permit_filed"}, IngestTime: base},
	})
	assert.Empty(t, rows)
}

func TestBaselinePermitAndWell(t *testing.T) {
	rows := Compute([]store.EventRow{
		event("L1", "permit_filed", base, contracts.Payload{"operator": "Santos Alaska", "region": "North Slope"}),
		event("L1", "well_record", base.Add(24*time.Hour), contracts.Payload{"ip_boed": 2850}),
	})
	require.Len(t, rows, 1)
	r := rows[0]

	assert.True(t, r.HasPermit)
	assert.True(t, r.HasWell)
	assert.False(t, r.HasSpud)
	assert.Equal(t, 0.6, r.Score)
	assert.Equal(t, "Santos Alaska", r.Operator)
	require.NotNil(t, r.IPBoed)
	assert.Equal(t, 2850.0, *r.IPBoed)
	require.NotNil(t, r.LastEventTime)
	assert.True(t, r.LastEventTime.Equal(base.Add(24*time.Hour)))
}

func TestTexasFullProgressionScoresOne(t *testing.T) {
	tx := contracts.Payload{"region": "Texas", "operator": "Permian Resources Operating"}
	rows := Compute([]store.EventRow{
		event("TX:42-301-00001", "permit_filed", base, tx),
		event("TX:42-301-00001", "spud_reported", base.Add(24*time.Hour), tx),
		event("TX:42-301-00001", "completion_reported", base.Add(48*time.Hour), tx),
		event("TX:42-301-00001", "production_reported", base.Add(72*time.Hour), tx),
	})
	require.Len(t, rows, 1)
	r := rows[0]

	assert.True(t, r.HasPermit)
	assert.True(t, r.HasSpud)
	assert.True(t, r.HasWell)
	assert.True(t, r.HasProduction)
	assert.Equal(t, 1.0, r.Score)
}

func TestTexasStagesRequireTexasRegion(t *testing.T) {
	rows := Compute([]store.EventRow{
		event("L1", "spud_reported", base, contracts.Payload{"region": "Alaska"}),
		event("L1", "production_reported", base, contracts.Payload{"region": "Alaska"}),
	})
	require.Len(t, rows, 1)
	assert.False(t, rows[0].HasSpud)
	assert.False(t, rows[0].HasProduction)
	assert.Equal(t, 0.0, rows[0].Score)
}

func TestREEStagesMapToUnifiedScoring(t *testing.T) {
	ree := contracts.Payload{"commodity": "REE", "company": "Ramaco Resources", "project": "Brook Mine"}
	rows := Compute([]store.EventRow{
		event("R1", "claims_staked", base, ree),
		event("R1", "drill_assay", base.Add(24*time.Hour), ree),
		event("R1", "resource_estimate", base.Add(48*time.Hour), ree),
		event("R1", "pea_published", base.Add(72*time.Hour), ree),
		event("R1", "financing_closed", base.Add(96*time.Hour), ree),
	})
	require.Len(t, rows, 1)
	r := rows[0]

	assert.True(t, r.HasClaims)
	assert.True(t, r.HasPermit)
	assert.True(t, r.HasDrillAssay)
	assert.True(t, r.HasWell)
	assert.True(t, r.HasResource)
	assert.True(t, r.HasStudy)
	assert.True(t, r.HasDeal)
	// 0.3 + 0.3 + 0.15 + 0.2 + 0.15
	assert.Equal(t, 1.1, r.Score)
	assert.Equal(t, "Ramaco Resources", r.Company)
	assert.Equal(t, "Brook Mine", r.Project)
}

func TestREEStagesRequireCommodity(t *testing.T) {
	rows := Compute([]store.EventRow{
		event("R1", "claims_staked", base, contracts.Payload{"commodity": "lithium"}),
	})
	require.Len(t, rows, 1)
	assert.False(t, rows[0].HasClaims)
	assert.False(t, rows[0].HasPermit)
}

func TestInsiderClusterTwoFilers(t *testing.T) {
	rows := Compute([]store.EventRow{
		event("SEC:PERMIAN_RESOURCES", "insider_buy", base,
			contracts.Payload{"filer_name": "Dana Morgan", "company": "Permian Resources"}),
		event("SEC:PERMIAN_RESOURCES", "insider_buy", base.Add(14*24*time.Hour),
			contracts.Payload{"filer_name": "Ryan Cole", "company": "Permian Resources"}),
	})
	require.Len(t, rows, 1)
	r := rows[0]

	assert.True(t, r.HasInsiderBuy)
	assert.True(t, r.HasInsiderBuyCluster)
	assert.Equal(t, 0.25, r.Score)
}

func TestInsiderNoClusterSingleFiler(t *testing.T) {
	rows := Compute([]store.EventRow{
		event("SEC:PERMIAN_RESOURCES", "insider_buy", base,
			contracts.Payload{"filer_name": "Dana Morgan"}),
		event("SEC:PERMIAN_RESOURCES", "insider_buy", base.Add(10*24*time.Hour),
			contracts.Payload{"filer_name": "Dana Morgan"}),
	})
	require.Len(t, rows, 1)
	r := rows[0]

	assert.True(t, r.HasInsiderBuy)
	assert.False(t, r.HasInsiderBuyCluster)
	assert.Equal(t, 0.15, r.Score)
}

func TestInsiderNoClusterOutsideWindow(t *testing.T) {
	rows := Compute([]store.EventRow{
		event("S1", "insider_buy", base, contracts.Payload{"filer_name": "Dana Morgan"}),
		event("S1", "insider_buy", base.Add(31*24*time.Hour), contracts.Payload{"filer_name": "Ryan Cole"}),
	})
	require.Len(t, rows, 1)
	assert.False(t, rows[0].HasInsiderBuyCluster)
}

func TestContextCarryFirstNonNullAndMonotoneIP(t *testing.T) {
	rows := Compute([]store.EventRow{
		event("L1", "permit_filed", base, contracts.Payload{"operator": "First Operator", "ip_boed": 100}),
		event("L1", "well_record", base.Add(time.Hour), contracts.Payload{"operator": "Second Operator", "ip_boed": 50, "company_id": "PERMIAN_RESOURCES"}),
	})
	require.Len(t, rows, 1)
	r := rows[0]

	assert.Equal(t, "First Operator", r.Operator)
	assert.Equal(t, "PERMIAN_RESOURCES", r.CompanyID)
	require.NotNil(t, r.IPBoed)
	assert.Equal(t, 100.0, *r.IPBoed)
}

func TestLastEventTimeFallsBackToIngest(t *testing.T) {
	rows := Compute([]store.EventRow{
		{PayloadJSON: contracts.Payload{"lineage_id": "L1", "type": "permit_filed"}, IngestTime: base},
	})
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].LastEventTime)
	assert.True(t, rows[0].LastEventTime.Equal(base))
}

func TestRowsSortedByScoreDesc(t *testing.T) {
	rows := Compute([]store.EventRow{
		event("LOW", "permit_filed", base, nil),
		event("HIGH", "permit_filed", base, nil),
		event("HIGH", "well_record", base, nil),
	})
	require.Len(t, rows, 2)
	assert.Equal(t, "HIGH", rows[0].LineageID)
	assert.Equal(t, "LOW", rows[1].LineageID)
}

func TestScoringCommutative(t *testing.T) {
	tx := contracts.Payload{"region": "Texas"}
	events := []store.EventRow{
		event("TX:1", "permit_filed", base, tx),
		event("TX:1", "spud_reported", base.Add(time.Hour), tx),
		event("TX:1", "completion_reported", base.Add(2*time.Hour), tx),
	}
	reversed := []store.EventRow{events[2], events[1], events[0]}

	a := Compute(events)
	b := Compute(reversed)
	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, a[0].Score, b[0].Score)
}

func TestRowPayloadRendersISOTime(t *testing.T) {
	rows := Compute([]store.EventRow{
		event("L1", "permit_filed", time.Date(2026, 8, 6, 9, 30, 0, 0, time.UTC), contracts.Payload{"operator": "Santos Alaska"}),
	})
	require.Len(t, rows, 1)

	p := rows[0].Payload()
	assert.Equal(t, "2026-08-06T09:30:00Z", p["last_event_time"])
	assert.Equal(t, "L1", p["lineage_id"])
	assert.Equal(t, 0.3, p["score"])
	assert.Nil(t, p["company"])
}
