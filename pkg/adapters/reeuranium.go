package adapters

import (
	"context"
	"fmt"
	"strings"

	"github.com/2gfhixs/OGREE/pkg/contracts"
	"github.com/2gfhixs/OGREE/pkg/hashing"
	"github.com/2gfhixs/OGREE/pkg/store"
	"github.com/2gfhixs/OGREE/pkg/telemetry"
)

// SourceREEUranium covers critical-minerals project disclosures.
const SourceREEUranium = "ree_uranium"

// Canonical REE/U lifecycle event types.
var reeValidTypes = map[string]bool{
	"claims_staked":       true,
	"exploration_permit":  true,
	"drill_assay":         true,
	"resource_estimate":   true,
	"pea_published":       true,
	"pfs_published":       true,
	"feasibility_study":   true,
	"financing_closed":    true,
	"financing_announced": true,
	"offtake_agreement":   true,
	"policy_designation":  true,
	"production_decision": true,
	"construction_start":  true,
	"plugging_report":     true,
}

var reeCommodityAliases = map[string]string{
	"ree":                 "REE",
	"rare earths":         "REE",
	"rare earth":          "REE",
	"rare earth elements": "REE",
	"uranium":             "uranium",
	"u3o8":                "uranium",
	"u":                   "uranium",
}

// reeNumericKeys are coerced to float64; unparseable values become null.
var reeNumericKeys = []string{
	"treo_pct", "mreo_pct", "u3o8_ppm", "gt_metric",
	"interval_m", "interval_ft", "from_m", "to_m", "from_ft", "to_ft",
	"tonnage_mt", "grade_treo_pct", "grade_u3o8_pct",
	"contained_treo_kt", "contained_u3o8_mlbs",
	"npv_8_musd", "irr_pct", "capex_musd", "opex_per_kg_reo",
	"payback_years", "amount_cad", "price_per_share_cad",
	"shares_issued", "quantity_mlbs",
	"claims_count", "area_ha", "area_acres",
}

// REEUranium normalizes REE and uranium project events.
type REEUranium struct {
	base
}

// NewREEUranium builds the REE/U adapter.
func NewREEUranium(repo store.Repository, metrics *telemetry.Metrics) *REEUranium {
	return &REEUranium{base: newBase(repo, metrics, SourceREEUranium)}
}

// REELineageID is project-based: all events for one company+project group
// together. Policy designations have no project and group by policy name
// and commodity instead.
func REELineageID(payload contracts.Payload) string {
	company := contracts.PayloadString(payload, "company")
	project := contracts.PayloadString(payload, "project")
	if company != "" && project != "" {
		return hashing.ShortHash(fmt.Sprintf("REE_U|%s|%s", company, project), 20)
	}
	if contracts.PayloadString(payload, "type") == "policy_designation" {
		policy := contracts.PayloadString(payload, "policy")
		if policy == "" {
			policy = "unknown"
		}
		commodity := contracts.PayloadString(payload, "commodity")
		if commodity == "" {
			commodity = "unknown"
		}
		return hashing.ShortHash(fmt.Sprintf("REE_U|policy|%s|%s", policy, commodity), 20)
	}
	return ""
}

// Normalize canonicalizes one REE/U payload.
func (a *REEUranium) Normalize(raw contracts.Payload) contracts.Payload {
	p := clonePayload(raw)

	t := normKey(p["type"])
	if t == "" {
		t = "unknown"
	}
	p["type"] = t
	if !reeValidTypes[t] {
		a.logger.Debug("unrecognized ree/u event type passed through", "type", t)
	}

	if c := strings.ToLower(CleanString(p["commodity"])); c != "" {
		if canonical, ok := reeCommodityAliases[c]; ok {
			p["commodity"] = canonical
		} else {
			p["commodity"] = c
		}
	} else {
		p["commodity"] = nil
	}

	for _, key := range []string{"company", "project", "region", "jurisdiction"} {
		setClean(p, key)
	}
	p["tickers"] = normalizeTickers(p["tickers"])

	for _, key := range reeNumericKeys {
		coerceFloat(p, key)
	}

	if lineage := REELineageID(p); lineage != "" {
		p["lineage_id"] = lineage
	}
	return p
}

// Ingest reads a JSONL fixture and appends its rows.
func (a *REEUranium) Ingest(ctx context.Context, path string) (Stats, error) {
	records, err := IterFixture(path)
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	for _, rec := range records {
		stats.Processed++
		payload := a.Normalize(rec.Payload)

		eventTime := ParseDateREE(rec.EventTime)
		sourceEventID := rec.SourceEventID
		if sourceEventID == "" {
			sourceEventID = a.syntheticID(payload)
		}

		docID := hashing.SeededDocID(SourceREEUranium, fmt.Sprintf("%s|%s|%s|%s",
			sourceEventID,
			contracts.PayloadString(payload, "type"),
			contracts.PayloadString(payload, "company"),
			contracts.PayloadString(payload, "project")))

		inserted, err := a.append(ctx, SourceREEUranium, optionalString(sourceEventID), eventTime, payload, docID)
		if err != nil {
			return stats, err
		}
		if inserted {
			stats.Inserted++
		}
	}
	a.recordBatch(ctx, SourceREEUranium, stats)
	return stats, nil
}

// syntheticID composes a deterministic id from the stable identity fields.
func (a *REEUranium) syntheticID(payload contracts.Payload) string {
	company := contracts.PayloadString(payload, "company")
	eventType := contracts.PayloadString(payload, "type")
	project := contracts.PayloadString(payload, "project")
	if company == "" && eventType == "" && project == "" {
		return ""
	}
	seed := fmt.Sprintf("%s|%s|%s", company, eventType, project)
	return "ree_" + hashing.ShortHash(seed, 24)
}
