package adapters

import (
	"context"
	"fmt"

	"github.com/2gfhixs/OGREE/pkg/contracts"
	"github.com/2gfhixs/OGREE/pkg/hashing"
	"github.com/2gfhixs/OGREE/pkg/store"
	"github.com/2gfhixs/OGREE/pkg/telemetry"
)

// SourceTexasRRC is the Railroad Commission of Texas source system.
const SourceTexasRRC = "tx_rrc"

// Texas RRC event types recognized downstream.
var texasTypeAliases = map[string]string{
	"permit_filed":        "permit_filed",
	"permit_issued":       "permit_issued",
	"drilling_permit":     "drilling_permit",
	"w1_filed":            "permit_filed",
	"spud_reported":       "spud_reported",
	"spud":                "spud_reported",
	"well_completion":     "well_completion",
	"completion_reported": "completion_reported",
	"w2_filed":            "completion_reported",
	"drill_result":        "drill_result",
	"production_reported": "production_reported",
	"pr_filed":            "production_reported",
}

// TexasRRC normalizes RRC permit, completion, and production records.
type TexasRRC struct {
	base
}

// NewTexasRRC builds the Texas adapter.
func NewTexasRRC(repo store.Repository, metrics *telemetry.Metrics) *TexasRRC {
	return &TexasRRC{base: newBase(repo, metrics, SourceTexasRRC)}
}

// TexasLineageID prefers the API well number; permit-only records group by
// permit number until an API shows up on a later filing.
func TexasLineageID(payload contracts.Payload) string {
	if api := contracts.PayloadString(payload, "api"); api != "" {
		return "TX:" + api
	}
	if permitNo := contracts.PayloadString(payload, "permit_no"); permitNo != "" {
		return "TX:permit:" + permitNo
	}
	return ""
}

// Normalize canonicalizes one RRC payload in place-copy.
func (a *TexasRRC) Normalize(raw contracts.Payload) contracts.Payload {
	p := clonePayload(raw)

	if CleanString(p["region"]) == "" {
		p["region"] = "Texas"
	}
	if t := normKey(p["type"]); t != "" {
		if canonical, ok := texasTypeAliases[t]; ok {
			p["type"] = canonical
		} else {
			p["type"] = t
		}
	}
	if op := CleanString(p["operator"]); op != "" {
		p["operator"] = op
	} else if _, present := p["operator"]; present {
		p["operator"] = nil
	}

	// permit_id mirrors permit_no for cross-adapter consistency.
	if _, ok := p["permit_id"]; !ok {
		if permitNo := contracts.PayloadString(p, "permit_no"); permitNo != "" {
			p["permit_id"] = permitNo
		}
	}

	for _, key := range []string{"ip_boed", "depth_proposed", "latitude", "longitude"} {
		coerceFloat(p, key)
	}

	if lineage := TexasLineageID(p); lineage != "" {
		p["lineage_id"] = lineage
	}
	return p
}

// Ingest reads a JSONL fixture and appends its rows.
func (a *TexasRRC) Ingest(ctx context.Context, path string) (Stats, error) {
	records, err := IterFixture(path)
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	for _, rec := range records {
		stats.Processed++
		payload := a.Normalize(rec.Payload)

		eventTime := ParseDate(rec.EventTime)
		docID := hashing.SeededDocID(SourceTexasRRC,
			fmt.Sprintf("%s|%s", rec.SourceEventID, contracts.PayloadString(payload, "type")))

		inserted, err := a.append(ctx, SourceTexasRRC, optionalString(rec.SourceEventID), eventTime, payload, docID)
		if err != nil {
			return stats, err
		}
		if inserted {
			stats.Inserted++
		}
	}
	a.recordBatch(ctx, SourceTexasRRC, stats)
	return stats, nil
}

func clonePayload(raw contracts.Payload) contracts.Payload {
	p := make(contracts.Payload, len(raw))
	for k, v := range raw {
		p[k] = v
	}
	return p
}
