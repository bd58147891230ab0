package adapters

import (
	"context"
	"strings"

	"github.com/2gfhixs/OGREE/pkg/contracts"
	"github.com/2gfhixs/OGREE/pkg/hashing"
	"github.com/2gfhixs/OGREE/pkg/store"
	"github.com/2gfhixs/OGREE/pkg/telemetry"
	"github.com/2gfhixs/OGREE/pkg/universe"
)

// SourceNPRMCongressional carries proposed rules, comment deadlines,
// congressional trade disclosures, and committee advances.
const SourceNPRMCongressional = "nprm_congressional"

var nprmTypeAliases = map[string]string{
	"policy_nprm_open":               "policy_nprm_open",
	"nprm_open":                      "policy_nprm_open",
	"nprm":                           "policy_nprm_open",
	"policy_comment_deadline":        "policy_comment_deadline",
	"comment_deadline":               "policy_comment_deadline",
	"public_comment_deadline":        "policy_comment_deadline",
	"congressional_trade_disclosure": "congressional_trade_disclosure",
	"congressional_trade":            "congressional_trade_disclosure",
	"house_trade_disclosure":         "congressional_trade_disclosure",
	"legislation_committee_advance":  "legislation_committee_advance",
	"committee_advance":              "legislation_committee_advance",
	"bill_committee_advance":         "legislation_committee_advance",
}

// NPRMCongressional normalizes the upstream policy-signal feed.
type NPRMCongressional struct {
	base
	resolver *universe.Resolver
}

// NewNPRMCongressional builds the policy-signals adapter.
func NewNPRMCongressional(repo store.Repository, resolver *universe.Resolver, metrics *telemetry.Metrics) *NPRMCongressional {
	return &NPRMCongressional{base: newBase(repo, metrics, SourceNPRMCongressional), resolver: resolver}
}

// Normalize canonicalizes one policy-signal payload.
func (a *NPRMCongressional) Normalize(raw contracts.Payload) contracts.Payload {
	p := clonePayload(raw)

	t := normKey(p["type"])
	if t == "" {
		t = "unknown"
	} else if canonical, ok := nprmTypeAliases[t]; ok {
		t = canonical
	}
	p["type"] = t

	for _, key := range []string{
		"title", "agency", "docket_id", "bill_id", "committee",
		"legislator", "trade_action", "impact_summary",
		"comment_deadline", "company", "source_url",
	} {
		setClean(p, key)
	}
	normalizeImpact(p)
	p["tickers"] = normalizeTickers(p["tickers"])
	if region := CleanString(p["region"]); region != "" {
		p["region"] = region
	} else {
		p["region"] = "US"
	}

	resolveCompany(p, a.resolver)

	if lineage := PolicyLineageID(p, "bill_id", "docket_id"); lineage != "" {
		p["lineage_id"] = lineage
	}
	return p
}

// Ingest reads a JSONL fixture and appends its rows. Event time falls back
// from the envelope to the comment deadline.
func (a *NPRMCongressional) Ingest(ctx context.Context, path string) (Stats, error) {
	records, err := IterFixture(path)
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	for _, rec := range records {
		stats.Processed++
		payload := a.Normalize(rec.Payload)

		eventTime := firstDate(rec.EventTime, contracts.PayloadString(payload, "comment_deadline"))

		sourceEventID := rec.SourceEventID
		if sourceEventID == "" {
			sourceEventID = a.syntheticID(payload)
		}

		seed := strings.Join([]string{
			sourceEventID,
			contracts.PayloadString(payload, "type"),
			contracts.PayloadString(payload, "bill_id"),
			contracts.PayloadString(payload, "docket_id"),
		}, "|")
		docID := hashing.SeededDocID(SourceNPRMCongressional, seed)

		inserted, err := a.append(ctx, SourceNPRMCongressional, optionalString(sourceEventID), eventTime, payload, docID)
		if err != nil {
			return stats, err
		}
		if inserted {
			stats.Inserted++
		}
	}
	a.recordBatch(ctx, SourceNPRMCongressional, stats)
	return stats, nil
}

func (a *NPRMCongressional) syntheticID(payload contracts.Payload) string {
	seed := strings.Join([]string{
		contracts.PayloadString(payload, "type"),
		contracts.PayloadString(payload, "docket_id"),
		contracts.PayloadString(payload, "bill_id"),
		contracts.PayloadString(payload, "company"),
		contracts.PayloadString(payload, "legislator"),
	}, "|")
	if strings.Trim(seed, "|") == "" {
		canonical, err := hashing.CanonicalJSON(payload)
		if err != nil {
			return ""
		}
		return "pol_" + hashing.ShortHash(string(canonical), 24)
	}
	return "pol_" + hashing.ShortHash(seed, 24)
}
