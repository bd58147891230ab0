package adapters

import (
	"context"
	"strings"
	"time"

	"github.com/2gfhixs/OGREE/pkg/contracts"
	"github.com/2gfhixs/OGREE/pkg/hashing"
	"github.com/2gfhixs/OGREE/pkg/store"
	"github.com/2gfhixs/OGREE/pkg/telemetry"
	"github.com/2gfhixs/OGREE/pkg/universe"
)

// SourceFederalRegister carries published final rules.
const SourceFederalRegister = "federal_register_rules"

var federalRegisterTypeAliases = map[string]string{
	"policy_final_rule": "policy_final_rule",
	"final_rule":        "policy_final_rule",
	"rule_published":    "policy_final_rule",
}

var impactAliases = map[string]string{
	"favorable": "favorable",
	"positive":  "favorable",
	"bullish":   "favorable",
	"adverse":   "adverse",
	"negative":  "adverse",
	"bearish":   "adverse",
	"neutral":   "neutral",
	"mixed":     "mixed",
}

// FederalRegister normalizes final-rule publications.
type FederalRegister struct {
	base
	resolver *universe.Resolver
}

// NewFederalRegister builds the Federal Register adapter.
func NewFederalRegister(repo store.Repository, resolver *universe.Resolver, metrics *telemetry.Metrics) *FederalRegister {
	return &FederalRegister{base: newBase(repo, metrics, SourceFederalRegister), resolver: resolver}
}

// PolicyLineageID is shared by the policy-surface adapters: resolved company
// first, then lowercase-hashed fallbacks in priority order.
func PolicyLineageID(payload contracts.Payload, fallbackKeys ...string) string {
	if companyID := contracts.PayloadString(payload, "company_id"); companyID != "" {
		return "POLICY:" + companyID
	}
	for _, key := range append([]string{"company"}, fallbackKeys...) {
		if v := contracts.PayloadString(payload, key); v != "" {
			return "POLICY:" + hashing.ShortHash(strings.ToLower(v), 16)
		}
	}
	return ""
}

func normalizeImpact(p contracts.Payload) {
	key := strings.ToLower(CleanString(p["impact_direction"]))
	if key == "" {
		p["impact_direction"] = nil
		return
	}
	if canonical, ok := impactAliases[key]; ok {
		p["impact_direction"] = canonical
	} else {
		p["impact_direction"] = key
	}
}

// Normalize canonicalizes one final-rule payload.
func (a *FederalRegister) Normalize(raw contracts.Payload) contracts.Payload {
	p := clonePayload(raw)

	t := normKey(p["type"])
	if t == "" {
		t = "unknown"
	} else if canonical, ok := federalRegisterTypeAliases[t]; ok {
		t = canonical
	}
	p["type"] = t

	for _, key := range []string{
		"agency", "title", "document_number", "docket_id",
		"publication_date", "effective_date", "impact_summary",
		"company", "source_url",
	} {
		setClean(p, key)
	}
	if stage := CleanString(p["rule_stage"]); stage != "" {
		p["rule_stage"] = stage
	} else {
		p["rule_stage"] = "final_rule"
	}
	normalizeImpact(p)
	p["tickers"] = normalizeTickers(p["tickers"])
	if region := CleanString(p["region"]); region != "" {
		p["region"] = region
	} else {
		p["region"] = "US"
	}

	resolveCompany(p, a.resolver)

	if lineage := PolicyLineageID(p, "docket_id"); lineage != "" {
		p["lineage_id"] = lineage
	}
	return p
}

// Ingest reads a JSONL fixture and appends its rows. Event time falls back
// from the envelope to publication date to effective date.
func (a *FederalRegister) Ingest(ctx context.Context, path string) (Stats, error) {
	records, err := IterFixture(path)
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	for _, rec := range records {
		stats.Processed++
		payload := a.Normalize(rec.Payload)

		eventTime := firstDate(rec.EventTime,
			contracts.PayloadString(payload, "publication_date"),
			contracts.PayloadString(payload, "effective_date"))

		sourceEventID := rec.SourceEventID
		if sourceEventID == "" {
			sourceEventID = a.syntheticID(payload)
		}

		seed := strings.Join([]string{
			sourceEventID,
			contracts.PayloadString(payload, "type"),
			contracts.PayloadString(payload, "document_number"),
			contracts.PayloadString(payload, "company"),
		}, "|")
		docID := hashing.SeededDocID(SourceFederalRegister, seed)

		inserted, err := a.append(ctx, SourceFederalRegister, optionalString(sourceEventID), eventTime, payload, docID)
		if err != nil {
			return stats, err
		}
		if inserted {
			stats.Inserted++
		}
	}
	a.recordBatch(ctx, SourceFederalRegister, stats)
	return stats, nil
}

func (a *FederalRegister) syntheticID(payload contracts.Payload) string {
	eventType := contracts.PayloadString(payload, "type")
	if eventType == "" {
		eventType = "policy_final_rule"
	}
	seed := strings.Join([]string{
		contracts.PayloadString(payload, "document_number"),
		contracts.PayloadString(payload, "docket_id"),
		eventType,
		contracts.PayloadString(payload, "company"),
	}, "|")
	if strings.Trim(seed, "|") == "" {
		canonical, err := hashing.CanonicalJSON(payload)
		if err != nil {
			return ""
		}
		return "fr_" + hashing.ShortHash(string(canonical), 24)
	}
	return "fr_" + hashing.ShortHash(seed, 24)
}

// resolveCompany copies company_id and tickers onto the payload when the
// resolver recognizes the free-text company name.
func resolveCompany(p contracts.Payload, resolver *universe.Resolver) {
	company := contracts.PayloadString(p, "company")
	if company == "" || resolver == nil {
		return
	}
	resolved := resolver.Resolve(company, "")
	if resolved.CompanyID == "" {
		return
	}
	p["company_id"] = resolved.CompanyID
	if len(contracts.PayloadStrings(p, "tickers")) == 0 && len(resolved.Tickers) > 0 {
		p["tickers"] = resolved.Tickers
	}
}

// firstDate returns the first candidate the date cascade accepts.
func firstDate(candidates ...string) *time.Time {
	for _, c := range candidates {
		if t := ParseDate(c); t != nil {
			return t
		}
	}
	return nil
}
