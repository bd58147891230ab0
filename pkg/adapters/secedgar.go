package adapters

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/2gfhixs/OGREE/pkg/contracts"
	"github.com/2gfhixs/OGREE/pkg/hashing"
	"github.com/2gfhixs/OGREE/pkg/store"
	"github.com/2gfhixs/OGREE/pkg/telemetry"
	"github.com/2gfhixs/OGREE/pkg/universe"
)

// SourceSECEdgar covers insider and institutional filings.
const SourceSECEdgar = "sec_edgar"

var secValidTypes = map[string]bool{
	"insider_buy":             true,
	"insider_sell":            true,
	"insider_option_exercise": true,
	"institutional_13g":       true,
	"institutional_13f":       true,
}

var secTypeAliases = map[string]string{
	"insider_buy":             "insider_buy",
	"insider_purchase":        "insider_buy",
	"purchase":                "insider_buy",
	"buy":                     "insider_buy",
	"open_market_purchase":    "insider_buy",
	"insider_sell":            "insider_sell",
	"insider_sale":            "insider_sell",
	"sale":                    "insider_sell",
	"sell":                    "insider_sell",
	"insider_option_exercise": "insider_option_exercise",
	"option_exercise":         "insider_option_exercise",
	"exercise":                "insider_option_exercise",
	"institutional_13g":       "institutional_13g",
	"13g":                     "institutional_13g",
	"schedule_13g":            "institutional_13g",
	"institutional_13f":       "institutional_13f",
	"13f":                     "institutional_13f",
	"form_13f":                "institutional_13f",
}

var secTransactionAliases = map[string]string{
	"purchase":             "purchase",
	"buy":                  "purchase",
	"open_market_purchase": "purchase",
	"acquired":             "purchase",
	"sale":                 "sale",
	"sell":                 "sale",
	"disposed":             "sale",
	"exercise":             "exercise",
	"option_exercise":      "exercise",
	"derivative_exercise":  "exercise",
}

// SECEdgar normalizes SEC insider/institutional events from fixtures and,
// via IngestLive, from the EDGAR APIs directly.
type SECEdgar struct {
	base
	resolver *universe.Resolver
}

// NewSECEdgar builds the SEC adapter.
func NewSECEdgar(repo store.Repository, resolver *universe.Resolver, metrics *telemetry.Metrics) *SECEdgar {
	return &SECEdgar{base: newBase(repo, metrics, SourceSECEdgar), resolver: resolver}
}

// SECLineageID groups by resolved company identity when available, falling
// back to the normalized company name.
func SECLineageID(payload contracts.Payload) string {
	if companyID := contracts.PayloadString(payload, "company_id"); companyID != "" {
		return "SEC:" + companyID
	}
	if name := universe.Normalize(contracts.PayloadString(payload, "company")); name != "" {
		return "SEC:" + hashing.ShortHash(name, 16)
	}
	return ""
}

// normalizeRelationship folds free-text insider relationships into the
// canonical set.
func normalizeRelationship(raw any) any {
	rel := strings.ToLower(CleanString(raw))
	if rel == "" {
		return nil
	}
	switch {
	case strings.Contains(rel, "10%"), strings.Contains(rel, "10 percent"), strings.Contains(rel, "beneficial owner"):
		return "10% owner"
	case strings.Contains(rel, "director"):
		return "director"
	case containsAny(rel, "officer", "ceo", "cfo", "coo", "president", "vp", "chief"):
		return "officer"
	case containsAny(rel, "institution", "fund", "adviser", "advisor", "asset management"):
		return "institution"
	default:
		return rel
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func normalizeTransactionType(raw any, eventType string) any {
	if key := normKey(raw); key != "" {
		if canonical, ok := secTransactionAliases[key]; ok {
			return canonical
		}
		return key
	}
	switch eventType {
	case "insider_buy":
		return "purchase"
	case "insider_sell":
		return "sale"
	case "insider_option_exercise":
		return "exercise"
	default:
		return nil
	}
}

// Normalize canonicalizes one SEC payload: type and transaction aliasing,
// relationship folding, numeric coercion, total value derivation, company
// resolution, lineage.
func (a *SECEdgar) Normalize(raw contracts.Payload) contracts.Payload {
	p := clonePayload(raw)

	t := normKey(p["type"])
	if t == "" {
		t = "unknown"
	} else if canonical, ok := secTypeAliases[t]; ok {
		t = canonical
	}
	p["type"] = t
	if !secValidTypes[t] {
		a.logger.Debug("unrecognized sec event type passed through", "type", t)
	}

	setClean(p, "filer_name")
	p["relationship"] = normalizeRelationship(p["relationship"])
	p["transaction_type"] = normalizeTransactionType(p["transaction_type"], t)

	coerceFloat(p, "shares")
	coerceFloat(p, "price_per_share")
	coerceFloat(p, "total_value")
	if p["total_value"] == nil {
		shares, okS := contracts.PayloadFloat(p, "shares")
		price, okP := contracts.PayloadFloat(p, "price_per_share")
		if okS && okP {
			p["total_value"] = math.Round(shares*price*100) / 100
		}
	}

	if company := firstClean(p, "company", "issuer_name"); company != "" {
		p["company"] = company
	} else {
		p["company"] = nil
	}
	p["tickers"] = normalizeTickers(p["tickers"])
	setClean(p, "form_type")
	if accession := firstClean(p, "filing_accession", "accession_no"); accession != "" {
		p["filing_accession"] = accession
	} else {
		p["filing_accession"] = nil
	}
	if region := CleanString(p["region"]); region != "" {
		p["region"] = region
	} else {
		p["region"] = "US"
	}

	if company := contracts.PayloadString(p, "company"); company != "" && a.resolver != nil {
		resolved := a.resolver.Resolve(company, "")
		if resolved.CompanyID != "" {
			p["company_id"] = resolved.CompanyID
			if len(contracts.PayloadStrings(p, "tickers")) == 0 && len(resolved.Tickers) > 0 {
				p["tickers"] = resolved.Tickers
			}
		}
	}

	if lineage := SECLineageID(p); lineage != "" {
		p["lineage_id"] = lineage
	}
	return p
}

// Ingest reads a JSONL fixture and appends its rows.
func (a *SECEdgar) Ingest(ctx context.Context, path string) (Stats, error) {
	records, err := IterFixture(path)
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	for _, rec := range records {
		stats.Processed++
		payload := a.Normalize(rec.Payload)

		eventTime := ParseDate(rec.EventTime)
		sourceEventID := rec.SourceEventID
		if sourceEventID == "" {
			sourceEventID = a.syntheticID(payload, eventTime)
		}

		inserted, err := a.append(ctx, SourceSECEdgar, optionalString(sourceEventID), eventTime, payload,
			secDocID(sourceEventID, payload))
		if err != nil {
			return stats, err
		}
		if inserted {
			stats.Inserted++
		}
	}
	a.recordBatch(ctx, SourceSECEdgar, stats)
	return stats, nil
}

func secDocID(sourceEventID string, payload contracts.Payload) string {
	seed := strings.Join([]string{
		sourceEventID,
		contracts.PayloadString(payload, "type"),
		contracts.PayloadString(payload, "company"),
		contracts.PayloadString(payload, "filer_name"),
	}, "|")
	return hashing.SeededDocID(SourceSECEdgar, seed)
}

// syntheticID composes a deterministic id when the upstream gives none.
func (a *SECEdgar) syntheticID(payload contracts.Payload, eventTime *time.Time) string {
	var shares string
	if v, ok := contracts.PayloadFloat(payload, "shares"); ok {
		shares = fmt.Sprintf("%v", v)
	}
	seed := strings.Join([]string{
		contracts.PayloadString(payload, "filing_accession"),
		contracts.PayloadString(payload, "type"),
		contracts.PayloadString(payload, "filer_name"),
		contracts.PayloadString(payload, "company"),
		contracts.PayloadString(payload, "transaction_type"),
		shares,
		contracts.FormatTimePtr(eventTime),
	}, "|")
	if strings.Trim(seed, "|") == "" {
		canonical, err := hashing.CanonicalJSON(payload)
		if err != nil {
			return ""
		}
		return "sec_" + hashing.ShortHash(string(canonical), 24)
	}
	return "sec_" + hashing.ShortHash(seed, 24)
}
