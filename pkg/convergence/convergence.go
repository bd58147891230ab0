// Package convergence counts independent evidence categories reinforcing a
// chain row inside a rolling window. Events never merge across sources; they
// only vote into shared keys (lineage, resolved company, normalized name).
package convergence

import (
	"sort"
	"strings"
	"time"

	"github.com/2gfhixs/OGREE/pkg/chain"
	"github.com/2gfhixs/OGREE/pkg/contracts"
	"github.com/2gfhixs/OGREE/pkg/store"
	"github.com/2gfhixs/OGREE/pkg/universe"
)

// DefaultWindow is the rolling convergence window.
const DefaultWindow = 30 * 24 * time.Hour

// Signal categories:
//
//	A permit/claims activity
//	B drill results, assays, completions
//	C resource estimates and economic studies
//	D financing, offtake, deals
//	E insider buying and institutional accumulation
//	F policy and macro tailwind
var (
	categoryA = map[string]bool{
		"lease_grant": true, "permit_filed": true, "permit_issued": true,
		"drilling_permit": true, "claims_staked": true, "exploration_permit": true,
	}
	categoryB = map[string]bool{
		"drill_result": true, "drill_assay": true, "completion_reported": true,
		"well_completion": true, "well_record": true,
	}
	categoryC = map[string]bool{
		"resource_estimate": true, "pea_published": true,
		"pfs_published": true, "feasibility_study": true,
	}
	categoryD = map[string]bool{
		"financing_closed": true, "financing_announced": true, "offtake_agreement": true,
	}
	categoryE = map[string]bool{
		"insider_buy": true, "institutional_13g": true, "institutional_13f": true,
	}
	categoryF = map[string]bool{
		"policy_designation": true, "policy_final_rule": true,
		"policy_nprm_open": true, "policy_comment_deadline": true,
		"congressional_trade_disclosure": true, "legislation_committee_advance": true,
	}

	categoryFSubstrings = []string{"policy", "macro", "rule", "nprm", "congress", "legislation", "committee"}
)

type signal struct {
	at       time.Time
	category string
}

// Index holds the per-key signal points built from an event window.
type Index struct {
	signalsByKey map[string][]signal
	latestByKey  map[string]time.Time
}

// EventCategories maps a canonical event type to its signal categories.
func EventCategories(eventType string) []string {
	t := strings.ToLower(strings.TrimSpace(eventType))
	if t == "" {
		return nil
	}
	var cats []string
	if categoryA[t] {
		cats = append(cats, "A")
	}
	if categoryB[t] {
		cats = append(cats, "B")
	}
	if categoryC[t] {
		cats = append(cats, "C")
	}
	if categoryD[t] {
		cats = append(cats, "D")
	}
	if categoryE[t] {
		cats = append(cats, "E")
	}
	if categoryF[t] || containsAny(t, categoryFSubstrings) {
		cats = append(cats, "F")
	}
	return cats
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func companyKeys(companyID, company, operator string) []string {
	var keys []string
	if id := strings.TrimSpace(companyID); id != "" {
		keys = append(keys, "company_id:"+id)
	}
	name := universe.Normalize(company)
	if name == "" {
		name = universe.Normalize(operator)
	}
	if name != "" {
		keys = append(keys, "company_name:"+name)
	}
	return keys
}

func eventKeys(pj contracts.Payload) []string {
	var keys []string
	if lineage := contracts.PayloadString(pj, "lineage_id"); lineage != "" {
		keys = append(keys, "lineage:"+lineage)
	}
	return append(keys, companyKeys(
		contracts.PayloadString(pj, "company_id"),
		contracts.PayloadString(pj, "company"),
		contracts.PayloadString(pj, "operator"),
	)...)
}

func rowKeys(row *chain.Row) []string {
	var keys []string
	if row.LineageID != "" {
		keys = append(keys, "lineage:"+row.LineageID)
	}
	return append(keys, companyKeys(row.CompanyID, row.Company, row.Operator)...)
}

// BuildIndex folds an event window into per-key signal points. Events with
// no time, no category, or no key contribute nothing.
func BuildIndex(events []store.EventRow) *Index {
	idx := &Index{
		signalsByKey: make(map[string][]signal),
		latestByKey:  make(map[string]time.Time),
	}
	for i := range events {
		e := &events[i]
		at := e.IngestTime
		if e.EventTime != nil {
			at = *e.EventTime
		}
		cats := EventCategories(contracts.PayloadString(e.PayloadJSON, "type"))
		if len(cats) == 0 {
			continue
		}
		keys := eventKeys(e.PayloadJSON)
		for _, key := range keys {
			for _, cat := range cats {
				idx.signalsByKey[key] = append(idx.signalsByKey[key], signal{at: at, category: cat})
			}
			if latest, ok := idx.latestByKey[key]; !ok || at.After(latest) {
				idx.latestByKey[key] = at
			}
		}
	}
	return idx
}

// Apply enriches chain rows with convergence_score and sorted category
// labels, in place. The anchor is the later of the row's own last event and
// the latest signal for any of its keys; the window closes at the anchor and
// is inclusive at both ends.
func Apply(rows []chain.Row, events []store.EventRow, window time.Duration) {
	if window <= 0 {
		window = DefaultWindow
	}
	idx := BuildIndex(events)

	for i := range rows {
		row := &rows[i]
		keys := rowKeys(row)

		var anchor *time.Time
		if row.LastEventTime != nil {
			t := *row.LastEventTime
			anchor = &t
		}
		for _, key := range keys {
			if latest, ok := idx.latestByKey[key]; ok {
				if anchor == nil || latest.After(*anchor) {
					t := latest
					anchor = &t
				}
			}
		}

		if anchor == nil {
			row.ConvergenceScore = 0
			row.ConvergenceCategories = []string{}
			continue
		}

		windowStart := anchor.Add(-window)
		seen := map[string]bool{}
		for _, key := range keys {
			for _, sig := range idx.signalsByKey[key] {
				if !sig.at.Before(windowStart) && !sig.at.After(*anchor) {
					seen[sig.category] = true
				}
			}
		}

		cats := make([]string, 0, len(seen))
		for cat := range seen {
			cats = append(cats, cat)
		}
		sort.Strings(cats)
		row.ConvergenceScore = len(cats)
		row.ConvergenceCategories = cats
	}
}
