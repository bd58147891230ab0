// Package chain groups canonical events by lineage and scores lifecycle
// progression. Scoring is additive over stage flags and is deliberately not
// clamped: a lineage above 1.0 is progressing on multiple fronts at once.
package chain

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/2gfhixs/OGREE/pkg/contracts"
	"github.com/2gfhixs/OGREE/pkg/store"
)

// ClusterWindow is the rolling window for the distinct-filer insider
// cluster flag.
const ClusterWindow = 30 * 24 * time.Hour

// Texas lifecycle stages.
var (
	texasPermitTypes     = map[string]bool{"permit_filed": true, "permit_issued": true, "drilling_permit": true}
	texasSpudTypes       = map[string]bool{"spud_reported": true}
	texasWellTypes       = map[string]bool{"completion_reported": true, "well_completion": true, "drill_result": true, "well_record": true}
	texasProductionTypes = map[string]bool{"production_reported": true}
)

// REE/U lifecycle stages.
var (
	reeClaimsTypes   = map[string]bool{"claims_staked": true, "exploration_permit": true}
	reeDrillTypes    = map[string]bool{"drill_assay": true}
	reeResourceTypes = map[string]bool{"resource_estimate": true}
	reeStudyTypes    = map[string]bool{"pea_published": true, "pfs_published": true, "feasibility_study": true}
	reeDealTypes     = map[string]bool{"financing_closed": true, "financing_announced": true, "offtake_agreement": true}
	reePolicyTypes   = map[string]bool{"policy_designation": true}
)

// Row is one scored lineage.
type Row struct {
	LineageID string  `json:"lineage_id"`
	Score     float64 `json:"score"`

	HasPermit            bool `json:"has_permit"`
	HasSpud              bool `json:"has_spud"`
	HasWell              bool `json:"has_well"`
	HasProduction        bool `json:"has_production"`
	HasClaims            bool `json:"has_claims"`
	HasDrillAssay        bool `json:"has_drill_assay"`
	HasResource          bool `json:"has_resource"`
	HasStudy             bool `json:"has_study"`
	HasDeal              bool `json:"has_deal"`
	HasPolicy            bool `json:"has_policy"`
	HasInsiderBuy        bool `json:"has_insider_buy"`
	HasInsiderBuyCluster bool `json:"has_insider_buy_cluster"`

	Operator  string   `json:"operator,omitempty"`
	Region    string   `json:"region,omitempty"`
	PermitID  string   `json:"permit_id,omitempty"`
	Field     string   `json:"field,omitempty"`
	County    string   `json:"county,omitempty"`
	Commodity string   `json:"commodity,omitempty"`
	Company   string   `json:"company,omitempty"`
	CompanyID string   `json:"company_id,omitempty"`
	Project   string   `json:"project,omitempty"`
	Tickers   []string `json:"tickers,omitempty"`

	IPBoed        *float64   `json:"ip_boed,omitempty"`
	LastEventTime *time.Time `json:"last_event_time,omitempty"`

	// Convergence metadata, attached by the convergence engine.
	ConvergenceScore      int      `json:"convergence_score"`
	ConvergenceCategories []string `json:"convergence_categories"`
}

type insiderBuy struct {
	filer string
	at    time.Time
}

type bucket struct {
	row     Row
	insider []insiderBuy
}

// Compute groups events by lineage_id and scores each group. Rows come back
// sorted by score descending; ties keep first-seen lineage order.
func Compute(events []store.EventRow) []Row {
	buckets := make(map[string]*bucket)
	var order []string

	for i := range events {
		e := &events[i]
		pj := e.PayloadJSON
		lineage := contracts.PayloadString(pj, "lineage_id")
		if lineage == "" {
			continue
		}

		b, ok := buckets[lineage]
		if !ok {
			b = &bucket{row: Row{LineageID: lineage}}
			buckets[lineage] = b
			order = append(order, lineage)
		}

		et := e.IngestTime
		if e.EventTime != nil {
			et = *e.EventTime
		}
		if b.row.LastEventTime == nil || et.After(*b.row.LastEventTime) {
			t := et
			b.row.LastEventTime = &t
		}

		carry(&b.row.Operator, pj, "operator")
		carry(&b.row.Region, pj, "region")
		carry(&b.row.PermitID, pj, "permit_id")
		carry(&b.row.Field, pj, "field")
		carry(&b.row.County, pj, "county")
		carry(&b.row.Commodity, pj, "commodity")
		carry(&b.row.Company, pj, "company")
		carry(&b.row.CompanyID, pj, "company_id")
		carry(&b.row.Project, pj, "project")
		if len(b.row.Tickers) == 0 {
			if tickers := contracts.PayloadStrings(pj, "tickers"); len(tickers) > 0 {
				b.row.Tickers = tickers
			}
		}
		if ip, ok := contracts.PayloadFloat(pj, "ip_boed"); ok {
			if b.row.IPBoed == nil || ip > *b.row.IPBoed {
				b.row.IPBoed = &ip
			}
		}

		t := contracts.PayloadString(pj, "type")

		// Baseline semantics shared by the Alaska feeds.
		switch t {
		case "permit_filed":
			b.row.HasPermit = true
		case "well_record", "completion_reported":
			b.row.HasWell = true
		}

		if strings.EqualFold(contracts.PayloadString(pj, "region"), "texas") {
			if texasPermitTypes[t] {
				b.row.HasPermit = true
			}
			if texasSpudTypes[t] {
				b.row.HasSpud = true
			}
			if texasWellTypes[t] {
				b.row.HasWell = true
			}
			if texasProductionTypes[t] {
				b.row.HasProduction = true
			}
		}

		commodity := strings.ToLower(contracts.PayloadString(pj, "commodity"))
		if commodity == "ree" || commodity == "uranium" {
			if reeClaimsTypes[t] {
				b.row.HasClaims = true
				b.row.HasPermit = true
			}
			if reeDrillTypes[t] {
				b.row.HasDrillAssay = true
				b.row.HasWell = true
			}
			if reeResourceTypes[t] {
				b.row.HasResource = true
			}
			if reeStudyTypes[t] {
				b.row.HasStudy = true
			}
			if reeDealTypes[t] {
				b.row.HasDeal = true
			}
			if reePolicyTypes[t] {
				b.row.HasPolicy = true
			}
		}

		if t == "insider_buy" {
			b.row.HasInsiderBuy = true
			b.insider = append(b.insider, insiderBuy{
				filer: contracts.PayloadString(pj, "filer_name"),
				at:    et,
			})
		}
	}

	rows := make([]Row, 0, len(order))
	for _, lineage := range order {
		b := buckets[lineage]
		b.row.HasInsiderBuyCluster = hasCluster(b.insider)
		b.row.Score = score(&b.row)
		rows = append(rows, b.row)
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Score > rows[j].Score })
	return rows
}

// hasCluster reports whether two insider buys with distinct filer names fall
// within the rolling window of each other.
func hasCluster(buys []insiderBuy) bool {
	for i := range buys {
		for j := i + 1; j < len(buys); j++ {
			if buys[i].filer == buys[j].filer {
				continue
			}
			gap := buys[i].at.Sub(buys[j].at)
			if gap < 0 {
				gap = -gap
			}
			if gap <= ClusterWindow {
				return true
			}
		}
	}
	return false
}

func score(r *Row) float64 {
	s := 0.0
	if r.HasPermit {
		s += 0.30
	}
	if r.HasSpud {
		s += 0.20
	}
	if r.HasWell {
		s += 0.30
	}
	if r.HasProduction {
		s += 0.20
	}
	if r.HasResource {
		s += 0.15
	}
	if r.HasStudy {
		s += 0.20
	}
	if r.HasDeal {
		s += 0.15
	}
	if r.HasPolicy {
		s += 0.10
	}
	if r.HasInsiderBuy {
		s += 0.15
	}
	if r.HasInsiderBuyCluster {
		s += 0.10
	}
	return round4(s)
}

func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}

func carry(dst *string, pj contracts.Payload, key string) {
	if *dst == "" {
		if v := contracts.PayloadString(pj, key); v != "" {
			*dst = v
		}
	}
}

// Payload renders the row as a canonical map with the ISO UTC event time,
// suitable for embedding in alert details.
func (r Row) Payload() contracts.Payload {
	p := contracts.Payload{
		"lineage_id":              r.LineageID,
		"score":                   r.Score,
		"has_permit":              r.HasPermit,
		"has_spud":                r.HasSpud,
		"has_well":                r.HasWell,
		"has_production":          r.HasProduction,
		"has_claims":              r.HasClaims,
		"has_drill_assay":         r.HasDrillAssay,
		"has_resource":            r.HasResource,
		"has_study":               r.HasStudy,
		"has_deal":                r.HasDeal,
		"has_policy":              r.HasPolicy,
		"has_insider_buy":         r.HasInsiderBuy,
		"has_insider_buy_cluster": r.HasInsiderBuyCluster,
		"operator":                nilIfEmpty(r.Operator),
		"region":                  nilIfEmpty(r.Region),
		"permit_id":               nilIfEmpty(r.PermitID),
		"field":                   nilIfEmpty(r.Field),
		"county":                  nilIfEmpty(r.County),
		"commodity":               nilIfEmpty(r.Commodity),
		"company":                 nilIfEmpty(r.Company),
		"company_id":              nilIfEmpty(r.CompanyID),
		"project":                 nilIfEmpty(r.Project),
		"last_event_time":         nil,
	}
	if len(r.Tickers) > 0 {
		p["tickers"] = r.Tickers
	}
	if r.IPBoed != nil {
		p["ip_boed"] = *r.IPBoed
	}
	if r.LastEventTime != nil {
		p["last_event_time"] = contracts.FormatTime(*r.LastEventTime)
	}
	return p
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
