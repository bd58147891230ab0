// Package ranker turns recent alerts into a ranked opportunity list: tier
// weight or chain score, whichever is higher, plus a recency boost, with
// universe ticker attachment and re-run deduplication.
package ranker

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/2gfhixs/OGREE/pkg/contracts"
	"github.com/2gfhixs/OGREE/pkg/store"
	"github.com/2gfhixs/OGREE/pkg/universe"
)

// Opportunity is one ranked entry.
type Opportunity struct {
	Score     float64
	Tier      string
	CompanyID string
	Tickers   []string
	AssetID   string
	EventTime *time.Time
	Summary   string
	Evidence  contracts.Payload
}

// Ranker ranks alerts against the loaded universe.
type Ranker struct {
	repo store.Repository
	uni  *universe.Universe
	now  func() time.Time
}

// New builds a Ranker. uni may be nil; ticker attachment is then skipped.
func New(repo store.Repository, uni *universe.Universe) *Ranker {
	return &Ranker{repo: repo, uni: uni, now: func() time.Time { return time.Now().UTC() }}
}

func tierWeight(tier string) float64 {
	switch strings.ToLower(tier) {
	case contracts.TierHigh:
		return 1.0
	case contracts.TierMedium:
		return 0.6
	case contracts.TierLow:
		return 0.4
	default:
		return 0.0
	}
}

func (r *Ranker) recencyBoost(eventTime *time.Time) float64 {
	if eventTime == nil {
		return 0.0
	}
	age := r.now().Sub(*eventTime)
	switch {
	case age <= 6*time.Hour:
		return 0.25
	case age <= 24*time.Hour:
		return 0.10
	default:
		return 0.02
	}
}

// Rank loads the recent alert window and returns the top N opportunities,
// deduped by (summary, company_id, tier).
func (r *Ranker) Rank(ctx context.Context, hours, topN int) ([]Opportunity, error) {
	alerts, err := r.repo.LoadRecentAlerts(ctx, hours, 200)
	if err != nil {
		return nil, fmt.Errorf("load alerts: %w", err)
	}

	ranked := make([]Opportunity, 0, len(alerts))
	for i := range alerts {
		a := &alerts[i]

		chainScore := 0.0
		if ss := a.ScoreSummary; ss != nil {
			if v, ok := contracts.PayloadFloat(ss, "score"); ok {
				chainScore = v
			}
		}
		score := math.Max(tierWeight(a.Tier), chainScore) + r.recencyBoost(a.EventTime)

		companyID := ""
		if a.CompanyID != nil {
			companyID = *a.CompanyID
		}
		var tickers []string
		if r.uni != nil {
			if companyID != "" {
				if c := r.uni.Company(companyID); c != nil {
					tickers = c.Tickers
				}
			}
			// A single-company universe claims unattributed alerts.
			if len(tickers) == 0 && len(r.uni.Companies) == 1 {
				only := r.uni.Companies[0]
				tickers = only.Tickers
				companyID = only.CompanyID
			}
		}

		assetID := ""
		if a.AssetID != nil {
			assetID = *a.AssetID
		}
		evidence := a.EvidencePointer
		if evidence == nil {
			evidence = contracts.Payload{}
		}

		ranked = append(ranked, Opportunity{
			Score:     math.Round(score*10000) / 10000,
			Tier:      a.Tier,
			CompanyID: companyID,
			Tickers:   tickers,
			AssetID:   assetID,
			EventTime: a.EventTime,
			Summary:   a.Summary,
			Evidence:  evidence,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	type dedupeKey struct {
		summary   string
		companyID string
		tier      string
	}
	seen := map[dedupeKey]bool{}
	out := make([]Opportunity, 0, topN)
	for _, o := range ranked {
		key := dedupeKey{o.Summary, o.CompanyID, o.Tier}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, o)
		if topN > 0 && len(out) >= topN {
			break
		}
	}
	return out, nil
}

// RenderText formats opportunities as an operator-facing table.
func RenderText(opps []Opportunity) string {
	if len(opps) == 0 {
		return "No opportunities."
	}
	lines := []string{
		"Rank | Score | Tier | Ticker(s) | Summary",
		strings.Repeat("-", 110),
	}
	for i, o := range opps {
		tick := "-"
		if len(o.Tickers) > 0 {
			tick = strings.Join(o.Tickers, ",")
		}
		lines = append(lines, fmt.Sprintf("%4d | %-5v | %-6s | %-16s | %s", i+1, o.Score, o.Tier, tick, o.Summary))
	}
	return strings.Join(lines, "\n")
}
