// Package health produces operator-facing snapshots over the event and
// alert windows: ingestion counts per source, chain-level aggregates, and
// alert-level aggregates.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/2gfhixs/OGREE/pkg/chain"
	"github.com/2gfhixs/OGREE/pkg/contracts"
	"github.com/2gfhixs/OGREE/pkg/convergence"
	"github.com/2gfhixs/OGREE/pkg/store"
)

// ChainSummary aggregates the scored lineages in the event window.
type ChainSummary struct {
	Lineages                 int     `json:"lineages"`
	AvgScore                 float64 `json:"avg_score"`
	LineagesHighScore        int     `json:"lineages_high_score"`
	LineagesWithInsider      int     `json:"lineages_with_insider_signal"`
	LineagesConvergenceWatch int     `json:"lineages_convergence_watch"`
	LineagesConvergence3Plus int     `json:"lineages_convergence_3plus"`
	LineagesWithCompanyID    int     `json:"lineages_with_company_id"`
	CompanyResolutionPct     float64 `json:"lineage_company_resolution_rate_pct"`
}

// TierCounts is the alert tier histogram.
type TierCounts struct {
	High   int `json:"high"`
	Low    int `json:"low"`
	Medium int `json:"medium"`
}

// AlertSummary aggregates the alerts in the alert window.
type AlertSummary struct {
	Alerts               int        `json:"alerts"`
	AvgScore             float64    `json:"avg_score"`
	AlertsWithCompanyID  int        `json:"alerts_with_company_id"`
	CompanyResolutionPct float64    `json:"alert_company_resolution_rate_pct"`
	AlertsConvergence3   int        `json:"alerts_convergence_3plus"`
	TierCounts           TierCounts `json:"tier_counts"`
}

// Snapshot is the full health readout.
type Snapshot struct {
	GeneratedAt      string         `json:"generated_at"`
	EventWindowHours int            `json:"event_window_hours"`
	AlertWindowHours int            `json:"alert_window_hours"`
	SourceCounts     map[string]int `json:"source_counts"`
	Chain            ChainSummary   `json:"chain"`
	Alerts           AlertSummary   `json:"alerts"`
}

// Compute builds a snapshot over the given event and alert windows.
func Compute(ctx context.Context, repo store.Repository, hours, alertHours int) (*Snapshot, error) {
	events, err := repo.LoadRecentEvents(ctx, hours)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	rows := chain.Compute(events)
	convergence.Apply(rows, events, convergence.DefaultWindow)

	alerts, err := repo.LoadRecentAlerts(ctx, alertHours, 1000)
	if err != nil {
		return nil, fmt.Errorf("load alerts: %w", err)
	}
	sourceCounts, err := repo.LoadSourceCounts(ctx, hours)
	if err != nil {
		return nil, fmt.Errorf("load source counts: %w", err)
	}

	return &Snapshot{
		GeneratedAt:      contracts.FormatTime(time.Now().UTC()),
		EventWindowHours: hours,
		AlertWindowHours: alertHours,
		SourceCounts:     sourceCounts,
		Chain:            SummarizeChainRows(rows),
		Alerts:           SummarizeAlertRows(alerts),
	}, nil
}

// SummarizeChainRows folds scored lineages into chain aggregates.
func SummarizeChainRows(rows []chain.Row) ChainSummary {
	total := len(rows)
	if total == 0 {
		return ChainSummary{}
	}

	var sum float64
	var s ChainSummary
	s.Lineages = total
	for i := range rows {
		r := &rows[i]
		sum += r.Score
		if r.Score >= 0.8 {
			s.LineagesHighScore++
		}
		if r.HasInsiderBuy {
			s.LineagesWithInsider++
		}
		if r.ConvergenceScore == 2 {
			s.LineagesConvergenceWatch++
		}
		if r.ConvergenceScore >= 3 {
			s.LineagesConvergence3Plus++
		}
		if r.CompanyID != "" {
			s.LineagesWithCompanyID++
		}
	}
	s.AvgScore = round4(sum / float64(total))
	s.CompanyResolutionPct = pct(s.LineagesWithCompanyID, total)
	return s
}

// SummarizeAlertRows folds alert rows into alert aggregates.
func SummarizeAlertRows(alerts []store.AlertRow) AlertSummary {
	var s AlertSummary
	s.Alerts = len(alerts)

	var sum float64
	for i := range alerts {
		a := &alerts[i]
		switch strings.ToLower(a.Tier) {
		case contracts.TierHigh:
			s.TierCounts.High++
		case contracts.TierMedium:
			s.TierCounts.Medium++
		case contracts.TierLow:
			s.TierCounts.Low++
		}
		if a.CompanyID != nil && *a.CompanyID != "" {
			s.AlertsWithCompanyID++
		}
		if a.ScoreSummary != nil {
			if v, ok := contracts.PayloadFloat(a.ScoreSummary, "score"); ok {
				sum += v
			}
			if v, ok := contracts.PayloadFloat(a.ScoreSummary, "convergence_score"); ok && v >= 3 {
				s.AlertsConvergence3++
			}
		}
	}
	if s.Alerts > 0 {
		s.AvgScore = round4(sum / float64(s.Alerts))
	}
	s.CompanyResolutionPct = pct(s.AlertsWithCompanyID, s.Alerts)
	return s
}

// RenderText formats a snapshot for terminals and paging systems.
func RenderText(s *Snapshot) string {
	lines := []string{
		fmt.Sprintf("Generated:            %s", s.GeneratedAt),
		fmt.Sprintf("Event window (hours): %d", s.EventWindowHours),
		fmt.Sprintf("Alert window (hours): %d", s.AlertWindowHours),
		"",
		"Source counts:",
	}
	if len(s.SourceCounts) > 0 {
		sources := make([]string, 0, len(s.SourceCounts))
		for source := range s.SourceCounts {
			sources = append(sources, source)
		}
		sort.Strings(sources)
		for _, source := range sources {
			lines = append(lines, fmt.Sprintf("  - %s: %d", source, s.SourceCounts[source]))
		}
	} else {
		lines = append(lines, "  - none")
	}

	tiers, _ := json.Marshal(s.Alerts.TierCounts)
	lines = append(lines,
		"",
		"Chain health:",
		fmt.Sprintf("  - lineages: %d", s.Chain.Lineages),
		fmt.Sprintf("  - avg score: %v", s.Chain.AvgScore),
		fmt.Sprintf("  - high-score lineages (>=0.8): %d", s.Chain.LineagesHighScore),
		fmt.Sprintf("  - insider lineages: %d", s.Chain.LineagesWithInsider),
		fmt.Sprintf("  - convergence watch (2): %d", s.Chain.LineagesConvergenceWatch),
		fmt.Sprintf("  - convergence 3+: %d", s.Chain.LineagesConvergence3Plus),
		fmt.Sprintf("  - lineage company resolution: %v%%", s.Chain.CompanyResolutionPct),
		"",
		"Alert health:",
		fmt.Sprintf("  - alerts: %d", s.Alerts.Alerts),
		fmt.Sprintf("  - avg score: %v", s.Alerts.AvgScore),
		fmt.Sprintf("  - convergence alerts 3+: %d", s.Alerts.AlertsConvergence3),
		fmt.Sprintf("  - alert company resolution: %v%%", s.Alerts.CompanyResolutionPct),
		fmt.Sprintf("  - tiers: %s", tiers),
	)
	return strings.Join(lines, "\n")
}

func pct(numerator, denominator int) float64 {
	if denominator <= 0 {
		return 0.0
	}
	return math.Round(float64(numerator)/float64(denominator)*100*100) / 100
}

func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}
