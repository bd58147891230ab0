// Package report aggregates recent alerts into a tier-bucketed structure
// for the delivery layer. Rendering to e-mail or HTML belongs to external
// collaborators; this package owns the content, not the presentation.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/2gfhixs/OGREE/pkg/contracts"
	"github.com/2gfhixs/OGREE/pkg/store"
)

// Item is one alert line in a report section.
type Item struct {
	Summary   string
	EventTime *time.Time
	Score     *float64
}

// Section groups items under a tier.
type Section struct {
	Tier  string
	Items []Item
}

// Report is the structured output handed to the delivery layer.
type Report struct {
	Subject  string
	Sections []Section
}

// Empty reports whether no alerts fell in the window.
func (r *Report) Empty() bool {
	return len(r.Sections) == 0
}

// Builder assembles reports from the alert table.
type Builder struct {
	repo store.Repository
	now  func() time.Time
}

// NewBuilder builds a report builder.
func NewBuilder(repo store.Repository) *Builder {
	return &Builder{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

var tierOrder = []string{contracts.TierHigh, contracts.TierMedium, contracts.TierLow}

// Build loads the recent alert window and buckets it by tier in
// high/medium/low order, truncating each bucket to topN. Alerts with an
// unknown tier count as low.
func (b *Builder) Build(ctx context.Context, hours, topN int) (*Report, error) {
	subject := fmt.Sprintf("OGREE Alpha — Top Alerts (AK) — %s", b.now().Format("2006-01-02"))

	alerts, err := b.repo.LoadRecentAlerts(ctx, hours, 1000)
	if err != nil {
		return nil, fmt.Errorf("load alerts: %w", err)
	}

	buckets := map[string][]Item{}
	for i := range alerts {
		a := &alerts[i]
		tier := strings.ToLower(a.Tier)
		if tier != contracts.TierHigh && tier != contracts.TierMedium {
			tier = contracts.TierLow
		}
		item := Item{Summary: a.Summary, EventTime: a.EventTime}
		if a.ScoreSummary != nil {
			if v, ok := contracts.PayloadFloat(a.ScoreSummary, "score"); ok {
				s := v
				item.Score = &s
			}
		}
		buckets[tier] = append(buckets[tier], item)
	}

	rep := &Report{Subject: subject}
	for _, tier := range tierOrder {
		items := buckets[tier]
		if len(items) == 0 {
			continue
		}
		if topN > 0 && len(items) > topN {
			items = items[:topN]
		}
		rep.Sections = append(rep.Sections, Section{Tier: tier, Items: items})
	}
	return rep, nil
}

// RenderText formats the report body for plain-text delivery.
func RenderText(r *Report) string {
	if r.Empty() {
		return "No new alerts in last 12h."
	}
	var lines []string
	for _, section := range r.Sections {
		lines = append(lines, strings.ToUpper(section.Tier)+":")
		for _, item := range section.Items {
			et := "<nil>"
			if item.EventTime != nil {
				et = contracts.FormatTime(*item.EventTime)
			}
			score := "<nil>"
			if item.Score != nil {
				score = fmt.Sprintf("%v", *item.Score)
			}
			lines = append(lines, fmt.Sprintf("  - %s (event_time=%s, score=%s)", item.Summary, et, score))
		}
		lines = append(lines, "")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
