// Package alerts grades chain rows into tiered alerts with stable
// identifiers and full evidence pointers, and inserts them idempotently.
package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/2gfhixs/OGREE/pkg/chain"
	"github.com/2gfhixs/OGREE/pkg/contracts"
	"github.com/2gfhixs/OGREE/pkg/convergence"
	"github.com/2gfhixs/OGREE/pkg/hashing"
	"github.com/2gfhixs/OGREE/pkg/store"
	"github.com/2gfhixs/OGREE/pkg/telemetry"
	"github.com/2gfhixs/OGREE/pkg/universe"
)

// EventTypeChainProgression is the single alert event type emitted here.
const EventTypeChainProgression = "chain_progression"

// TierForScore grades a chain score. An empty tier means the row is not
// alertable.
func TierForScore(score float64) string {
	switch {
	case score >= 0.8:
		return contracts.TierHigh
	case score >= 0.5:
		return contracts.TierMedium
	case score >= 0.3:
		return contracts.TierLow
	default:
		return contracts.TierNone
	}
}

// BuildAlert assembles one alert from a scored chain row. utcDate pins the
// alert identity to the generation day; the "AK" segment in the identity
// seed predates multi-region support and is kept verbatim so historical
// alert ids stay stable.
func BuildAlert(row *chain.Row, utcDate string, companyID string) *contracts.Alert {
	tier := TierForScore(row.Score)
	lastISO := contracts.FormatTimePtr(row.LastEventTime)

	alertID := hashing.ShortHash(fmt.Sprintf("chain_progression|AK|%s|%s", row.LineageID, utcDate), 24)
	docID := hashing.ShortHash(fmt.Sprintf("chain_progression|%s|%s", row.LineageID, lastISO), 24)

	evidence := contracts.Payload{
		"lineage_id":      row.LineageID,
		"permit_id":       nilIfEmpty(row.PermitID),
		"operator":        nilIfEmpty(row.Operator),
		"company":         nilIfEmpty(row.Company),
		"region":          nilIfEmpty(row.Region),
		"last_event_time": nilIfEmpty(lastISO),
	}

	categories := row.ConvergenceCategories
	if categories == nil {
		categories = []string{}
	}
	scoreSummary := contracts.Payload{
		"score":                   row.Score,
		"has_permit":              row.HasPermit,
		"has_spud":                row.HasSpud,
		"has_well":                row.HasWell,
		"has_production":          row.HasProduction,
		"has_insider_buy":         row.HasInsiderBuy,
		"has_insider_buy_cluster": row.HasInsiderBuyCluster,
		"convergence_score":       row.ConvergenceScore,
		"convergence_categories":  categories,
	}

	actor := row.Operator
	if actor == "" {
		actor = row.Company
	}
	if actor == "" {
		actor = "unknown"
	}
	subject := row.PermitID
	if subject == "" {
		subject = row.LineageID
	}
	// The region segment is dropped when no event carried one.
	where := actor
	if row.Region != "" {
		where += ", " + row.Region
	}
	summary := fmt.Sprintf("[%s] chain progression %s (%s) score=%s",
		upperTier(tier), subject, where, formatScore(row.Score))
	if row.ConvergenceScore >= 3 {
		summary += fmt.Sprintf(" convergence=%d [%s]", row.ConvergenceScore, strings.Join(categories, ","))
	}

	return &contracts.Alert{
		AlertID:         alertID,
		Tier:            tier,
		EventType:       EventTypeChainProgression,
		EventTime:       row.LastEventTime,
		IngestTime:      time.Now().UTC(),
		CompanyID:       optionalString(companyID),
		AssetID:         nil,
		CanonicalDocID:  docID,
		EvidencePointer: evidence,
		ScoreSummary:    scoreSummary,
		Summary:         summary,
		Details:         contracts.Payload{"row": row.Payload()},
		RegimeContext:   nil,
	}
}

// Generator wires the chain, convergence, and alert stages over the store.
type Generator struct {
	repo     store.Repository
	resolver *universe.Resolver
	metrics  *telemetry.Metrics
	logger   *slog.Logger
	nowFn    func() time.Time
}

// NewGenerator builds an alert generator. resolver and metrics may be nil.
func NewGenerator(repo store.Repository, resolver *universe.Resolver, metrics *telemetry.Metrics) *Generator {
	return &Generator{
		repo:     repo,
		resolver: resolver,
		metrics:  metrics,
		logger:   slog.Default().With("component", "alerts"),
		nowFn:    func() time.Time { return time.Now().UTC() },
	}
}

// GenerateAndInsert scores the recent event window, enriches with
// convergence, and inserts one alert per alertable row. Returns the number
// of newly inserted alerts.
func (g *Generator) GenerateAndInsert(ctx context.Context, hours, topN int) (int, error) {
	events, err := g.repo.LoadRecentEvents(ctx, hours)
	if err != nil {
		return 0, fmt.Errorf("load events: %w", err)
	}
	rows := chain.Compute(events)
	convergence.Apply(rows, events, convergence.DefaultWindow)
	if topN > 0 && len(rows) > topN {
		rows = rows[:topN]
	}

	utcDate := g.nowFn().Format("2006-01-02")
	inserted := 0
	for i := range rows {
		row := &rows[i]
		tier := TierForScore(row.Score)
		if tier == contracts.TierNone {
			continue
		}

		companyID := row.CompanyID
		if companyID == "" && g.resolver != nil {
			companyID = g.resolver.Resolve(row.Company, row.Operator).CompanyID
		}

		alert := BuildAlert(row, utcDate, companyID)
		ok, err := g.repo.InsertAlert(ctx, alert)
		if err != nil {
			return inserted, fmt.Errorf("insert alert %s: %w", alert.AlertID, err)
		}
		if ok {
			inserted++
			if g.metrics != nil {
				g.metrics.RecordAlert(ctx, tier)
			}
		}
	}
	g.logger.Info("alert generation complete",
		"lineages", len(rows),
		"inserted", inserted,
		"window_hours", hours,
	)
	return inserted, nil
}

func upperTier(tier string) string {
	switch tier {
	case contracts.TierHigh:
		return "HIGH"
	case contracts.TierMedium:
		return "MEDIUM"
	case contracts.TierLow:
		return "LOW"
	default:
		return ""
	}
}

// formatScore renders the shortest decimal form but keeps a trailing .0 on
// whole values, so a full progression reads score=1.0 rather than score=1.
func formatScore(score float64) string {
	s := strconv.FormatFloat(score, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
