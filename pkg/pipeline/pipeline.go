// Package pipeline is the end-to-end demo path: ingest a JSONL sample file
// and emit one alert per event through a fixed scoring rule. It exercises
// the same append and alert tables as the real adapters without requiring
// any live upstream.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/2gfhixs/OGREE/pkg/adapters"
	"github.com/2gfhixs/OGREE/pkg/contracts"
	"github.com/2gfhixs/OGREE/pkg/hashing"
	"github.com/2gfhixs/OGREE/pkg/store"
)

// DemoCompanyID tags every demo alert; the demo universe has one company.
const DemoCompanyID = "COMPANY_1"

// Emitted reports the outcome for one demo event.
type Emitted struct {
	EventInserted  bool
	EventID        int64
	CanonicalDocID string
	AlertInserted  bool
	Alert          *contracts.Alert
}

// Demo runs the sample ingest-and-alert flow.
type Demo struct {
	repo   store.Repository
	logger *slog.Logger
	nowFn  func() time.Time
}

// NewDemo builds the demo pipeline.
func NewDemo(repo store.Repository) *Demo {
	return &Demo{
		repo:   repo,
		logger: slog.Default().With("component", "pipeline"),
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// ScoreEvent applies the demo scoring rule to a payload.
func ScoreEvent(payload contracts.Payload) float64 {
	switch strings.ToLower(contracts.PayloadString(payload, "type")) {
	case "lease_grant":
		return 0.35
	case "permit_filed":
		return 0.55
	case "drill_result":
		// Crude positivity heuristic over the payload text.
		encoded, err := json.Marshal(payload)
		if err == nil {
			txt := strings.ToLower(string(encoded))
			if strings.Contains(txt, "shows") || strings.Contains(txt, "flow") {
				return 0.85
			}
		}
		return 0.65
	default:
		return 0.25
	}
}

// TierFromScore grades a demo score. Unlike chain alerts, everything below
// medium is still emitted as low.
func TierFromScore(score float64) string {
	switch {
	case score >= 0.8:
		return contracts.TierHigh
	case score >= 0.5:
		return contracts.TierMedium
	default:
		return contracts.TierLow
	}
}

func eventType(payload contracts.Payload) string {
	if t := contracts.PayloadString(payload, "type"); t != "" {
		return t
	}
	return "generic"
}

// BuildAlert assembles the demo alert for one raw event.
func BuildAlert(event *contracts.RawEvent) *contracts.Alert {
	payload := event.PayloadJSON
	score := ScoreEvent(payload)
	tier := TierFromScore(score)
	etype := eventType(payload)

	summary := etype
	if region := contracts.PayloadString(payload, "region"); region != "" {
		summary = fmt.Sprintf("%s (%s)", etype, region)
	}

	companyID := DemoCompanyID
	var sourceEventID any
	if event.SourceEventID != nil {
		sourceEventID = *event.SourceEventID
	}

	return &contracts.Alert{
		AlertID:        hashing.AlertID(event.CanonicalDocID, tier, etype),
		Tier:           tier,
		EventType:      etype,
		EventTime:      event.EventTime,
		IngestTime:     event.IngestTime,
		CompanyID:      &companyID,
		AssetID:        nil,
		CanonicalDocID: event.CanonicalDocID,
		EvidencePointer: contracts.Payload{
			"source": event.SourceSystem,
			"doc_id": event.CanonicalDocID,
			"meta":   contracts.Payload{"source_event_id": sourceEventID},
		},
		ScoreSummary: contracts.Payload{
			"score":      score,
			"components": contracts.Payload{"demo_rule": score},
		},
		Summary:       summary,
		Details:       payload,
		RegimeContext: nil,
	}
}

// IngestAndAlert reads the JSONL sample file, appends each event, and emits
// one alert per event. Both writes are idempotent.
func (d *Demo) IngestAndAlert(ctx context.Context, path string) ([]Emitted, error) {
	records, err := adapters.IterFixture(path)
	if err != nil {
		return nil, err
	}

	var out []Emitted
	for _, rec := range records {
		payload := rec.Payload
		if payload == nil {
			payload = contracts.Payload{}
		}

		contentHash, err := hashing.ContentHash(payload)
		if err != nil {
			return out, fmt.Errorf("hash payload: %w", err)
		}
		docID := hashing.CanonicalDocID(rec.SourceSystem, contentHash)

		event := &contracts.RawEvent{
			SourceSystem:   rec.SourceSystem,
			SourceEventID:  optionalString(rec.SourceEventID),
			EventTime:      adapters.ParseDate(rec.EventTime),
			IngestTime:     d.nowFn(),
			PayloadJSON:    payload,
			ContentHash:    contentHash,
			CanonicalDocID: docID,
		}
		eventInserted, eventID, err := d.repo.InsertRawEvent(ctx, event)
		if err != nil {
			return out, fmt.Errorf("insert event: %w", err)
		}

		alert := BuildAlert(event)
		alertInserted, err := d.repo.InsertAlert(ctx, alert)
		if err != nil {
			return out, fmt.Errorf("insert alert: %w", err)
		}

		out = append(out, Emitted{
			EventInserted:  eventInserted,
			EventID:        eventID,
			CanonicalDocID: docID,
			AlertInserted:  alertInserted,
			Alert:          alert,
		})
	}
	d.logger.Info("demo pipeline complete", "events", len(out))
	return out, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
