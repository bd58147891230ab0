// Package contracts defines the records that cross the storage boundary:
// raw events appended by source adapters and alerts emitted by the alert
// generator. Timestamps serialized to JSON are always ISO-8601 UTC with Z.
package contracts

import (
	"strconv"
	"strings"
	"time"
)

// Payload is the canonical per-source payload. Recognized keys are
// normalized by the adapters; unknown keys pass through untouched so the
// content hash stays stable across runs.
type Payload = map[string]any

// RawEvent is an append-only record in the event log.
type RawEvent struct {
	ID             int64      `json:"id,omitempty"`
	SourceSystem   string     `json:"source_system"`
	SourceEventID  *string    `json:"source_event_id,omitempty"`
	EventTime      *time.Time `json:"event_time,omitempty"`
	IngestTime     time.Time  `json:"ingest_time"`
	PayloadJSON    Payload    `json:"payload_json"`
	ContentHash    string     `json:"content_hash"`
	CanonicalDocID string     `json:"canonical_doc_id,omitempty"`
}

// Alert is a graded, deduplicated signal derived from scored chains.
type Alert struct {
	AlertID         string         `json:"alert_id"`
	Tier            string         `json:"tier"`
	EventType       string         `json:"event_type"`
	EventTime       *time.Time     `json:"event_time,omitempty"`
	IngestTime      time.Time      `json:"ingest_time"`
	CompanyID       *string        `json:"company_id,omitempty"`
	AssetID         *string        `json:"asset_id,omitempty"`
	CanonicalDocID  string         `json:"canonical_doc_id"`
	EvidencePointer map[string]any `json:"evidence_pointer"`
	ScoreSummary    map[string]any `json:"score_summary"`
	Summary         string         `json:"summary"`
	Details         map[string]any `json:"details"`
	RegimeContext   map[string]any `json:"regime_context,omitempty"`
}

// Tier bands, lowest to highest.
const (
	TierNone   = ""
	TierLow    = "low"
	TierMedium = "medium"
	TierHigh   = "high"
)

// TierRank orders tiers for monotonicity checks: "" < low < medium < high.
func TierRank(tier string) int {
	switch strings.ToLower(tier) {
	case TierHigh:
		return 3
	case TierMedium:
		return 2
	case TierLow:
		return 1
	default:
		return 0
	}
}

// FormatTime renders t as ISO-8601 UTC with a Z suffix.
func FormatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z07:00")
}

// FormatTimePtr renders t, or "" when nil.
func FormatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return FormatTime(*t)
}

// PayloadString returns the trimmed string at key, or "" when the key is
// absent, nil, or blank.
func PayloadString(p Payload, key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// PayloadFloat returns the numeric value at key, accepting JSON numbers and
// numeric strings. The second return is false when no number can be read.
func PayloadFloat(p Payload, key string) (float64, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// PayloadStrings returns the string slice at key, tolerating []any inputs
// produced by JSON decoding.
func PayloadStrings(p Payload, key string) []string {
	v, ok := p[key]
	if !ok || v == nil {
		return nil
	}
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	default:
		return nil
	}
}
