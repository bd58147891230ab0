// Package adapters canonicalizes heterogeneous upstream records into the
// canonical event schema and appends them idempotently. Each adapter owns
// one source system: field aliasing, cleaning, numeric coercion, lineage
// derivation, and source_event_id synthesis. A bad record is skipped, never
// fatal; a batch reports (processed, inserted) so the operator can reconcile
// against upstream counts.
package adapters

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/2gfhixs/OGREE/pkg/contracts"
	"github.com/2gfhixs/OGREE/pkg/hashing"
	"github.com/2gfhixs/OGREE/pkg/store"
	"github.com/2gfhixs/OGREE/pkg/telemetry"
)

// Stats is the outcome of one ingest batch.
type Stats struct {
	Processed int
	Inserted  int
}

// FixtureRecord is one line of the JSON-lines fixture format. Unrecognized
// top-level fields are ignored.
type FixtureRecord struct {
	SourceSystem  string            `json:"source_system"`
	SourceEventID string            `json:"source_event_id"`
	EventTime     string            `json:"event_time"`
	Payload       contracts.Payload `json:"payload_json"`
}

// IterFixture reads a JSONL fixture, skipping blank and undecodable lines.
func IterFixture(path string) ([]FixtureRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer func() { _ = f.Close() }()

	var out []FixtureRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec FixtureRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			slog.Debug("skipping undecodable fixture line", "path", path, "error", err)
			continue
		}
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan fixture: %w", err)
	}
	return out, nil
}

// Date layouts tried in order. Precedence matters: ISO forms first, then
// the date-only fallbacks.
var (
	defaultDateLayouts = []string{
		time.RFC3339,
		"2006-01-02",
		"01/02/2006",
		"01-02-2006",
	}
	reeDateLayouts = append(append([]string{}, defaultDateLayouts...), "2-Jan-2006")
)

// ParseDate coerces a raw date string to UTC via the standard cascade.
// Unparseable input yields nil.
func ParseDate(raw string) *time.Time {
	return parseDateLayouts(raw, defaultDateLayouts)
}

// ParseDateREE is ParseDate with the additional DD-MMM-YYYY form used by
// REE/uranium disclosures.
func ParseDateREE(raw string) *time.Time {
	return parseDateLayouts(raw, reeDateLayouts)
}

func parseDateLayouts(raw string, layouts []string) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			u := t.UTC()
			return &u
		}
	}
	return nil
}

// CleanString collapses internal whitespace and trims; empty in, empty out.
func CleanString(v any) string {
	if v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprintf("%v", v)
	}
	return strings.Join(strings.Fields(s), " ")
}

// normKey lowercases and maps separators to underscores for alias lookup.
func normKey(v any) string {
	s := strings.ToLower(CleanString(v))
	s = strings.ReplaceAll(s, "-", "_")
	return strings.ReplaceAll(s, " ", "_")
}

// coerceFloat rewrites payload[key] as a float64 when convertible, nil when
// present but unparseable. Absent keys are left absent.
func coerceFloat(p contracts.Payload, key string) {
	v, ok := p[key]
	if !ok || v == nil {
		return
	}
	if f, ok := contracts.PayloadFloat(p, key); ok {
		p[key] = f
		return
	}
	p[key] = nil
}

// normalizeTickers accepts a list or comma-separated string of tickers.
func normalizeTickers(raw any) []string {
	switch v := raw.(type) {
	case []string:
		out := make([]string, 0, len(v))
		for _, t := range v {
			if s := strings.TrimSpace(t); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, t := range v {
			if s := strings.TrimSpace(fmt.Sprintf("%v", t)); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		var out []string
		for _, part := range strings.Split(v, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}

// setClean writes the cleaned string at key, or nil when blank.
func setClean(p contracts.Payload, key string) {
	if s := CleanString(p[key]); s != "" {
		p[key] = s
	} else {
		p[key] = nil
	}
}

// base carries the collaborators every adapter shares.
type base struct {
	repo    store.Repository
	metrics *telemetry.Metrics
	logger  *slog.Logger
	nowFn   func() time.Time
}

func newBase(repo store.Repository, metrics *telemetry.Metrics, component string) base {
	return base{
		repo:    repo,
		metrics: metrics,
		logger:  slog.Default().With("component", component),
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
}

// append assembles the raw event and calls the repository's idempotent
// insert. The content hash is always over the canonical payload encoding.
func (b *base) append(ctx context.Context, sourceSystem string, sourceEventID *string, eventTime *time.Time, payload contracts.Payload, canonicalDocID string) (bool, error) {
	contentHash, err := hashing.ContentHash(payload)
	if err != nil {
		return false, fmt.Errorf("hash payload: %w", err)
	}
	if canonicalDocID == "" {
		canonicalDocID = hashing.CanonicalDocID(sourceSystem, contentHash)
	}
	event := &contracts.RawEvent{
		SourceSystem:   sourceSystem,
		SourceEventID:  sourceEventID,
		EventTime:      eventTime,
		IngestTime:     b.nowFn(),
		PayloadJSON:    payload,
		ContentHash:    contentHash,
		CanonicalDocID: canonicalDocID,
	}
	inserted, _, err := b.repo.InsertRawEvent(ctx, event)
	return inserted, err
}

func (b *base) recordBatch(ctx context.Context, sourceSystem string, stats Stats) {
	if b.metrics != nil {
		b.metrics.RecordIngest(ctx, sourceSystem, stats.Processed, stats.Inserted)
	}
	b.logger.Info("ingest batch complete",
		"source_system", sourceSystem,
		"processed", stats.Processed,
		"inserted", stats.Inserted,
	)
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
