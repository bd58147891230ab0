// Package store persists the event log and alerts. The event log is
// append-only; all uniqueness is enforced at the store via insert-or-ignore,
// so concurrent writers are safe. Two drivers are provided: Postgres for
// production and SQLite for hermetic tests and airgapped runs.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/2gfhixs/OGREE/pkg/contracts"
)

var (
	// ErrEventNotFound is returned when a conflicting event row cannot be
	// re-read after an insert-or-ignore no-op.
	ErrEventNotFound = errors.New("event not found")
)

// EventRow is the slice of an event row the aggregation layers consume.
type EventRow struct {
	PayloadJSON contracts.Payload
	EventTime   *time.Time
	IngestTime  time.Time
}

// AlertRow is the slice of an alert row the ranker and report consume.
type AlertRow struct {
	Tier            string
	EventType       string
	EventTime       *time.Time
	IngestTime      time.Time
	CompanyID       *string
	AssetID         *string
	CanonicalDocID  string
	Summary         string
	EvidencePointer map[string]any
	ScoreSummary    map[string]any
	Details         map[string]any
}

// Repository is the persistence contract. Each operation runs in its own
// short transaction; inserts are committed before returning.
type Repository interface {
	// InsertRawEvent appends an event idempotently. On conflict with the
	// (source_system, source_event_id) uniqueness it returns the existing
	// row id with inserted=false.
	InsertRawEvent(ctx context.Context, event *contracts.RawEvent) (inserted bool, id int64, err error)

	// InsertAlert appends an alert idempotently on alert_id.
	InsertAlert(ctx context.Context, alert *contracts.Alert) (inserted bool, err error)

	// LoadRecentEvents returns events with ingest_time within the window,
	// newest first.
	LoadRecentEvents(ctx context.Context, hours int) ([]EventRow, error)

	// LoadRecentAlerts returns alerts with ingest_time within the window,
	// newest first, at most limit rows.
	LoadRecentAlerts(ctx context.Context, hours, limit int) ([]AlertRow, error)

	// LoadSourceCounts returns per-source event counts within the window.
	LoadSourceCounts(ctx context.Context, hours int) (map[string]int, error)
}
