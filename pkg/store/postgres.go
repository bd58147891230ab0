package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/2gfhixs/OGREE/pkg/contracts"

	_ "github.com/lib/pq"
)

// PostgresRepository implements Repository on PostgreSQL.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository wraps db and applies the schema.
func NewPostgresRepository(ctx context.Context, db *sql.DB) (*PostgresRepository, error) {
	r := &PostgresRepository{db: db}
	if err := r.migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate postgres schema: %w", err)
	}
	return r, nil
}

func (r *PostgresRepository) migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS event_log (
			id BIGSERIAL PRIMARY KEY,
			source_system TEXT NOT NULL,
			source_event_id TEXT,
			event_time TIMESTAMPTZ,
			ingest_time TIMESTAMPTZ NOT NULL DEFAULT now(),
			payload_json JSONB NOT NULL,
			content_hash TEXT NOT NULL,
			canonical_doc_id TEXT
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_event_log_source_event
			ON event_log (source_system, source_event_id)
			WHERE source_event_id IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS ix_event_log_event_time ON event_log (event_time)`,
		`CREATE INDEX IF NOT EXISTS ix_event_log_ingest_time ON event_log (ingest_time)`,
		`CREATE TABLE IF NOT EXISTS alerts (
			id BIGSERIAL PRIMARY KEY,
			alert_id TEXT NOT NULL UNIQUE,
			tier TEXT NOT NULL,
			event_type TEXT NOT NULL,
			event_time TIMESTAMPTZ,
			ingest_time TIMESTAMPTZ NOT NULL DEFAULT now(),
			company_id TEXT,
			asset_id TEXT,
			canonical_doc_id TEXT NOT NULL,
			evidence_pointer JSONB NOT NULL,
			score_summary JSONB NOT NULL,
			summary TEXT NOT NULL,
			details JSONB NOT NULL,
			regime_context JSONB
		)`,
		`CREATE INDEX IF NOT EXISTS ix_alerts_ingest_time ON alerts (ingest_time)`,
	}
	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (r *PostgresRepository) InsertRawEvent(ctx context.Context, event *contracts.RawEvent) (bool, int64, error) {
	payload, err := json.Marshal(event.PayloadJSON)
	if err != nil {
		return false, 0, fmt.Errorf("marshal payload: %w", err)
	}

	query := `
		INSERT INTO event_log (source_system, source_event_id, event_time, ingest_time, payload_json, content_hash, canonical_doc_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (source_system, source_event_id) WHERE source_event_id IS NOT NULL DO NOTHING
		RETURNING id`

	var id int64
	err = r.db.QueryRowContext(ctx, query,
		event.SourceSystem, event.SourceEventID, event.EventTime, event.IngestTime,
		payload, event.ContentHash, nullString(event.CanonicalDocID),
	).Scan(&id)
	if err == nil {
		return true, id, nil
	}
	if err != sql.ErrNoRows {
		return false, 0, fmt.Errorf("insert raw event: %w", err)
	}

	// Conflict path: the unique index only covers non-null source_event_id.
	if event.SourceEventID == nil {
		return false, 0, ErrEventNotFound
	}
	var existing int64
	err = r.db.QueryRowContext(ctx,
		`SELECT id FROM event_log WHERE source_system = $1 AND source_event_id = $2`,
		event.SourceSystem, *event.SourceEventID,
	).Scan(&existing)
	if err == sql.ErrNoRows {
		return false, 0, ErrEventNotFound
	}
	if err != nil {
		return false, 0, fmt.Errorf("select existing event: %w", err)
	}
	return false, existing, nil
}

func (r *PostgresRepository) InsertAlert(ctx context.Context, alert *contracts.Alert) (bool, error) {
	evidence, err := json.Marshal(alert.EvidencePointer)
	if err != nil {
		return false, fmt.Errorf("marshal evidence pointer: %w", err)
	}
	scoreSummary, err := json.Marshal(alert.ScoreSummary)
	if err != nil {
		return false, fmt.Errorf("marshal score summary: %w", err)
	}
	details, err := json.Marshal(alert.Details)
	if err != nil {
		return false, fmt.Errorf("marshal details: %w", err)
	}
	var regime []byte
	if alert.RegimeContext != nil {
		if regime, err = json.Marshal(alert.RegimeContext); err != nil {
			return false, fmt.Errorf("marshal regime context: %w", err)
		}
	}

	query := `
		INSERT INTO alerts (alert_id, tier, event_type, event_time, ingest_time, company_id, asset_id,
			canonical_doc_id, evidence_pointer, score_summary, summary, details, regime_context)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (alert_id) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query,
		alert.AlertID, alert.Tier, alert.EventType, alert.EventTime, alert.IngestTime,
		alert.CompanyID, alert.AssetID, alert.CanonicalDocID,
		evidence, scoreSummary, alert.Summary, details, regime,
	)
	if err != nil {
		return false, fmt.Errorf("insert alert: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PostgresRepository) LoadRecentEvents(ctx context.Context, hours int) ([]EventRow, error) {
	cutoff := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	rows, err := r.db.QueryContext(ctx, `
		SELECT payload_json, event_time, ingest_time
		FROM event_log
		WHERE ingest_time >= $1
		ORDER BY ingest_time DESC`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("load recent events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []EventRow
	for rows.Next() {
		var (
			payload   []byte
			eventTime sql.NullTime
			ingest    time.Time
		)
		if err := rows.Scan(&payload, &eventTime, &ingest); err != nil {
			return nil, err
		}
		row := EventRow{IngestTime: ingest.UTC()}
		if eventTime.Valid {
			t := eventTime.Time.UTC()
			row.EventTime = &t
		}
		if err := json.Unmarshal(payload, &row.PayloadJSON); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) LoadRecentAlerts(ctx context.Context, hours, limit int) ([]AlertRow, error) {
	cutoff := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	rows, err := r.db.QueryContext(ctx, `
		SELECT tier, event_type, event_time, ingest_time, company_id, asset_id,
			canonical_doc_id, summary, evidence_pointer, score_summary, details
		FROM alerts
		WHERE ingest_time >= $1
		ORDER BY ingest_time DESC
		LIMIT $2`, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("load recent alerts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []AlertRow
	for rows.Next() {
		row, err := scanAlertRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) LoadSourceCounts(ctx context.Context, hours int) (map[string]int, error) {
	cutoff := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	rows, err := r.db.QueryContext(ctx, `
		SELECT source_system, COUNT(*)
		FROM event_log
		WHERE ingest_time >= $1
		GROUP BY source_system`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("load source counts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]int)
	for rows.Next() {
		var (
			source string
			count  int
		)
		if err := rows.Scan(&source, &count); err != nil {
			return nil, err
		}
		out[source] = count
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlertRow(rows rowScanner) (AlertRow, error) {
	var (
		row       AlertRow
		eventTime sql.NullTime
		ingest    time.Time
		companyID sql.NullString
		assetID   sql.NullString
		evidence  []byte
		scoreSum  []byte
		details   []byte
	)
	if err := rows.Scan(&row.Tier, &row.EventType, &eventTime, &ingest, &companyID, &assetID,
		&row.CanonicalDocID, &row.Summary, &evidence, &scoreSum, &details); err != nil {
		return row, err
	}
	row.IngestTime = ingest.UTC()
	if eventTime.Valid {
		t := eventTime.Time.UTC()
		row.EventTime = &t
	}
	if companyID.Valid {
		row.CompanyID = &companyID.String
	}
	if assetID.Valid {
		row.AssetID = &assetID.String
	}
	if len(evidence) > 0 {
		_ = json.Unmarshal(evidence, &row.EvidencePointer)
	}
	if len(scoreSum) > 0 {
		_ = json.Unmarshal(scoreSum, &row.ScoreSummary)
	}
	if len(details) > 0 {
		_ = json.Unmarshal(details, &row.Details)
	}
	return row, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
