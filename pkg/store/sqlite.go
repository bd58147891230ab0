package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/2gfhixs/OGREE/pkg/contracts"

	_ "modernc.org/sqlite"
)

// SQLiteRepository implements Repository on SQLite. It backs hermetic tests
// and airgapped runs; semantics match the Postgres driver.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository wraps db and applies the schema.
func NewSQLiteRepository(ctx context.Context, db *sql.DB) (*SQLiteRepository, error) {
	r := &SQLiteRepository{db: db}
	if err := r.migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate sqlite schema: %w", err)
	}
	return r, nil
}

func (r *SQLiteRepository) migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS event_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source_system TEXT NOT NULL,
			source_event_id TEXT,
			event_time TEXT,
			ingest_time TEXT NOT NULL,
			payload_json TEXT NOT NULL,
			content_hash TEXT NOT NULL,
			canonical_doc_id TEXT
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_event_log_source_event
			ON event_log (source_system, source_event_id)
			WHERE source_event_id IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS ix_event_log_event_time ON event_log (event_time)`,
		`CREATE INDEX IF NOT EXISTS ix_event_log_ingest_time ON event_log (ingest_time)`,
		`CREATE TABLE IF NOT EXISTS alerts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			alert_id TEXT NOT NULL UNIQUE,
			tier TEXT NOT NULL,
			event_type TEXT NOT NULL,
			event_time TEXT,
			ingest_time TEXT NOT NULL,
			company_id TEXT,
			asset_id TEXT,
			canonical_doc_id TEXT NOT NULL,
			evidence_pointer TEXT NOT NULL,
			score_summary TEXT NOT NULL,
			summary TEXT NOT NULL,
			details TEXT NOT NULL,
			regime_context TEXT
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

func (r *SQLiteRepository) InsertRawEvent(ctx context.Context, event *contracts.RawEvent) (bool, int64, error) {
	payload, err := json.Marshal(event.PayloadJSON)
	if err != nil {
		return false, 0, fmt.Errorf("marshal payload: %w", err)
	}

	query := `
		INSERT INTO event_log (source_system, source_event_id, event_time, ingest_time, payload_json, content_hash, canonical_doc_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`

	res, err := r.db.ExecContext(ctx, query,
		event.SourceSystem, event.SourceEventID, formatTimePtr(event.EventTime), formatTime(event.IngestTime),
		string(payload), event.ContentHash, nullString(event.CanonicalDocID),
	)
	if err != nil {
		return false, 0, fmt.Errorf("insert raw event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, 0, err
	}
	if affected > 0 {
		id, err := res.LastInsertId()
		if err != nil {
			return false, 0, err
		}
		return true, id, nil
	}

	if event.SourceEventID == nil {
		return false, 0, ErrEventNotFound
	}
	var existing int64
	err = r.db.QueryRowContext(ctx,
		`SELECT id FROM event_log WHERE source_system = ? AND source_event_id = ?`,
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

func (r *SQLiteRepository) InsertAlert(ctx context.Context, alert *contracts.Alert) (bool, error) {
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
	var regime any
	if alert.RegimeContext != nil {
		b, err := json.Marshal(alert.RegimeContext)
		if err != nil {
			return false, fmt.Errorf("marshal regime context: %w", err)
		}
		regime = string(b)
	}

	query := `
		INSERT INTO alerts (alert_id, tier, event_type, event_time, ingest_time, company_id, asset_id,
			canonical_doc_id, evidence_pointer, score_summary, summary, details, regime_context)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (alert_id) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query,
		alert.AlertID, alert.Tier, alert.EventType, formatTimePtr(alert.EventTime), formatTime(alert.IngestTime),
		alert.CompanyID, alert.AssetID, alert.CanonicalDocID,
		string(evidence), string(scoreSummary), alert.Summary, string(details), regime,
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

func (r *SQLiteRepository) LoadRecentEvents(ctx context.Context, hours int) ([]EventRow, error) {
	cutoff := formatTime(time.Now().UTC().Add(-time.Duration(hours) * time.Hour))
	rows, err := r.db.QueryContext(ctx, `
		SELECT payload_json, event_time, ingest_time
		FROM event_log
		WHERE ingest_time >= ?
		ORDER BY ingest_time DESC`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("load recent events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []EventRow
	for rows.Next() {
		var (
			payload   string
			eventTime sql.NullString
			ingest    string
		)
		if err := rows.Scan(&payload, &eventTime, &ingest); err != nil {
			return nil, err
		}
		row := EventRow{IngestTime: parseTime(ingest)}
		if eventTime.Valid && eventTime.String != "" {
			t := parseTime(eventTime.String)
			row.EventTime = &t
		}
		if err := json.Unmarshal([]byte(payload), &row.PayloadJSON); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) LoadRecentAlerts(ctx context.Context, hours, limit int) ([]AlertRow, error) {
	cutoff := formatTime(time.Now().UTC().Add(-time.Duration(hours) * time.Hour))
	rows, err := r.db.QueryContext(ctx, `
		SELECT tier, event_type, event_time, ingest_time, company_id, asset_id,
			canonical_doc_id, summary, evidence_pointer, score_summary, details
		FROM alerts
		WHERE ingest_time >= ?
		ORDER BY ingest_time DESC
		LIMIT ?`, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("load recent alerts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []AlertRow
	for rows.Next() {
		row, err := scanSQLiteAlertRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) LoadSourceCounts(ctx context.Context, hours int) (map[string]int, error) {
	cutoff := formatTime(time.Now().UTC().Add(-time.Duration(hours) * time.Hour))
	rows, err := r.db.QueryContext(ctx, `
		SELECT source_system, COUNT(*)
		FROM event_log
		WHERE ingest_time >= ?
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

func scanSQLiteAlertRow(rows rowScanner) (AlertRow, error) {
	var (
		row       AlertRow
		eventTime sql.NullString
		ingest    string
		companyID sql.NullString
		assetID   sql.NullString
		evidence  string
		scoreSum  string
		details   string
	)
	if err := rows.Scan(&row.Tier, &row.EventType, &eventTime, &ingest, &companyID, &assetID,
		&row.CanonicalDocID, &row.Summary, &evidence, &scoreSum, &details); err != nil {
		return row, err
	}
	row.IngestTime = parseTime(ingest)
	if eventTime.Valid && eventTime.String != "" {
		t := parseTime(eventTime.String)
		row.EventTime = &t
	}
	if companyID.Valid {
		row.CompanyID = &companyID.String
	}
	if assetID.Valid {
		row.AssetID = &assetID.String
	}
	if evidence != "" {
		_ = json.Unmarshal([]byte(evidence), &row.EvidencePointer)
	}
	if scoreSum != "" {
		_ = json.Unmarshal([]byte(scoreSum), &row.ScoreSummary)
	}
	if details != "" {
		_ = json.Unmarshal([]byte(details), &row.Details)
	}
	return row, nil
}

// Fixed-width fractional seconds keep lexicographic string comparison
// consistent with chronological order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	return time.Time{}
}
