package adapters

import (
	"context"
	"fmt"

	"github.com/2gfhixs/OGREE/pkg/contracts"
	"github.com/2gfhixs/OGREE/pkg/hashing"
	"github.com/2gfhixs/OGREE/pkg/store"
	"github.com/2gfhixs/OGREE/pkg/telemetry"
)

// Alaska source systems.
const (
	SourceAlaskaPermits = "alaska_permits"
	SourceAlaskaWells   = "alaska_wells"
)

// AlaskaLineageID groups Alaska permit and well events: the same permit,
// operator and region always land in one chain across both feeds.
func AlaskaLineageID(permitID, operator, region string) string {
	return hashing.ShortHash(fmt.Sprintf("AK|%s|%s|%s", permitID, operator, region), 20)
}

// Alaska normalizes the AOGCC permit and well feeds. The two feeds share
// the field dialect, so one adapter serves both with the event type fixed
// per feed.
type Alaska struct {
	base
	sourceSystem string
	eventType    string
}

// NewAlaskaPermits builds the adapter for the permit feed.
func NewAlaskaPermits(repo store.Repository, metrics *telemetry.Metrics) *Alaska {
	return &Alaska{
		base:         newBase(repo, metrics, SourceAlaskaPermits),
		sourceSystem: SourceAlaskaPermits,
		eventType:    "permit_filed",
	}
}

// NewAlaskaWells builds the adapter for the well-record feed.
func NewAlaskaWells(repo store.Repository, metrics *telemetry.Metrics) *Alaska {
	return &Alaska{
		base:         newBase(repo, metrics, SourceAlaskaWells),
		sourceSystem: SourceAlaskaWells,
		eventType:    "well_record",
	}
}

// Normalize coerces one raw row into the canonical payload.
func (a *Alaska) Normalize(raw contracts.Payload) contracts.Payload {
	permitID := firstClean(raw, "permit_id", "permit", "permit_number")
	if permitID == "" {
		permitID = "UNKNOWN"
	}
	operator := firstClean(raw, "operator", "lessee")
	if operator == "" {
		operator = "UNKNOWN"
	}
	region := firstClean(raw, "region", "state")
	if region == "" {
		region = "Alaska"
	}

	eventTime := ParseDate(firstClean(raw, "event_time", "date", "spud_date", "reported_at"))

	payload := contracts.Payload{
		"type":         a.eventType,
		"jurisdiction": "AK",
		"source":       a.sourceSystem,
		"permit_id":    permitID,
		"operator":     operator,
		"region":       region,
		"well_name":    nilIfEmpty(firstClean(raw, "well", "well_name")),
		"api":          nilIfEmpty(firstClean(raw, "api", "api_number")),
		"field":        nilIfEmpty(firstClean(raw, "field")),
		"event_time":   nil,
	}
	if eventTime != nil {
		payload["event_time"] = contracts.FormatTime(*eventTime)
	}
	if ip, ok := contracts.PayloadFloat(raw, "ip_boed"); ok {
		payload["ip_boed"] = ip
	}
	payload["lineage_id"] = AlaskaLineageID(permitID, operator, region)
	return payload
}

// Ingest reads a JSONL fixture and appends its rows.
func (a *Alaska) Ingest(ctx context.Context, path string) (Stats, error) {
	records, err := IterFixture(path)
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	for _, rec := range records {
		stats.Processed++
		raw := rec.Payload
		if raw == nil {
			raw = contracts.Payload{}
		}
		if rec.EventTime != "" {
			raw["event_time"] = rec.EventTime
		}
		payload := a.Normalize(raw)

		sourceEventID := rec.SourceEventID
		if sourceEventID == "" {
			sourceEventID = a.naturalID(payload)
		}
		eventTime := ParseDate(contracts.PayloadString(payload, "event_time"))

		docID := hashing.SeededDocID(a.sourceSystem, fmt.Sprintf("%s|%s|%s",
			a.eventType, contracts.PayloadString(payload, "lineage_id"), sourceEventID))

		inserted, err := a.append(ctx, a.sourceSystem, optionalString(sourceEventID), eventTime, payload, docID)
		if err != nil {
			return stats, err
		}
		if inserted {
			stats.Inserted++
		}
	}
	a.recordBatch(ctx, a.sourceSystem, stats)
	return stats, nil
}

// naturalID prefers the API number, then the well name, then the permit id.
func (a *Alaska) naturalID(payload contracts.Payload) string {
	for _, key := range []string{"api", "well_name", "permit_id"} {
		if v := contracts.PayloadString(payload, key); v != "" && v != "UNKNOWN" {
			return v
		}
	}
	return ""
}

func firstClean(p contracts.Payload, keys ...string) string {
	for _, key := range keys {
		if s := CleanString(p[key]); s != "" {
			return s
		}
	}
	return ""
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
