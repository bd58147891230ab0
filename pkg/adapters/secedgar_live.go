package adapters

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/2gfhixs/OGREE/pkg/contracts"
	"github.com/2gfhixs/OGREE/pkg/fetch"
	"github.com/2gfhixs/OGREE/pkg/secform4"
)

// LiveStats is the outcome of one live EDGAR run.
type LiveStats struct {
	FilingsSeen    int
	FilingsParsed  int
	FilingsSkipped int
	EventsEmitted  int
	EventsInserted int
}

// tickerEntry is one row of the SEC company_tickers.json map.
type tickerEntry struct {
	CIK   string
	Title string
}

// IngestLive walks the EDGAR submissions feeds for the given tickers, fetches
// and parses Form 4 filings, emits institutional 13G/13F events, and appends
// everything through the idempotent insert path. The ticker-to-CIK map is
// fetched once per run via the cache. A dead endpoint or malformed filing is
// skipped, never fatal.
func (a *SECEdgar) IngestLive(ctx context.Context, client *fetch.Client, cache fetch.RunCache, tickers []string, maxFilings int) (LiveStats, error) {
	var stats LiveStats
	if client == nil || len(tickers) == 0 {
		return stats, nil
	}
	if maxFilings <= 0 {
		maxFilings = 40
	}

	tickerMap := a.loadTickerMap(ctx, client, cache)
	for _, ticker := range tickers {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		entry, ok := tickerMap[strings.ToUpper(strings.TrimSpace(ticker))]
		if !ok {
			a.logger.Warn("ticker not in sec map", "ticker", ticker)
			continue
		}
		a.walkSubmissions(ctx, client, entry, ticker, maxFilings, &stats)
	}

	a.recordBatch(ctx, SourceSECEdgar, Stats{Processed: stats.EventsEmitted, Inserted: stats.EventsInserted})
	return stats, nil
}

// loadTickerMap fetches company_tickers.json and inverts it to ticker→entry.
func (a *SECEdgar) loadTickerMap(ctx context.Context, client *fetch.Client, cache fetch.RunCache) map[string]tickerEntry {
	raw := client.CachedJSON(ctx, cache, "sec:ticker_map", fetch.SECTickerMapURL)
	out := make(map[string]tickerEntry, len(raw))
	for _, v := range raw {
		row, ok := v.(map[string]any)
		if !ok {
			continue
		}
		ticker := strings.ToUpper(CleanString(row["ticker"]))
		cik := cikString(row["cik_str"])
		if ticker == "" || cik == "" {
			continue
		}
		out[ticker] = tickerEntry{CIK: cik, Title: CleanString(row["title"])}
	}
	return out
}

// walkSubmissions reads the recent-filings parallel arrays for one CIK.
func (a *SECEdgar) walkSubmissions(ctx context.Context, client *fetch.Client, entry tickerEntry, ticker string, maxFilings int, stats *LiveStats) {
	feed := client.JSON(ctx, fetch.SECSubmissionsURL(entry.CIK))
	recent := nestedMap(feed, "filings", "recent")
	if recent == nil {
		a.logger.Warn("submissions feed empty", "cik", entry.CIK, "ticker", ticker)
		return
	}

	forms := stringSlice(recent["form"])
	accessions := stringSlice(recent["accessionNumber"])
	dates := stringSlice(recent["filingDate"])

	n := len(forms)
	if len(accessions) < n {
		n = len(accessions)
	}
	if len(dates) < n {
		n = len(dates)
	}

	seen := 0
	for i := 0; i < n && seen < maxFilings; i++ {
		form := strings.TrimSpace(forms[i])
		switch {
		case form == "4" || form == "4/A":
			seen++
			stats.FilingsSeen++
			a.ingestForm4(ctx, client, entry, ticker, accessions[i], stats)
		case strings.HasPrefix(form, "SC 13G") || strings.HasPrefix(form, "13F"):
			seen++
			stats.FilingsSeen++
			a.ingestInstitutional(ctx, entry, ticker, form, accessions[i], dates[i], stats)
		}
	}
}

// ingestForm4 fetches the full submission text, parses the ownership
// document, and appends one canonical event per recognized transaction.
func (a *SECEdgar) ingestForm4(ctx context.Context, client *fetch.Client, entry tickerEntry, ticker, accession string, stats *LiveStats) {
	text := client.Text(ctx, fetch.SECFilingTextURL(entry.CIK, accession))
	if text == "" {
		stats.FilingsSkipped++
		return
	}
	filing, err := secform4.Parse(text)
	if err != nil {
		a.logger.Warn("form4 parse failed", "accession", accession, "error", err)
		stats.FilingsSkipped++
		return
	}
	stats.FilingsParsed++

	company := filing.IssuerName
	if company == "" {
		company = entry.Title
	}
	symbol := filing.IssuerSymbol
	if symbol == "" {
		symbol = ticker
	}

	for _, tx := range filing.Transactions {
		payload := contracts.Payload{
			"type":             tx.EventType,
			"transaction_type": tx.TransactionType,
			"transaction_code": tx.Code,
			"filer_name":       filing.OwnerName,
			"relationship":     filing.Relationship,
			"officer_title":    filing.OfficerTitle,
			"company":          company,
			"issuer_cik":       filing.IssuerCIK,
			"tickers":          []string{symbol},
			"form_type":        "4",
			"filing_accession": accession,
			"security_title":   tx.SecurityTitle,
			"derivative":       tx.Derivative,
			"co_owner_count":   filing.CoOwnerCount,
		}
		if tx.Shares != nil {
			payload["shares"] = *tx.Shares
		}
		if tx.PricePerShare != nil {
			payload["price_per_share"] = *tx.PricePerShare
		}
		if tx.TotalValue != nil {
			payload["total_value"] = *tx.TotalValue
		}
		a.appendLive(ctx, payload, tx.Date, stats)
	}
}

// ingestInstitutional emits one event per 13G/13F filing row. The submissions
// feed gives the filing date but not the holder detail, so the event carries
// the form-level identity only.
func (a *SECEdgar) ingestInstitutional(ctx context.Context, entry tickerEntry, ticker, form, accession, filingDate string, stats *LiveStats) {
	eventType := "institutional_13g"
	if strings.HasPrefix(form, "13F") {
		eventType = "institutional_13f"
	}
	payload := contracts.Payload{
		"type":             eventType,
		"company":          entry.Title,
		"issuer_cik":       entry.CIK,
		"tickers":          []string{strings.ToUpper(strings.TrimSpace(ticker))},
		"form_type":        form,
		"filing_accession": accession,
	}
	stats.FilingsParsed++
	a.appendLive(ctx, payload, filingDate, stats)
}

func (a *SECEdgar) appendLive(ctx context.Context, raw contracts.Payload, date string, stats *LiveStats) {
	payload := a.Normalize(raw)

	var eventTime *time.Time
	if t := ParseDate(date); t != nil {
		eventTime = t
		payload["event_time"] = contracts.FormatTime(*t)
	}

	sourceEventID := a.syntheticID(payload, eventTime)
	inserted, err := a.append(ctx, SourceSECEdgar, optionalString(sourceEventID), eventTime, payload,
		secDocID(sourceEventID, payload))
	if err != nil {
		a.logger.Warn("live append failed", "error", err)
		return
	}
	stats.EventsEmitted++
	if inserted {
		stats.EventsInserted++
	}
}

// cikString renders a CIK as a plain decimal string whether the feed gives a
// JSON number or a string.
func cikString(raw any) string {
	switch v := raw.(type) {
	case float64:
		return strconv.FormatInt(int64(v), 10)
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

func nestedMap(m map[string]any, keys ...string) map[string]any {
	cur := m
	for _, key := range keys {
		next, ok := cur[key].(map[string]any)
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

func stringSlice(raw any) []string {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, CleanString(it))
	}
	return out
}
