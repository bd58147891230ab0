// Command ogree drives the exploration-alpha pipeline: fixture and live
// ingest, alert generation, ranking, health, and reporting.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/2gfhixs/OGREE/pkg/adapters"
	"github.com/2gfhixs/OGREE/pkg/alerts"
	"github.com/2gfhixs/OGREE/pkg/config"
	"github.com/2gfhixs/OGREE/pkg/fetch"
	"github.com/2gfhixs/OGREE/pkg/health"
	"github.com/2gfhixs/OGREE/pkg/pipeline"
	"github.com/2gfhixs/OGREE/pkg/ranker"
	"github.com/2gfhixs/OGREE/pkg/report"
	"github.com/2gfhixs/OGREE/pkg/store"
	"github.com/2gfhixs/OGREE/pkg/telemetry"
	"github.com/2gfhixs/OGREE/pkg/universe"

	_ "github.com/lib/pq" // Postgres driver
)

// Default fixture locations, relative to the working directory.
const (
	defaultDemoPath    = "sample_data/raw_events.jsonl"
	defaultAKPermits   = "sample_data/alaska/permits.jsonl"
	defaultAKWells     = "sample_data/alaska/wells.jsonl"
	defaultTXPath      = "sample_data/texas/rrc_raw_events.jsonl"
	defaultREEPath     = "sample_data/ree_uranium/events.jsonl"
	defaultSECPath     = "sample_data/sec_edgar/form4_events.jsonl"
	defaultFedPath     = "sample_data/federal_register/events.jsonl"
	defaultPolicyPath  = "sample_data/policy_signals/events.jsonl"
	defaultSECLiveUA   = "OGREE/0.1 (research@ogree.local)"
	defaultMaxFilings  = 20
	defaultAlertHours  = 72
	defaultReportHours = 24
)

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run is the entrypoint for testing.
func Run(args []string, stdout, stderr io.Writer) int {
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, nil)).With("run_id", uuid.NewString()))

	if len(args) < 2 {
		printUsage(stderr)
		return 2
	}

	switch args[1] {
	case "db-check":
		return runDBCheck(stdout, stderr)
	case "ingest-demo":
		return runIngestDemo(args[2:], stdout, stderr)
	case "ingest-ak":
		return runIngestAK(args[2:], stdout, stderr)
	case "ingest-tx":
		return runIngestTX(args[2:], stdout, stderr)
	case "ingest-ree":
		return runIngestREE(args[2:], stdout, stderr)
	case "ingest-sec":
		return runIngestSEC(args[2:], stdout, stderr)
	case "ingest-sec-live":
		return runIngestSECLive(args[2:], stdout, stderr)
	case "ingest-fed-rules":
		return runIngestFedRules(args[2:], stdout, stderr)
	case "ingest-policy":
		return runIngestPolicy(args[2:], stdout, stderr)
	case "generate-alerts":
		return runGenerateAlerts(args[2:], stdout, stderr)
	case "report":
		return runReport(args[2:], stdout, stderr)
	case "opportunities":
		return runOpportunities(args[2:], stdout, stderr)
	case "health":
		return runHealth(args[2:], stdout, stderr)
	case "run-all":
		return runAll(args[2:], stdout, stderr)
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	default:
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n", args[1])
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "OGREE Exploration Alpha")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage: ogree <command> [flags]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  db-check          Check database connectivity")
	fmt.Fprintln(w, "  ingest-demo       Ingest the demo sample and emit demo alerts")
	fmt.Fprintln(w, "  ingest-ak         Ingest Alaska permits + wells fixtures")
	fmt.Fprintln(w, "  ingest-tx         Ingest the Texas RRC fixture")
	fmt.Fprintln(w, "  ingest-ree        Ingest the REE/uranium fixture")
	fmt.Fprintln(w, "  ingest-sec        Ingest the SEC EDGAR fixture")
	fmt.Fprintln(w, "  ingest-sec-live   Ingest recent SEC EDGAR submissions over HTTP")
	fmt.Fprintln(w, "  ingest-fed-rules  Ingest the Federal Register rules fixture")
	fmt.Fprintln(w, "  ingest-policy     Ingest the NPRM/congressional fixture")
	fmt.Fprintln(w, "  generate-alerts   Score recent events and insert alerts")
	fmt.Fprintln(w, "  report            Render the twice-daily report")
	fmt.Fprintln(w, "  opportunities     Rank and display top opportunities")
	fmt.Fprintln(w, "  health            Compute pipeline health metrics")
	fmt.Fprintln(w, "  run-all           Full pipeline: ingest -> alerts -> report")
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// openDB opens the configured database. postgres:// URLs go through lib/pq;
// anything else is treated as a SQLite path (an optional sqlite:// prefix is
// stripped).
func openDB(cfg *config.Config) (*sql.DB, string, error) {
	url, err := cfg.RequireDatabaseURL()
	if err != nil {
		return nil, "", err
	}
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		db, err := sql.Open("postgres", url)
		return db, "postgres", err
	}
	db, err := sql.Open("sqlite", strings.TrimPrefix(url, "sqlite://"))
	if err == nil {
		db.SetMaxOpenConns(1)
	}
	return db, "sqlite", err
}

func openRepo(ctx context.Context, cfg *config.Config) (store.Repository, func(), error) {
	db, driver, err := openDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() { _ = db.Close() }

	var repo store.Repository
	if driver == "postgres" {
		repo, err = store.NewPostgresRepository(ctx, db)
	} else {
		repo, err = store.NewSQLiteRepository(ctx, db)
	}
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return repo, closeFn, nil
}

func fail(stderr io.Writer, err error) int {
	_, _ = fmt.Fprintln(stderr, "Error:", err)
	return 1
}

func runDBCheck(stdout, stderr io.Writer) int {
	ctx, cancel := signalContext()
	defer cancel()

	db, driver, err := openDB(config.Load())
	if err != nil {
		return fail(stderr, err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fail(stderr, fmt.Errorf("ping database: %w", err))
	}
	versionQuery := "SELECT version()"
	if driver == "sqlite" {
		versionQuery = "SELECT sqlite_version()"
	}
	var version string
	if err := db.QueryRowContext(ctx, versionQuery).Scan(&version); err != nil {
		return fail(stderr, fmt.Errorf("query version: %w", err))
	}
	fmt.Fprintln(stdout, "DB OK")
	fmt.Fprintln(stdout, version)
	return 0
}

func runIngestDemo(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ingest-demo", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("path", defaultDemoPath, "Path to demo JSONL")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx, cancel := signalContext()
	defer cancel()
	repo, closeFn, err := openRepo(ctx, config.Load())
	if err != nil {
		return fail(stderr, err)
	}
	defer closeFn()

	emitted, err := pipeline.NewDemo(repo).IngestAndAlert(ctx, *path)
	if err != nil {
		return fail(stderr, err)
	}
	var insertedEvents, insertedAlerts int
	for _, e := range emitted {
		if e.EventInserted {
			insertedEvents++
		}
		if e.AlertInserted {
			insertedAlerts++
		}
	}
	fmt.Fprintf(stdout, "Processed %d events\n", len(emitted))
	fmt.Fprintf(stdout, "  raw events inserted: %d\n", insertedEvents)
	fmt.Fprintf(stdout, "  alerts inserted:     %d\n", insertedAlerts)
	return 0
}

func runIngestAK(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ingest-ak", flag.ContinueOnError)
	fs.SetOutput(stderr)
	permitsPath := fs.String("permits", defaultAKPermits, "Path to Alaska permits JSONL")
	wellsPath := fs.String("wells", defaultAKWells, "Path to Alaska wells JSONL")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx, cancel := signalContext()
	defer cancel()
	repo, closeFn, err := openRepo(ctx, config.Load())
	if err != nil {
		return fail(stderr, err)
	}
	defer closeFn()
	metrics := telemetry.New()

	permits, err := adapters.NewAlaskaPermits(repo, metrics).Ingest(ctx, *permitsPath)
	if err != nil {
		return fail(stderr, err)
	}
	fmt.Fprintf(stdout, "AK permits: %d new events inserted\n", permits.Inserted)

	wells, err := adapters.NewAlaskaWells(repo, metrics).Ingest(ctx, *wellsPath)
	if err != nil {
		return fail(stderr, err)
	}
	fmt.Fprintf(stdout, "AK wells:   %d new events inserted\n", wells.Inserted)
	return 0
}

func runIngestTX(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ingest-tx", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("path", defaultTXPath, "Path to TX RRC fixture JSONL")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx, cancel := signalContext()
	defer cancel()
	repo, closeFn, err := openRepo(ctx, config.Load())
	if err != nil {
		return fail(stderr, err)
	}
	defer closeFn()

	stats, err := adapters.NewTexasRRC(repo, telemetry.New()).Ingest(ctx, *path)
	if err != nil {
		return fail(stderr, err)
	}
	fmt.Fprintf(stdout, "TX RRC: processed %d, inserted %d new events\n", stats.Processed, stats.Inserted)
	return 0
}

func runIngestREE(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ingest-ree", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("path", defaultREEPath, "Path to REE/uranium fixture JSONL")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx, cancel := signalContext()
	defer cancel()
	repo, closeFn, err := openRepo(ctx, config.Load())
	if err != nil {
		return fail(stderr, err)
	}
	defer closeFn()

	stats, err := adapters.NewREEUranium(repo, telemetry.New()).Ingest(ctx, *path)
	if err != nil {
		return fail(stderr, err)
	}
	fmt.Fprintf(stdout, "REE/U: processed %d, inserted %d new events\n", stats.Processed, stats.Inserted)
	return 0
}

func loadResolver(cfg *config.Config) (*universe.Resolver, error) {
	u, err := universe.Load(cfg.UniversePath)
	if err != nil {
		return nil, err
	}
	return universe.NewResolver(u), nil
}

func runIngestSEC(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ingest-sec", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("path", defaultSECPath, "Path to SEC EDGAR fixture JSONL")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx, cancel := signalContext()
	defer cancel()
	cfg := config.Load()
	repo, closeFn, err := openRepo(ctx, cfg)
	if err != nil {
		return fail(stderr, err)
	}
	defer closeFn()
	resolver, err := loadResolver(cfg)
	if err != nil {
		return fail(stderr, err)
	}

	stats, err := adapters.NewSECEdgar(repo, resolver, telemetry.New()).Ingest(ctx, *path)
	if err != nil {
		return fail(stderr, err)
	}
	fmt.Fprintf(stdout, "SEC EDGAR: processed %d, inserted %d new events\n", stats.Processed, stats.Inserted)
	return 0
}

func runIngestSECLive(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ingest-sec-live", flag.ContinueOnError)
	fs.SetOutput(stderr)
	maxFilings := fs.Int("max-filings", defaultMaxFilings, "Max filings per company")
	userAgent := fs.String("user-agent", defaultSECLiveUA, "SEC-required User-Agent header")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx, cancel := signalContext()
	defer cancel()
	cfg := config.Load()
	repo, closeFn, err := openRepo(ctx, cfg)
	if err != nil {
		return fail(stderr, err)
	}
	defer closeFn()

	stats, err := ingestSECLive(ctx, cfg, repo, *userAgent, *maxFilings)
	if err != nil {
		return fail(stderr, err)
	}
	printSECLiveStats(stdout, stats)
	return 0
}

// ingestSECLive wires the HTTP client, cache, and universe for a live SEC
// run. The user agent flag wins over OGREE_USER_AGENT.
func ingestSECLive(ctx context.Context, cfg *config.Config, repo store.Repository, userAgent string, maxFilings int) (adapters.LiveStats, error) {
	if userAgent == "" {
		userAgent = cfg.UserAgent
	}
	metrics := telemetry.New()
	client, err := fetch.NewClient(fetch.Options{
		UserAgent:    userAgent,
		RequestDelay: cfg.RequestDelay,
		MaxRetries:   cfg.MaxRetries,
		BackoffBase:  cfg.BackoffBase,
		Timeout:      cfg.HTTPTimeout,
		OnRetry:      metrics.RecordFetchRetry,
	})
	if err != nil {
		return adapters.LiveStats{}, err
	}

	u, err := universe.Load(cfg.UniversePath)
	if err != nil {
		return adapters.LiveStats{}, err
	}
	var tickers []string
	for _, c := range u.Companies {
		tickers = append(tickers, c.Tickers...)
	}

	var cache fetch.RunCache = fetch.NewMemoryCache()
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Warn("invalid OGREE_REDIS_URL, using in-memory cache", "error", err)
		} else {
			cache = fetch.NewRedisCache(redis.NewClient(opts), "ogree:", 24*time.Hour)
		}
	}

	adapter := adapters.NewSECEdgar(repo, universe.NewResolver(u), metrics)
	return adapter.IngestLive(ctx, client, cache, tickers, maxFilings)
}

func printSECLiveStats(stdout io.Writer, stats adapters.LiveStats) {
	fmt.Fprintf(stdout, "SEC EDGAR live: processed %d, inserted %d new events\n",
		stats.EventsEmitted, stats.EventsInserted)
	fmt.Fprintf(stdout, "  Filings: seen=%d parsed=%d skipped=%d\n",
		stats.FilingsSeen, stats.FilingsParsed, stats.FilingsSkipped)
}

func runIngestFedRules(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ingest-fed-rules", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("path", defaultFedPath, "Path to Federal Register fixture JSONL")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx, cancel := signalContext()
	defer cancel()
	cfg := config.Load()
	repo, closeFn, err := openRepo(ctx, cfg)
	if err != nil {
		return fail(stderr, err)
	}
	defer closeFn()
	resolver, err := loadResolver(cfg)
	if err != nil {
		return fail(stderr, err)
	}

	stats, err := adapters.NewFederalRegister(repo, resolver, telemetry.New()).Ingest(ctx, *path)
	if err != nil {
		return fail(stderr, err)
	}
	fmt.Fprintf(stdout, "Federal Register: processed %d, inserted %d new events\n", stats.Processed, stats.Inserted)
	return 0
}

func runIngestPolicy(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ingest-policy", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("path", defaultPolicyPath, "Path to NPRM/congressional fixture JSONL")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx, cancel := signalContext()
	defer cancel()
	cfg := config.Load()
	repo, closeFn, err := openRepo(ctx, cfg)
	if err != nil {
		return fail(stderr, err)
	}
	defer closeFn()
	resolver, err := loadResolver(cfg)
	if err != nil {
		return fail(stderr, err)
	}

	stats, err := adapters.NewNPRMCongressional(repo, resolver, telemetry.New()).Ingest(ctx, *path)
	if err != nil {
		return fail(stderr, err)
	}
	fmt.Fprintf(stdout, "Policy signals: processed %d, inserted %d new events\n", stats.Processed, stats.Inserted)
	return 0
}

func runGenerateAlerts(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("generate-alerts", flag.ContinueOnError)
	fs.SetOutput(stderr)
	hours := fs.Int("hours", defaultAlertHours, "Lookback window in hours")
	topN := fs.Int("top-n", 25, "Max alerts to generate")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx, cancel := signalContext()
	defer cancel()
	cfg := config.Load()
	repo, closeFn, err := openRepo(ctx, cfg)
	if err != nil {
		return fail(stderr, err)
	}
	defer closeFn()
	resolver, err := loadResolver(cfg)
	if err != nil {
		return fail(stderr, err)
	}

	n, err := alerts.NewGenerator(repo, resolver, telemetry.New()).GenerateAndInsert(ctx, *hours, *topN)
	if err != nil {
		return fail(stderr, err)
	}
	fmt.Fprintf(stdout, "Alerts: %d new alerts inserted\n", n)
	return 0
}

func runReport(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(stderr)
	hours := fs.Int("hours", defaultReportHours, "Lookback window in hours")
	topN := fs.Int("top-n", 10, "Max items per section")
	output := fs.String("output", "", "Write report JSON to file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx, cancel := signalContext()
	defer cancel()
	repo, closeFn, err := openRepo(ctx, config.Load())
	if err != nil {
		return fail(stderr, err)
	}
	defer closeFn()

	rep, err := report.NewBuilder(repo).Build(ctx, *hours, *topN)
	if err != nil {
		return fail(stderr, err)
	}
	text := report.RenderText(rep)

	if *output != "" {
		doc := struct {
			Subject string `json:"subject"`
			Text    string `json:"text"`
		}{Subject: rep.Subject, Text: text}
		encoded, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fail(stderr, err)
		}
		if err := os.WriteFile(*output, append(encoded, '\n'), 0o644); err != nil {
			return fail(stderr, err)
		}
		fmt.Fprintf(stdout, "Report written to %s\n", *output)
		return 0
	}
	fmt.Fprintf(stdout, "Subject: %s\n\n%s\n", rep.Subject, text)
	return 0
}

func runOpportunities(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("opportunities", flag.ContinueOnError)
	fs.SetOutput(stderr)
	hours := fs.Int("hours", defaultReportHours, "Lookback window in hours")
	topN := fs.Int("top-n", 15, "Max opportunities")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx, cancel := signalContext()
	defer cancel()
	cfg := config.Load()
	repo, closeFn, err := openRepo(ctx, cfg)
	if err != nil {
		return fail(stderr, err)
	}
	defer closeFn()
	u, err := universe.Load(cfg.UniversePath)
	if err != nil {
		return fail(stderr, err)
	}

	opps, err := ranker.New(repo, u).Rank(ctx, *hours, *topN)
	if err != nil {
		return fail(stderr, err)
	}
	fmt.Fprintln(stdout, ranker.RenderText(opps))
	return 0
}

func runHealth(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
	fs.SetOutput(stderr)
	hours := fs.Int("hours", defaultAlertHours, "Event window in hours")
	alertHours := fs.Int("alert-hours", defaultReportHours, "Alert window in hours")
	output := fs.String("output", "", "Write health snapshot JSON to file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx, cancel := signalContext()
	defer cancel()
	repo, closeFn, err := openRepo(ctx, config.Load())
	if err != nil {
		return fail(stderr, err)
	}
	defer closeFn()

	snap, err := health.Compute(ctx, repo, *hours, *alertHours)
	if err != nil {
		return fail(stderr, err)
	}
	if *output != "" {
		encoded, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return fail(stderr, err)
		}
		if err := os.WriteFile(*output, append(encoded, '\n'), 0o644); err != nil {
			return fail(stderr, err)
		}
		fmt.Fprintf(stdout, "Health snapshot written to %s\n", *output)
		return 0
	}
	fmt.Fprintln(stdout, health.RenderText(snap))
	return 0
}

func runAll(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("run-all", flag.ContinueOnError)
	fs.SetOutput(stderr)
	hours := fs.Int("hours", defaultAlertHours, "Event lookback window in hours")
	reportHours := fs.Int("report-hours", defaultReportHours, "Report lookback window in hours")
	topN := fs.Int("top-n", 25, "Max alerts")
	reportFile := fs.String("report-file", "", "Write report to file")
	secLive := fs.Bool("sec-live", false, "Also ingest live SEC EDGAR submissions")
	secLiveMaxFilings := fs.Int("sec-live-max-filings", defaultMaxFilings, "Max live SEC filings per company")
	secLiveUserAgent := fs.String("sec-live-user-agent", defaultSECLiveUA, "SEC-required User-Agent for live mode")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	section := func(name string) { fmt.Fprintf(stdout, "\n=== %s ===\n", name) }

	fmt.Fprintln(stdout, "=== Ingest: Demo ===")
	if code := runIngestDemo(nil, stdout, stderr); code != 0 {
		return code
	}
	section("Ingest: Alaska")
	if code := runIngestAK(nil, stdout, stderr); code != 0 {
		return code
	}
	section("Ingest: Texas")
	if code := runIngestTX(nil, stdout, stderr); code != 0 {
		return code
	}
	section("Ingest: REE/Uranium")
	if code := runIngestREE(nil, stdout, stderr); code != 0 {
		return code
	}
	section("Ingest: SEC EDGAR")
	if code := runIngestSEC(nil, stdout, stderr); code != 0 {
		return code
	}
	section("Ingest: Federal Register rules")
	if code := runIngestFedRules(nil, stdout, stderr); code != 0 {
		return code
	}
	section("Ingest: Policy signals (NPRM/Congressional)")
	if code := runIngestPolicy(nil, stdout, stderr); code != 0 {
		return code
	}
	if *secLive {
		section("Ingest: SEC EDGAR (live)")
		liveArgs := []string{
			"-max-filings", fmt.Sprint(*secLiveMaxFilings),
			"-user-agent", *secLiveUserAgent,
		}
		if code := runIngestSECLive(liveArgs, stdout, stderr); code != 0 {
			return code
		}
	}

	section("Generate Alerts")
	if code := runGenerateAlerts([]string{"-hours", fmt.Sprint(*hours), "-top-n", fmt.Sprint(*topN)}, stdout, stderr); code != 0 {
		return code
	}
	section("Report")
	reportArgs := []string{"-hours", fmt.Sprint(*reportHours), "-top-n", "10"}
	if *reportFile != "" {
		reportArgs = append(reportArgs, "-output", *reportFile)
	}
	if code := runReport(reportArgs, stdout, stderr); code != 0 {
		return code
	}
	section("Top Opportunities")
	if code := runOpportunities([]string{"-hours", fmt.Sprint(*reportHours), "-top-n", "15"}, stdout, stderr); code != 0 {
		return code
	}

	fmt.Fprintln(stdout, "\nDone.")
	return 0
}
