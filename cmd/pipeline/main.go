// Package main runs one feature batch:
// source → gap policy → adjust → features → stores → export → report.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/redis/go-redis/v9"

	"equity-feature-lab/internal/adjust"
	"equity-feature-lab/internal/calendar"
	"equity-feature-lab/internal/config"
	"equity-feature-lab/internal/export"
	"equity-feature-lab/internal/features"
	"equity-feature-lab/internal/httpapi"
	"equity-feature-lab/internal/logging"
	"equity-feature-lab/internal/observability"
	"equity-feature-lab/internal/pipeline"
	"equity-feature-lab/internal/reporting"
	"equity-feature-lab/internal/source"
	"equity-feature-lab/internal/source/cache"
	"equity-feature-lab/internal/source/csvarchive"
	"equity-feature-lab/internal/source/eodhd"
	"equity-feature-lab/internal/storage"
	chstore "equity-feature-lab/internal/storage/clickhouse"
	"equity-feature-lab/internal/storage/migrations"
	pgstore "equity-feature-lab/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", os.Getenv("EFL_CONFIG"), "Path to YAML config file")
	serve := flag.Bool("serve", false, "Keep serving /metrics and /status after the batch until interrupted")
	flag.Parse()

	bootLogger := log.New(os.Stderr, "[pipeline] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLogger.Fatalf("load config: %v", err)
	}
	logger := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	tracker := httpapi.NewTracker()
	var srv *httpapi.Server
	if cfg.Metrics.Addr != "" {
		srv = httpapi.Start(cfg.Metrics.Addr, httpapi.NewRouter(tracker, nil), logging.Component(logger, "http"))
	}

	if err := run(ctx, cfg, tracker, logger); err != nil {
		logger.Error("pipeline failed", "error", err)
		srv.Shutdown()
		os.Exit(1)
	}

	if *serve && srv != nil {
		logger.Info("batch complete, serving until interrupted", "addr", cfg.Metrics.Addr)
		<-ctx.Done()
	}
	srv.Shutdown()
}

func run(ctx context.Context, cfg *config.Config, tracker *httpapi.Tracker, logger *slog.Logger) error {
	metrics := observability.DefaultMetrics

	specs, err := features.ParseSpecs(cfg.Run.Features)
	if err != nil {
		return err
	}
	gap, err := source.ParseGapPolicy(cfg.Run.GapPolicy)
	if err != nil {
		return err
	}

	stores, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer stores.Close()

	src, err := buildSource(ctx, cfg, stores, metrics, logger)
	if err != nil {
		return err
	}

	runner, err := pipeline.NewRunner(pipeline.Options{
		Source: src,
		Adjuster: adjust.New(adjust.Options{
			Precision:    cfg.Adjust.Precision,
			StrictSplits: cfg.Adjust.StrictSplits,
			Logger:       logging.Component(logger, "adjust"),
			Metrics:      metrics,
		}),
		Engine:        features.NewEngine(specs),
		AdjustedStore: stores.adjusted,
		FeatureStore:  stores.features,
		GapPolicy:     gap,
		Workers:       cfg.Run.Workers,
		Logger:        logging.Component(logger, "pipeline"),
		Metrics:       metrics,
	})
	if err != nil {
		return err
	}

	req := source.Request{
		InstrumentIDs: cfg.Run.Instruments,
		Fields:        cfg.Run.Fields,
		Start:         cfg.Run.StartDate(),
		End:           cfg.Run.EndDate(),
	}

	tracker.Begin()
	result, err := runner.Run(ctx, req)
	tracker.Finish(result, err)
	if err != nil {
		return err
	}

	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}
	report := reporting.NewGenerator().Generate(result, req, names)

	if cfg.Export.Dir != "" {
		w, err := export.New(cfg.Export.Format, export.Options{DropMissing: cfg.Export.DropMissing})
		if err != nil {
			return err
		}
		paths, err := w.Write(cfg.Export.Dir, result.Succeeded)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		if err := writeReport(cfg.Export.Dir, report); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		logger.Info("exported", "files", len(paths), "dir", cfg.Export.Dir)
	}

	fmt.Print(reporting.RenderMarkdown(report))
	return nil
}

func writeReport(dir string, report *reporting.Report) error {
	if err := os.WriteFile(filepath.Join(dir, "REPORT.md"), []byte(reporting.RenderMarkdown(report)), 0o644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "instruments.csv"), []byte(reporting.RenderCSV(report.Instruments)), 0o644)
}

// openedStores holds the configured backends. Nil fields are disabled.
type openedStores struct {
	pool     *pgstore.Pool
	ch       *chstore.Conn
	adjusted storage.AdjustedPriceStore
	features storage.FeatureStore
}

func (s *openedStores) Close() {
	if s.ch != nil {
		s.ch.Close()
	}
	if s.pool != nil {
		s.pool.Close()
	}
}

// openStores connects to Postgres and ClickHouse when configured. Adjusted
// prices and features go to ClickHouse when available, otherwise Postgres.
func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*openedStores, error) {
	s := &openedStores{}

	if dsn := cfg.Storage.PostgresDSN; dsn != "" {
		pool, err := pgstore.NewPool(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		s.pool = pool
		if cfg.Storage.Migrate {
			err = migrations.RunPostgresMigrations(ctx, pool)
		} else {
			err = pool.CheckSchema(ctx)
		}
		if err != nil {
			s.Close()
			return nil, err
		}
		s.adjusted = pgstore.NewAdjustedPriceStore(pool)
		s.features = pgstore.NewFeatureStore(pool)
		logger.Info("postgres connected")
	}

	if dsn := cfg.Storage.ClickHouseDSN; dsn != "" {
		var (
			conn *chstore.Conn
			err  error
		)
		if cfg.Storage.Migrate {
			conn, err = migrations.RunClickhouseMigrations(ctx, dsn)
		} else {
			conn, err = chstore.NewConn(ctx, dsn)
		}
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		s.ch = conn
		s.adjusted = chstore.NewAdjustedPriceStore(conn)
		s.features = chstore.NewFeatureStore(conn)
		logger.Info("clickhouse connected")
	}

	return s, nil
}

func buildSource(ctx context.Context, cfg *config.Config, stores *openedStores, metrics *observability.Metrics, logger *slog.Logger) (source.Source, error) {
	var cal calendar.Oracle = calendar.Weekdays
	if cfg.Source.Calendar == "nyse" {
		cal = calendar.NewNYSE()
	}

	var src source.Source
	switch cfg.Source.Kind {
	case "csv":
		archive, err := csvarchive.Open(cfg.Source.CSVDir, metrics)
		if err != nil {
			return nil, err
		}
		src = archive
	case "store":
		if stores.pool == nil {
			return nil, errors.New("store source requires storage.postgres_dsn")
		}
		src = source.NewStoreSource(pgstore.NewDailyRecordStore(stores.pool), cal, metrics)
	case "eodhd":
		e := cfg.Source.EODHD
		src = eodhd.New(eodhd.Config{
			BaseURL:           e.BaseURL,
			APIKey:            e.APIKey,
			Exchange:          e.Exchange,
			RequestsPerSecond: e.RequestsPerSecond,
			Burst:             e.Burst,
			Timeout:           e.Timeout,
		}, cal, metrics)
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}

	if r := cfg.Source.Redis; r.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: r.Addr, Password: r.Password, DB: r.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			// run uncached rather than fail the batch
			logger.Warn("redis unavailable, cache disabled", "addr", r.Addr, "error", err)
			_ = rdb.Close()
			return src, nil
		}
		logger.Info("redis cache enabled", "addr", r.Addr, "ttl", r.TTL)
		src = cache.New(rdb, r.TTL, src, r.Namespace, metrics)
	}
	return src, nil
}
