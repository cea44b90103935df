// Command ingest loads a directory of daily CSV snapshots into the raw
// daily_records table so that later runs can use the "store" source.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"equity-feature-lab/internal/domain"
	"equity-feature-lab/internal/observability"
	"equity-feature-lab/internal/source/csvarchive"
	"equity-feature-lab/internal/storage"
	"equity-feature-lab/internal/storage/memory"
	"equity-feature-lab/internal/storage/migrations"
	pgstore "equity-feature-lab/internal/storage/postgres"
)

func main() {
	csvDir := flag.String("csv-dir", "", "Directory of YYYYMMDD.csv daily snapshots")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("EFL_STORAGE_POSTGRES_DSN"), "PostgreSQL connection string")
	from := flag.String("from", "", "First day to load (YYYY-MM-DD, default: first archive day)")
	to := flag.String("to", "", "Last day to load (YYYY-MM-DD, default: last archive day)")
	migrate := flag.Bool("migrate", false, "Apply PostgreSQL migrations before loading")
	useMemory := flag.Bool("use-memory", false, "Load into memory only (dry run)")
	flag.Parse()

	logger := log.New(os.Stdout, "[ingest] ", log.LstdFlags|log.Lshortfile)

	if *csvDir == "" {
		logger.Fatal("-csv-dir is required")
	}
	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("-postgres-dsn is required unless -use-memory is set")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var store storage.DailyRecordStore
	if *useMemory {
		store = memory.NewDailyRecordStore()
	} else {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		defer pool.Close()
		if *migrate {
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				logger.Fatalf("Failed to run migrations: %v", err)
			}
		} else if err := pool.CheckSchema(ctx); err != nil {
			logger.Fatalf("%v", err)
		}
		store = pgstore.NewDailyRecordStore(pool)
	}

	archive, err := csvarchive.Open(*csvDir, observability.DefaultMetrics)
	if err != nil {
		logger.Fatalf("Failed to open archive: %v", err)
	}

	start, end, err := parseRange(*from, *to)
	if err != nil {
		logger.Fatalf("Invalid range: %v", err)
	}

	stats, err := ingest(ctx, archive, store, start, end, logger)
	if err != nil {
		logger.Fatalf("Error: %v", err)
	}
	logger.Printf("Ingest complete: %d days loaded, %d skipped, %d records", stats.loaded, stats.skipped, stats.records)
}

type ingestStats struct {
	loaded  int
	skipped int
	records int
}

// ingest inserts each archive day in [start, end] as one batch. A day that is
// already stored fails its batch with ErrDuplicateKey and is skipped, so
// reruns over an overlapping range only add new days.
func ingest(ctx context.Context, archive *csvarchive.Archive, store storage.DailyRecordStore, start, end time.Time, logger *log.Logger) (ingestStats, error) {
	var stats ingestStats

	days, err := archive.Days()
	if err != nil {
		return stats, err
	}

	for _, d := range days {
		if (!start.IsZero() && d.Before(start)) || (!end.IsZero() && d.After(end)) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		day, err := archive.ReadDay(d)
		if err != nil {
			return stats, err
		}
		batch := make([]*domain.DailyRecord, 0, len(day.Rows))
		for _, sym := range day.Symbols() {
			batch = append(batch, day.Rows[sym])
		}

		err = store.InsertBulk(ctx, batch)
		switch {
		case errors.Is(err, storage.ErrDuplicateKey):
			logger.Printf("Skipping %s: already stored", d.Format(domain.DateLayout))
			stats.skipped++
		case err != nil:
			return stats, fmt.Errorf("insert %s: %w", d.Format(domain.DateLayout), err)
		default:
			stats.loaded++
			stats.records += len(batch)
		}
	}
	return stats, nil
}

func parseRange(from, to string) (start, end time.Time, err error) {
	if from != "" {
		if start, err = time.Parse(domain.DateLayout, from); err != nil {
			return start, end, err
		}
	}
	if to != "" {
		if end, err = time.Parse(domain.DateLayout, to); err != nil {
			return start, end, err
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return start, end, &domain.DateRangeError{Start: start, End: end, Reason: "end before start"}
	}
	return start, end, nil
}
