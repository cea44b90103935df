// Package postgres implements the storage interfaces on PostgreSQL.
//
// Raw rows live in daily_records (append-only, unique on instrument and date).
// adjusted_prices and feature_values hold derived series and are replaced per
// instrument inside one transaction, so a reader never sees a half-written series.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"equity-feature-lab/internal/observability"
)

// applicationName tags sessions in pg_stat_activity.
const applicationName = "equity-feature-lab"

// Tables is the schema this package reads and writes, as created by the
// embedded migrations.
var Tables = []string{"daily_records", "adjusted_prices", "feature_values"}

// Pool is a pgx pool shared by the stores of one process.
// The caller that opens a Pool owns it and must Close it.
type Pool struct {
	*pgxpool.Pool
}

// NewPool connects to dsn and pings the server.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if _, ok := config.ConnConfig.RuntimeParams["application_name"]; !ok {
		config.ConnConfig.RuntimeParams["application_name"] = applicationName
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Pool{Pool: pool}, nil
}

// Close closes the pool.
func (p *Pool) Close() {
	p.Pool.Close()
}

// MissingTables returns the entries of Tables that do not exist in the
// current schema. An empty result means migrations have been applied.
func (p *Pool) MissingTables(ctx context.Context) ([]string, error) {
	var missing []string
	for _, table := range Tables {
		var exists bool
		if err := p.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, table).Scan(&exists); err != nil {
			return nil, fmt.Errorf("check table %s: %w", table, err)
		}
		if !exists {
			missing = append(missing, table)
		}
	}
	return missing, nil
}

// CheckSchema fails when any table in Tables is missing.
func (p *Pool) CheckSchema(ctx context.Context) error {
	missing, err := p.MissingTables(ctx)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("postgres schema incomplete, missing %s (run with migrations enabled)", strings.Join(missing, ", "))
	}
	return nil
}

const pgErrUniqueViolation = "23505"

// isDuplicateKeyError reports a unique violation, which daily_records raises
// for a second row on the same instrument and date.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation
}

// observe records query latency and errors on the default metrics.
func observe(operation string, start time.Time, err error) {
	observability.RecordDBQuery("postgres", operation, time.Since(start).Seconds(), err)
}
