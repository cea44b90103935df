package migrations

import (
	"context"
	"fmt"
	"strings"

	"equity-feature-lab/internal/storage/postgres"
)

// RunPostgresMigrations applies all embedded PostgreSQL files in lexical order.
// Every file uses IF NOT EXISTS, so re-running is safe.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	files, err := sqlFiles(PostgresFS, "postgres")
	if err != nil {
		return err
	}

	for _, f := range files {
		if strings.TrimSpace(f.body) == "" {
			continue
		}
		if _, err := pool.Exec(ctx, f.body); err != nil {
			return fmt.Errorf("apply migration %s: %w", f.name, err)
		}
	}
	return nil
}
