package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	"anubis-watch/internal/storage/postgres"
)

// RunPostgresMigrations applies the embedded schema files against the
// pool. Every file must be idempotent (CREATE ... IF NOT EXISTS) since
// the runner keeps no applied-version table.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	files, err := sqlFiles(PostgresFS, "postgres")
	if err != nil {
		return fmt.Errorf("read embedded postgres migrations: %w", err)
	}

	for _, file := range files {
		data, err := fs.ReadFile(PostgresFS, "postgres/"+file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}
		if _, err := pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
	}

	return nil
}
