package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DatabaseHealthCheck verifies the configuration store is reachable with a
// simple query. timeout may be 0 to use a sensible default (5s).
func DatabaseHealthCheck(ctx context.Context, pool PgxPool, timeout time.Duration) error {
	if pool == nil {
		return fmt.Errorf("no database pool")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := pool.Exec(ctx, "SELECT 1"); err != nil {
		return fmt.Errorf("database query failed: %w", err)
	}
	return nil
}

// CatalogHealthCheck verifies the schema catalog directory still holds at
// least one built-in definition. A catalog that disappears at runtime (bad
// mount, wiped volume) should flip the health endpoint before requests start
// failing.
func CatalogHealthCheck(dir string) error {
	builtInDir := filepath.Join(dir, builtInSubdir)
	entries, err := os.ReadDir(builtInDir)
	if err != nil {
		return fmt.Errorf("catalog directory unreadable: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() && isDefinitionFile(entry.Name()) {
			return nil
		}
	}
	return fmt.Errorf("no built-in filter definitions under %s", builtInDir)
}
