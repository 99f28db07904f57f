package factory

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lychee-technology/filterform"
	"github.com/lychee-technology/filterform/internal"
	"go.uber.org/zap"
)

// NewFilterManagerWithConfig creates a FilterManager with the provided
// configuration and database pool. This is the primary way for external
// projects to create a FilterManager instance.
//
// If config.Registry is provided, it is used instead of building a file
// catalog. This allows callers to supply their own FilterTypeRegistry
// implementation.
//
// Usage:
//
//	import (
//	    "github.com/lychee-technology/filterform"
//	    "github.com/lychee-technology/filterform/factory"
//	)
//
//	config := filterform.DefaultConfig()
//	fm, err := factory.NewFilterManagerWithConfig(config, pool)
//	if err != nil {
//	    // handle error
//	}
//
// With custom registry:
//
//	config := filterform.DefaultConfig()
//	config.Registry = myCustomRegistry
//	fm, err := factory.NewFilterManagerWithConfig(config, pool)
func NewFilterManagerWithConfig(config *filterform.Config, pool *pgxpool.Pool) (filterform.FilterManager, error) {
	if config == nil {
		config = filterform.DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, fmt.Errorf("a database pool is required")
	}

	if err := verifyConfigurationTable(pool, config.Database.ConfigurationTable); err != nil {
		return nil, err
	}

	registry := config.Registry
	if registry == nil {
		catalog, err := internal.NewFileCatalog(config.Catalog)
		if err != nil {
			return nil, fmt.Errorf("failed to load filter catalog: %w", err)
		}
		if config.Catalog.S3.Enabled {
			remote, err := internal.LoadS3Definitions(context.Background(), config.Catalog.S3)
			if err != nil {
				catalog.Close()
				return nil, fmt.Errorf("failed to load S3 filter definitions: %w", err)
			}
			catalog.MergeCustom(remote)
		}
		registry = catalog
	}
	zap.S().Infow("filter catalog ready", "filter_types", len(registry.ListFilterTypes()))

	store := internal.NewPostgresStore(pool, config.Database.ConfigurationTable)
	compiler := internal.NewFormCompiler(config.Compiler)

	return internal.NewFilterManager(registry, store, compiler), nil
}

// verifyConfigurationTable fails fast when the override table is missing, so
// a misconfigured deployment surfaces at startup rather than on first save.
func verifyConfigurationTable(pool *pgxpool.Pool, table string) error {
	var exists bool
	err := pool.QueryRow(context.Background(),
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables
		 WHERE table_schema = 'public' AND table_name = $1)`, table).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to verify database connection: %w", err)
	}
	if !exists {
		return fmt.Errorf("required table %q is missing in the database", table)
	}
	return nil
}
