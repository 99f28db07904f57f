package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lychee-technology/filterform"
	"go.uber.org/zap"
)

// PgxPool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it
// for tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// postgresStore persists per-scope override records in a single table:
//
//	filter_configurations (
//	    filter_id   uuid        not null,
//	    scope_type  text        not null,
//	    scope_id    text        not null,
//	    settings    jsonb       not null,
//	    created_at  timestamptz not null,
//	    updated_at  timestamptz not null,
//	    primary key (filter_id, scope_type, scope_id)
//	)
//
// The scope_id column carries the composite identity string exactly as
// ScopeIdentity.String renders it.
type postgresStore struct {
	pool   PgxPool
	table  string
	logger *zap.SugaredLogger
}

// NewPostgresStore creates a ConfigurationStore backed by the given pool.
func NewPostgresStore(pool PgxPool, table string) filterform.ConfigurationStore {
	if table == "" {
		table = "filter_configurations"
	}
	return &postgresStore{
		pool:   pool,
		table:  sanitizeIdentifier(table),
		logger: zap.S().With("component", "configuration_store"),
	}
}

func (s *postgresStore) ListConfigurations(ctx context.Context, filterID uuid.UUID) ([]filterform.StoredConfiguration, error) {
	query := fmt.Sprintf(
		"SELECT scope_type, scope_id, settings, created_at, updated_at FROM %s WHERE filter_id = $1 ORDER BY scope_type, scope_id",
		s.table)
	rows, err := s.pool.Query(ctx, query, filterID)
	if err != nil {
		return nil, filterform.NewStoreError("failed to list configurations", err)
	}
	defer rows.Close()

	var records []filterform.StoredConfiguration
	for rows.Next() {
		record, err := scanConfiguration(rows, filterID)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, filterform.NewStoreError("failed to iterate configurations", err)
	}
	return records, nil
}

func (s *postgresStore) GetConfiguration(ctx context.Context, filterID uuid.UUID, scope filterform.ScopeIdentity) (filterform.StoredConfiguration, error) {
	if err := scope.Validate(); err != nil {
		return filterform.StoredConfiguration{}, err
	}
	query := fmt.Sprintf(
		"SELECT scope_type, scope_id, settings, created_at, updated_at FROM %s WHERE filter_id = $1 AND scope_type = $2 AND scope_id = $3",
		s.table)
	row := s.pool.QueryRow(ctx, query, filterID, string(scope.Type), scope.String())

	record, err := scanConfiguration(row, filterID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return filterform.StoredConfiguration{}, filterform.NewConfigurationNotFoundError(scope)
		}
		return filterform.StoredConfiguration{}, err
	}
	return record, nil
}

func (s *postgresStore) SaveConfiguration(ctx context.Context, filterID uuid.UUID, scope filterform.ScopeIdentity, settings *filterform.PerRouteSettings) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	if settings == nil {
		// use_base is represented by the absence of a record.
		return filterform.NewValidationError("settings",
			"nil settings means use_base; call RemoveConfiguration instead")
	}
	payload, err := json.Marshal(settings)
	if err != nil {
		return filterform.NewStoreError("failed to encode settings", err)
	}

	now := time.Now().UTC()
	query := fmt.Sprintf(
		"INSERT INTO %s (filter_id, scope_type, scope_id, settings, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $5) "+
			"ON CONFLICT (filter_id, scope_type, scope_id) DO UPDATE SET settings = EXCLUDED.settings, updated_at = EXCLUDED.updated_at",
		s.table)
	if _, err := s.pool.Exec(ctx, query, filterID, string(scope.Type), scope.String(), payload, now); err != nil {
		return filterform.NewStoreError("failed to save configuration", err)
	}
	s.logger.Debugw("configuration saved",
		"filter_id", filterID, "scope", scope.String(), "behavior", settings.Behavior)
	return nil
}

func (s *postgresStore) RemoveConfiguration(ctx context.Context, filterID uuid.UUID, scope filterform.ScopeIdentity) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	query := fmt.Sprintf(
		"DELETE FROM %s WHERE filter_id = $1 AND scope_type = $2 AND scope_id = $3", s.table)
	tag, err := s.pool.Exec(ctx, query, filterID, string(scope.Type), scope.String())
	if err != nil {
		return filterform.NewStoreError("failed to remove configuration", err)
	}
	if tag.RowsAffected() == 0 {
		return filterform.NewConfigurationNotFoundError(scope)
	}
	s.logger.Debugw("configuration removed", "filter_id", filterID, "scope", scope.String())
	return nil
}

// scanConfiguration decodes one row into a StoredConfiguration, rebuilding
// the scope from its wire components.
func scanConfiguration(row pgx.Row, filterID uuid.UUID) (filterform.StoredConfiguration, error) {
	var (
		scopeType string
		scopeID   string
		payload   []byte
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&scopeType, &scopeID, &payload, &createdAt, &updatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return filterform.StoredConfiguration{}, err
		}
		return filterform.StoredConfiguration{}, filterform.NewStoreError("failed to scan configuration row", err)
	}

	scope, err := filterform.ParseScopeIdentity(filterform.ScopeType(scopeType), scopeID)
	if err != nil {
		return filterform.StoredConfiguration{}, err
	}

	var settings *filterform.PerRouteSettings
	if len(payload) > 0 {
		settings = &filterform.PerRouteSettings{}
		if err := json.Unmarshal(payload, settings); err != nil {
			return filterform.StoredConfiguration{}, filterform.NewStoreError("failed to decode stored settings", err)
		}
	}

	return filterform.StoredConfiguration{
		FilterID:  filterID,
		Scope:     scope,
		Settings:  settings,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}
