package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lychee-technology/filterform"
	"github.com/lychee-technology/filterform/factory"
	"github.com/lychee-technology/filterform/internal"
	"go.uber.org/zap"
)

// Server exposes the FilterManager over HTTP for the admin console.
type Server struct {
	manager filterform.FilterManager
	mux     *http.ServeMux

	// healthChecks run on /healthz; any failure makes the endpoint report
	// unhealthy.
	healthChecks map[string]func(context.Context) error
}

// NewServer creates a new Server instance
func NewServer(manager filterform.FilterManager) *Server {
	return &Server{
		manager:      manager,
		mux:          http.NewServeMux(),
		healthChecks: make(map[string]func(context.Context) error),
	}
}

// AddHealthCheck registers a named dependency check for /healthz.
func (s *Server) AddHealthCheck(name string, check func(context.Context) error) {
	s.healthChecks[name] = check
}

// RegisterRoutes registers all API routes
func (s *Server) RegisterRoutes() {
	// API routes - use custom path matching in handlers
	s.mux.HandleFunc("/api/v1/filter-types", s.handleFilterTypeList)
	s.mux.HandleFunc("/api/v1/filter-types/", s.handleFilterType)
	s.mux.HandleFunc("/api/v1/filters/", s.handleFilters)
	s.mux.HandleFunc("/healthz", s.handleHealth)
}

// Start starts the HTTP server on the given port
func (s *Server) Start(port string) error {
	zap.S().Infow("starting server", "port", port)
	return http.ListenAndServe(":"+port, s.mux)
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	sugar := logger.Sugar()

	config := filterform.DefaultConfig()
	config.Catalog.Dir = getEnv("SCHEMA_DIR", config.Catalog.Dir)
	config.Catalog.WatchCustom = getEnvBool("SCHEMA_WATCH", config.Catalog.WatchCustom)
	config.Catalog.S3.Enabled = getEnvBool("SCHEMA_S3_ENABLED", false)
	config.Catalog.S3.Bucket = getEnv("SCHEMA_S3_BUCKET", "")
	config.Catalog.S3.Prefix = getEnv("SCHEMA_S3_PREFIX", "")
	config.Catalog.S3.Region = getEnv("SCHEMA_S3_REGION", "")
	config.Compiler.MaxDepth = getEnvInt("COMPILER_MAX_DEPTH", config.Compiler.MaxDepth)

	config.Database = filterform.DatabaseConfig{
		Host:               getEnv("DB_HOST", "localhost"),
		Port:               getEnvInt("DB_PORT", 5432),
		Database:           getEnv("DB_NAME", "filterform"),
		Username:           getEnv("DB_USER", "postgres"),
		Password:           getEnv("DB_PASSWORD", ""),
		SSLMode:            getEnv("DB_SSL_MODE", "disable"),
		MaxConnections:     getEnvInt("DB_MAX_CONNECTIONS", 25),
		ConnMaxLifetime:    time.Duration(getEnvInt("DB_CONN_MAX_LIFETIME_SECONDS", 3600)) * time.Second,
		ConnMaxIdleTime:    time.Duration(getEnvInt("DB_CONN_MAX_IDLE_TIME_SECONDS", 300)) * time.Second,
		Timeout:            time.Duration(getEnvInt("DB_TIMEOUT_SECONDS", 30)) * time.Second,
		ConfigurationTable: getEnv("CONFIGURATION_TABLE", "filter_configurations"),
	}

	pool, err := createDatabasePoolFromConfig(config.Database)
	if err != nil {
		sugar.Fatalf("failed to create database pool: %v", err)
	}
	defer pool.Close()

	manager, err := factory.NewFilterManagerWithConfig(config, pool)
	if err != nil {
		sugar.Fatalf("failed to create filter manager: %v", err)
	}
	defer manager.Close()

	server := NewServer(manager)
	server.AddHealthCheck("database", func(ctx context.Context) error {
		return internal.DatabaseHealthCheck(ctx, pool, config.Database.Timeout)
	})
	server.AddHealthCheck("catalog", func(ctx context.Context) error {
		return internal.CatalogHealthCheck(config.Catalog.Dir)
	})
	server.RegisterRoutes()

	port := getEnv("PORT", "8080")
	if err := server.Start(port); err != nil {
		sugar.Fatalf("server error: %v", err)
	}
}

// createDatabasePoolFromConfig creates a PostgreSQL connection pool from config
func createDatabasePoolFromConfig(config filterform.DatabaseConfig) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		config.Username,
		config.Password,
		config.Host,
		config.Port,
		config.Database,
		config.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	poolConfig.MaxConns = int32(config.MaxConnections)
	poolConfig.MaxConnLifetime = config.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = config.ConnMaxIdleTime

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}
