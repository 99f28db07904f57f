package filterform

import (
	"time"
)

// Config consolidates settings for the compiler, the filter-type catalog, the
// configuration store and logging.
type Config struct {
	Compiler CompilerConfig `json:"compiler"`
	Catalog  CatalogConfig  `json:"catalog"`
	Database DatabaseConfig `json:"database"`
	Logging  LoggingConfig  `json:"logging"`

	// Registry optionally supplies a caller-provided filter type catalog.
	// When nil the factory builds a file catalog from the Catalog settings.
	Registry FilterTypeRegistry `json:"-"`
}

// CompilerConfig contains schema form compiler settings
type CompilerConfig struct {
	// MaxDepth bounds schema recursion. Nodes beyond the limit degrade to
	// raw fields instead of failing the whole document.
	MaxDepth int `json:"maxDepth"`
}

// CatalogConfig contains filter-type catalog settings
type CatalogConfig struct {
	// Dir is the root of the schema catalog, holding built-in/ and custom/
	// subdirectories of filter definition files.
	Dir string `json:"dir"`

	// WatchCustom enables hot reload of the custom/ subdirectory.
	WatchCustom bool `json:"watchCustom"`

	S3 S3CatalogConfig `json:"s3"`
}

// S3CatalogConfig contains the optional S3 source for custom definitions
type S3CatalogConfig struct {
	Enabled bool   `json:"enabled"`
	Bucket  string `json:"bucket"`
	Prefix  string `json:"prefix"`
	Region  string `json:"region"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	Database        string        `json:"database"`
	Username        string        `json:"username"`
	Password        string        `json:"password"`
	SSLMode         string        `json:"sslMode"`
	MaxConnections  int           `json:"maxConnections"`
	ConnMaxLifetime time.Duration `json:"connMaxLifetime"`
	ConnMaxIdleTime time.Duration `json:"connMaxIdleTime"`
	Timeout         time.Duration `json:"timeout"`

	// ConfigurationTable is the table holding per-scope override records.
	ConfigurationTable string `json:"configurationTable"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Compiler: CompilerConfig{
			MaxDepth: 32,
		},
		Catalog: CatalogConfig{
			Dir:         "./filter-schemas",
			WatchCustom: true,
		},
		Database: DatabaseConfig{
			Host:               "localhost",
			Port:               5432,
			SSLMode:            "disable",
			MaxConnections:     25,
			ConnMaxLifetime:    5 * time.Minute,
			ConnMaxIdleTime:    5 * time.Minute,
			Timeout:            30 * time.Second,
			ConfigurationTable: "filter_configurations",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Compiler.MaxDepth <= 0 {
		return &ConfigError{Field: "compiler.maxDepth", Message: "must be greater than 0"}
	}
	if c.Catalog.Dir == "" {
		return &ConfigError{Field: "catalog.dir", Message: "must not be empty"}
	}
	if c.Catalog.S3.Enabled && c.Catalog.S3.Bucket == "" {
		return &ConfigError{Field: "catalog.s3.bucket", Message: "required when the S3 source is enabled"}
	}
	if c.Database.MaxConnections <= 0 {
		return &ConfigError{Field: "database.maxConnections", Message: "must be greater than 0"}
	}
	if c.Database.ConfigurationTable == "" {
		return &ConfigError{Field: "database.configurationTable", Message: "must not be empty"}
	}
	return nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ConfigError) Error() string {
	return "config validation error for field '" + e.Field + "': " + e.Message
}
