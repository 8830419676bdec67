package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for gridbase-engine.
// Configuration can come from a YAML file (config.yaml) or environment
// variables. Environment variables always override YAML values. Secrets
// (the database password) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8090"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:""`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// MigrationsPath is the directory containing SQL schema migrations.
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`

	// Type-change migration engine tuning.
	TypeMigration TypeMigrationConfig `yaml:"type_migration"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"gridbase"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"gridbase_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	MinConnections int32  `yaml:"min_connections" env:"PGMIN_CONNECTIONS" env-default:"2"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// TypeMigrationConfig tunes the column type migration engine. These are
// policy knobs, not correctness contracts: the engine stays all-or-nothing
// regardless of how they are set.
type TypeMigrationConfig struct {
	// BatchSize is how many cells are loaded and rewritten per batch,
	// bounding peak memory for unbounded tables.
	BatchSize int `yaml:"batch_size" env:"TYPE_MIGRATION_BATCH_SIZE" env-default:"100"`
	// TxAcquireWaitSeconds bounds the wait for a transaction to begin.
	TxAcquireWaitSeconds int `yaml:"tx_acquire_wait_seconds" env:"TYPE_MIGRATION_TX_ACQUIRE_WAIT_SECONDS" env-default:"30"`
	// TxTimeoutSeconds bounds total transaction execution. A timeout rolls
	// the whole migration back; it never truncates it.
	TxTimeoutSeconds int `yaml:"tx_timeout_seconds" env:"TYPE_MIGRATION_TX_TIMEOUT_SECONDS" env-default:"60"`
	// ThroughputCellsPerSecond feeds the human-readable duration estimate.
	// Keep it consistent with BatchSize when retuning either.
	ThroughputCellsPerSecond int `yaml:"throughput_cells_per_second" env:"TYPE_MIGRATION_THROUGHPUT" env-default:"100"`
	// AuditLogLimit caps how many per-cell log entries are serialized into
	// the persisted audit record.
	AuditLogLimit int `yaml:"audit_log_limit" env:"TYPE_MIGRATION_AUDIT_LOG_LIMIT" env-default:"100"`
}

// AcquireWait returns the transaction acquisition bound as a duration.
func (c *TypeMigrationConfig) AcquireWait() time.Duration {
	return time.Duration(c.TxAcquireWaitSeconds) * time.Second
}

// TxTimeout returns the transaction execution bound as a duration.
func (c *TypeMigrationConfig) TxTimeout() time.Duration {
	return time.Duration(c.TxTimeoutSeconds) * time.Second
}

// Load reads configuration from config.yaml with environment variable
// overrides. When the file does not exist, configuration comes from
// environment variables and defaults alone. The version parameter is
// injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	return LoadFrom("config.yaml", version)
}

// LoadFrom is Load with an explicit config file path.
func LoadFrom(path, version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment config: %w", err)
		}
		return cfg, nil
	}

	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return cfg, nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
