package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/libinsight/ezingest/internal/models"
)

// Config holds all configuration for the ingestion pipeline
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Ingest   IngestConfig   `mapstructure:"ingest"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig holds PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`
}

// IngestConfig holds ingestion engine settings
type IngestConfig struct {
	// ChunkSize bounds how many lines are held in memory per batch.
	ChunkSize int `mapstructure:"chunk_size"`
	// Production gates every side effect; false means dry run.
	Production bool `mapstructure:"production"`
	// Sources is the path to the YAML source-list file.
	Sources string `mapstructure:"sources"`
}

// SyncConfig holds file synchronizer settings
type SyncConfig struct {
	SourceRoot  string `mapstructure:"source_root"`
	ArchiveRoot string `mapstructure:"archive_root"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ConnString builds the PostgreSQL connection URL from the settings.
func (p PostgresConfig) ConnString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode,
	)
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "ezingest")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.database", "library_logs")
	v.SetDefault("database.postgres.sslmode", "disable")

	v.SetDefault("ingest.chunk_size", 1000000)
	v.SetDefault("ingest.production", false)
	v.SetDefault("ingest.sources", "sources.yaml")

	v.SetDefault("sync.source_root", "")
	v.SetDefault("sync.archive_root", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Read from config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables override file config
	v.SetEnvPrefix("EZINGEST")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadSources reads the ordered source list from a YAML file. Each entry
// names a directory to scan, the log type, and the synchronizer pattern.
func LoadSources(path string) ([]models.SourceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	var sources []models.SourceConfig
	if err := yaml.Unmarshal(data, &sources); err != nil {
		return nil, fmt.Errorf("failed to parse sources file: %w", err)
	}

	for i, s := range sources {
		if s.LogDirectory == "" {
			return nil, fmt.Errorf("source %d: log_directory is required", i)
		}
		if s.LogType == "" {
			return nil, fmt.Errorf("source %d: log_type is required", i)
		}
	}

	return sources, nil
}
