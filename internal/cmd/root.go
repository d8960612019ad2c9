package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/libinsight/ezingest/internal/config"
	"github.com/libinsight/ezingest/internal/logging"
	"github.com/libinsight/ezingest/internal/models"
	"github.com/libinsight/ezingest/internal/parser"
	"github.com/libinsight/ezingest/internal/repository"
)

var (
	cfgFile     string
	sourcesFile string
	production  bool

	cfg *config.Config
	log *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ezingest",
	Short: "Proxy log ingestion pipeline",
	Long: `ezingest synchronizes proxy access logs into a staging archive, parses
them into structured records, and loads them into PostgreSQL while keeping a
per-file processing ledger that makes every run idempotent.

All side effects (file copies, database writes) are gated behind --production;
without it every command is a dry run.`,
	Version:      "0.1.0",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&sourcesFile, "sources", "", "source list file (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&production, "production", false, "execute side effects (default: dry run)")
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if production {
		cfg.Ingest.Production = true
	}
	if sourcesFile != "" {
		cfg.Ingest.Sources = sourcesFile
	}

	log = logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	logging.SetDefault(log)
}

// signalContext returns a context cancelled by SIGINT/SIGTERM, so an
// operator interrupt rolls back the in-flight file instead of killing the
// process mid-write.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// openRepository connects to PostgreSQL using the configured settings.
func openRepository(ctx context.Context) (repository.Repository, error) {
	repo, err := repository.NewPostgresRepository(ctx, cfg.Database.Postgres.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	return repo, nil
}

// runMigrations brings the schema up to date before any sink write.
func runMigrations() error {
	m, err := migrate.New("file://migrations", cfg.Database.Postgres.ConnString())
	if err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// buildRegistry registers one ezproxy parser per configured log type.
func buildRegistry(sources []models.SourceConfig) *parser.Registry {
	seen := map[string]struct{}{}
	var parsers []parser.Parser
	for _, src := range sources {
		if _, ok := seen[src.LogType]; ok {
			continue
		}
		seen[src.LogType] = struct{}{}
		parsers = append(parsers, parser.NewEZProxyParser(src.LogType))
	}
	return parser.NewRegistry(parsers...)
}
