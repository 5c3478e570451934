package cli

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/x-mcp/internal/config"
	"github.com/debemdeboas/x-mcp/internal/db"
	"github.com/debemdeboas/x-mcp/internal/logger"
	"github.com/debemdeboas/x-mcp/internal/repository"
	"github.com/debemdeboas/x-mcp/internal/xapi"
)

// loadConfig reads .env (if any) and the config file, then wires the
// package loggers.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	envErr := godotenv.Load()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, zerolog.Nop(), errors.Wrap(err, "load config")
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if envErr != nil && !os.IsNotExist(envErr) {
		log.Warn().Err(envErr).Msg("Error loading .env file")
	}

	config.SetLogger(logger.Component(log, "config"))
	db.SetLogger(logger.Component(log, "db"))
	repository.SetLogger(logger.Component(log, "repository"))
	xapi.SetLogger(logger.Component(log, "xapi"))
	return cfg, log, nil
}

func openStore(ctx context.Context, cfg *config.Config) (repository.DraftRepository, error) {
	return repository.Open(ctx, cfg.Drafts)
}

// openLedger opens the publish progress ledger. An empty ledger path keeps
// progress in memory for the life of the process.
func openLedger(cfg *config.Config) (repository.ProgressRepository, func() error, error) {
	if cfg.Publish.LedgerPath == "" {
		return repository.NewMemoryProgressRepository(), func() error { return nil }, nil
	}

	sqlite := db.NewSQLite(cfg.Publish.LedgerPath)
	if err := sqlite.InitDb(); err != nil {
		return nil, nil, errors.Wrapf(err, "open publish ledger %s", cfg.Publish.LedgerPath)
	}
	return repository.NewDbProgressRepository(sqlite), sqlite.Close, nil
}
