package cli

import (
	"context"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/debemdeboas/x-mcp/internal/logger"
	"github.com/debemdeboas/x-mcp/internal/media"
	"github.com/debemdeboas/x-mcp/internal/metrics"
	"github.com/debemdeboas/x-mcp/internal/publish"
	"github.com/debemdeboas/x-mcp/internal/tools"
	"github.com/debemdeboas/x-mcp/internal/xapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the drafting tools over MCP stdio",
	RunE:  serveAction,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serveAction(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	creds, err := cfg.X.Credentials()
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return errors.Wrap(err, "open draft store")
	}

	progress, closeLedger, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeLedger(); err != nil {
			log.Warn().Err(err).Msg("Failed to close publish ledger")
		}
	}()

	m := metrics.New()
	if cfg.Metrics.Addr != "" {
		go func() {
			if err := m.Serve(ctx, cfg.Metrics.Addr, logger.Component(log, "metrics")); err != nil {
				log.Error().Err(err).Msg("Metrics server stopped")
			}
		}()
	}

	client := xapi.New(cfg.X, creds)
	publisher := publish.New(store, progress, client,
		publish.WithInterval(cfg.Publish.Interval.Duration),
		publish.WithMetrics(m),
		publish.WithLogger(logger.Component(log, "publish")),
	)
	uploader := media.NewUploader(client, m, logger.Component(log, "media"))
	handlers := tools.NewHandlers(store, publisher, uploader, m, logger.Component(log, "tools"))

	stdio := server.NewStdioServer(tools.NewServer(cfg.Server, handlers))
	stdio.SetErrorLogger(stdlog.New(logger.Component(log, "mcp"), "", 0))

	log.Info().
		Str("name", cfg.Server.Name).
		Str("version", cfg.Server.Version).
		Str("backend", cfg.Drafts.Backend).
		Msg("Serving MCP over stdio")

	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return errors.Wrap(err, "serve stdio")
	}
	log.Info().Msg("Server stopped")
	return nil
}
