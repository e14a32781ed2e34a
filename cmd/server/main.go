/*
main.go - Application entry point

PURPOSE:
  Command tree for the production engine. The default workflow is
  `server serve`; the other commands operate on the same store for
  maintenance and reporting.

COMMANDS:
  serve            Start the HTTP API (graceful shutdown on SIGINT/SIGTERM)
  migrate          Create or upgrade the store schema and exit
  import-program   Upsert the master program from a JSON file
  summary          Print global production statistics
  reconcile        Print dossier progress against the master program

GLOBAL FLAGS:
  --config     Config file (yaml, toml or json)
  --driver     Store driver: sqlite, postgres, badger, memory
  --db         SQLite file or badger directory
  --dsn        PostgreSQL DSN
  --log-level  debug, info, warn, error

  Flags override PROTRACK_* environment variables, which override the
  config file. See config/config.go.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the store
  4. Exit

EXAMPLES:
  # Serve from a file database
  ./server serve --db ./data/production.db

  # Serve from postgres
  PROTRACK_STORE_DRIVER=postgres PROTRACK_STORE_DSN=postgres://... ./server serve

  # Load the export program, then check progress
  ./server import-program program.json
  ./server reconcile --search abidjan

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Configuration keys
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/protrack/production-engine/api"
	"github.com/protrack/production-engine/config"
	"github.com/protrack/production-engine/logging"
	"github.com/protrack/production-engine/metrics"
	"github.com/protrack/production-engine/production"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app is everything a command needs, built once per invocation.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   backend
	service *production.Service
	metrics *metrics.Metrics
	close   func() error
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "server",
		Short:        "Production tonnage engine for bulk-bag and 50kg shifts",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (yaml, toml or json)")
	flags.String("driver", config.DriverSQLite, "store driver: sqlite, postgres, badger, memory")
	flags.String("db", "production.db", "SQLite file or badger directory")
	flags.String("dsn", "", "PostgreSQL DSN")
	flags.String("log-level", "info", "log level")

	setup := func(cmd *cobra.Command) (*app, error) {
		cfg, err := config.LoadWithFlags(configPath, cmd.Flags())
		if err != nil {
			return nil, err
		}
		return newApp(cfg)
	}

	root.AddCommand(
		newServeCmd(setup),
		newMigrateCmd(setup),
		newImportProgramCmd(setup),
		newSummaryCmd(setup),
		newReconcileCmd(setup),
	)
	return root
}

func newApp(cfg *config.Config) (*app, error) {
	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		logger = logging.NewDefaultLogger()
		logger.Warn("invalid log configuration, using defaults", zap.Error(err))
	}

	store, closeStore, err := openStore(cfg.Store, logger)
	if err != nil {
		logger.Sync()
		return nil, err
	}

	m := metrics.New()
	svc := production.NewService(store, logger)
	svc.Validator.RequireShipping = cfg.Engine.RequireShipping
	svc.Metrics = m

	return &app{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		service: svc,
		metrics: m,
		close: func() error {
			err := closeStore()
			logger.Sync()
			return err
		},
	}, nil
}

// =============================================================================
// SERVE
// =============================================================================

func newServeCmd(setup setupFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().Int("port", 8080, "HTTP server port")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	handler := api.NewHandler(a.service, a.logger)
	handler.TrendSize = a.cfg.Engine.TrendSize

	router := api.NewRouter(handler, api.RouterOptions{
		AllowedOrigins: a.cfg.Server.AllowedOrigins,
		Metrics:        a.metrics.Handler(),
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server starting",
			zap.Int("port", a.cfg.Server.Port),
			zap.String("driver", a.cfg.Store.Driver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	a.logger.Info("server stopped")
	return nil
}
