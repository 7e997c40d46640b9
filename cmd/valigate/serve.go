package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/artpar/valigate/adapters/clock"
	valhttp "github.com/artpar/valigate/adapters/http"
	"github.com/artpar/valigate/adapters/metrics"
	"github.com/artpar/valigate/adapters/sqlite"
	"github.com/artpar/valigate/app"
	"github.com/artpar/valigate/config"
	"github.com/artpar/valigate/core/validate"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the validation HTTP service",
	Long: `Start the HTTP service backed by the configured model store.

Endpoints:
  PUT  /v1/models/{name}            Store a model version
  GET  /v1/models/{name}            Fetch a model (latest or ?version=N)
  GET  /v1/models/{name}/versions   List stored versions
  POST /v1/models/{name}/validate   Validate a data document
  GET  /metrics                     Prometheus metrics (if enabled)`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Logging)

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.New(nil)
	}

	engine := validate.New(engineOptions(cfg.Validation))
	store := sqlite.NewModelStore(db, clock.Real{})
	models := app.NewModelService(store, engine, logger, collector)
	handler := valhttp.NewHandler(models, logger, collector)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Str("database", cfg.Database.Path).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

func engineOptions(cfg config.ValidationConfig) validate.Options {
	opts := validate.Options{MaxDepth: cfg.MaxDepth}
	if cfg.ReportUnknownFields {
		opts.UnknownFields = validate.UnknownReport
	}
	return opts
}
