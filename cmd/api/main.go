package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aonbas.x341.dev/internal/app"
	"aonbas.x341.dev/internal/appconf"
	"aonbas.x341.dev/internal/logging"
	"aonbas.x341.dev/internal/restapi"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := appconf.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level: %v\n", err)
		os.Exit(2)
	}
	logger := logging.NewStructuredLogger(logging.NewOutput(cfg.LogFile), level)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logging.LogError(logger, "server stopped", err)
		os.Exit(1)
	}
}

// newServer wires the application and returns the HTTP server for it. The
// returned RestAPI must be shut down once the server stops.
func newServer(cfg appconf.Config, logger *slog.Logger) (*http.Server, *restapi.RestAPI) {
	application := app.New(cfg, logger)
	if !application.Metro.Configured() {
		logger.Warn("TMB credentials missing, metro endpoints will answer 503")
	}

	api := restapi.NewRestAPI(application)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.Handler(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.HTTPTimeout + 15*time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
	return srv, api
}

func run(cfg appconf.Config, logger *slog.Logger) error {
	srv, api := newServer(cfg, logger)
	defer api.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			slog.String("addr", srv.Addr),
			slog.String("env", cfg.Env.String()),
			slog.String("tram_base_url", cfg.TramBaseURL))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
