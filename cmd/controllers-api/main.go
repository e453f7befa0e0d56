// main is the entry point of the Controllers API.
//
// STARTUP SEQUENCE:
//  1. Load configuration from a YAML file (and an optional .env)
//  2. Initialise the logger
//  3. Open the SQLite database and prepare the upload directory
//  4. Register all HTTP routes
//  5. Start the HTTP server in a separate goroutine
//  6. Block until an OS signal (Ctrl+C / kill) arrives
//  7. Gracefully shut down: finish in-flight requests, then exit
//
// RUNNING THE SERVER:
//
//	go run ./cmd/controllers-api --config=config/local.yaml
//
// or:
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/controllers-api
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aanand-mishra/controllers-api/internal/config"
	"github.com/aanand-mishra/controllers-api/internal/http/router"
	"github.com/aanand-mishra/controllers-api/internal/logging"
	"github.com/aanand-mishra/controllers-api/internal/storage/sqlite"
)

func main() {
	cfg := config.MustLoad()

	log := logging.Setup(cfg.Env, os.Stdout)
	log.Info("starting controllers-api",
		slog.String("env", cfg.Env),
		slog.String("version", "1.0.0"),
	)

	storage, err := sqlite.New(cfg)
	if err != nil {
		log.Error("failed to initialise storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer storage.Close()

	log.Info("storage initialised", slog.String("path", cfg.StoragePath))

	if err := os.MkdirAll(cfg.Upload.Dir, 0o755); err != nil {
		log.Error("failed to create upload directory",
			slog.String("dir", cfg.Upload.Dir),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	server := &http.Server{
		Addr:    cfg.HTTPServer.Addr,
		Handler: router.New(cfg, storage),

		// Imports run on the request goroutine, so the write timeout has
		// to cover a whole spreadsheet.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server started",
			slog.String("address", cfg.HTTPServer.Addr),
			slog.String("upload_dir", cfg.Upload.Dir),
		)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server encountered an error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info("shutdown signal received, stopping server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server gracefully", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}
