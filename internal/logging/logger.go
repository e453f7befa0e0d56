// Package logging configures the process-wide slog logger and hands out
// request-scoped loggers tagged with chi's request id.
package logging

import (
	"context"
	"io"
	"log/slog"

	"github.com/go-chi/chi/v5/middleware"
)

// Setup installs and returns a logger configured for the given environment.
//
// Development (dev): human-readable text output at DEBUG level.
// Staging (staging): JSON output at DEBUG level.
// Production (prod): JSON output at INFO level.
func Setup(env string, w io.Writer) *slog.Logger {
	var log *slog.Logger

	switch env {
	case "prod":
		log = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case "staging":
		log = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default: // "dev" and anything unrecognised
		log = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	slog.SetDefault(log)
	return log
}

// FromContext returns the default logger, enriched with request_id when
// ctx carries one from chi's RequestID middleware.
func FromContext(ctx context.Context) *slog.Logger {
	log := slog.Default()
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		log = log.With(slog.String("request_id", reqID))
	}
	return log
}
