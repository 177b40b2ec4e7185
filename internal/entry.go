// Package internal provides the main application initialization and runtime logic.
package internal

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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/starford/dagaz/internal/api"
	"github.com/starford/dagaz/internal/calendar"
	"github.com/starford/dagaz/internal/eventservice"
	"github.com/starford/dagaz/internal/history"
	"github.com/starford/dagaz/internal/mcpserver"
	"github.com/starford/dagaz/internal/routines"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("calendar_id", cfg.Calendar.CalendarID),
		slog.String("timezone", cfg.Calendar.Timezone),
		slog.String("routines_source", cfg.Routines.SourceURL),
		slog.Int("lookahead_days", cfg.Routines.LookaheadDays),
		slog.String("log_level", cfg.App.LogLevel.String()))

	loc, err := time.LoadLocation(cfg.Calendar.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", cfg.Calendar.Timezone, err)
	}

	// Build an explicitly threaded credential; no package-level token state.
	ts, err := calendar.TokenSourceFromFiles(ctx, cfg.Calendar.CredentialsPath, cfg.Calendar.TokenPath)
	if err != nil {
		return fmt.Errorf("init credentials: %w", err)
	}
	store, err := calendar.NewGoogleStore(ctx, ts, cfg.Calendar.Timezone)
	if err != nil {
		return fmt.Errorf("init calendar store: %w", err)
	}

	engine := routines.NewEngine(store, routines.NewFetcher(), routines.Options{
		SourceURL:     cfg.Routines.SourceURL,
		CalendarID:    cfg.Calendar.CalendarID,
		LookaheadDays: cfg.Routines.LookaheadDays,
		Location:      loc,
	})

	var journal *history.DB
	if cfg.Routines.HistoryPath != "" {
		journal, err = history.Open(cfg.Routines.HistoryPath)
		if err != nil {
			return fmt.Errorf("init run history: %w", err)
		}
		defer journal.Close()
	}

	svc := eventservice.New(store, engine, journal, cfg.Calendar.CalendarID)

	// Single-shot mode: one sync run and exit.
	if app.once {
		res, err := svc.RunSync(ctx, "once")
		if err != nil {
			return fmt.Errorf("sync run: %w", err)
		}
		logger.Info("Sync run finished", slog.Int("created", res.Created))
		return nil
	}

	// MCP mode: serve tools on stdio and block.
	if app.mcpMode {
		logger.Info("Starting MCP server on stdio")
		return mcpserver.New(svc).ServeStdio()
	}

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token))

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Cron-driven recurring sync runs.
	var c *cron.Cron
	if cfg.Routines.Schedule != "" {
		c = cron.New()
		_, err := c.AddFunc(cfg.Routines.Schedule, func() {
			if _, err := svc.RunSync(gCtx, "cron"); err != nil {
				logger.Error("scheduled sync failed", slog.String("error", err.Error()))
			}
		})
		if err != nil {
			return fmt.Errorf("invalid sync schedule %q: %w", cfg.Routines.Schedule, err)
		}
		c.Start()
		logger.Info("Sync scheduler started", slog.String("schedule", cfg.Routines.Schedule))
	}

	// Watch a local routines document for changes.
	g.Go(func() error {
		return routines.Watch(gCtx, cfg.Routines.SourceURL, logger, func() {
			if _, err := svc.RunSync(gCtx, "watch"); err != nil {
				logger.Error("watch-triggered sync failed", slog.String("error", err.Error()))
			}
		})
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		if c != nil {
			<-c.Stop().Done()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
