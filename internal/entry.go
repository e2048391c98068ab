// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/pomodoro/internal/api"
	"github.com/starford/pomodoro/internal/mcpserver"
	"github.com/starford/pomodoro/internal/models"
	"github.com/starford/pomodoro/internal/sse"
	"github.com/starford/pomodoro/internal/timer"
	"github.com/starford/pomodoro/internal/tui"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// Run starts the HTTP host: the tick scheduler, the export watcher and the
// API server, until a shutdown signal arrives or ctx is cancelled.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(cfg, os.Stdout)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("exports_dir", cfg.Exports.Dir),
		slog.String("notify_mode", cfg.Notify.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker.
	broker := sse.NewBroker(cfg.Events.TickThrottle)
	defer broker.Close()

	c, err := openComponents(ctx, cfg, logger, broker)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c.close(closeCtx, logger)
	}()

	h := api.NewHandler(c.engine, c.tasks, c.notes, c.exportProvider(), c.exportIndex())
	apiRouter := api.NewRouter(h, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, _, err := c.store.Get(r.Context(), "health"); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Tick scheduler; tick events are throttled per type by the broker.
	g.Go(func() error {
		timer.Run(gCtx, c.engine, cfg.Timer.TickInterval, func(st models.TimerState) {
			if st.IsRunning {
				broker.PublishThrottled(sse.Event{Type: timer.EventTick, Data: st})
			}
		})
		return nil
	})

	// Export directory watcher with SSE callback.
	g.Go(func() error {
		c.watchExports(gCtx, logger, broker.Publish)
		return nil
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
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// Close the broker first so open SSE streams return.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group context so the scheduler and watcher stop
// once the server has been shut down.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools on stdin/stdout. The timer is driven by the
// same tick scheduler as the HTTP host. Logs go to stderr since stdout
// carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := newLogger(cfg, os.Stderr)

	c, err := openComponents(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer c.close(context.Background(), logger)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go timer.Run(runCtx, c.engine, cfg.Timer.TickInterval, nil)
	go c.watchExports(runCtx, logger, nil)

	logger.Info("MCP server starting on stdio")
	if err := mcpserver.New(c.engine, c.tasks, c.notes, c.exportIndex()).ServeStdio(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

// RunTUI runs the terminal host. Logs are appended to the configured TUI log
// file, or discarded when none is set.
func RunTUI(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	var logOut io.Writer = io.Discard
	if cfg.TUI.LogFile != "" {
		f, err := os.OpenFile(cfg.TUI.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open tui log: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := newLogger(cfg, logOut)

	feed := tui.NewFeed()
	c, err := openComponents(ctx, cfg, logger, feed)
	if err != nil {
		return err
	}
	defer c.close(context.Background(), logger)

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go c.watchExports(watchCtx, logger, feed.Publish)

	if err := tui.Run(ctx, c.engine, c.tasks, c.notes, feed, cfg.Timer.TickInterval); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
