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
	"golang.org/x/sync/errgroup"

	"github.com/starford/tikibase/internal/api"
	"github.com/starford/tikibase/internal/mcpserver"
	"github.com/starford/tikibase/internal/sse"
	"github.com/starford/tikibase/internal/watch"
)

// Watch checks the tikibase, then checks it again after every change until
// ctx is cancelled or the process receives SIGINT or SIGTERM.
func Watch(ctx context.Context, opts ...Option) error {
	app, err := newApp(opts)
	if err != nil {
		return err
	}
	eng, err := app.engine()
	if err != nil {
		return err
	}
	store, err := app.store()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rescan := func() error {
		report := eng.Scan()
		app.logger.Info("watch: checked", slog.Int("issues", len(report.Issues)))
		return printIssues(app.stdout, app.outputFormat(), report)
	}
	if err := rescan(); err != nil {
		return err
	}

	return watch.Watch(ctx, store.Root(), app.config.Watch.Debounce, app.logger, func(_ context.Context, changes []watch.Change) {
		app.logger.Debug("watch: rescanning", slog.Int("changes", len(changes)))
		if err := rescan(); err != nil {
			app.logger.Error("watch: print failed", slog.String("error", err.Error()))
		}
	})
}

// Serve runs the HTTP report API with live updates until ctx is cancelled
// or the process receives SIGINT or SIGTERM.
func Serve(ctx context.Context, opts ...Option) error {
	app, err := newApp(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("dir", app.dir),
		slog.String("index_path", cfg.Index.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, err := app.store()
	if err != nil {
		return err
	}
	svc, closeDB, err := app.openService(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	apiRouter := api.NewRouter(svc, store, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
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

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Rescan on file changes and push the new summary to SSE clients.
	g.Go(func() error {
		return watch.Watch(gCtx, store.Root(), cfg.Watch.Debounce, logger, func(ctx context.Context, changes []watch.Change) {
			for _, c := range changes {
				broker.PublishChange(c.Kind, c.Path)
			}
			summary, err := svc.Refresh(ctx)
			if err != nil {
				logger.Warn("serve: refresh failed", slog.String("error", err.Error()))
			}
			broker.PublishReport(summary)
		})
	})

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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		// Stop the watcher too when the shutdown came from a signal.
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the errgroup once the HTTP server has shut down.
var errShutdown = errors.New("shutdown")

// MCP serves the tikibase tools over stdio until stdin closes.
func MCP(ctx context.Context, opts ...Option) error {
	app, err := newApp(opts)
	if err != nil {
		return err
	}
	svc, closeDB, err := app.openService(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	app.logger.Info("mcp: serving on stdio")
	if err := mcpserver.New(svc, app.version).ServeStdio(); err != nil {
		return fmt.Errorf("mcp: %w", err)
	}
	return nil
}
