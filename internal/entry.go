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
	"golang.org/x/sync/errgroup"

	"github.com/docflowapp/docflow/internal/api"
	"github.com/docflowapp/docflow/internal/blobstore"
	"github.com/docflowapp/docflow/internal/cache"
	"github.com/docflowapp/docflow/internal/docservice"
	"github.com/docflowapp/docflow/internal/docstore"
	"github.com/docflowapp/docflow/internal/helpdesk"
	"github.com/docflowapp/docflow/internal/identity"
	"github.com/docflowapp/docflow/internal/mcpserver"
	"github.com/docflowapp/docflow/internal/models"
	"github.com/docflowapp/docflow/internal/session"
	"github.com/docflowapp/docflow/internal/sse"
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

	// Initialize structured JSON logger unless one was injected.
	logger := app.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_path", cfg.Store.Path),
		slog.String("blobs_path", cfg.Blobs.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure blob directory exists.
	if err := os.MkdirAll(cfg.Blobs.Path, 0o755); err != nil {
		return fmt.Errorf("create blobs dir: %w", err)
	}

	// Initialize the document database.
	db, err := docstore.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("init docstore: %w", err)
	}
	defer db.Close()

	// Initialize blob storage.
	blobs, err := blobstore.NewFS(cfg.Blobs.Path, cfg.Blobs.PublicBase)
	if err != nil {
		return fmt.Errorf("init blobstore: %w", err)
	}

	// Folder access sessions and the data cache.
	sessions := session.NewManager(cfg.Access.Window(), cfg.Access.SweepInterval())
	defer sessions.Close()

	dataCache := cache.NewStore(db, sessions, logger)

	// Identity provider; identity changes reset the cache and all grants.
	ids := identity.NewProvider(db, logger)
	ids.OnChange(func(u *models.User) {
		if u == nil {
			dataCache.SetIdentity("")
			return
		}
		dataCache.SetIdentity(u.ID)
	})

	// Domain services.
	docs := docservice.NewService(db, blobs, dataCache, sessions, docservice.Policy{
		MinFolderPasswordLen: cfg.Access.MinPasswordLen,
		FolderCreateTimeout:  cfg.Access.CreateTimeout(),
	}, logger)
	desk := helpdesk.NewService(db, cfg.Admin.Email)

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// Build API handler and router.
	h := api.NewHandler(ids, docs, desk, blobs, sessions, broker, cfg.Blobs.MaxUploadBytes, cfg.Access.MaxAttempts)
	apiRouter := api.NewRouter(h, desk.IsAdmin, broker)

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
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the blob root for files removed behind the app's back.
	g.Go(func() error {
		if err := blobstore.Watch(gCtx, cfg.Blobs.Path, logger, func(path string) {
			broker.Publish(sse.Event{Type: "blob.missing", Data: map[string]string{"path": path}})
		}); err != nil {
			logger.Warn("blob watcher failed", slog.String("error", err.Error()))
		}
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

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

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

// RunMCP resolves the account by email and serves DocFlow tools over stdio.
func RunMCP(cfg *Config, email string) error {
	db, err := docstore.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("init docstore: %w", err)
	}
	defer db.Close()

	u, _, err := db.GetUserByEmail(email)
	if err != nil {
		return fmt.Errorf("resolve account %q: %w", email, err)
	}

	return mcpserver.New(db, u.ID).ServeStdio()
}
