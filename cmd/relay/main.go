package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/framedeck/collab/internal/relay/config"
	"github.com/framedeck/collab/internal/relay/handlers"
	"github.com/framedeck/collab/internal/relay/hub"
	"github.com/framedeck/collab/internal/relay/middleware"
	"github.com/framedeck/collab/internal/relay/storage/sqlite"
	"github.com/framedeck/collab/internal/relay/token"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	// .env удобен при локальной разработке; в production его нет
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to TOML config file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(ctx, cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close storage", "error", err)
		}
	}()

	h := hub.NewHub(store, logger)

	router := newRouter(cfg, logger, h, store)

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	errC := make(chan error, 1)
	go func() {
		logger.Info("relay listening",
			"addr", cfg.Server.Addr,
			"version", Version,
			"auth_enabled", cfg.Auth.Secret != "",
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
		}
	}()

	select {
	case err := <-errC:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	return nil
}

func newRouter(cfg *config.Config, logger *slog.Logger, h *hub.Hub, store *sqlite.Storage) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingWithSkip(logger, []string{"/api/v1/health"}))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimitMiddleware(cfg.RateLimit.Rate, cfg.RateLimit.Window, logger))
	}

	healthHandler := handlers.NewHealthHandler(logger, Version)
	router.HandleFunc("/api/v1/health", healthHandler.Health).Methods(http.MethodGet)

	projects := router.PathPrefix("/api/v1/projects").Subrouter()
	if cfg.Auth.Secret != "" {
		projects.Use(middleware.AuthMiddleware(logger, token.Config{
			Secret: []byte(cfg.Auth.Secret),
			TTL:    cfg.Auth.TokenTTL,
		}))
	}

	wsHandler := handlers.NewWSHandler(logger, h)
	projects.HandleFunc("/{projectID}/ws", wsHandler.ServeWS).Methods(http.MethodGet)

	projectHandler := handlers.NewProjectHandler(logger, store)
	projects.HandleFunc("/{projectID}/changes", projectHandler.Changes).Methods(http.MethodGet)

	return router
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func printVersion() {
	fmt.Printf("FrameDeck Relay\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
