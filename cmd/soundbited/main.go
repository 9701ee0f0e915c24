// Command soundbited serves the soundbite JSON API.
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
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/hypergopher/soundbite"
	"github.com/hypergopher/soundbite/bboltstore"
	"github.com/hypergopher/soundbite/httpapi"
	"github.com/hypergopher/soundbite/sqlitestore"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to TOML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := soundbite.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(cfg.LogLevel)

	service, closeStore, err := buildService(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	api := httpapi.New(service, cfg.JWTSecret, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Mount("/", api.Router())

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.Addr, "store", cfg.Store)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down cleanly: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// buildService wires the configured store backend into the service and
// returns a close function for the backend.
func buildService(cfg soundbite.Config, logger *slog.Logger) (*soundbite.Soundbite, func(), error) {
	switch cfg.Store {
	case soundbite.StoreBBolt:
		store := bboltstore.New(cfg.DataDir, logger)
		if err := store.Init(); err != nil {
			return nil, nil, fmt.Errorf("failed to init bbolt store: %w", err)
		}
		service := soundbite.New(store.Posts(), store.Users(), store.Comments(), logger)
		return service, closeQuietly(store.Close, logger), nil

	case soundbite.StoreSQLite:
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create data dir: %w", err)
		}
		store, err := sqlitestore.Open(filepath.Join(cfg.DataDir, "soundbite.sqlite"), logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		if err := store.Init(); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("failed to init sqlite store: %w", err)
		}
		service := soundbite.New(store.Posts(), store.Users(), store.Comments(), logger)
		return service, closeQuietly(store.Close, logger), nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store)
	}
}

func closeQuietly(close func() error, logger *slog.Logger) func() {
	return func() {
		if err := close(); err != nil {
			logger.Error("failed to close store", "error", err)
		}
	}
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
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
