package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rgarner/sockrelay/internal/config"
	"github.com/rgarner/sockrelay/internal/connection"
	"github.com/rgarner/sockrelay/internal/dispatch"
	"github.com/rgarner/sockrelay/internal/monitor"
	"github.com/rgarner/sockrelay/internal/registry"
	"github.com/rgarner/sockrelay/internal/transport"
	"github.com/rgarner/sockrelay/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to config file (built-in defaults when empty)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)

	logger.Info("starting relayd",
		"version", version.Version,
		"commit", version.Commit,
		"addr", cfg.Server.Addr,
	)

	// Handle shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Core components
	reg := registry.New(registry.Config{
		StrictInvariants: cfg.Hub.StrictInvariants,
	}, logger)

	dispatcher := dispatch.New(dispatch.Config{
		MaxPayloadBytes: int(cfg.Hub.MaxPayloadBytes),
		RateLimitBurst:  cfg.RateLimit.Burst,
		RateLimitRefill: cfg.RateLimit.RefillInterval,
	}, reg, logger)

	reporter := monitor.New(monitor.DefaultConfig(), reg, dispatcher, logger)

	wsHandler := transport.NewHandler(transport.Config{
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		MaxPayloadBytes: cfg.Hub.MaxPayloadBytes,
		ReadTimeout:     cfg.Hub.ReadTimeout,
		WriteTimeout:    cfg.Hub.WriteTimeout,
		Conn: connection.Config{
			QueueSize:    cfg.Hub.QueueSize,
			CloseTimeout: cfg.Hub.CloseTimeout,
			PingInterval: cfg.Hub.PingInterval,
		},
	}, reg, dispatcher, logger)

	mux := http.NewServeMux()
	mux.Handle("/ws", wsHandler)
	mux.Handle("/healthz", healthHandler(reg, dispatcher))
	mux.Handle("/version", versionHandler())

	server := &http.Server{
		Addr:        cfg.Server.Addr,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	if err := reporter.Start(ctx); err != nil {
		logger.Error("failed to start stats reporter", "error", err)
		os.Exit(1)
	}

	g.Go(func() error {
		logger.Info("listening", "addr", cfg.Server.Addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http server shutdown", "error", err)
		}
		if err := reporter.Stop(shutdownCtx); err != nil {
			logger.Warn("stats reporter shutdown", "error", err)
		}
		return reg.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("relayd exited with error", "error", err)
		os.Exit(1)
	}

	logger.Info("relayd stopped")
}

// loadConfig loads the file at path, or built-in defaults when path is empty.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadAndValidate(path)
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// healthHandler reports {up/down, connection count}; nothing else crosses
// from the core to the HTTP layer.
func healthHandler(reg registry.Registry, dispatcher *dispatch.Dispatcher) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stats := reg.Stats()

		status := "up"
		if !stats.Up {
			status = "down"
		}

		dstats := dispatcher.Stats()
		health := struct {
			Status      string `json:"status"`
			Connections int    `json:"connections"`
			Received    int64  `json:"messages_received"`
			Routed      int64  `json:"messages_routed"`
			ParseErrors int64  `json:"parse_errors"`
		}{
			Status:      status,
			Connections: stats.Connections,
			Received:    dstats.Received,
			Routed:      dstats.Routed,
			ParseErrors: dstats.ParseErrors,
		}

		w.Header().Set("Content-Type", "application/json")
		if !stats.Up {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})
}

func versionHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"version":    version.Version,
			"commit":     version.Commit,
			"build_time": version.BuildTime,
		})
	})
}
