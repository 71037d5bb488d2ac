package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rgarner/sockrelay/internal/dispatch"
	"github.com/rgarner/sockrelay/internal/registry"
)

// Config holds reporter configuration.
type Config struct {
	Interval time.Duration // Sampling cadence (default: 60s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval: 60 * time.Second,
	}
}

// Reporter periodically logs a snapshot of relay activity.
type Reporter struct {
	cfg        Config
	reg        registry.Registry
	dispatcher *dispatch.Dispatcher
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Reporter.
func New(cfg Config, reg registry.Registry, dispatcher *dispatch.Dispatcher, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	return &Reporter{
		cfg:        cfg,
		reg:        reg,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Start begins the reporting loop.
func (r *Reporter) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go r.run()

	r.logger.Info("stats reporter started", "interval", r.cfg.Interval)
	return nil
}

// Stop gracefully shuts down the reporter.
func (r *Reporter) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("stats reporter stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the main reporting loop.
func (r *Reporter) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	last := r.dispatcher.Stats()
	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			last = r.report(last)
		}
	}
}

// report logs one sample and returns it as the baseline for the next delta.
func (r *Reporter) report(last dispatch.Stats) dispatch.Stats {
	stats := r.dispatcher.Stats()

	r.logger.Info("relay activity",
		"connections", r.reg.Stats().Connections,
		"received", stats.Received,
		"routed", stats.Routed,
		"parse_errors", stats.ParseErrors,
		"rate_limited", stats.RateLimited,
		"received_delta", stats.Received-last.Received,
		"routed_delta", stats.Routed-last.Routed,
	)

	return stats
}
