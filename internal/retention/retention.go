// Package retention deletes journal entries once they age out of the
// retention window. A Sweeper runs as one background goroutine beside the
// HTTP server and never blocks foreground requests.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Badar25/Journal-backend/internal/audit"
	"github.com/Badar25/Journal-backend/internal/logging"
	"github.com/Badar25/Journal-backend/internal/result"
)

const (
	// DefaultMaxAge is how long an entry is kept.
	DefaultMaxAge = 8 * 24 * time.Hour

	// DefaultInterval is the pause between successful sweeps.
	DefaultInterval = 24 * time.Hour

	// DefaultCooldown is the pause before retrying a failed sweep.
	DefaultCooldown = time.Hour
)

// Deleter is satisfied by *store.EntryStore.
type Deleter interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) result.Result[int]
}

// Config tunes a Sweeper. Zero values take the defaults.
type Config struct {
	// MaxAge is the retention window.
	MaxAge time.Duration

	// Interval separates successful sweeps.
	Interval time.Duration

	// Cooldown separates a failed sweep from its retry.
	Cooldown time.Duration

	// Now supplies the reference time for the cutoff. Nil means time.Now.
	Now func() time.Time

	// Registerer receives the sweep metrics. Nil registers into a private
	// registry.
	Registerer prometheus.Registerer
}

// Sweeper periodically deletes expired entries.
type Sweeper struct {
	// store performs the delete-by-filter pass.
	store Deleter

	// cfg holds resolved settings.
	cfg Config

	// after waits between passes. Replaced in tests.
	after func(time.Duration) <-chan time.Time

	// sweeps counts passes by outcome.
	sweeps *prometheus.CounterVec

	// deleted counts removed entries.
	deleted prometheus.Counter
}

// New constructs a Sweeper over store.
func New(store Deleter, cfg Config) *Sweeper {
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultMaxAge
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	reg := cfg.Registerer
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &Sweeper{
		store: store,
		cfg:   cfg,
		after: time.After,
		sweeps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "journal",
			Subsystem: "retention",
			Name:      "sweeps_total",
			Help:      "Retention sweeps completed, partitioned by outcome.",
		}, []string{"outcome"}),
		deleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "journal",
			Subsystem: "retention",
			Name:      "deleted_total",
			Help:      "Journal entries deleted by retention sweeps.",
		}),
	}
}

// SweepOnce deletes every entry created before now minus MaxAge and
// reports how many were removed.
func (s *Sweeper) SweepOnce(ctx context.Context) result.Result[int] {
	log := logging.FromContext(ctx)
	cutoff := s.cfg.Now().Add(-s.cfg.MaxAge)

	log.Info("retention: sweep started", slog.Time("cutoff", cutoff))
	r := s.store.DeleteOlderThan(ctx, cutoff)
	if !r.IsOk() {
		s.sweeps.WithLabelValues("error").Inc()
		log.Error("retention: sweep failed",
			slog.String("kind", string(r.Kind())),
			slog.Any("error", r.Err()),
		)
		return r
	}

	s.sweeps.WithLabelValues("ok").Inc()
	s.deleted.Add(float64(r.Value()))
	log.Info("retention: sweep completed", slog.Int("deleted", r.Value()))
	if r.Value() > 0 {
		audit.LogAction(ctx, log, audit.ActionRetentionSweep, "",
			slog.Time("cutoff", cutoff),
			slog.Int("deleted", r.Value()),
		)
	}
	return r
}

// Run sweeps immediately, then every Interval, retrying after Cooldown when
// a pass fails. It returns when ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	log := logging.FromContext(ctx)
	log.Info("retention: sweeper started",
		slog.Duration("max_age", s.cfg.MaxAge),
		slog.Duration("interval", s.cfg.Interval),
	)
	for {
		wait := s.cfg.Interval
		if r := s.SweepOnce(ctx); !r.IsOk() {
			wait = s.cfg.Cooldown
		}
		select {
		case <-ctx.Done():
			log.Info("retention: sweeper stopped")
			return
		case <-s.after(wait):
		}
	}
}

// Enabled reads RETENTION_ENABLED. Anything but "false" or "0" enables the
// sweeper.
func Enabled() bool {
	v := strings.TrimSpace(os.Getenv("RETENTION_ENABLED"))
	return v != "false" && v != "0"
}

// ConfigFromEnv reads RETENTION_MAX_AGE, RETENTION_INTERVAL and
// RETENTION_COOLDOWN as Go durations. Unset keys keep the defaults.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	for _, f := range []struct {
		key string
		dst *time.Duration
	}{
		{"RETENTION_MAX_AGE", &cfg.MaxAge},
		{"RETENTION_INTERVAL", &cfg.Interval},
		{"RETENTION_COOLDOWN", &cfg.Cooldown},
	} {
		v := os.Getenv(f.key)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("retention: %s must be a positive duration, got %q", f.key, v)
		}
		*f.dst = d
	}
	return cfg, nil
}
