// Package timeouts holds the deadlines handlers put on database and
// provider calls.
//
//   - Ping: health checks
//   - Short: single-document reads and writes
//   - Medium: list queries, bucket counts
//   - Long: cascades such as deleting an event with its tasks, provider tests
//   - Batch: CSV imports and the legacy migration
package timeouts

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Config is a full set of deadlines. Zero fields keep the current value
// when passed to Configure.
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
	Batch  time.Duration
}

// Defaults returns the built-in deadlines.
func Defaults() Config {
	return Config{
		Ping:   2 * time.Second,
		Short:  5 * time.Second,
		Medium: 10 * time.Second,
		Long:   30 * time.Second,
		Batch:  2 * time.Minute,
	}
}

var current atomic.Pointer[Config]

func init() { Reset() }

// Configure overrides the non-zero fields of cfg. Call it at startup.
func Configure(cfg Config) {
	next := *current.Load()
	if cfg.Ping > 0 {
		next.Ping = cfg.Ping
	}
	if cfg.Short > 0 {
		next.Short = cfg.Short
	}
	if cfg.Medium > 0 {
		next.Medium = cfg.Medium
	}
	if cfg.Long > 0 {
		next.Long = cfg.Long
	}
	if cfg.Batch > 0 {
		next.Batch = cfg.Batch
	}
	current.Store(&next)
}

// Reset restores the defaults.
func Reset() {
	d := Defaults()
	current.Store(&d)
}

// Current returns the active deadlines.
func Current() Config { return *current.Load() }

func Ping() time.Duration   { return current.Load().Ping }
func Short() time.Duration  { return current.Load().Short }
func Medium() time.Duration { return current.Load().Medium }
func Long() time.Duration   { return current.Load().Long }
func Batch() time.Duration  { return current.Load().Batch }

// WithTimeout is context.WithTimeout whose cancel logs a warning when the
// deadline, rather than the caller, ended the operation.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "contact import")
//	defer cancel()
func WithTimeout(parent context.Context, d time.Duration, log *zap.Logger, op string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, d)
	return ctx, func() {
		if log != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			log.Warn("operation timed out", zap.String("operation", op), zap.Duration("timeout", d))
		}
		cancel()
	}
}
