// Package workers runs periodic background jobs.
package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Purger deletes expired rows and reports how many went.
type Purger interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// Cleanup periodically purges expired rows from a store, such as
// abandoned OAuth consent states.
type Cleanup struct {
	name     string
	store    Purger
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewCleanup creates a cleanup worker. name appears in log lines.
func NewCleanup(name string, store Purger, logger *zap.Logger, interval time.Duration) *Cleanup {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cleanup{
		name:     name,
		store:    store,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background cleanup loop.
func (w *Cleanup) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("cleanup worker started",
		zap.String("worker", w.name),
		zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish. It is safe
// to call more than once.
func (w *Cleanup) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
	w.log.Info("cleanup worker stopped", zap.String("worker", w.name))
}

func (w *Cleanup) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.RunOnce()
		}
	}
}

// RunOnce performs a single purge.
func (w *Cleanup) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := w.store.CleanupExpired(ctx)
	if err != nil {
		w.log.Error("cleanup failed", zap.String("worker", w.name), zap.Error(err))
		return
	}

	if count > 0 {
		w.log.Info("purged expired rows", zap.String("worker", w.name), zap.Int64("count", count))
	}
}
