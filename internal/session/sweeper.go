package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// purgeTimeout bounds a single purge pass.
const purgeTimeout = 30 * time.Second

// Sweeper periodically purges expired sessions. It is housekeeping only;
// Lookup already treats expired sessions as absent.
type Sweeper struct {
	store    *Store
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewSweeper returns a sweeper that purges store every interval.
func NewSweeper(store *Store, interval time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		store:    store,
		interval: interval,
		logger:   logger,
	}
}

// Start launches the background loop. Starting a running sweeper, or one
// with a non-positive interval, does nothing.
func (w *Sweeper) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running || w.interval <= 0 {
		return
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})

	go w.loop(w.stopCh, w.doneCh)
}

// Stop halts the loop and waits for an in-flight pass to finish.
func (w *Sweeper) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	done := w.doneCh
	w.mu.Unlock()

	<-done
}

// SweepOnce runs a single purge pass.
func (w *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, purgeTimeout)
	defer cancel()

	n, err := w.store.Purge(ctx)
	if err != nil {
		w.logger.Error("session purge failed", "error", err)
		return 0, err
	}
	if n > 0 {
		w.logger.Info("purged expired sessions", "count", n)
	}
	return n, nil
}

func (w *Sweeper) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = w.SweepOnce(context.Background())
		case <-stop:
			return
		}
	}
}
