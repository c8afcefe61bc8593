package recon

import (
	"context"
	"log"
	"time"
)

// Watcher runs the periodic reconciliation loop. Exactly one process in the
// fleet should run it: acquisition of the watcher lock is the caller's
// responsibility (see lockfile.WatcherLock).
type Watcher struct {
	orch     *Orchestrator
	interval time.Duration
}

func NewWatcher(orch *Orchestrator, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Watcher{orch: orch, interval: interval}
}

// Run rescans the image directory on a fixed interval until the context is
// cancelled. Each pass may create sidecars and enrich; individual failures
// never stop the loop.
func (w *Watcher) Run(ctx context.Context) {
	log.Printf("recon: watcher started (interval %s)", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("recon: watcher stopping: %v", ctx.Err())
			return
		case <-ticker.C:
			w.orch.Scan(ctx, ScanOptions{CreateSidecars: true, Enrich: true})
		}
	}
}
