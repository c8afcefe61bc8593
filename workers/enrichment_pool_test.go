package workers

import (
	"context"
	"sync"
	"testing"
	"time"
)

type recordingEnricher struct {
	mu      sync.Mutex
	calls   []string
	release chan struct{}
}

func (r *recordingEnricher) EnrichImage(ctx context.Context, imageName string) {
	if r.release != nil {
		<-r.release
	}
	r.mu.Lock()
	r.calls = append(r.calls, imageName)
	r.mu.Unlock()
}

func (r *recordingEnricher) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func TestPoolRunsSubmittedJobs(t *testing.T) {
	enricher := &recordingEnricher{}
	pool := NewEnrichmentPool(enricher, 10, 2)

	var batch sync.WaitGroup
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		if !pool.Submit(context.Background(), name, &batch) {
			t.Errorf("Submit(%s) = false", name)
		}
	}
	batch.Wait()
	pool.Stop()

	if got := enricher.callCount(); got != 3 {
		t.Errorf("enricher ran %d times, want 3", got)
	}
}

func TestPoolDeduplicatesPendingImages(t *testing.T) {
	enricher := &recordingEnricher{release: make(chan struct{})}
	pool := NewEnrichmentPool(enricher, 10, 1)

	var batch sync.WaitGroup
	if !pool.Submit(context.Background(), "a.png", &batch) {
		t.Fatal("first Submit failed")
	}
	// the job is queued or running; a second submission must be refused
	if pool.Submit(context.Background(), "a.png", &batch) {
		t.Error("duplicate Submit accepted while the image was pending")
	}

	close(enricher.release)
	batch.Wait()

	// once drained the image may be submitted again
	if !pool.Submit(context.Background(), "a.png", &batch) {
		t.Error("Submit refused after the earlier job completed")
	}
	batch.Wait()
	pool.Stop()

	if got := enricher.callCount(); got != 2 {
		t.Errorf("enricher ran %d times, want 2", got)
	}
}

func TestSubmitAfterStopIsRefused(t *testing.T) {
	enricher := &recordingEnricher{}
	pool := NewEnrichmentPool(enricher, 4, 1)
	pool.Stop()

	// a scan pass racing shutdown may still submit; it must be turned
	// away without a send on any closed channel
	var batch sync.WaitGroup
	if pool.Submit(context.Background(), "late.png", &batch) {
		t.Error("Submit accepted after Stop")
	}
	batch.Wait()

	if got := enricher.callCount(); got != 0 {
		t.Errorf("enricher ran %d times after Stop, want 0", got)
	}
}

func TestPoolDropsWhenQueueFull(t *testing.T) {
	enricher := &recordingEnricher{release: make(chan struct{})}
	pool := NewEnrichmentPool(enricher, 1, 1)

	var batch sync.WaitGroup
	pool.Submit(context.Background(), "running.png", &batch)

	// wait for the worker to pick the first job so the queue slot frees up
	deadline := time.After(2 * time.Second)
	for {
		pool.Mutex.Lock()
		picked := len(pool.JobQueue) == 0
		pool.Mutex.Unlock()
		if picked {
			break
		}
		select {
		case <-deadline:
			t.Fatal("worker never picked up the first job")
		case <-time.After(5 * time.Millisecond):
		}
	}

	pool.Submit(context.Background(), "queued.png", &batch)
	if pool.Submit(context.Background(), "dropped.png", &batch) {
		t.Error("Submit accepted with a full queue")
	}

	close(enricher.release)
	batch.Wait()
	pool.Stop()

	if got := enricher.callCount(); got != 2 {
		t.Errorf("enricher ran %d times, want 2", got)
	}
}
