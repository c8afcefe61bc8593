package workers

import (
	"context"
	"log"
	"sync"
)

// Enricher performs the enrichment pipeline for a single image. Implemented
// by the reconciliation orchestrator.
type Enricher interface {
	EnrichImage(ctx context.Context, imageName string)
}

// EnrichmentJob is one queued enrichment request. The batch WaitGroup lets a
// scan pass wait for exactly the jobs it submitted.
type EnrichmentJob struct {
	Ctx       context.Context
	ImageName string
	Batch     *sync.WaitGroup
}

// EnrichmentPool bounds how many enrichment calls run concurrently within
// this process. The pending map dedupes the same image across overlapping
// scan passes so the provider is not called twice for one blank record.
type EnrichmentPool struct {
	JobQueue chan EnrichmentJob
	Enricher Enricher
	Wg       sync.WaitGroup
	StopChan chan struct{}
	Pending  map[string]bool
	Mutex    sync.Mutex
}

func NewEnrichmentPool(enricher Enricher, queueSize, numWorkers int) *EnrichmentPool {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	pool := &EnrichmentPool{
		JobQueue: make(chan EnrichmentJob, queueSize),
		Enricher: enricher,
		StopChan: make(chan struct{}),
		Pending:  make(map[string]bool),
	}
	pool.Wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go pool.worker(i)
	}
	log.Printf("Started %d enrichment worker(s) with queue size %d", numWorkers, queueSize)
	return pool
}

func (p *EnrichmentPool) worker(id int) {
	defer p.Wg.Done()
	log.Printf("enrichment worker %d started", id)
	for {
		select {
		case job := <-p.JobQueue:
			p.Enricher.EnrichImage(job.Ctx, job.ImageName)

			p.Mutex.Lock()
			delete(p.Pending, job.ImageName)
			p.Mutex.Unlock()

			if job.Batch != nil {
				job.Batch.Done()
			}
		case <-p.StopChan:
			log.Printf("enrichment worker %d stopping: stop signal received", id)
			return
		}
	}
}

// Submit queues an enrichment job, registering it with the batch WaitGroup.
// It returns false without touching the WaitGroup when the pool is stopping,
// the image is already pending from another pass, or the queue is full.
func (p *EnrichmentPool) Submit(ctx context.Context, imageName string, batch *sync.WaitGroup) bool {
	select {
	case <-p.StopChan:
		return false
	default:
	}

	p.Mutex.Lock()
	if p.Pending[imageName] {
		p.Mutex.Unlock()
		return false
	}
	p.Pending[imageName] = true
	p.Mutex.Unlock()

	if batch != nil {
		batch.Add(1)
	}
	select {
	case p.JobQueue <- EnrichmentJob{Ctx: ctx, ImageName: imageName, Batch: batch}:
		return true
	default:
		p.Mutex.Lock()
		delete(p.Pending, imageName)
		p.Mutex.Unlock()
		if batch != nil {
			batch.Done()
		}
		log.Printf("enrichment queue full, skipping %s for this pass", imageName)
		return false
	}
}

// Stop signals the workers and waits for in-flight jobs to finish. The job
// queue is never closed: a scan pass racing shutdown may still call Submit,
// which must refuse cleanly rather than send on a closed channel.
func (p *EnrichmentPool) Stop() {
	log.Printf("Stopping enrichment workers...")
	close(p.StopChan)
	p.Wg.Wait()
	log.Printf("All enrichment workers stopped")
}
