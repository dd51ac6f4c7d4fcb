package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/docweave/internal/assets"
	"github.com/dgallion1/docweave/internal/config"
)

// cleanupInterval is how often expired jobs are swept.
const cleanupInterval = time.Minute

// Orchestrator runs export jobs on a bounded worker pool.
type Orchestrator struct {
	jobs    *JobStore
	stats   *ExportStats
	queue   chan *Job
	fetcher assets.Fetcher
	log     *slog.Logger
	cfg     config.Config

	mu      sync.Mutex
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, fetcher assets.Fetcher, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:    NewJobStore(cfg.ExportTTL),
		stats:   NewExportStats(statsWindow),
		queue:   make(chan *Job, cfg.ExportQueueSize),
		fetcher: fetcher,
		log:     log.With("component", "pipeline"),
		cfg:     cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for i := 0; i < o.cfg.ExportWorkers; i++ {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.fetcher, o.log, o.cfg.DefaultFont, o.cfg.DefaultSize, o.cfg.FetchTimeout)
			w.stats = o.stats
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case now := <-ticker.C:
				if n := o.jobs.Cleanup(now); n > 0 {
					o.log.Debug("expired export jobs", "count", n)
				}
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline. Queued jobs that no worker has
// picked up are abandoned.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	close(o.queue)
	o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		return fmt.Errorf("pipeline stopped")
	}

	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("%w (%d)", ErrQueueFull, o.cfg.ExportQueueSize)
	}
}

// GetJob returns a job by ID or ErrJobNotFound.
func (o *Orchestrator) GetJob(id string) (*Job, error) {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// JobCount returns how many jobs are retained.
func (o *Orchestrator) JobCount() int {
	return o.jobs.Len()
}

// Stats returns export outcomes from the last hour.
func (o *Orchestrator) Stats() StatsSnapshot {
	return o.stats.Snapshot()
}
