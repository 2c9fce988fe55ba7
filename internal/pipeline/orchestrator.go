package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrStopped is returned by Submit once the orchestrator is shutting down.
var ErrStopped = errors.New("orchestrator stopped")

// Orchestrator queues jobs submitted through the API and runs them on a fixed
// pool of workers.
type Orchestrator struct {
	jobs    *JobStore
	queue   chan *Job
	conv    *Converter
	log     *slog.Logger
	workers int

	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once

	mu      sync.Mutex // guards stopped and sends on queue
	stopped bool
}

// NewOrchestrator creates the pipeline; call Start to launch workers.
func NewOrchestrator(conv *Converter, log *slog.Logger, workers, queueSize int, jobTTL time.Duration) *Orchestrator {
	if workers <= 0 {
		workers = 1
	}
	return &Orchestrator{
		jobs:    NewJobStore(jobTTL),
		queue:   make(chan *Job, queueSize),
		conv:    conv,
		log:     log,
		workers: workers,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.workers {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					// Errors are recorded on the job.
					_ = o.conv.Convert(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	o.once.Do(func() {
		o.mu.Lock()
		o.stopped = true
		close(o.queue)
		o.mu.Unlock()

		if o.cancel != nil {
			o.cancel()
		}
		o.wg.Wait()
	})
}

// Submit queues a new job for processing. After Stop it fails with ErrStopped.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		job.SetStatus(StatusFailed, "stopped")
		return ErrStopped
	}
	select {
	case o.queue <- job:
		o.log.Info("job queued", "job_id", job.ID, "source", job.Source())
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", cap(o.queue))
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}
