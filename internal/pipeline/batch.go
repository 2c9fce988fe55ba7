package pipeline

import (
	"context"
	"sync"
	"time"
)

// Result holds the outcome of a single batch conversion.
type Result struct {
	Job      *Job
	Err      error
	Duration time.Duration
}

// RunBatch converts jobs with at most workers running at once. Results are
// returned in input order. Jobs not started before ctx is cancelled fail with
// the context error.
func RunBatch(ctx context.Context, conv *Converter, jobs []*Job, workers int) []Result {
	if len(jobs) == 0 {
		return nil
	}
	workers = max(1, min(workers, len(jobs)))

	results := make([]Result, len(jobs))
	queue := make(chan int, len(jobs))
	for i := range jobs {
		queue <- i
	}
	close(queue)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range queue {
				job := jobs[idx]
				if err := ctx.Err(); err != nil {
					job.AddError(err.Error())
					job.SetStatus(StatusFailed, "cancelled")
					results[idx] = Result{Job: job, Err: err}
					continue
				}
				start := time.Now()
				err := conv.Convert(ctx, job)
				results[idx] = Result{Job: job, Err: err, Duration: time.Since(start)}
			}
		}()
	}
	wg.Wait()
	return results
}
