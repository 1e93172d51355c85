// Package executor runs download batches through a bounded worker pool.
package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/crobles/tunegrab/internal/constants"
	"github.com/crobles/tunegrab/internal/domain"
	"github.com/crobles/tunegrab/internal/fetch"
	"github.com/crobles/tunegrab/internal/logger"
)

// Result is the completion event for one task. Exactly one Result is
// emitted per dispatched task.
type Result struct {
	Task domain.DownloadTask
	Err  error
}

func (r Result) Identity() domain.TrackIdentity { return r.Task.Identity }

// Options configures one batch run.
type Options struct {
	// MaxConcurrency bounds the worker pool; values below 1 are clamped to 1.
	MaxConcurrency int
	// InterTaskDelay is applied by each worker between its own successive
	// dispatches, bounding aggregate request rate without serializing work.
	InterTaskDelay time.Duration
	// OnResult, when set, observes every completion event. It is invoked
	// from the aggregation goroutine, never from a worker.
	OnResult func(Result)
}

// Executor drives the external fetch capability from a pool of workers.
type Executor struct {
	fetcher fetch.Fetcher
	log     *logger.Logger
}

func New(fetcher fetch.Fetcher, log *logger.Logger) *Executor {
	if log == nil {
		log = logger.Default()
	}
	return &Executor{
		fetcher: fetcher,
		log:     log.WithComponent("executor"),
	}
}

// RunBatch executes tasks with a fixed-size pool and aggregates outcomes
// through a single fan-in consumer, so result state has one writer. A
// failed task never aborts its siblings. Cancelling ctx stops dispatching
// new tasks; tasks never dispatched appear in neither count and remain the
// caller's pending work.
func (e *Executor) RunBatch(ctx context.Context, tasks []domain.DownloadTask, opts Options) domain.BatchResult {
	if len(tasks) == 0 {
		return domain.BatchResult{}
	}

	workers := opts.MaxConcurrency
	if workers < 1 {
		workers = constants.DefaultConcurrency
	}
	if workers > len(tasks) {
		workers = len(tasks)
	}

	e.log.Info("Starting batch", "tasks", len(tasks), "workers", workers)

	taskCh := make(chan domain.DownloadTask)
	resultCh := make(chan Result)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go e.worker(ctx, &wg, taskCh, resultCh, opts.InterTaskDelay)
	}

	go func() {
		defer close(taskCh)
		for _, task := range tasks {
			select {
			case taskCh <- task:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var res domain.BatchResult
	for r := range resultCh {
		if r.Err != nil {
			res.Failed = append(res.Failed, r.Task.Identity)
			e.log.Warn("Task failed", "artist", r.Task.Identity.Artist, "title", r.Task.Identity.Title, "error", r.Err)
		} else {
			res.Succeeded++
		}
		if opts.OnResult != nil {
			opts.OnResult(r)
		}
	}

	e.log.Info("Batch finished", "succeeded", res.Succeeded, "failed", len(res.Failed))
	return res
}

func (e *Executor) worker(ctx context.Context, wg *sync.WaitGroup, tasks <-chan domain.DownloadTask, results chan<- Result, delay time.Duration) {
	defer wg.Done()

	first := true
	for task := range tasks {
		if !first && delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
			}
		}
		first = false

		results <- Result{Task: task, Err: e.runTask(ctx, task)}
	}
}

func (e *Executor) runTask(ctx context.Context, task domain.DownloadTask) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("Panic in task", "artist", task.Identity.Artist, "title", task.Identity.Title, "panic", r)
			err = fmt.Errorf("panic during fetch: %v", r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	return e.fetcher.Fetch(ctx, task.Identity, task.DestinationDir, task.AudioFormat)
}

// BuildTasks creates pending tasks for a list of identities sharing one
// destination and format.
func BuildTasks(ids []domain.TrackIdentity, destDir, format string) []domain.DownloadTask {
	tasks := make([]domain.DownloadTask, 0, len(ids))
	for _, id := range ids {
		if !id.Valid() {
			continue
		}
		tasks = append(tasks, domain.NewDownloadTask(id, destDir, format))
	}
	return tasks
}
