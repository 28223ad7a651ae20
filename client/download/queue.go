package download

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// Fetcher performs a single blocking download. *client.Client
// satisfies it.
type Fetcher interface {
	Download(ctx context.Context, rawURL, dir string, optFns ...Option) (string, error)
}

// Queue bounds and tracks a batch of concurrent downloads. The zero
// number of slots means unbounded.
type Queue struct {
	wg  sync.WaitGroup
	sem chan struct{}

	shutdown atomic.Bool

	mu   sync.Mutex
	errs []error
}

// NewQueue returns a queue running at most maxConcurrent downloads at
// once; maxConcurrent <= 0 removes the bound.
func NewQueue(maxConcurrent int) *Queue {
	q := &Queue{}
	if maxConcurrent > 0 {
		q.sem = make(chan struct{}, maxConcurrent)
	}

	return q
}

// Wait blocks until every submitted download finishes and returns the
// accumulated failures joined into one error.
func (q *Queue) Wait() error {
	q.wg.Wait()

	q.mu.Lock()
	defer q.mu.Unlock()

	return errors.Join(q.errs...)
}

// Shutdown stops the queue accepting new work. Downloads already
// running continue; ones still waiting for a slot fail with
// [ErrQueueShutdown].
func (q *Queue) Shutdown() {
	q.shutdown.Store(true)
}

func (q *Queue) recordErr(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.errs = append(q.errs, err)
}

func (q *Queue) start(ctx context.Context, f Fetcher, rawURL, dir string, optFns []Option) *Result {
	ctx, cancel := context.WithCancel(ctx)

	r := &Result{
		fetcher: f,
		queue:   q,
		done:    make(chan struct{}),
		cancel:  cancel,
	}

	if q.shutdown.Load() {
		r.err = ErrQueueShutdown
		q.recordErr(r.err)
		cancel()
		close(r.done)
		return r
	}

	q.wg.Add(1)
	go func() {
		defer func() {
			cancel()
			close(r.done)
			q.wg.Done()
		}()

		if q.sem != nil {
			select {
			case q.sem <- struct{}{}:
				defer func() { <-q.sem }()
			case <-ctx.Done():
				r.err = ctx.Err()
				q.recordErr(r.err)
				return
			}
		}

		if q.shutdown.Load() {
			r.err = ErrQueueShutdown
			q.recordErr(r.err)
			return
		}

		r.path, r.err = f.Download(ctx, rawURL, dir, optFns...)
		if r.err != nil {
			q.recordErr(r.err)
		}
	}()

	return r
}

// Async starts a download on its own goroutine. [WithBatch] attaches a
// bounded queue; without it each call runs on a fresh unbounded one.
// Chain further downloads onto the same queue with [Result.Add].
func Async(ctx context.Context, f Fetcher, rawURL, dir string, optFns ...Option) *Result {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return completedResult(err)
		}
	}

	q := opts.queue
	if q == nil {
		q = NewQueue(0)
	}

	return q.start(ctx, f, rawURL, dir, optFns)
}

// Result is the handle for one async download.
type Result struct {
	fetcher Fetcher
	queue   *Queue
	cancel  context.CancelFunc
	done    chan struct{}

	path string
	err  error
}

// Add submits another download to the same queue and fetcher.
func (r *Result) Add(ctx context.Context, rawURL, dir string, optFns ...Option) *Result {
	return r.queue.start(ctx, r.fetcher, rawURL, dir, optFns)
}

// Done is closed once the download finishes.
func (r *Result) Done() <-chan struct{} {
	return r.done
}

// Path blocks until the download finishes and returns the written
// file's path.
func (r *Result) Path() (string, error) {
	<-r.done
	return r.path, r.err
}

// Err blocks until the download finishes and returns its error.
func (r *Result) Err() error {
	<-r.done
	return r.err
}

// Wait blocks until the whole queue drains, returning every failure.
func (r *Result) Wait() error {
	return r.queue.Wait()
}

// Shutdown stops the underlying queue accepting further Adds.
func (r *Result) Shutdown() {
	r.queue.Shutdown()
}

// Cancel aborts this download. The partial file, if any, stays on
// disk.
func (r *Result) Cancel() {
	r.cancel()
}

func completedResult(err error) *Result {
	done := make(chan struct{})
	close(done)

	return &Result{
		queue:  NewQueue(0),
		cancel: func() {},
		done:   done,
		err:    err,
	}
}
