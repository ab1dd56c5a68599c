package sql

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Dispatcher schedules operations. In sync mode an operation runs on the
// calling goroutine. In async mode it runs on one of a bounded number of
// worker goroutines and the caller waits for it or for its context.
type Dispatcher struct {
	mode Mode
	sem  *semaphore.Weighted
}

// NewDispatcher returns a dispatcher for the mode. workers bounds the
// concurrent operations in async mode.
func NewDispatcher(mode Mode, workers int) *Dispatcher {
	if workers <= 0 {
		workers = DefaultPoolSize
	}
	return &Dispatcher{mode: mode, sem: semaphore.NewWeighted(int64(workers))}
}

// Mode returns the execution mode.
func (d *Dispatcher) Mode() Mode { return d.mode }

// Do runs fn. In async mode Do returns ctx.Err() when ctx is done before
// fn returns; fn keeps running with the same context and releases what it
// acquired on its own.
func (d *Dispatcher) Do(ctx context.Context, fn func(context.Context) error) error {
	if d.mode == ModeSync {
		return fn(ctx)
	}
	if err := d.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	done := make(chan result, 1)
	go func() {
		defer d.sem.Release(1)
		defer func() {
			if p := recover(); p != nil {
				done <- result{panicked: true, value: p}
			}
		}()
		done <- result{err: fn(ctx)}
	}()
	select {
	case r := <-done:
		if r.panicked {
			panic(r.value)
		}
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

type result struct {
	err      error
	panicked bool
	value    any
}
