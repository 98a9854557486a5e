package aggregator

import (
	"context"
	"fmt"
	"time"
)

// task is one per-instance query.
type task[T any] struct {
	run func(ctx context.Context) (T, error)
}

// outcome is what a task produced. A task that did not report before the call
// ended carries a timeout error.
type outcome[T any] struct {
	value T
	err   error
}

// fanOut runs every task concurrently and joins them.
//
// Each task gets its own perTask timeout; the whole call is bounded by deadline.
// Tasks write into disjoint slots of a private slice and announce completion by
// index on a buffered channel, so late tasks never block and no slot is read
// before its writer has reported. When the deadline passes or ctx is cancelled,
// fanOut returns at once and every unreported task is marked as timed out.
func fanOut[T any](ctx context.Context, deadline, perTask time.Duration, tasks []task[T]) []outcome[T] {
	out := make([]outcome[T], len(tasks))
	if len(tasks) == 0 {
		return out
	}

	var cancel context.CancelFunc
	if deadline > 0 {
		ctx, cancel = context.WithTimeout(ctx, deadline)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	// Stragglers see their context cancelled as soon as we return.
	defer cancel()

	slots := make([]outcome[T], len(tasks))
	done := make(chan int, len(tasks))

	for i, t := range tasks {
		go func() {
			taskCtx, taskCancel := ctx, context.CancelFunc(func() {})
			if perTask > 0 {
				taskCtx, taskCancel = context.WithTimeout(ctx, perTask)
			}
			defer taskCancel()

			v, err := t.run(taskCtx)
			slots[i] = outcome[T]{value: v, err: err}
			done <- i
		}()
	}

	reported := make([]bool, len(tasks))
	collect := func(i int) {
		out[i] = slots[i]
		reported[i] = true
	}
	for remaining := len(tasks); remaining > 0; remaining-- {
		select {
		case i := <-done:
			collect(i)
		case <-ctx.Done():
			drainReady(done, collect)
			for i := range out {
				if !reported[i] {
					out[i] = outcome[T]{err: fmt.Errorf("no response before call deadline: %w", ctx.Err())}
				}
			}
			return out
		}
	}
	return out
}

// drainReady collects completions that are already queued without waiting for more.
func drainReady(done <-chan int, collect func(int)) {
	for {
		select {
		case i := <-done:
			collect(i)
		default:
			return
		}
	}
}
