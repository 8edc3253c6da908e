// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"context"
	"iter"
	"sync"

	"golang.org/x/sync/semaphore"
)

// DefaultLimit is the number of tasks a batch runs at once when the
// caller does not configure one. Chosen empirically; nothing in the
// protocol depends on it.
const DefaultLimit = 100

// Task is one independently resolvable unit of a batch. It must return
// promptly once ctx is cancelled.
type Task[T any] func(ctx context.Context) (T, error)

// result is a completed task travelling from its goroutine to the
// consumer.
type result[T any] struct {
	value T
	err   error
}

// BufferUnordered runs tasks with at most limit of them active at
// once and yields their results in completion order. A limit of zero
// or less means DefaultLimit.
//
// Nothing runs until the returned sequence is ranged over. Tasks are
// pulled from the tasks iterator only as slots free up, so a lazily
// built iterator never materializes more than limit tasks ahead of
// the consumer.
//
// The first task error is yielded as the final element, after any
// results that completed before it; tasks still in flight are
// cancelled and their results discarded. When the consumer stops early
// or ctx is cancelled, outstanding tasks are cancelled and awaited
// before the range loop returns.
func BufferUnordered[T any](ctx context.Context, tasks iter.Seq[Task[T]], limit int) iter.Seq2[T, error] {
	if limit <= 0 {
		limit = DefaultLimit
	}

	return func(yield func(T, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		// A slot is held from the moment a task starts until the
		// consumer takes its result, so results never exceed limit
		// and sends into the buffer never block.
		slots := semaphore.NewWeighted(int64(limit))
		results := make(chan result[T], limit)

		var (
			failureMu sync.Mutex
			failure   error
		)
		recordFailure := func(err error) {
			failureMu.Lock()
			if failure == nil {
				failure = err
			}
			failureMu.Unlock()
			cancel()
		}

		launcherDone := make(chan struct{})
		go func() {
			defer close(launcherDone)
			var running sync.WaitGroup
			defer func() {
				running.Wait()
				close(results)
			}()

			for task := range tasks {
				if err := slots.Acquire(ctx, 1); err != nil {
					return
				}
				// A task that failed cancels ctx before its slot can
				// be released, so this check is enough to keep any
				// later task from starting.
				if ctx.Err() != nil {
					slots.Release(1)
					return
				}
				running.Add(1)
				go func() {
					defer running.Done()
					value, err := task(ctx)
					if err != nil {
						recordFailure(err)
					}
					results <- result[T]{value: value, err: err}
				}()
			}
		}()

		defer func() {
			cancel()
			<-launcherDone
		}()

		for completed := range results {
			slots.Release(1)
			if completed.err != nil {
				failureMu.Lock()
				err := failure
				failureMu.Unlock()
				var zero T
				yield(zero, err)
				return
			}
			if !yield(completed.value, nil) {
				return
			}
		}

		// No task failed, so the local cancel has not run: a done ctx
		// here means the parent was cancelled, possibly before every
		// task was pulled.
		if err := ctx.Err(); err != nil {
			var zero T
			yield(zero, err)
		}
	}
}

// Encode applies encode to every successful element of seq, passing
// errors through. It is how domain results become wire values before
// leaving the pipeline.
func Encode[D, W any](seq iter.Seq2[D, error], encode func(D) W) iter.Seq2[W, error] {
	return func(yield func(W, error) bool) {
		for value, err := range seq {
			if err != nil {
				var zero W
				yield(zero, err)
				return
			}
			if !yield(encode(value), nil) {
				return
			}
		}
	}
}

// Collect drains seq into a slice, stopping at the first error. The
// values yielded before the error are returned alongside it.
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	var values []T
	for value, err := range seq {
		if err != nil {
			return values, err
		}
		values = append(values, value)
	}
	return values, nil
}

// Tasks adapts a slice of inputs into a lazily evaluated task
// sequence, binding each input to resolve.
func Tasks[I, T any](inputs []I, resolve func(context.Context, I) (T, error)) iter.Seq[Task[T]] {
	return func(yield func(Task[T]) bool) {
		for _, input := range inputs {
			task := func(ctx context.Context) (T, error) {
				return resolve(ctx, input)
			}
			if !yield(task) {
				return
			}
		}
	}
}
