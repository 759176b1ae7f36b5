// Package fanout runs independent tasks with a bound on how many are in
// flight at once and collects their results in input order.
package fanout

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Task is one unit of work.
type Task[T any] func(ctx context.Context) (T, error)

// Result is the settled outcome of a Task.
type Result[T any] struct {
	Value T
	Err   error
}

// IsOk returns true if the task succeeded.
func (r Result[T]) IsOk() bool {
	return r.Err == nil
}

// Run executes tasks with at most limit in flight and returns their values
// in input order. The first failure cancels the context passed to the
// remaining tasks and is returned. A limit ≤ 0 means unbounded.
func Run[T any](ctx context.Context, limit int, tasks []Task[T]) ([]T, error) {
	out := make([]T, len(tasks))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, task := range tasks {
		g.Go(func() error {
			v, err := task(ctx)
			if err != nil {
				return err
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// All executes every task with at most limit in flight and returns each
// task's outcome in input order. Failures do not stop the other tasks.
func All[T any](ctx context.Context, limit int, tasks []Task[T]) []Result[T] {
	out := make([]Result[T], len(tasks))
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, task := range tasks {
		g.Go(func() error {
			v, err := task(ctx)
			out[i] = Result[T]{Value: v, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Values returns the values of the successful results in order.
func Values[T any](results []Result[T]) []T {
	out := make([]T, 0, len(results))
	for _, r := range results {
		if r.IsOk() {
			out = append(out, r.Value)
		}
	}
	return out
}
