package fanout

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// tracker records the maximum number of concurrently running tasks.
type tracker struct {
	inflight atomic.Int32
	peak     atomic.Int32
}

func (tr *tracker) enter() {
	n := tr.inflight.Add(1)
	for {
		p := tr.peak.Load()
		if n <= p || tr.peak.CompareAndSwap(p, n) {
			return
		}
	}
}

func (tr *tracker) leave() { tr.inflight.Add(-1) }

func squareTasks(tr *tracker, n int) []Task[int] {
	tasks := make([]Task[int], n)
	for i := range n {
		tasks[i] = func(_ context.Context) (int, error) {
			tr.enter()
			defer tr.leave()
			// Later tasks finish first so ordering is not an accident.
			time.Sleep(time.Duration(n-i) * time.Millisecond)
			return i * i, nil
		}
	}
	return tasks
}

func TestRun_BoundedAndOrdered(t *testing.T) {
	var tr tracker
	got, err := Run(t.Context(), 5, squareTasks(&tr, 20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p := tr.peak.Load(); p > 5 {
		t.Fatalf("peak in-flight = %d, want ≤ 5", p)
	}
	if len(got) != 20 {
		t.Fatalf("got %d results, want 20", len(got))
	}
	for i, v := range got {
		if v != i*i {
			t.Fatalf("result[%d] = %d, want %d", i, v, i*i)
		}
	}
}

func TestRun_Unbounded(t *testing.T) {
	var tr tracker
	if _, err := Run(t.Context(), 0, squareTasks(&tr, 10)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.peak.Load() < 2 {
		t.Fatalf("peak in-flight = %d, expected parallel execution", tr.peak.Load())
	}
}

func TestRun_FirstErrorCancels(t *testing.T) {
	boom := errors.New("boom")
	var cancelled atomic.Bool
	tasks := []Task[int]{
		func(_ context.Context) (int, error) { return 0, boom },
		func(ctx context.Context) (int, error) {
			select {
			case <-ctx.Done():
				cancelled.Store(true)
				return 0, ctx.Err()
			case <-time.After(time.Second):
				return 1, nil
			}
		},
	}

	got, err := Run(t.Context(), 2, tasks)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil results, got %v", got)
	}
	if !cancelled.Load() {
		t.Fatal("expected sibling task to observe cancellation")
	}
}

func TestAll_SettlesEveryTask(t *testing.T) {
	var tr tracker
	boom := errors.New("boom")
	tasks := make([]Task[int], 20)
	for i := range tasks {
		tasks[i] = func(_ context.Context) (int, error) {
			tr.enter()
			defer tr.leave()
			time.Sleep(time.Millisecond)
			if i%3 == 0 {
				return 0, boom
			}
			return i, nil
		}
	}

	results := All(t.Context(), 5, tasks)
	if p := tr.peak.Load(); p > 5 {
		t.Fatalf("peak in-flight = %d, want ≤ 5", p)
	}
	for i, r := range results {
		if i%3 == 0 {
			if !errors.Is(r.Err, boom) {
				t.Fatalf("result[%d].Err = %v, want boom", i, r.Err)
			}
			continue
		}
		if !r.IsOk() || r.Value != i {
			t.Fatalf("result[%d] = %+v, want %d", i, r, i)
		}
	}

	vals := Values(results)
	if len(vals) != 13 || vals[0] != 1 || vals[1] != 2 || vals[2] != 4 {
		t.Fatalf("Values = %v", vals)
	}
}

func TestAll_Empty(t *testing.T) {
	if got := All[int](t.Context(), 3, nil); len(got) != 0 {
		t.Fatalf("expected no results, got %v", got)
	}
}
