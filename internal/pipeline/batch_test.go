package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/scanforge/osfp/internal/config"
)

// TestBatchProcessorNew tests the BatchProcessor constructor.
func TestBatchProcessorNew(t *testing.T) {
	t.Parallel()

	t.Run("creates processor with defaults", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func() *Pipeline { return New() })

		if bp == nil {
			t.Fatal("expected non-nil processor")
		}
		if bp.concurrency != config.DefaultConcurrency {
			t.Errorf("got concurrency %d, expected %d", bp.concurrency, config.DefaultConcurrency)
		}
		if bp.logger == nil {
			t.Error("expected default logger")
		}
	})

	t.Run("applies concurrency option", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func() *Pipeline { return New() }, WithConcurrency(2))

		if bp.concurrency != 2 {
			t.Errorf("got concurrency %d, expected 2", bp.concurrency)
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func() *Pipeline { return New() }, WithConcurrency(0))

		if bp.concurrency != config.DefaultConcurrency {
			t.Errorf("got concurrency %d, expected default %d", bp.concurrency, config.DefaultConcurrency)
		}
	})

	t.Run("applies logger option", func(t *testing.T) {
		t.Parallel()

		logger := slog.Default().With("component", "batch")
		bp := NewBatchProcessor(func() *Pipeline { return New() }, WithBatchLogger(logger))

		if bp.logger != logger {
			t.Error("expected custom logger to be set")
		}
	})
}

// TestBatchProcessorProcessBatch tests concurrent batch execution.
func TestBatchProcessorProcessBatch(t *testing.T) {
	t.Parallel()

	t.Run("processes all jobs", func(t *testing.T) {
		t.Parallel()

		var processedCount atomic.Int32

		bp := NewBatchProcessor(func() *Pipeline {
			p := New()
			p.AddStep(&mockStep{
				name: "counter",
				doFunc: func(_ context.Context, _ *Job) error {
					processedCount.Add(1)
					return nil
				},
			})
			return p
		})

		jobs := []*Job{
			{Host: "host1.internal"},
			{Host: "host2.internal"},
			{Host: "host3.internal"},
		}

		results, err := bp.ProcessBatch(context.Background(), jobs)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != 3 {
			t.Errorf("expected 3 results, got %d", len(results))
		}
		if processedCount.Load() != 3 {
			t.Errorf("expected 3 processed, got %d", processedCount.Load())
		}
	})

	t.Run("respects concurrency limit", func(t *testing.T) {
		t.Parallel()

		var maxConcurrent atomic.Int32
		var currentConcurrent atomic.Int32
		var mu sync.Mutex

		bp := NewBatchProcessor(
			func() *Pipeline {
				p := New()
				p.AddStep(&mockStep{
					name: "concurrent-counter",
					doFunc: func(_ context.Context, _ *Job) error {
						current := currentConcurrent.Add(1)

						// Update max if needed (with mutex for safety)
						mu.Lock()
						if current > maxConcurrent.Load() {
							maxConcurrent.Store(current)
						}
						mu.Unlock()

						// Simulate some work
						time.Sleep(50 * time.Millisecond)

						currentConcurrent.Add(-1)
						return nil
					},
				})
				return p
			},
			WithConcurrency(2),
		)

		jobs := make([]*Job, 10)
		for i := range jobs {
			jobs[i] = &Job{Host: "host.internal"}
		}

		_, err := bp.ProcessBatch(context.Background(), jobs)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if maxConcurrent.Load() > 2 {
			t.Errorf("max concurrent was %d, expected <= 2", maxConcurrent.Load())
		}
	})

	t.Run("maintains result order", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func() *Pipeline {
			p := New()
			p.AddStep(&mockStep{name: "noop"})
			return p
		})

		jobs := []*Job{
			{Host: "first.internal"},
			{Host: "second.internal"},
			{Host: "third.internal"},
		}

		results, err := bp.ProcessBatch(context.Background(), jobs)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i, result := range results {
			if result.Host != jobs[i].Host {
				t.Errorf("result[%d]: got %q, expected %q",
					i, result.Host, jobs[i].Host)
			}
		}
	})

	t.Run("continues after individual job failure", func(t *testing.T) {
		t.Parallel()

		var processedCount atomic.Int32

		bp := NewBatchProcessor(func() *Pipeline {
			p := New()
			p.AddStep(&mockStep{
				name: "sometimes-fails",
				doFunc: func(_ context.Context, job *Job) error {
					processedCount.Add(1)
					// Fail for the second host only
					if job.Host == "fail.internal" {
						return errors.New("simulated failure")
					}
					return nil
				},
			})
			return p
		})

		jobs := []*Job{
			{Host: "first.internal"},
			{Host: "fail.internal"},
			{Host: "third.internal"},
		}

		results, err := bp.ProcessBatch(context.Background(), jobs)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if processedCount.Load() != 3 {
			t.Errorf("expected 3 processed, got %d", processedCount.Load())
		}
		// Check that the failed job has an error recorded
		if results[1].Err == nil {
			t.Error("expected error in second result")
		}
	})

	t.Run("handles context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())

		var startedCount atomic.Int32

		bp := NewBatchProcessor(
			func() *Pipeline {
				p := New()
				p.AddStep(&mockStep{
					name: "slow-step",
					doFunc: func(ctx context.Context, _ *Job) error {
						startedCount.Add(1)
						select {
						case <-ctx.Done():
							return ctx.Err()
						case <-time.After(time.Second):
							return nil
						}
					},
				})
				return p
			},
			WithConcurrency(2),
		)

		jobs := make([]*Job, 10)
		for i := range jobs {
			jobs[i] = &Job{Host: "host.internal"}
		}

		// Cancel after a short delay
		go func() {
			time.Sleep(100 * time.Millisecond)
			cancel()
		}()

		_, err := bp.ProcessBatch(ctx, jobs)

		// Should return context.Canceled
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		// Not all jobs should have started
		//nolint:gosec // len(jobs) is small, no overflow risk
		if startedCount.Load() >= int32(len(jobs)) {
			t.Error("expected some jobs to not start due to cancellation")
		}
	})
}

// TestBatchProcessorProcessBatchWithCallback tests callback-based processing.
func TestBatchProcessorProcessBatchWithCallback(t *testing.T) {
	t.Parallel()

	t.Run("calls callback for each result", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		seen := make(map[int]string)

		bp := NewBatchProcessor(func() *Pipeline {
			p := New()
			p.AddStep(&mockStep{name: "noop"})
			return p
		})

		jobs := []*Job{
			{Host: "first.internal"},
			{Host: "second.internal"},
		}

		err := bp.ProcessBatchWithCallback(context.Background(), jobs,
			func(job *Job, index int) {
				mu.Lock()
				seen[index] = job.Host
				mu.Unlock()
			})

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(seen) != 2 {
			t.Fatalf("expected 2 callbacks, got %d", len(seen))
		}
		if seen[0] != "first.internal" || seen[1] != "second.internal" {
			t.Errorf("unexpected callback data: %v", seen)
		}
	})

	t.Run("callback receives failed jobs", func(t *testing.T) {
		t.Parallel()

		var callbackCount atomic.Int32

		bp := NewBatchProcessor(func() *Pipeline {
			p := New()
			p.AddStep(&mockStep{
				name: "always-fails",
				doFunc: func(_ context.Context, _ *Job) error {
					return errors.New("simulated failure")
				},
			})
			return p
		})

		jobs := []*Job{{Host: "fail.internal"}}

		err := bp.ProcessBatchWithCallback(context.Background(), jobs,
			func(job *Job, _ int) {
				callbackCount.Add(1)
				if job.Err == nil {
					t.Error("expected error to be recorded in the job")
				}
			})

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if callbackCount.Load() != 1 {
			t.Errorf("expected 1 callback, got %d", callbackCount.Load())
		}
	})
}
