package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, job *Job) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, job *Job) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, job)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

// TestPipelineNew tests the Pipeline constructor.
func TestPipelineNew(t *testing.T) {
	t.Parallel()

	t.Run("creates pipeline with default settings", func(t *testing.T) {
		t.Parallel()

		p := New()

		if p == nil {
			t.Fatal("expected non-nil pipeline")
		}
		if p.StepCount() != 0 {
			t.Errorf("expected 0 steps, got %d", p.StepCount())
		}
	})

	t.Run("applies WithContinueOnError option", func(t *testing.T) {
		t.Parallel()

		p := New(WithContinueOnError(true))

		if !p.continueOnError {
			t.Error("expected continueOnError to be true")
		}
	})
}

// TestPipelineAddStep tests adding steps to the pipeline.
func TestPipelineAddStep(t *testing.T) {
	t.Parallel()

	t.Run("adds single step", func(t *testing.T) {
		t.Parallel()

		p := New()
		step := &mockStep{name: "test-step"}

		p.AddStep(step)

		if p.StepCount() != 1 {
			t.Errorf("expected 1 step, got %d", p.StepCount())
		}
	})

	t.Run("adds multiple steps with AddSteps", func(t *testing.T) {
		t.Parallel()

		p := New()
		step1 := &mockStep{name: "step-1"}
		step2 := &mockStep{name: "step-2"}
		step3 := &mockStep{name: "step-3"}

		p.AddSteps(step1, step2, step3)

		if p.StepCount() != 3 {
			t.Errorf("expected 3 steps, got %d", p.StepCount())
		}
	})

	t.Run("maintains step order", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddStep(&mockStep{name: "first"})
		p.AddStep(&mockStep{name: "second"})
		p.AddStep(&mockStep{name: "third"})

		names := p.StepNames()

		expected := []string{"first", "second", "third"}
		for i, name := range names {
			if name != expected[i] {
				t.Errorf("step %d: got %q, expected %q", i, name, expected[i])
			}
		}
	})
}

// TestPipelineExecute tests pipeline execution.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("executes all steps in order", func(t *testing.T) {
		t.Parallel()

		executionOrder := make([]string, 0)

		p := New()
		p.AddStep(&mockStep{
			name: "step-1",
			doFunc: func(_ context.Context, _ *Job) error {
				executionOrder = append(executionOrder, "step-1")
				return nil
			},
		})
		p.AddStep(&mockStep{
			name: "step-2",
			doFunc: func(_ context.Context, _ *Job) error {
				executionOrder = append(executionOrder, "step-2")
				return nil
			},
		})

		job := &Job{Host: "db01.internal"}
		err := p.Execute(context.Background(), job)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(executionOrder) != 2 {
			t.Fatalf("expected 2 executions, got %d", len(executionOrder))
		}
		if executionOrder[0] != "step-1" || executionOrder[1] != "step-2" {
			t.Errorf("wrong execution order: %v", executionOrder)
		}
	})

	t.Run("stops on first error by default", func(t *testing.T) {
		t.Parallel()

		expectedErr := errors.New("step failed")
		step2Called := false

		p := New()
		p.AddStep(&mockStep{
			name: "failing-step",
			doFunc: func(_ context.Context, _ *Job) error {
				return expectedErr
			},
		})
		p.AddStep(&mockStep{
			name: "should-not-run",
			doFunc: func(_ context.Context, _ *Job) error {
				step2Called = true
				return nil
			},
		})

		job := &Job{Host: "db01.internal"}
		err := p.Execute(context.Background(), job)

		if !errors.Is(err, expectedErr) {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if step2Called {
			t.Error("second step should not have been called")
		}
	})

	t.Run("continues on error when configured", func(t *testing.T) {
		t.Parallel()

		step2Called := false

		p := New(WithContinueOnError(true))
		p.AddStep(&mockStep{
			name: "failing-step",
			doFunc: func(_ context.Context, _ *Job) error {
				return errors.New("step failed")
			},
		})
		p.AddStep(&mockStep{
			name: "should-run",
			doFunc: func(_ context.Context, _ *Job) error {
				step2Called = true
				return nil
			},
		})

		job := &Job{Host: "db01.internal"}
		err := p.Execute(context.Background(), job)

		if err != nil {
			t.Errorf("expected nil error with continueOnError, got %v", err)
		}
		if !step2Called {
			t.Error("second step should have been called")
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel() // Cancel immediately

		stepCalled := false
		p := New()
		p.AddStep(&mockStep{
			name: "should-not-run",
			doFunc: func(_ context.Context, _ *Job) error {
				stepCalled = true
				return nil
			},
		})

		job := &Job{Host: "db01.internal"}
		err := p.Execute(ctx, job)

		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if stepCalled {
			t.Error("step should not have been called")
		}
		if !errors.Is(job.Err, context.Canceled) {
			t.Error("expected cancellation to be recorded in the job")
		}
	})

	t.Run("records performed steps", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddStep(&mockStep{name: "step-1"})
		p.AddStep(&mockStep{name: "step-2"})

		job := &Job{Host: "db01.internal"}
		err := p.Execute(context.Background(), job)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(job.StepsRun) != 2 {
			t.Errorf("expected 2 performed steps, got %d", len(job.StepsRun))
		}
	})

	t.Run("records error in job", func(t *testing.T) {
		t.Parallel()

		expectedErr := errors.New("test error")

		p := New()
		p.AddStep(&mockStep{
			name: "failing-step",
			doFunc: func(_ context.Context, _ *Job) error {
				return expectedErr
			},
		})

		job := &Job{Host: "db01.internal"}
		_ = p.Execute(context.Background(), job) //nolint:errcheck // We check error via job.Err

		if !errors.Is(job.Err, expectedErr) {
			t.Error("expected error to be recorded in job")
		}
	})
}

// TestPipelineStepNames tests the StepNames method.
func TestPipelineStepNames(t *testing.T) {
	t.Parallel()

	t.Run("returns empty slice for empty pipeline", func(t *testing.T) {
		t.Parallel()

		p := New()

		names := p.StepNames()
		if len(names) != 0 {
			t.Errorf("expected 0 names, got %d", len(names))
		}
	})

	t.Run("returns names in order", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddSteps(
			&mockStep{name: "alpha"},
			&mockStep{name: "beta"},
		)

		names := p.StepNames()
		if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
			t.Errorf("unexpected names: %v", names)
		}
	})
}

// TestPipelineWithLogger tests custom logger injection.
func TestPipelineWithLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	p := New(WithLogger(logger))
	p.AddStep(&mockStep{name: "logged-step"})

	job := &Job{Host: "db01.internal"}
	if err := p.Execute(context.Background(), job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "executing step") {
		t.Error("expected log output to contain step execution")
	}
	if !strings.Contains(output, "logged-step") {
		t.Error("expected log output to contain the step name")
	}
}

// TestDefaultPipelineConfig tests the default pipeline configuration options.
func TestDefaultPipelineConfig(t *testing.T) {
	t.Parallel()

	t.Run("options modify config", func(t *testing.T) {
		t.Parallel()

		cfg := &DefaultPipelineConfig{}
		WithPipelineConfidenceThreshold(90)(cfg)
		WithPipelineSkipUnchanged(true)(cfg)

		if cfg.ConfidenceThreshold != 90 {
			t.Errorf("got threshold %d, expected 90", cfg.ConfidenceThreshold)
		}
		if !cfg.SkipUnchanged {
			t.Error("expected SkipUnchanged to be true")
		}
	})

	t.Run("nil store omits persist step", func(t *testing.T) {
		t.Parallel()

		p := DefaultPipeline(nil, nil)

		names := p.StepNames()
		expected := []string{"reconcile", "analyze"}
		if len(names) != len(expected) {
			t.Fatalf("expected %d steps, got %d (%v)", len(expected), len(names), names)
		}
		for i, name := range names {
			if name != expected[i] {
				t.Errorf("step %d: got %q, expected %q", i, name, expected[i])
			}
		}
	})
}

// TestMockStep tests the mock step helper itself.
func TestMockStep(t *testing.T) {
	t.Parallel()

	step := &mockStep{name: "mock"}

	if step.Name() != "mock" {
		t.Errorf("got name %q, expected %q", step.Name(), "mock")
	}

	if err := step.Do(context.Background(), &Job{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if step.callCount != 1 {
		t.Errorf("expected 1 call, got %d", step.callCount)
	}
}
