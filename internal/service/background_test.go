package service

import (
	"context"
	"testing"
	"time"
)

func TestBackgroundRunnerExecutesTask(t *testing.T) {
	runner, err := NewBackgroundRunner(2, time.Second, nil)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	defer runner.Shutdown(time.Second)

	done := make(chan struct{})
	runner.Submit("test-task", func(ctx context.Context) {
		if _, ok := ctx.Deadline(); !ok {
			t.Errorf("task context must carry a deadline")
		}
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("task never ran")
	}
}

func TestBackgroundRunnerSurvivesPanic(t *testing.T) {
	runner, err := NewBackgroundRunner(1, time.Second, nil)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	defer runner.Shutdown(time.Second)

	runner.Submit("panics", func(context.Context) {
		panic("boom")
	})

	done := make(chan struct{})
	deadline := time.After(2 * time.Second)
	for {
		ran := make(chan struct{})
		runner.Submit("after-panic", func(context.Context) { close(ran) })
		select {
		case <-ran:
			close(done)
		case <-time.After(50 * time.Millisecond):
			// nonblocking pool may drop while the panicking task occupies
			// the single worker; retry until it frees up
		case <-deadline:
			t.Fatalf("pool never recovered after panic")
		}
		select {
		case <-done:
			return
		default:
		}
	}
}

func TestBackgroundRunnerShutdownDrains(t *testing.T) {
	runner, err := NewBackgroundRunner(1, time.Second, nil)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}

	done := make(chan struct{})
	runner.Submit("slow", func(context.Context) {
		time.Sleep(100 * time.Millisecond)
		close(done)
	})

	runner.Shutdown(time.Second)

	select {
	case <-done:
	case <-time.After(10 * time.Millisecond):
		t.Fatalf("shutdown returned before the in-flight task finished")
	}
}
