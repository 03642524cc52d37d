package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStart_RunsImmediately(t *testing.T) {
	var runs atomic.Int32
	s := New(func(_ context.Context) error {
		runs.Add(1)
		return nil
	}, "@every 1h", discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	deadline := time.After(2 * time.Second)
	for runs.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("first run did not fire immediately")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("start returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop on cancel")
	}

	if got := runs.Load(); got != 1 {
		t.Errorf("runs = %d, want 1 (only the immediate run)", got)
	}
}

func TestStart_InvalidSchedule(t *testing.T) {
	s := New(func(_ context.Context) error { return nil }, "not a cron spec", discardLogger())
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}

func TestStart_RunErrorDoesNotStopScheduler(t *testing.T) {
	var runs atomic.Int32
	s := New(func(_ context.Context) error {
		runs.Add(1)
		return errors.New("run failed")
	}, "@every 50ms", discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("start returned %v", err)
	}
	if runs.Load() < 2 {
		t.Errorf("runs = %d, scheduler should keep going after a failed run", runs.Load())
	}
}

func TestTrigger_SkipsOverlappingRuns(t *testing.T) {
	block := make(chan struct{})
	var runs atomic.Int32
	s := New(func(_ context.Context) error {
		runs.Add(1)
		<-block
		return nil
	}, "@every 1h", discardLogger())

	ctx := context.Background()
	go s.trigger(ctx)

	// Wait for the first run to be in flight, then trigger again.
	deadline := time.After(2 * time.Second)
	for runs.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("first trigger never started")
		case <-time.After(5 * time.Millisecond):
		}
	}
	s.trigger(ctx)
	close(block)

	if got := runs.Load(); got != 1 {
		t.Errorf("runs = %d, overlapping trigger should be skipped", got)
	}
}
