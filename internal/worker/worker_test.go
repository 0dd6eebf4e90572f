package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"repro/internal/logging"
	"repro/internal/scanner"
)

type countingRunner struct {
	passes atomic.Int32
	stopAt int32
	cancel context.CancelFunc
	err    error
}

func (r *countingRunner) RunAll(context.Context) (map[string]scanner.Summary, error) {
	if r.passes.Add(1) >= r.stopAt {
		r.cancel()
	}
	return map[string]scanner.Summary{"preview": {Claimed: 1}}, r.err
}

func TestRunLoopsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runner := &countingRunner{stopAt: 3, cancel: cancel, err: errors.New("pass failed")}

	done := make(chan error, 1)
	go func() { done <- New(runner, time.Millisecond, logging.NewNop()).Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
	if got := runner.passes.Load(); got != 3 {
		t.Fatalf("expected 3 passes, got %d", got)
	}
}

func TestRunStopsDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := &countingRunner{stopAt: 100, cancel: func() {}}
	done := make(chan error, 1)
	go func() { done <- New(runner, time.Hour, logging.NewNop()).Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker ignored cancellation while waiting")
	}
	if got := runner.passes.Load(); got != 1 {
		t.Fatalf("expected a single pass, got %d", got)
	}
}
