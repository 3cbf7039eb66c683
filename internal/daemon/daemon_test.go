package daemon_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tarpagad/yt2tg/internal/daemon"
	"github.com/tarpagad/yt2tg/internal/logging"
	"github.com/tarpagad/yt2tg/internal/pipeline"
	"github.com/tarpagad/yt2tg/internal/testsupport"
)

type stubRunner struct {
	cycles  int
	results []pipeline.CycleResult
	errs    []error
	onCycle func(cycle int)
}

func (r *stubRunner) RunCycle(context.Context) (pipeline.CycleResult, error) {
	cycle := r.cycles
	r.cycles++
	if r.onCycle != nil {
		r.onCycle(cycle)
	}
	var result pipeline.CycleResult
	if cycle < len(r.results) {
		result = r.results[cycle]
	}
	var err error
	if cycle < len(r.errs) {
		err = r.errs[cycle]
	}
	return result, err
}

func TestRunOnceExecutesSingleCycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	runner := &stubRunner{results: []pipeline.CycleResult{{Polled: 3, Delivered: 1}}}

	d, err := daemon.New(cfg, runner, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := d.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if result.Delivered != 1 {
		t.Fatalf("expected runner result passed through, got %+v", result)
	}
	if runner.cycles != 1 {
		t.Fatalf("expected exactly 1 cycle, got %d", runner.cycles)
	}
}

func TestRunOnceRejectsSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	blocked := make(chan struct{})
	proceed := make(chan struct{})
	first := &stubRunner{onCycle: func(int) {
		close(blocked)
		<-proceed
	}}
	d1, err := daemon.New(cfg, first, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := d1.RunOnce(context.Background())
		done <- err
	}()
	<-blocked

	d2, err := daemon.New(cfg, &stubRunner{}, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := d2.RunOnce(context.Background()); err == nil {
		t.Fatal("expected second instance to fail while lock is held")
	}

	close(proceed)
	if err := <-done; err != nil {
		t.Fatalf("first RunOnce: %v", err)
	}
}

func TestWatchStopsOnCancel(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.PollInterval = 1
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	runner := &stubRunner{onCycle: func(cycle int) {
		if cycle >= 1 {
			cancel()
		}
	}}

	d, err := daemon.New(cfg, runner, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- d.Watch(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Watch: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("watch did not stop after cancellation")
	}
	if runner.cycles < 1 {
		t.Fatalf("expected at least one cycle, got %d", runner.cycles)
	}
}

func TestWatchStopsOnCycleError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.PollInterval = 1
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	boom := errors.New("state file unreadable")
	runner := &stubRunner{errs: []error{boom}}

	d, err := daemon.New(cfg, runner, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := d.Watch(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected cycle error surfaced, got %v", err)
	}
	if runner.cycles != 1 {
		t.Fatalf("expected watch to stop after failing cycle, got %d cycles", runner.cycles)
	}
}
