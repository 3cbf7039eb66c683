package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"github.com/tarpagad/yt2tg/internal/config"
	"github.com/tarpagad/yt2tg/internal/logging"
	"github.com/tarpagad/yt2tg/internal/pipeline"
)

// CycleRunner executes one poll-filter-deliver pass.
type CycleRunner interface {
	RunCycle(ctx context.Context) (pipeline.CycleResult, error)
}

// Daemon runs pipeline cycles on a fixed interval and enforces
// single-instance execution through a lock file. The same lock guards
// one-shot runs, so an overlapping cron invocation cannot race a running
// watcher for the state file.
type Daemon struct {
	cfg    *config.Config
	runner CycleRunner
	logger *slog.Logger

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
}

// New constructs a daemon around the provided cycle runner.
func New(cfg *config.Config, runner CycleRunner, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || runner == nil {
		return nil, errors.New("daemon requires config and cycle runner")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := cfg.LockFilePath()
	return &Daemon{
		cfg:      cfg,
		runner:   runner,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// LockPath returns the lock file guarding pipeline runs.
func (d *Daemon) LockPath() string {
	return d.lockPath
}

func (d *Daemon) acquireLock() (func(), error) {
	ok, err := d.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another yt2tg instance holds %s", d.lockPath)
	}
	return func() {
		if err := d.lock.Unlock(); err != nil {
			d.logger.Warn("failed to release lock", logging.Error(err))
		}
	}, nil
}

// RunOnce executes a single cycle under the instance lock.
func (d *Daemon) RunOnce(ctx context.Context) (pipeline.CycleResult, error) {
	if !d.running.CompareAndSwap(false, true) {
		return pipeline.CycleResult{}, errors.New("daemon already running")
	}
	defer d.running.Store(false)

	release, err := d.acquireLock()
	if err != nil {
		return pipeline.CycleResult{}, err
	}
	defer release()

	return d.runner.RunCycle(ctx)
}

// Watch runs cycles until the context is cancelled. Cycle errors are
// fatal: by the time RunCycle reports one, the delivery boundary can no
// longer be trusted and continuing would risk duplicate sends.
func (d *Daemon) Watch(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return errors.New("daemon already running")
	}
	defer d.running.Store(false)

	release, err := d.acquireLock()
	if err != nil {
		return err
	}
	defer release()

	interval := time.Duration(d.cfg.Workflow.PollInterval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	d.logger.Info("watch started",
		logging.Duration("poll_interval", interval),
		logging.String("lock", d.lockPath),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		result, err := d.runner.RunCycle(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				d.logger.Info("watch stopped")
				return nil
			}
			d.logger.Error("cycle failed; stopping",
				logging.Error(err),
				logging.String(logging.FieldEventType, "cycle_failed"),
				logging.String(logging.FieldErrorHint, "inspect the state file before restarting"),
			)
			return err
		}
		if result.Pending > 0 {
			d.logger.Info("cycle complete",
				logging.Int("polled", result.Polled),
				logging.Int("delivered", result.Delivered),
				logging.Int("failed", result.Failed),
			)
		}

		select {
		case <-ctx.Done():
			d.logger.Info("watch stopped")
			return nil
		case <-ticker.C:
		}
	}
}
