package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/mesubash/library-management-system-sub000/pkg/logger"
	"github.com/mesubash/library-management-system-sub000/pkg/metrics"
)

// Job is one schedulable unit of background work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type jobLocker interface {
	Acquire(ctx context.Context, name string) (bool, error)
	Release(ctx context.Context, name string) error
}

// Runner executes registered jobs on a fixed interval, one instance at a
// time across workers via the shared lock.
type Runner struct {
	jobs     []Job
	lock     jobLocker
	interval time.Duration
	logg     *logger.Logger
	metrics  *metrics.JobMetrics
}

// NewRunner wires the job runner.
func NewRunner(lock jobLocker, interval time.Duration, logg *logger.Logger, jobMetrics *metrics.JobMetrics) (*Runner, error) {
	if lock == nil {
		return nil, fmt.Errorf("job lock is required")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be positive")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Runner{
		lock:     lock,
		interval: interval,
		logg:     logg,
		metrics:  jobMetrics,
	}, nil
}

// Register adds a job to the schedule.
func (r *Runner) Register(job Job) {
	r.jobs = append(r.jobs, job)
}

// Start blocks until ctx is cancelled, running every registered job once
// per interval. The first pass runs immediately.
func (r *Runner) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.runAll(ctx)
	for {
		select {
		case <-ctx.Done():
			r.logg.Info(ctx, "job runner stopping")
			return
		case <-ticker.C:
			r.runAll(ctx)
		}
	}
}

func (r *Runner) runAll(ctx context.Context) {
	var errs []error
	for _, job := range r.jobs {
		if err := r.runOne(ctx, job); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", job.Name(), err))
		}
	}
	if combined := multierr.Combine(errs...); combined != nil {
		r.logg.Error(ctx, "job pass finished with failures", combined)
	}
}

func (r *Runner) runOne(ctx context.Context, job Job) error {
	jobCtx := r.logg.WithField(ctx, "job", job.Name())

	acquired, err := r.lock.Acquire(ctx, job.Name())
	if err != nil {
		r.metrics.IncFailure(job.Name())
		return fmt.Errorf("acquiring job lock: %w", err)
	}
	if !acquired {
		r.logg.Info(jobCtx, "job held by another worker, skipping")
		return nil
	}
	defer func() {
		if err := r.lock.Release(ctx, job.Name()); err != nil {
			r.logg.Warn(jobCtx, "releasing job lock failed")
		}
	}()

	started := time.Now()
	err = job.Run(jobCtx)
	r.metrics.ObserveDuration(job.Name(), time.Since(started))
	if err != nil {
		r.metrics.IncFailure(job.Name())
		return err
	}
	r.metrics.IncSuccess(job.Name())
	r.logg.Info(jobCtx, "job completed")
	return nil
}
