// Package jobs runs the periodic ingestion jobs that feed scoring and read endpoints.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"alpha-move/internal/observability"
)

// DefaultSchedule runs jobs at the top of every hour. The first field is seconds.
const DefaultSchedule = "0 0 * * * *"

// Job is one unit of periodic work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Runner schedules jobs on a cron with seconds precision.
type Runner struct {
	cron    *cron.Cron
	baseCtx context.Context
	logger  zerolog.Logger
	jobs    []Job
}

// NewRunner creates a Runner whose jobs receive baseCtx.
func NewRunner(baseCtx context.Context, logger *zerolog.Logger) *Runner {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	l := log.Logger
	if logger != nil {
		l = *logger
	}
	return &Runner{
		cron:    cron.New(cron.WithSeconds()),
		baseCtx: baseCtx,
		logger:  l.With().Str("component", "jobs").Logger(),
	}
}

// Add schedules job on spec. Overlapping runs of the same job are skipped.
func (r *Runner) Add(spec string, job Job) error {
	wrapped := cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(cron.FuncJob(func() {
		r.execute(r.baseCtx, job)
	}))
	if _, err := r.cron.AddJob(spec, wrapped); err != nil {
		return fmt.Errorf("schedule %s: %w", job.Name(), err)
	}
	r.jobs = append(r.jobs, job)
	return nil
}

// RunAll executes every scheduled job once, in the order they were added.
// It returns the number of jobs that failed.
func (r *Runner) RunAll(ctx context.Context) int {
	failed := 0
	for _, job := range r.jobs {
		if ctx.Err() != nil {
			break
		}
		if err := r.execute(ctx, job); err != nil {
			failed++
		}
	}
	return failed
}

// Start starts the cron scheduler in its own goroutine.
func (r *Runner) Start() {
	r.logger.Info().Int("jobs", len(r.jobs)).Msg("cron started")
	r.cron.Start()
}

// Stop stops the scheduler and waits for running jobs.
func (r *Runner) Stop() {
	<-r.cron.Stop().Done()
	r.logger.Info().Msg("cron stopped")
}

func (r *Runner) execute(ctx context.Context, job Job) (err error) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
		status := "ok"
		if err != nil {
			status = "failed"
			r.logger.Error().Err(err).Str("job", job.Name()).Msg("job failed")
		} else {
			r.logger.Info().Str("job", job.Name()).Dur("duration", time.Since(start)).Msg("job completed")
		}
		observability.RecordJobRun(job.Name(), status, time.Since(start))
	}()
	return job.Run(ctx)
}
