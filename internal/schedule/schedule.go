// Package schedule repeats a reap on a cron schedule until interrupted.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/robfig/cron/v3"

	"github.com/vvka-141/pgreap/pkg/pgreap"
)

// Job is one scheduled run.
type Job func(ctx context.Context) error

// Parse accepts a standard five-field cron expression or a descriptor such
// as "@hourly" or "@every 30m".
func Parse(expr string) (cron.Schedule, error) {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("schedule %q: %v: %w", expr, err, pgreap.ErrInvalidConfig)
	}
	return sched, nil
}

// Validate reports whether expr parses.
func Validate(expr string) error {
	_, err := Parse(expr)
	return err
}

// Run executes job on every tick of expr until ctx is cancelled, then waits
// for a running job to return. A tick that arrives while the previous run is
// still going is skipped. Job errors are logged and do not stop the schedule.
func Run(ctx context.Context, expr string, job Job, logger pgreap.Logger) error {
	sched, err := Parse(expr)
	if err != nil {
		return err
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger})))
	c.Schedule(sched, cron.FuncJob(func() {
		started := time.Now()
		if err := job(ctx); err != nil {
			logger.Error("scheduled reap failed after %v: %v", time.Since(started).Round(time.Millisecond), err)
		}
		logNext(logger, sched.Next(time.Now()))
	}))

	c.Start()
	logger.Info("Scheduled reaping with %q", expr)
	logNext(logger, sched.Next(time.Now()))

	<-ctx.Done()
	<-c.Stop().Done()
	logger.Verbose("scheduler stopped")
	return nil
}

func logNext(logger pgreap.Logger, next time.Time) {
	if next.IsZero() {
		return
	}
	logger.Info("Next run at %s (%s)", next.Format(time.RFC3339), humanize.Time(next))
}

// cronLogger adapts pgreap.Logger to cron.Logger.
type cronLogger struct {
	logger pgreap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Verbose("cron: %s %v", msg, keysAndValues)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: %s: %v %v", msg, err, keysAndValues)
}
