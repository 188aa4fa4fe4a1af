package reaper

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/vvka-141/pgreap/pkg/pgreap"
)

// Reaper orchestrates discovery, confirmation and dropping.
// A Reaper may be reused for several runs but not concurrently.
type Reaper struct {
	client   pgreap.DatabaseClient
	approver pgreap.Approver
	logger   pgreap.Logger
	out      *console
}

// Option configures a Reaper.
type Option func(*Reaper)

// WithOutput redirects the report lines, which default to os.Stdout and
// os.Stderr.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(r *Reaper) {
		r.out.stdout = stdout
		r.out.stderr = stderr
	}
}

// New creates a Reaper. It panics on nil dependencies.
func New(client pgreap.DatabaseClient, approver pgreap.Approver, logger pgreap.Logger, opts ...Option) *Reaper {
	if client == nil {
		panic("client cannot be nil")
	}
	if approver == nil {
		panic("approver cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	r := &Reaper{
		client:   client,
		approver: approver,
		logger:   logger,
		out:      &console{stdout: os.Stdout, stderr: os.Stderr},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run performs one reap. Declining, dry runs and empty candidate sets are
// successful runs. Drop failures are reported in the Report and only become
// an error wrapping pgreap.ErrDropFailures when cfg.FailOnError is set.
func (r *Reaper) Run(ctx context.Context, cfg pgreap.Config) (*pgreap.Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	conn := cfg.Connection
	r.out.Printf("Connecting to Postgres: host=%s port=%d user=%s db=%s", conn.Host, conn.Port, conn.Username, conn.Database)
	r.out.Printf("Searching for databases matching regex: %s", cfg.Pattern)
	r.logger.Verbose("backend=%s auth=%s", cfg.Backend, conn.AuthMethod)

	discoverCtx, cancel := callContext(ctx, cfg.CallTimeout)
	candidates, err := Discover(discoverCtx, r.client, cfg.Pattern)
	cancel()
	if err != nil {
		return nil, err
	}

	report := &pgreap.Report{Candidates: candidates}
	if len(candidates) == 0 {
		r.out.Printf("No databases found that match the pattern. Nothing to do.")
		return report, nil
	}

	r.out.Printf("Found databases:")
	for _, name := range candidates {
		r.out.Printf("  - %s", name)
	}

	proceed, err := r.gate(ctx, cfg, report)
	if err != nil || !proceed {
		return report, err
	}

	workers := Workers(cfg.MaxParallel, len(candidates))
	r.out.Printf("Dropping %d databases with concurrency=%d...", len(candidates), workers)

	start := time.Now()
	dropper := &Dropper{
		client:      r.client,
		limit:       cfg.MaxParallel,
		callTimeout: cfg.CallTimeout,
		out:         r.out,
	}
	report.Succeeded, report.Failed = dropper.Run(ctx, candidates)
	r.logger.Verbose("drop phase took %v", time.Since(start).Round(time.Millisecond))

	r.out.Printf("%s", report)

	if cfg.FailOnError && report.Failed > 0 {
		return report, fmt.Errorf("%d of %d databases could not be dropped: %w", report.Failed, len(candidates), pgreap.ErrDropFailures)
	}
	return report, nil
}

// gate decides whether the drop phase runs.
func (r *Reaper) gate(ctx context.Context, cfg pgreap.Config, report *pgreap.Report) (bool, error) {
	if cfg.DryRun {
		r.out.Printf("Dry-run: not dropping any databases.")
		report.DryRun = true
		return false, nil
	}
	if cfg.AssumeYes {
		return true, nil
	}

	approved, err := r.approver.RequestApproval(ctx, report.Candidates)
	if err != nil {
		return false, fmt.Errorf("confirmation: %w", err)
	}
	if !approved {
		r.out.Printf("Aborted.")
		report.Aborted = true
		return false, nil
	}
	return true, nil
}

func callContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}
