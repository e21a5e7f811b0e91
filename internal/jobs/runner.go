package jobs

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
)

// Step pairs a job with the summary lines printed after it runs.
type Step struct {
	Job       Job
	OnSuccess string
	OnFailure string
}

// Observer receives the outcome of every job run. *telemetry.Metrics
// satisfies it.
type Observer interface {
	Observe(job string, succeeded bool, duration time.Duration, finished time.Time)
}

// Runner executes steps in order, one at a time, and prints a ✓ or ✗ line
// per step to out.
type Runner struct {
	steps    []Step
	out      io.Writer
	logger   *zap.Logger
	observer Observer
}

// NewRunner returns a Runner. logger and observer may be nil.
func NewRunner(out io.Writer, logger *zap.Logger, observer Observer, steps ...Step) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{steps: steps, out: out, logger: logger, observer: observer}
}

// Run executes every step, even after a failure, and returns one Result per
// step in order.
func (r *Runner) Run(ctx context.Context) []Result {
	results := make([]Result, 0, len(r.steps))
	for _, step := range r.steps {
		start := time.Now()
		res := step.Job.Run(ctx)
		finished := time.Now()

		if r.observer != nil {
			r.observer.Observe(step.Job.Name(), res.Succeeded, finished.Sub(start), finished)
		}

		fields := []zap.Field{
			zap.String("job", res.Name),
			zap.Bool("succeeded", res.Succeeded),
			zap.String("detail", res.Detail),
			zap.Duration("duration", finished.Sub(start)),
		}
		if res.Succeeded {
			r.logger.Info("job finished", fields...)
			fmt.Fprintf(r.out, "✓ %s\n", step.OnSuccess)
		} else {
			r.logger.Warn("job failed", fields...)
			fmt.Fprintf(r.out, "✗ %s\n", step.OnFailure)
		}
		results = append(results, res)
	}
	return results
}

// AllSucceeded reports whether every result succeeded.
func AllSucceeded(results []Result) bool {
	for _, r := range results {
		if !r.Succeeded {
			return false
		}
	}
	return true
}

// ExitCode returns 0 when every result succeeded and 1 otherwise.
func ExitCode(results []Result) int {
	if AllSucceeded(results) {
		return 0
	}
	return 1
}
