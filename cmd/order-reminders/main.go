// Command order-reminders logs a reminder line for every recent order.
//
// It always exits 0, even when the job fails; the failure is printed and
// logged at warning level. Schedulers that need a failure signal should
// watch the log or the crm_job_success metric.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/jamesprial/crm-housekeeping/internal/bootstrap"
	"github.com/jamesprial/crm-housekeeping/internal/jobs"
	"github.com/jamesprial/crm-housekeeping/internal/logsink"
	"github.com/jamesprial/crm-housekeeping/internal/telemetry"
)

func main() {
	logger, err := telemetry.NewLogger("order-reminders", telemetry.NewRunID(), os.Getenv("CRM_DEBUG") != "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(0)
	}
	code := run(context.Background(), os.Stdout, logger)
	_ = logger.Sync()
	os.Exit(code)
}

// run executes the reminder job and returns the process exit status.
func run(ctx context.Context, out io.Writer, logger *zap.Logger) int {
	cfg, err := bootstrap.LoadConfig(bootstrap.ConfigPath(), logger)
	if err != nil {
		return report(out, logger, []jobs.Result{{Name: jobs.NameOrderReminders, Detail: err.Error()}})
	}

	set, err := bootstrap.BuildJobs(cfg, logsink.New(), logger)
	if err != nil {
		return report(out, logger, []jobs.Result{{Name: jobs.NameOrderReminders, Detail: err.Error()}})
	}

	metrics, err := telemetry.NewMetrics()
	if err != nil {
		logger.Warn("init metrics", zap.Error(err))
	}

	var observer jobs.Observer
	if metrics != nil {
		observer = metrics
	}
	// The runner's ✓/✗ line is dropped; report prints this command's summary.
	results := jobs.NewRunner(io.Discard, logger, observer, jobs.Step{Job: set.OrderReminders}).Run(ctx)
	bootstrap.FlushMetrics(metrics, cfg.Metrics.TextfilePath, logger)

	return report(out, logger, results)
}

// report prints the outcome line and returns the exit status, which is 0
// whatever the outcome.
func report(out io.Writer, logger *zap.Logger, results []jobs.Result) int {
	for _, res := range results {
		if !res.Succeeded {
			logger.Warn("order reminders failed; exit status stays 0", zap.String("detail", res.Detail))
			fmt.Fprintf(out, "Error processing order reminders: %s\n", res.Detail)
			return 0
		}
	}
	fmt.Fprintln(out, "Order reminders processed!")
	return 0
}
