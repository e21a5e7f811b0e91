// Command crm-cron records a CRM heartbeat and runs the low-stock update. It
// exits 0 only when both jobs succeed.
package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/jamesprial/crm-housekeeping/internal/bootstrap"
	"github.com/jamesprial/crm-housekeeping/internal/jobs"
	"github.com/jamesprial/crm-housekeeping/internal/logsink"
	"github.com/jamesprial/crm-housekeeping/internal/telemetry"
)

func main() {
	os.Exit(run())
}

func run() int {
	runID := telemetry.NewRunID()
	logger, err := telemetry.NewLogger("crm-cron", runID, os.Getenv("CRM_DEBUG") != "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := bootstrap.LoadConfig(bootstrap.ConfigPath(), logger)
	if err != nil {
		logger.Error("load configuration", zap.Error(err))
		return 1
	}

	set, err := bootstrap.BuildJobs(cfg, logsink.New(), logger)
	if err != nil {
		logger.Error("build jobs", zap.Error(err))
		return 1
	}

	metrics, err := telemetry.NewMetrics()
	if err != nil {
		logger.Error("init metrics", zap.Error(err))
		return 1
	}

	fmt.Println("Starting CRM operations...")
	results := jobs.NewRunner(os.Stdout, logger, metrics,
		jobs.Step{Job: set.Heartbeat, OnSuccess: "Heartbeat logged successfully", OnFailure: "Heartbeat failed"},
		jobs.Step{Job: set.LowStock, OnSuccess: "Low stock update completed", OnFailure: "Low stock update failed"},
	).Run(context.Background())

	bootstrap.FlushMetrics(metrics, cfg.Metrics.TextfilePath, logger)
	return jobs.ExitCode(results)
}
