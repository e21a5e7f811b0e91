// Package bootstrap wires configuration, diagnostics and the job set shared
// by the crm-cron, order-reminders and crm-mcp entry points.
package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/jamesprial/crm-housekeeping/internal/config"
	"github.com/jamesprial/crm-housekeeping/internal/graphql"
	"github.com/jamesprial/crm-housekeeping/internal/jobs"
	"github.com/jamesprial/crm-housekeeping/internal/telemetry"
)

// DefaultConfigPath is read when CRM_CONFIG_PATH is unset.
const DefaultConfigPath = "/etc/crm-housekeeping/config.yaml"

// ConfigPath returns CRM_CONFIG_PATH, or DefaultConfigPath.
func ConfigPath() string {
	if p := os.Getenv("CRM_CONFIG_PATH"); p != "" {
		return p
	}
	return DefaultConfigPath
}

// LoadDotEnv loads a .env file from the working directory if one exists.
// A missing file is not an error.
func LoadDotEnv(filenames ...string) error {
	if err := godotenv.Load(filenames...); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return fmt.Errorf("load .env file: %w", err)
		}
	}
	return nil
}

// LoadConfig builds the process configuration: the YAML file at path (or
// defaults when it does not exist), then environment overrides, then
// validation. A file that exists but cannot be parsed is an error.
func LoadConfig(path string, logger *zap.Logger) (*config.Config, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Info("config file not found, using defaults", zap.String("path", path))
		cfg = config.DefaultConfig()
	case err != nil:
		return nil, fmt.Errorf("load config %q: %w", path, err)
	default:
		logger.Debug("loaded config", zap.String("path", path))
	}

	if err := config.ApplyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// JobSet holds one instance of every job, each with its own GraphQL client.
type JobSet struct {
	Heartbeat      *jobs.Heartbeat
	LowStock       *jobs.LowStockUpdate
	OrderReminders *jobs.OrderReminders
}

// All returns the jobs in their canonical order.
func (s *JobSet) All() []jobs.Job {
	return []jobs.Job{s.Heartbeat, s.LowStock, s.OrderReminders}
}

// BuildJobs constructs the job set described by cfg. Every job appends
// through sink and reports unwritable log lines to logger.
func BuildJobs(cfg *config.Config, sink jobs.Appender, logger *zap.Logger) (*JobSet, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	newClient := func(job config.JobConfig) (*graphql.HTTPClient, error) {
		return graphql.NewHTTPClient(cfg.ClientConfig(job))
	}

	hbClient, err := newClient(cfg.Jobs.Heartbeat)
	if err != nil {
		return nil, fmt.Errorf("heartbeat client: %w", err)
	}
	lsClient, err := newClient(cfg.Jobs.LowStock)
	if err != nil {
		return nil, fmt.Errorf("low stock client: %w", err)
	}
	orClient, err := newClient(cfg.Jobs.OrderReminders.JobConfig)
	if err != nil {
		return nil, fmt.Errorf("order reminders client: %w", err)
	}

	lookback := time.Duration(cfg.Jobs.OrderReminders.LookbackDays) * 24 * time.Hour
	return &JobSet{
		Heartbeat: jobs.NewHeartbeat(hbClient, sink, cfg.Logs.HeartbeatPath(),
			jobs.WithLogger(logger.With(zap.String("job", jobs.NameHeartbeat)))),
		LowStock: jobs.NewLowStockUpdate(lsClient, sink, cfg.Logs.LowStockPath(),
			jobs.WithLogger(logger.With(zap.String("job", jobs.NameLowStockUpdate)))),
		OrderReminders: jobs.NewOrderReminders(orClient, sink, cfg.Logs.OrderReminderPath, lookback,
			jobs.WithLogger(logger.With(zap.String("job", jobs.NameOrderReminders)))),
	}, nil
}

// FlushMetrics writes the metrics textfile when path is set. Failures are
// logged and otherwise ignored so they never change a job's outcome.
func FlushMetrics(metrics *telemetry.Metrics, path string, logger *zap.Logger) {
	if metrics == nil || path == "" {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := metrics.WriteTextfile(path); err != nil {
		logger.Warn("write metrics textfile", zap.String("path", path), zap.Error(err))
	}
}
