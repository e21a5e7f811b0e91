// Package telemetry provides the diagnostic logger and run metrics for the
// CRM housekeeping jobs.
package telemetry

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewRunID returns an identifier for one process run. It ties diagnostics,
// audit entries and metrics from the same run together.
func NewRunID() string {
	return uuid.NewString()
}

// NewLogger builds a production zap logger that writes to stderr, tagged with
// the process name and runID. Stdout is left to the human-readable job
// summary.
func NewLogger(process, runID string, debug bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if debug {
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	logger, err := config.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(
		zap.String("process", process),
		zap.String("run_id", runID),
	), nil
}
