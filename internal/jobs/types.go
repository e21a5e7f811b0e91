// Package jobs implements the CRM housekeeping jobs: the heartbeat check,
// the low-stock update and the order reminder scan. Each job performs one
// GraphQL call, appends its outcome to a plain-text log and reports a Result.
package jobs

import (
	"context"
	"errors"
)

// Job names, used for metrics labels, MCP tool filtering and diagnostics.
const (
	NameHeartbeat      = "heartbeat"
	NameLowStockUpdate = "low_stock_update"
	NameOrderReminders = "order_reminders"
)

// ErrMalformedOrder marks an order record that lacks its id or customer email.
var ErrMalformedOrder = errors.New("malformed order record")

// Result is the outcome of exactly one job execution.
type Result struct {
	Name      string `json:"name"`
	Succeeded bool   `json:"succeeded"`
	Detail    string `json:"detail"`
}

// Job is a single unit of housekeeping work. Run never returns an error:
// every failure is folded into the Result and the job's log.
type Job interface {
	Name() string
	Run(ctx context.Context) Result
}

// Appender is the log sink used by jobs. *logsink.Sink satisfies it.
type Appender interface {
	Append(path, line string) error
}
