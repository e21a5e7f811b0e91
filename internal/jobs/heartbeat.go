package jobs

import (
	"context"

	"go.uber.org/zap"

	"github.com/jamesprial/crm-housekeeping/internal/graphql"
	"github.com/jamesprial/crm-housekeeping/internal/logsink"
)

const helloQuery = `{ hello }`

// helloResponse is the data shape of the hello query.
type helloResponse struct {
	Hello *string `json:"hello"`
}

// Heartbeat records that the CRM ran and checks that its GraphQL API answers.
type Heartbeat struct {
	base
}

// NewHeartbeat returns a Heartbeat job writing to the log at path.
func NewHeartbeat(client graphql.Client, sink Appender, path string, opts ...Option) *Heartbeat {
	return &Heartbeat{base: newBase(client, sink, path, opts)}
}

// Name implements Job.
func (h *Heartbeat) Name() string { return NameHeartbeat }

// Run writes the alive line, then the hello check outcome. If the alive line
// cannot be written the check is skipped and the job fails.
func (h *Heartbeat) Run(ctx context.Context) Result {
	ts := h.now().Format(logsink.HeartbeatLayout)

	if err := h.write(ts + " CRM is alive"); err != nil {
		h.logger.Error("write heartbeat log", zap.String("path", h.path), zap.Error(err))
		return Result{Name: NameHeartbeat, Succeeded: false, Detail: err.Error()}
	}

	var resp helloResponse
	if err := h.query(ctx, helloQuery, nil, &resp); err != nil {
		h.report(NameHeartbeat, ts+" GraphQL hello check failed: "+err.Error(), err)
		return Result{Name: NameHeartbeat, Succeeded: false, Detail: err.Error()}
	}

	hello := "No response"
	if resp.Hello != nil {
		hello = *resp.Hello
	}
	if err := h.write(ts + " GraphQL hello response: " + hello); err != nil {
		h.report(NameHeartbeat, ts+" GraphQL hello check failed: "+err.Error(), err)
		return Result{Name: NameHeartbeat, Succeeded: false, Detail: err.Error()}
	}

	h.logger.Debug("heartbeat recorded", zap.String("hello", hello))
	return Result{Name: NameHeartbeat, Succeeded: true, Detail: hello}
}
