package jobs

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/jamesprial/crm-housekeeping/internal/graphql"
)

// Option customises a job at construction.
type Option func(*base)

// WithClock replaces time.Now, for deterministic timestamps in tests.
func WithClock(now func() time.Time) Option {
	return func(b *base) { b.now = now }
}

// WithLogger sets the diagnostic logger that receives log-write failures.
func WithLogger(logger *zap.Logger) Option {
	return func(b *base) { b.logger = logger }
}

// base carries the collaborators every job needs.
type base struct {
	client graphql.Client
	sink   Appender
	path   string
	logger *zap.Logger
	now    func() time.Time
}

func newBase(client graphql.Client, sink Appender, path string, opts []Option) base {
	if client == nil {
		panic("graphql client must not be nil")
	}
	if sink == nil {
		panic("log sink must not be nil")
	}
	b := base{
		client: client,
		sink:   sink,
		path:   path,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// write appends line to the job log and reports whether it landed.
func (b *base) write(line string) error {
	return b.sink.Append(b.path, line)
}

// writeAll appends lines in order and stops at the first failure.
func (b *base) writeAll(lines []string) error {
	for _, line := range lines {
		if err := b.write(line); err != nil {
			return err
		}
	}
	return nil
}

// report appends a failure line, falling back to the diagnostic logger when
// the log itself cannot be written.
func (b *base) report(job, line string, cause error) {
	if err := b.write(line); err != nil {
		b.logger.Error("job log unwritable",
			zap.String("job", job),
			zap.String("path", b.path),
			zap.String("line", line),
			zap.NamedError("cause", cause),
			zap.Error(err),
		)
	}
}

// query executes document and decodes the "data" object into out. A body
// that does not fit out is reported as a *graphql.TransportFailure, so
// callers handle exactly one failure type for the whole round trip.
func (b *base) query(ctx context.Context, document string, variables map[string]any, out any) error {
	data, err := b.client.Execute(ctx, document, variables)
	if err != nil {
		return err
	}
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &graphql.TransportFailure{Message: "decode response data: " + err.Error(), Err: err}
	}
	return nil
}
