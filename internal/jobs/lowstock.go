package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/jamesprial/crm-housekeeping/internal/graphql"
	"github.com/jamesprial/crm-housekeeping/internal/logsink"
)

const lowStockMutation = `
mutation {
  updateLowStockProducts {
    updatedProducts
    message
  }
}`

// lowStockResponse is the data shape of the updateLowStockProducts mutation.
// updatedProducts is declared as [String] but some servers return objects,
// so entries are kept raw and rendered by describeProduct.
type lowStockResponse struct {
	UpdateLowStockProducts *struct {
		UpdatedProducts []json.RawMessage `json:"updatedProducts"`
		Message         *string           `json:"message"`
	} `json:"updateLowStockProducts"`
}

// LowStockUpdate asks the server to restock products below threshold and logs
// what it changed.
type LowStockUpdate struct {
	base
}

// NewLowStockUpdate returns a LowStockUpdate job writing to the log at path.
func NewLowStockUpdate(client graphql.Client, sink Appender, path string, opts ...Option) *LowStockUpdate {
	return &LowStockUpdate{base: newBase(client, sink, path, opts)}
}

// Name implements Job.
func (l *LowStockUpdate) Name() string { return NameLowStockUpdate }

// Run executes the mutation and appends a summary line followed by one line
// per updated product, or "No products updated".
func (l *LowStockUpdate) Run(ctx context.Context) Result {
	ts := l.now().Format(logsink.StandardLayout)

	var resp lowStockResponse
	if err := l.query(ctx, lowStockMutation, nil, &resp); err != nil {
		return l.fail(ts, err)
	}

	message := "No message"
	var products []json.RawMessage
	if r := resp.UpdateLowStockProducts; r != nil {
		if r.Message != nil {
			message = *r.Message
		}
		products = r.UpdatedProducts
	}

	lines := []string{ts + " - " + message}
	if len(products) == 0 {
		lines = append(lines, ts+" - No products updated")
	}
	for _, p := range products {
		lines = append(lines, ts+" - Updated: "+describeProduct(p))
	}

	if err := l.writeAll(lines); err != nil {
		return l.fail(ts, err)
	}

	l.logger.Debug("low stock update recorded", zap.Int("products", len(products)))
	return Result{
		Name:      NameLowStockUpdate,
		Succeeded: true,
		Detail:    fmt.Sprintf("%s (%d products)", message, len(products)),
	}
}

func (l *LowStockUpdate) fail(ts string, err error) Result {
	l.report(NameLowStockUpdate, ts+" - Low stock update failed: "+err.Error(), err)
	return Result{Name: NameLowStockUpdate, Succeeded: false, Detail: err.Error()}
}

// describeProduct renders a product entry: strings as-is, anything else as
// compact JSON.
func describeProduct(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
