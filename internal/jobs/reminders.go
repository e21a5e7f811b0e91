package jobs

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jamesprial/crm-housekeeping/internal/graphql"
	"github.com/jamesprial/crm-housekeeping/internal/logsink"
)

const recentOrdersQuery = `
query GetRecentOrders($since: DateTime!) {
  orders(orderDate_Gte: $since) {
    id
    customer {
      email
    }
  }
}`

// DefaultLookback is the reminder window when none is configured.
const DefaultLookback = 7 * 24 * time.Hour

type orderCustomer struct {
	Email *string `json:"email"`
}

type orderRecord struct {
	ID       *string        `json:"id"`
	Customer *orderCustomer `json:"customer"`
}

// email returns the customer email, or ErrMalformedOrder when any part of the
// record needed for a reminder line is missing.
func (o orderRecord) email() (string, error) {
	if o.ID == nil || *o.ID == "" {
		return "", fmt.Errorf("%w: missing id", ErrMalformedOrder)
	}
	if o.Customer == nil {
		return "", fmt.Errorf("%w: order %s has no customer", ErrMalformedOrder, *o.ID)
	}
	if o.Customer.Email == nil || *o.Customer.Email == "" {
		return "", fmt.Errorf("%w: order %s has no customer email", ErrMalformedOrder, *o.ID)
	}
	return *o.Customer.Email, nil
}

type recentOrdersResponse struct {
	Orders []orderRecord `json:"orders"`
}

// OrderReminders logs one reminder line per order placed within the lookback
// window. Malformed records are skipped with a WARNING line; the rest of the
// batch is still written.
type OrderReminders struct {
	base
	lookback time.Duration
}

// NewOrderReminders returns an OrderReminders job writing to the log at path.
// A non-positive lookback falls back to DefaultLookback.
func NewOrderReminders(client graphql.Client, sink Appender, path string, lookback time.Duration, opts ...Option) *OrderReminders {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	return &OrderReminders{base: newBase(client, sink, path, opts), lookback: lookback}
}

// Name implements Job.
func (o *OrderReminders) Name() string { return NameOrderReminders }

// Cutoff returns the earliest order date included in a run started at now.
func (o *OrderReminders) Cutoff(now time.Time) string {
	return now.UTC().Add(-o.lookback).Format(time.RFC3339)
}

// Run queries recent orders and appends a reminder line for each.
func (o *OrderReminders) Run(ctx context.Context) Result {
	now := o.now().UTC()

	var resp recentOrdersResponse
	err := o.query(ctx, recentOrdersQuery, map[string]any{"since": o.Cutoff(now)}, &resp)
	if err != nil {
		return o.fail(err)
	}

	ts := "[" + now.Format(logsink.StandardLayout) + "]"
	written, skipped := 0, 0
	for _, order := range resp.Orders {
		email, err := order.email()
		if err != nil {
			skipped++
			o.logger.Warn("skipping malformed order", zap.Error(err))
			if werr := o.write(ts + " WARNING: skipped " + err.Error()); werr != nil {
				return o.fail(werr)
			}
			continue
		}
		if err := o.write(fmt.Sprintf("%s Order ID: %s, Customer Email: %s", ts, *order.ID, email)); err != nil {
			return o.fail(err)
		}
		written++
	}

	return Result{
		Name:      NameOrderReminders,
		Succeeded: true,
		Detail:    fmt.Sprintf("%d reminders logged, %d malformed orders skipped", written, skipped),
	}
}

func (o *OrderReminders) fail(err error) Result {
	ts := "[" + o.now().UTC().Format(logsink.StandardLayout) + "]"
	o.report(NameOrderReminders, ts+" ERROR: "+err.Error(), err)
	return Result{Name: NameOrderReminders, Succeeded: false, Detail: err.Error()}
}
