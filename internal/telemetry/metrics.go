package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the per-job gauges written to a node_exporter textfile after
// each run. It uses its own registry so repeated construction in one process
// never collides with the default registerer.
type Metrics struct {
	registry *prometheus.Registry

	JobSuccess  *prometheus.GaugeVec
	JobDuration *prometheus.GaugeVec
	JobLastRun  *prometheus.GaugeVec
}

// NewMetrics initializes and registers the job gauges.
func NewMetrics() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		JobSuccess: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "crm_job_success",
				Help: "1 if the last run of the job succeeded, 0 otherwise",
			},
			[]string{"job"},
		),
		JobDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "crm_job_duration_seconds",
				Help: "Wall-clock duration of the last run of the job",
			},
			[]string{"job"},
		),
		JobLastRun: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "crm_job_last_run_timestamp_seconds",
				Help: "Unix time at which the last run of the job finished",
			},
			[]string{"job"},
		),
	}

	for _, c := range []prometheus.Collector{m.JobSuccess, m.JobDuration, m.JobLastRun} {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}
	return m, nil
}

// Observe records the outcome of one job run.
func (m *Metrics) Observe(job string, succeeded bool, duration time.Duration, finished time.Time) {
	success := 0.0
	if succeeded {
		success = 1
	}
	m.JobSuccess.WithLabelValues(job).Set(success)
	m.JobDuration.WithLabelValues(job).Set(duration.Seconds())
	m.JobLastRun.WithLabelValues(job).Set(float64(finished.Unix()))
}

// Gatherer exposes the registry for inspection.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile atomically replaces path with the current metric values in
// the Prometheus text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
