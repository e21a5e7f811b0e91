package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jamesprial/crm-housekeeping/internal/config"
	"github.com/jamesprial/crm-housekeeping/internal/jobs"
	"github.com/jamesprial/crm-housekeeping/internal/logsink"
	"github.com/jamesprial/crm-housekeeping/internal/telemetry"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestConfigPath(t *testing.T) {
	t.Setenv("CRM_CONFIG_PATH", "")
	assert.Equal(t, DefaultConfigPath, ConfigPath())

	t.Setenv("CRM_CONFIG_PATH", "/srv/crm.yaml")
	assert.Equal(t, "/srv/crm.yaml", ConfigPath())
}

func TestLoadDotEnv(t *testing.T) {
	const key = "CRM_BOOTSTRAP_DOTENV_TEST"
	t.Cleanup(func() { os.Unsetenv(key) })

	require.NoError(t, LoadDotEnv(writeFile(t, ".env", key+"=from-dotenv\n")))
	assert.Equal(t, "from-dotenv", os.Getenv(key))

	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")), "missing .env is ignored")
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), zap.New(core))

	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().Jobs, cfg.Jobs)
	assert.Equal(t, 1, logs.FilterMessage("config file not found, using defaults").Len())
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	t.Setenv("GRAPHQL_URL", "https://crm.example.com/graphql")
	path := writeFile(t, "config.yaml", `
graphql:
  url: http://ignored:8000/graphql
logs:
  dir: /var/log/crm
jobs:
  order_reminders:
    lookback_days: 3
`)

	cfg, err := LoadConfig(path, nil)

	require.NoError(t, err)
	assert.Equal(t, "https://crm.example.com/graphql", cfg.GraphQL.URL)
	assert.Equal(t, "/var/log/crm/crm_heartbeat_log.txt", cfg.Logs.HeartbeatPath())
	assert.Equal(t, 3, cfg.Jobs.OrderReminders.LookbackDays)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "bad yaml", content: "graphql: [unclosed", wantErr: "load config"},
		{name: "invalid values", content: "jobs:\n  low_stock:\n    retries: -1\n", wantErr: "invalid config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeFile(t, "config.yaml", tt.content), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBuildJobs(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Logs.Dir = t.TempDir()
	cfg.Jobs.OrderReminders.LookbackDays = 2

	set, err := BuildJobs(cfg, logsink.New(), zap.NewNop())

	require.NoError(t, err)
	names := make([]string, 0, 3)
	for _, j := range set.All() {
		names = append(names, j.Name())
	}
	assert.Equal(t, []string{jobs.NameHeartbeat, jobs.NameLowStockUpdate, jobs.NameOrderReminders}, names)

	now := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-10-10T00:00:00Z", set.OrderReminders.Cutoff(now))
}

func TestBuildJobs_InvalidURL(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.GraphQL.URL = "ftp://crm.example.com"

	_, err := BuildJobs(cfg, logsink.New(), zap.NewNop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "heartbeat client")
}

func TestFlushMetrics(t *testing.T) {
	m, err := telemetry.NewMetrics()
	require.NoError(t, err)
	m.Observe(jobs.NameHeartbeat, true, time.Second, time.Now())

	path := filepath.Join(t.TempDir(), "crm.prom")
	FlushMetrics(m, path, zap.NewNop())
	_, err = os.Stat(path)
	assert.NoError(t, err)

	core, logs := observer.New(zapcore.DebugLevel)
	FlushMetrics(m, filepath.Join(t.TempDir(), "missing", "crm.prom"), zap.New(core))
	assert.Equal(t, 1, logs.FilterMessage("write metrics textfile").Len())

	assert.NotPanics(t, func() { FlushMetrics(nil, path, zap.NewNop()) })
}
