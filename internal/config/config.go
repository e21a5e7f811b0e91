// Package config provides configuration loading and defaults for the CRM
// housekeeping jobs.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// ResourceFilter holds allowlist and denylist entries for a resource category.
type ResourceFilter struct {
	Allowlist []string `yaml:"allowlist"`
	Denylist  []string `yaml:"denylist"`
}

// SafetyConfig groups the filters applied to jobs exposed over MCP.
type SafetyConfig struct {
	Jobs ResourceFilter `yaml:"jobs"`
}

// GraphQLConfig holds connection details for the CRM GraphQL API.
type GraphQLConfig struct {
	URL       string `yaml:"url" env:"GRAPHQL_URL"`
	VerifyTLS bool   `yaml:"verify_tls" env:"GRAPHQL_VERIFY_TLS"`
	// Timeout is the HTTP request timeout in seconds.
	Timeout int `yaml:"timeout" env:"GRAPHQL_TIMEOUT"`
	// Retries is the number of extra attempts made after a transient failure.
	Retries int `yaml:"retries"`
}

// LogsConfig locates the append-only job logs.
type LogsConfig struct {
	Dir               string `yaml:"dir" env:"LOG_DIR"`
	HeartbeatFile     string `yaml:"heartbeat_file"`
	LowStockFile      string `yaml:"low_stock_file"`
	OrderReminderPath string `yaml:"order_reminder_path" env:"ORDER_REMINDER_LOG"`
}

// HeartbeatPath returns the full path of the heartbeat log.
func (l LogsConfig) HeartbeatPath() string {
	return filepath.Join(l.Dir, l.HeartbeatFile)
}

// LowStockPath returns the full path of the low-stock update log.
func (l LogsConfig) LowStockPath() string {
	return filepath.Join(l.Dir, l.LowStockFile)
}

// JobConfig holds per-job transport settings. A zero Timeout falls back to
// GraphQLConfig.Timeout.
type JobConfig struct {
	Retries int `yaml:"retries"`
	Timeout int `yaml:"timeout"`
}

// OrderRemindersConfig extends JobConfig with the reminder lookback window.
type OrderRemindersConfig struct {
	JobConfig    `yaml:",inline"`
	LookbackDays int `yaml:"lookback_days"`
}

// JobsConfig groups the per-job settings.
type JobsConfig struct {
	Heartbeat      JobConfig            `yaml:"heartbeat"`
	LowStock       JobConfig            `yaml:"low_stock"`
	OrderReminders OrderRemindersConfig `yaml:"order_reminders"`
}

// ServerConfig holds network and authentication settings for the MCP server.
type ServerConfig struct {
	Port      int    `yaml:"port" env:"CRM_MCP_PORT"`
	AuthToken string `yaml:"auth_token" env:"CRM_MCP_AUTH_TOKEN"`
}

// AuditConfig controls audit logging of MCP tool calls.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	LogPath string `yaml:"log_path" env:"CRM_AUDIT_LOG"`
}

// MetricsConfig controls the Prometheus textfile written after each run.
type MetricsConfig struct {
	TextfilePath string `yaml:"textfile_path" env:"CRM_METRICS_TEXTFILE"`
}

// Config is the top-level configuration structure. It is built once at
// process start and passed to every job.
type Config struct {
	GraphQL GraphQLConfig `yaml:"graphql"`
	Logs    LogsConfig    `yaml:"logs"`
	Jobs    JobsConfig    `yaml:"jobs"`
	Server  ServerConfig  `yaml:"server"`
	Safety  SafetyConfig  `yaml:"safety"`
	Audit   AuditConfig   `yaml:"audit"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoadConfig reads and parses a YAML configuration file from the given path.
// Keys absent from the file keep their DefaultConfig values. On error, nil is
// returned for the config pointer.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a new Config populated with sensible default values.
// Each call returns a distinct instance.
func DefaultConfig() *Config {
	return &Config{
		GraphQL: GraphQLConfig{
			URL:       "http://localhost:8000/graphql",
			VerifyTLS: true,
			Timeout:   30,
		},
		Logs: LogsConfig{
			Dir:               "/tmp",
			HeartbeatFile:     "crm_heartbeat_log.txt",
			LowStockFile:      "low_stock_updates_log.txt",
			OrderReminderPath: "/tmp/order_reminders_log.txt",
		},
		Jobs: JobsConfig{
			Heartbeat: JobConfig{Retries: 2, Timeout: 30},
			LowStock:  JobConfig{Retries: 2},
			OrderReminders: OrderRemindersConfig{
				JobConfig:    JobConfig{Retries: 3},
				LookbackDays: 7,
			},
		},
		Server: ServerConfig{
			Port: 8080,
		},
		Audit: AuditConfig{
			Enabled: false,
			LogPath: "/tmp/crm_mcp_audit.log",
		},
	}
}

// ApplyEnvOverrides updates cfg in place with values from environment
// variables. Only variables that are set replace the current value.
// Recognized variables:
//   - GRAPHQL_URL, GRAPHQL_VERIFY_TLS, GRAPHQL_TIMEOUT
//   - LOG_DIR, ORDER_REMINDER_LOG
//   - CRM_MCP_PORT, CRM_MCP_AUTH_TOKEN, CRM_AUDIT_LOG
//   - CRM_METRICS_TEXTFILE
func ApplyEnvOverrides(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse environment overrides: %w", err)
	}
	return nil
}

// Validate reports the first setting that would make a job unrunnable.
func (c *Config) Validate() error {
	if c.GraphQL.URL == "" {
		return errors.New("graphql.url is required")
	}
	if c.GraphQL.Timeout <= 0 {
		return fmt.Errorf("graphql.timeout must be positive, got %d", c.GraphQL.Timeout)
	}
	if c.Logs.Dir == "" {
		return errors.New("logs.dir is required")
	}
	if c.Logs.OrderReminderPath == "" {
		return errors.New("logs.order_reminder_path is required")
	}
	jobs := map[string]JobConfig{
		"heartbeat":       c.Jobs.Heartbeat,
		"low_stock":       c.Jobs.LowStock,
		"order_reminders": c.Jobs.OrderReminders.JobConfig,
	}
	for name, job := range jobs {
		if job.Retries < 0 {
			return fmt.Errorf("jobs.%s.retries must not be negative, got %d", name, job.Retries)
		}
		if job.Timeout < 0 {
			return fmt.Errorf("jobs.%s.timeout must not be negative, got %d", name, job.Timeout)
		}
	}
	if c.Jobs.OrderReminders.LookbackDays <= 0 {
		return fmt.Errorf("jobs.order_reminders.lookback_days must be positive, got %d", c.Jobs.OrderReminders.LookbackDays)
	}
	return nil
}

// ClientConfig returns the GraphQL settings for a single job: the shared
// endpoint and TLS flag with the job's retry count and timeout.
func (c *Config) ClientConfig(job JobConfig) GraphQLConfig {
	gql := c.GraphQL
	gql.Retries = job.Retries
	if job.Timeout > 0 {
		gql.Timeout = job.Timeout
	}
	return gql
}

// EnsureAuthToken generates a random auth token and sets it on cfg if
// cfg.Server.AuthToken is empty. It returns the token (existing or generated)
// and any error encountered during generation.
func EnsureAuthToken(cfg *Config) (string, error) {
	if cfg.Server.AuthToken != "" {
		return cfg.Server.AuthToken, nil
	}
	token, err := GenerateRandomToken()
	if err != nil {
		return "", fmt.Errorf("generate auth token: %w", err)
	}
	cfg.Server.AuthToken = token
	return token, nil
}

// GenerateRandomToken returns a 32-character hex-encoded cryptographically
// random token string.
func GenerateRandomToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand.Read: %w", err)
	}
	return hex.EncodeToString(b), nil
}
