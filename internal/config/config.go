package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Default returns the configuration used when no file is given.
func Default() Config {
	cfg := Config{
		Janitor: JanitorConfig{Enabled: true},
		Metrics: MetricsConfig{Enabled: true},
	}
	applyDefaults(&cfg)
	return cfg
}

// Load reads a TOML or YAML configuration file. Keys missing from the
// file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyDefaults(&cfg)
	expandEnvVars(&cfg)

	return &cfg, nil
}

// LoadOrDefault behaves like Load, but falls back to Default when the file
// does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		expandEnvVars(&cfg)
		return &cfg, nil
	}
	return Load(path)
}

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() []error {
	var errors []error

	if c.Server.Addr == "" {
		errors = append(errors, fmt.Errorf("server.addr is required"))
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		errors = append(errors, fmt.Errorf("invalid server.mode: %s (expected: debug, release, test)", c.Server.Mode))
	}
	if c.Server.ShutdownTimeoutSeconds < 0 {
		errors = append(errors, fmt.Errorf("server.shutdown_timeout_seconds must be >= 0"))
	}

	if c.Queue.PollingIntervalMs <= 0 {
		errors = append(errors, fmt.Errorf("queue.polling_interval_ms must be > 0 (got %d)", c.Queue.PollingIntervalMs))
	}
	switch c.Queue.DuplicateIDs {
	case "reject", "overwrite":
	default:
		errors = append(errors, fmt.Errorf("invalid queue.duplicate_ids: %s (expected: reject, overwrite)", c.Queue.DuplicateIDs))
	}

	if c.Janitor.Enabled {
		if _, err := cron.ParseStandard(c.Janitor.Schedule); err != nil {
			errors = append(errors, fmt.Errorf("invalid janitor.schedule %q: %w", c.Janitor.Schedule, err))
		}
		if c.Janitor.ResolvedTTLMinutes <= 0 {
			errors = append(errors, fmt.Errorf("janitor.resolved_ttl_minutes must be > 0 when janitor is enabled"))
		}
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errors = append(errors, fmt.Errorf("metrics.path must start with '/' (got %q)", c.Metrics.Path))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errors = append(errors, fmt.Errorf("invalid logging.level: %s (expected: debug, info, warn, error)", c.Logging.Level))
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errors = append(errors, fmt.Errorf("invalid logging.format: %s (expected: json, text)", c.Logging.Format))
	}

	errors = append(errors, c.Worker.validate()...)

	return errors
}

func (w *WorkerConfig) validate() []error {
	var errors []error

	if u, err := url.Parse(w.ServerURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errors = append(errors, fmt.Errorf("worker.server_url must be an absolute http(s) URL (got %q)", w.ServerURL))
	}
	switch w.Policy {
	case "first", "random", "any":
	default:
		errors = append(errors, fmt.Errorf("invalid worker.policy: %s (expected: first, random, any)", w.Policy))
	}
	if w.Concurrency < 1 {
		errors = append(errors, fmt.Errorf("worker.concurrency must be >= 1"))
	}
	if w.Embedded && len(w.Command) == 0 {
		errors = append(errors, fmt.Errorf("worker.command is required when worker.embedded is set"))
	}
	for _, arg := range w.Command {
		if arg == "" {
			errors = append(errors, fmt.Errorf("worker.command contains an empty argument"))
			break
		}
	}

	return errors
}

func applyDefaults(c *Config) {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	if c.Server.ReadHeaderTimeoutSeconds == 0 {
		c.Server.ReadHeaderTimeoutSeconds = 10
	}
	if c.Server.ShutdownTimeoutSeconds == 0 {
		c.Server.ShutdownTimeoutSeconds = 10
	}

	if c.Queue.PollingIntervalMs == 0 {
		c.Queue.PollingIntervalMs = 30000
	}
	if c.Queue.DuplicateIDs == "" {
		c.Queue.DuplicateIDs = "reject"
	}

	if c.Janitor.Schedule == "" {
		c.Janitor.Schedule = "@every 1m"
	}
	if c.Janitor.ResolvedTTLMinutes == 0 {
		c.Janitor.ResolvedTTLMinutes = 60
	}

	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "taskpoll"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}

	if c.Worker.ServerURL == "" {
		c.Worker.ServerURL = "http://localhost:8080"
	}
	if c.Worker.Policy == "" {
		c.Worker.Policy = "first"
	}
	if c.Worker.Concurrency == 0 {
		c.Worker.Concurrency = 1
	}
	if c.Worker.TaskTimeoutSeconds == 0 {
		c.Worker.TaskTimeoutSeconds = 300
	}
	if c.Worker.RetryMaxAttempts == 0 {
		c.Worker.RetryMaxAttempts = 5
	}
}

func expandEnvVars(c *Config) {
	c.Server.Addr = expandEnv(c.Server.Addr)
	c.Worker.ServerURL = expandEnv(c.Worker.ServerURL)
	c.Logging.Level = expandEnv(c.Logging.Level)
	c.Logging.Output = expandHome(expandEnv(c.Logging.Output))
	for i, arg := range c.Worker.Command {
		c.Worker.Command[i] = expandEnv(arg)
	}
}

// expandEnv expands a value of the form ${VAR} or ${VAR:default}. Other
// values are returned unchanged.
func expandEnv(s string) string {
	if !strings.HasPrefix(s, "${") || !strings.HasSuffix(s, "}") {
		return s
	}

	content := s[2 : len(s)-1]
	if key, def, ok := strings.Cut(content, ":"); ok {
		if val := os.Getenv(key); val != "" {
			return val
		}
		return def
	}
	return os.Getenv(content)
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
