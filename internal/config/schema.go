// Package config provides configuration loading and validation for taskpoll.
// Configuration is read from TOML or YAML files (chosen by extension), with
// environment variable expansion, default values and validation.
//
// Configuration structure:
//   - [server]: HTTP listen address, gin mode and timeouts
//   - [queue]: polling interval, duplicate id policy, random seed
//   - [janitor]: scheduled eviction of resolved tasks
//   - [metrics]: Prometheus endpoint
//   - [logging]: log level, format and output
//   - [worker]: settings of the `taskpoll work` client
//
// Environment variables can be referenced using ${VAR} or ${VAR:default}
// syntax, for example: addr = "${TASKPOLL_ADDR::8080}"
package config

import "time"

// Config represents the main application configuration.
type Config struct {
	Server  ServerConfig  `toml:"server" yaml:"server"`
	Queue   QueueConfig   `toml:"queue" yaml:"queue"`
	Janitor JanitorConfig `toml:"janitor" yaml:"janitor"`
	Metrics MetricsConfig `toml:"metrics" yaml:"metrics"`
	Logging LoggingConfig `toml:"logging" yaml:"logging"`
	Worker  WorkerConfig  `toml:"worker" yaml:"worker"`
}

// ServerConfig configures the HTTP transport.
type ServerConfig struct {
	Addr                     string `toml:"addr" yaml:"addr"`
	Mode                     string `toml:"mode" yaml:"mode"` // gin mode: debug, release, test
	ReadHeaderTimeoutSeconds int    `toml:"read_header_timeout_seconds" yaml:"read_header_timeout_seconds"`
	ShutdownTimeoutSeconds   int    `toml:"shutdown_timeout_seconds" yaml:"shutdown_timeout_seconds"`
}

// QueueConfig configures the task queue engine.
type QueueConfig struct {
	PollingIntervalMs int    `toml:"polling_interval_ms" yaml:"polling_interval_ms"`
	DuplicateIDs      string `toml:"duplicate_ids" yaml:"duplicate_ids"` // reject, overwrite
	RandomSeed        uint64 `toml:"random_seed" yaml:"random_seed"`     // 0 seeds from the clock
}

// PollingInterval returns the configured interval as a duration.
func (c QueueConfig) PollingInterval() time.Duration {
	return time.Duration(c.PollingIntervalMs) * time.Millisecond
}

// JanitorConfig configures eviction of resolved tasks.
type JanitorConfig struct {
	Enabled            bool   `toml:"enabled" yaml:"enabled"`
	Schedule           string `toml:"schedule" yaml:"schedule"`
	ResolvedTTLMinutes int    `toml:"resolved_ttl_minutes" yaml:"resolved_ttl_minutes"`
}

// ResolvedTTL returns how long resolved tasks are retained.
func (c JanitorConfig) ResolvedTTL() time.Duration {
	return time.Duration(c.ResolvedTTLMinutes) * time.Minute
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `toml:"enabled" yaml:"enabled"`
	Namespace string `toml:"namespace" yaml:"namespace"`
	Path      string `toml:"path" yaml:"path"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
	Output string `toml:"output" yaml:"output"`
}

// WorkerConfig configures the long-polling worker client.
type WorkerConfig struct {
	ServerURL          string   `toml:"server_url" yaml:"server_url"`
	Policy             string   `toml:"policy" yaml:"policy"`
	Concurrency        int      `toml:"concurrency" yaml:"concurrency"`
	Command            []string `toml:"command" yaml:"command"`
	TaskTimeoutSeconds int      `toml:"task_timeout_seconds" yaml:"task_timeout_seconds"`
	RetryMaxAttempts   int      `toml:"retry_max_attempts" yaml:"retry_max_attempts"`
	// Embedded runs the worker pool inside "serve" against the local queue.
	Embedded bool `toml:"embedded" yaml:"embedded"`
}

// TaskTimeout returns the per-task execution limit.
func (c WorkerConfig) TaskTimeout() time.Duration {
	return time.Duration(c.TaskTimeoutSeconds) * time.Second
}
