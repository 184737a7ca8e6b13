// Copyright 2026 The C3fleet Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Node type policies accepted by Validate. "alternate" round-robins
// between fast and large across successive launches.
const (
	TypeFast      = "fast"
	TypeLarge     = "large"
	TypeAlternate = "alternate"
)

// Config is the full configuration for the c3fleet supervisor.
//
// Sources are layered in precedence order: command-line flags >
// environment variables > YAML config file > Default(). The caller
// applies the layers explicitly:
//
//	cfg := config.Default()
//	cfg.ApplyFile(path)        // if --config was given
//	cfg.ApplyEnvironment()
//	// ... flag overrides ...
//	cfg.Validate()
type Config struct {
	// Nodes is the target fleet size: how many nodes the supervisor
	// launches at startup and, with KeepRunning, holds alive.
	Nodes int

	// NodeType selects the workload flavor per launch: "fast",
	// "large", or "alternate" (round-robin across the fleet).
	NodeType string

	// KeepRunning replaces dead nodes to hold the fleet at Nodes.
	// When false, a dead node shrinks the fleet permanently.
	KeepRunning bool

	// NoRemove leaves nodes running at exit instead of stopping them.
	NoRemove bool

	// PollInterval is the steady-state delay between health checks of
	// a healthy node, and the period of the provider listing sweep.
	PollInterval time.Duration

	// RuntimeLease is how long a launched workload is paid for; the
	// launch request carries expires = now + RuntimeLease.
	RuntimeLease time.Duration

	// BootDelay is the grace period between a successful launch and
	// the node's first health check.
	BootDelay time.Duration

	// CheckTimeout bounds a single health check request, and the
	// provider listing call during a sweep.
	CheckTimeout time.Duration

	// LaunchPacing is the courtesy delay between consecutive launch
	// requests during the initial fill.
	LaunchPacing time.Duration

	// APIBaseURL is the provider API endpoint.
	APIBaseURL string

	// MetricsAddr serves /metrics, /live, and /ready when non-empty.
	MetricsAddr string

	// EventsURL enables NATS lifecycle event publishing when non-empty.
	EventsURL string

	// EventsPrefix is the NATS subject prefix for lifecycle events.
	EventsPrefix string

	// Debug enables debug-level logging.
	Debug bool

	// APIKey authenticates every provider request. Environment only
	// (C3_API_KEY); never read from the config file, never logged.
	APIKey string `yaml:"-"`
}

// Default returns the built-in configuration. These values double as
// the CLI flag defaults.
func Default() *Config {
	return &Config{
		Nodes:        1,
		NodeType:     TypeAlternate,
		KeepRunning:  false,
		NoRemove:     false,
		PollInterval: 30 * time.Second,
		RuntimeLease: time.Hour,
		BootDelay:    5 * time.Second,
		CheckTimeout: 5 * time.Second,
		LaunchPacing: 2 * time.Second,
		APIBaseURL:   "https://api.comput3.ai/api/v0",
		MetricsAddr:  "",
		EventsURL:    "",
		EventsPrefix: "c3fleet",
	}
}

// fileConfig is the YAML shape of the config file. Durations are
// strings ("30s", "1h") parsed with time.ParseDuration. Pointer fields
// distinguish "absent" from explicit zero values.
type fileConfig struct {
	Nodes        *int   `yaml:"nodes"`
	NodeType     string `yaml:"node_type"`
	KeepRunning  *bool  `yaml:"keep_running"`
	NoRemove     *bool  `yaml:"no_remove"`
	PollInterval string `yaml:"poll_interval"`
	RuntimeLease string `yaml:"runtime_lease"`
	BootDelay    string `yaml:"boot_delay"`
	CheckTimeout string `yaml:"check_timeout"`
	LaunchPacing string `yaml:"launch_pacing"`
	APIBaseURL   string `yaml:"api_url"`
	MetricsAddr  string `yaml:"metrics_addr"`
	EventsURL    string `yaml:"events_url"`
	EventsPrefix string `yaml:"events_prefix"`
	Debug        *bool  `yaml:"debug"`
}

// ApplyFile merges the YAML config file at path over the current
// values. Fields absent from the file are left untouched.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if file.Nodes != nil {
		c.Nodes = *file.Nodes
	}
	if file.NodeType != "" {
		c.NodeType = file.NodeType
	}
	if file.KeepRunning != nil {
		c.KeepRunning = *file.KeepRunning
	}
	if file.NoRemove != nil {
		c.NoRemove = *file.NoRemove
	}
	if file.APIBaseURL != "" {
		c.APIBaseURL = file.APIBaseURL
	}
	if file.MetricsAddr != "" {
		c.MetricsAddr = file.MetricsAddr
	}
	if file.EventsURL != "" {
		c.EventsURL = file.EventsURL
	}
	if file.EventsPrefix != "" {
		c.EventsPrefix = file.EventsPrefix
	}
	if file.Debug != nil {
		c.Debug = *file.Debug
	}

	var errs []error
	applyDuration := func(raw, field string, dst *time.Duration) {
		if raw == "" {
			return
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
			return
		}
		*dst = d
	}
	applyDuration(file.PollInterval, "poll_interval", &c.PollInterval)
	applyDuration(file.RuntimeLease, "runtime_lease", &c.RuntimeLease)
	applyDuration(file.BootDelay, "boot_delay", &c.BootDelay)
	applyDuration(file.CheckTimeout, "check_timeout", &c.CheckTimeout)
	applyDuration(file.LaunchPacing, "launch_pacing", &c.LaunchPacing)
	if len(errs) > 0 {
		return fmt.Errorf("config file %s: %w", path, errors.Join(errs...))
	}
	return nil
}

// ApplyEnvironment merges environment variables over the current
// values:
//
//   - C3_API_KEY: the provider credential.
//   - WORKLOAD_POLL: poll interval in whole seconds. Ignored unless
//     positive. The caller applies flags after this, so an explicit
//     --poll still wins.
//   - C3FLEET_DEBUG: any non-empty value enables debug logging.
func (c *Config) ApplyEnvironment() error {
	if key := os.Getenv("C3_API_KEY"); key != "" {
		c.APIKey = key
	}
	if raw := os.Getenv("WORKLOAD_POLL"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid WORKLOAD_POLL %q: want whole seconds", raw)
		}
		if seconds > 0 {
			c.PollInterval = time.Duration(seconds) * time.Second
		}
	}
	if os.Getenv("C3FLEET_DEBUG") != "" {
		c.Debug = true
	}
	return nil
}

// LoadEnvFile loads a .env file from the working directory into the
// process environment. Variables already set in the real environment
// win. A missing .env file is not an error.
func LoadEnvFile() error {
	if err := godotenv.Load(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

// Validate checks the configuration for errors. All violations are
// reported together via errors.Join.
func (c *Config) Validate() error {
	var errs []error

	if c.Nodes < 1 {
		errs = append(errs, fmt.Errorf("nodes must be at least 1, got %d", c.Nodes))
	}
	switch c.NodeType {
	case TypeFast, TypeLarge, TypeAlternate:
	default:
		errs = append(errs, fmt.Errorf("node type must be %q, %q, or %q, got %q",
			TypeFast, TypeLarge, TypeAlternate, c.NodeType))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll interval must be positive, got %v", c.PollInterval))
	}
	if c.RuntimeLease <= 0 {
		errs = append(errs, fmt.Errorf("runtime lease must be positive, got %v", c.RuntimeLease))
	}
	if c.BootDelay <= 0 {
		errs = append(errs, fmt.Errorf("boot delay must be positive, got %v", c.BootDelay))
	}
	if c.CheckTimeout <= 0 {
		errs = append(errs, fmt.Errorf("check timeout must be positive, got %v", c.CheckTimeout))
	}
	if c.LaunchPacing < 0 {
		errs = append(errs, fmt.Errorf("launch pacing must not be negative, got %v", c.LaunchPacing))
	}

	if c.APIBaseURL == "" {
		errs = append(errs, fmt.Errorf("API base URL is required"))
	} else if u, err := url.Parse(c.APIBaseURL); err != nil {
		errs = append(errs, fmt.Errorf("invalid API base URL %q: %w", c.APIBaseURL, err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, fmt.Errorf("API base URL %q must be http or https", c.APIBaseURL))
	}

	if c.EventsURL != "" && c.EventsPrefix == "" {
		errs = append(errs, fmt.Errorf("events prefix is required when events are enabled"))
	}

	if c.APIKey == "" {
		errs = append(errs, fmt.Errorf("C3_API_KEY is not set"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
