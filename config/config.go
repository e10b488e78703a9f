// Package config loads, persists, and validates the queuectl
// configuration record — the external collaborator the rest of the
// engine treats as a given input.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// ConfigurationError is raised at the config seam: an unknown key
// passed to Get/Set, or an invalid value.
type ConfigurationError struct {
	Key string
	Msg string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Key, e.Msg)
}

// Config holds the tunables every other component reads at startup.
type Config struct {
	MaxRetries uint32 `toml:"max_retries"`

	// BackoffBase is the exponential backoff base; see job.CalculateBackoff.
	BackoffBase float64 `toml:"backoff_base"`

	DBPath string `toml:"db_path"`

	// WorkerPollInterval is the idle poll period, in seconds.
	WorkerPollInterval float64 `toml:"worker_poll_interval"`

	// JobTimeout is the executor's per-command timeout, in seconds.
	JobTimeout int `toml:"job_timeout"`

	// ProcessingLease is the janitor's reclaim window, in seconds.
	// A processing job whose updated_at is older than this is
	// considered orphaned and returned to pending. Defaults to 10x
	// JobTimeout: a wedged executor should not be reclaimed before its
	// own timeout could plausibly have fired.
	ProcessingLease int `toml:"processing_lease"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	jobTimeout := 300
	return &Config{
		MaxRetries:         3,
		BackoffBase:        2.0,
		DBPath:             filepath.Join(home, ".queuectl", "queue.db"),
		WorkerPollInterval: 1.0,
		JobTimeout:         jobTimeout,
		ProcessingLease:    jobTimeout * 10,
	}
}

// DefaultPath returns the default configuration file location,
// <home>/.queuectl/config.toml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".queuectl", "config.toml")
}

// Load reads path and merges it over Default. A missing file is not an
// error: Load returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save persists c as TOML to path, creating parent directories as
// needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: mkdir for %s: %w", path, err)
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// PollInterval returns WorkerPollInterval as a time.Duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.WorkerPollInterval * float64(time.Second))
}

// Timeout returns JobTimeout as a time.Duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.JobTimeout) * time.Second
}

// Lease returns ProcessingLease as a time.Duration.
func (c *Config) Lease() time.Duration {
	return time.Duration(c.ProcessingLease) * time.Second
}

// Get returns the named configuration value, or a *ConfigurationError
// if key is not recognized.
func (c *Config) Get(key string) (any, error) {
	switch key {
	case "max_retries":
		return c.MaxRetries, nil
	case "backoff_base":
		return c.BackoffBase, nil
	case "db_path":
		return c.DBPath, nil
	case "worker_poll_interval":
		return c.WorkerPollInterval, nil
	case "job_timeout":
		return c.JobTimeout, nil
	case "processing_lease":
		return c.ProcessingLease, nil
	default:
		return nil, &ConfigurationError{Key: key, Msg: "unknown configuration key"}
	}
}

// Set assigns the named configuration value in place. It does not
// persist the change; call Save to write it back.
func (c *Config) Set(key string, value any) error {
	switch key {
	case "max_retries":
		v, err := toUint32(value)
		if err != nil {
			return &ConfigurationError{Key: key, Msg: err.Error()}
		}
		c.MaxRetries = v
	case "backoff_base":
		v, err := toFloat64(value)
		if err != nil {
			return &ConfigurationError{Key: key, Msg: err.Error()}
		}
		c.BackoffBase = v
	case "db_path":
		v, ok := value.(string)
		if !ok {
			return &ConfigurationError{Key: key, Msg: "expected a string"}
		}
		c.DBPath = v
	case "worker_poll_interval":
		v, err := toFloat64(value)
		if err != nil {
			return &ConfigurationError{Key: key, Msg: err.Error()}
		}
		c.WorkerPollInterval = v
	case "job_timeout":
		v, err := toInt(value)
		if err != nil {
			return &ConfigurationError{Key: key, Msg: err.Error()}
		}
		c.JobTimeout = v
	case "processing_lease":
		v, err := toInt(value)
		if err != nil {
			return &ConfigurationError{Key: key, Msg: err.Error()}
		}
		c.ProcessingLease = v
	default:
		return &ConfigurationError{Key: key, Msg: "unknown configuration key"}
	}
	return nil
}

func toUint32(v any) (uint32, error) {
	switch n := v.(type) {
	case uint32:
		return n, nil
	case int:
		if n < 0 {
			return 0, fmt.Errorf("expected a non-negative integer")
		}
		return uint32(n), nil
	case int64:
		if n < 0 {
			return 0, fmt.Errorf("expected a non-negative integer")
		}
		return uint32(n), nil
	case float64:
		return uint32(n), nil
	default:
		return 0, fmt.Errorf("expected an integer")
	}
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("expected an integer")
	}
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("expected a number")
	}
}
