package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/aatumaykin/housekeeper/internal/cleanup"
	"github.com/aatumaykin/housekeeper/internal/constants"
)

// Load loads configuration from a TOML or YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	default:
		meta, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
		}
	}

	expandVars(&cfg)
	applyDefaults(&cfg)

	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Validate checks the configuration and returns every problem found
func (c *Config) Validate() []error {
	var errs []error

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid logging.level: %s (expected: debug, info, warn, error)", c.Logging.Level))
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Errorf("invalid logging.format: %s (expected: json, text)", c.Logging.Format))
	}
	if c.Logging.Output == "" {
		errs = append(errs, fmt.Errorf("logging.output is required"))
	}

	if c.Lock.Dir == "" {
		errs = append(errs, fmt.Errorf("lock.dir is required"))
	}
	if c.Lock.RetryAttempts < 1 {
		errs = append(errs, fmt.Errorf("lock.retry_attempts must be >= 1 (got %d)", c.Lock.RetryAttempts))
	}
	if c.Lock.RetryBackoffSeconds < 0 {
		errs = append(errs, fmt.Errorf("lock.retry_backoff_seconds must be >= 0 (got %d)", c.Lock.RetryBackoffSeconds))
	}

	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		errs = append(errs, fmt.Errorf("metrics.listen is required when metrics are enabled"))
	}

	seen := make(map[string]bool)
	for i, t := range c.Targets {
		field := fmt.Sprintf("targets[%d]", i)

		if t.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", field))
		} else if seen[t.Name] {
			errs = append(errs, fmt.Errorf("%s.name %q is used more than once", field, t.Name))
		}
		seen[t.Name] = true

		if err := validatePath(t.Path, field+".path"); err != nil {
			errs = append(errs, err)
		}
		if _, err := cleanup.ParseMode(t.Mode); err != nil {
			errs = append(errs, fmt.Errorf("%s.mode: %w", field, err))
		}
		if t.MinAgeSeconds < 0 || t.MinAgeSeconds > cleanup.MaxMinAgeSeconds {
			errs = append(errs, fmt.Errorf("%s.min_age_seconds must be between 0 and %d (got %d)",
				field, cleanup.MaxMinAgeSeconds, t.MinAgeSeconds))
		}
		if t.Schedule != "" {
			if err := cleanup.ValidateSchedule(t.Schedule); err != nil {
				errs = append(errs, fmt.Errorf("%s.schedule: %w", field, err))
			}
		}
	}

	return errs
}

func validatePath(path, fieldName string) error {
	if path == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return fmt.Errorf("%s contains potentially dangerous path traversal sequence", fieldName)
		}
	}

	if filepath.Clean(path) == string(filepath.Separator) {
		return fmt.Errorf("%s must not be the filesystem root", fieldName)
	}

	return nil
}

// applyDefaults fills in default values
func applyDefaults(c *Config) {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stderr"
	}

	if c.Lock.Dir == "" {
		c.Lock.Dir = filepath.Join(os.TempDir(), constants.LockDirName)
	}
	if c.Lock.RetryAttempts == 0 {
		c.Lock.RetryAttempts = constants.DefaultLockRetryAttempts
	}
	if c.Lock.RetryBackoffSeconds == 0 {
		c.Lock.RetryBackoffSeconds = constants.DefaultLockRetryBackoffSeconds
	}

	if c.Metrics.Listen == "" {
		c.Metrics.Listen = constants.DefaultMetricsListen
	}

	for i := range c.Targets {
		t := &c.Targets[i]
		if t.Mode == "" {
			t.Mode = constants.DefaultMode
		}
		if t.Name == "" && t.Path != "" {
			t.Name = filepath.Base(filepath.Clean(t.Path))
		}
	}
}
