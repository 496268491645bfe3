// Package config provides configuration loading and validation for
// housekeeper. Files are TOML, or YAML when the name ends in .yaml/.yml.
//
// Configuration structure:
//   - [logging]: Logging level, format, and output
//   - [lock]: PID lock directory and how scheduled runs wait for a busy lock
//   - [metrics]: Prometheus endpoint used by `housekeeper serve`
//   - [[targets]]: Managed directories, one table per directory
//
// Example:
//
//	[logging]
//	level = "info"
//
//	[[targets]]
//	name = "uploads"
//	path = "${UPLOADS_DIR:/srv/uploads}"
//	mode = "archive"
//	min_age_seconds = 86400
//	schedule = "0 3 * * *"
//
// Environment variables can be referenced using ${VAR} or ${VAR:default}
// syntax in paths, and a leading ~/ is expanded to the home directory.
package config

// Config represents the main application configuration.
type Config struct {
	Logging LoggingConfig  `toml:"logging" yaml:"logging"`
	Lock    LockConfig     `toml:"lock" yaml:"lock"`
	Metrics MetricsConfig  `toml:"metrics" yaml:"metrics"`
	Targets []TargetConfig `toml:"targets" yaml:"targets"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
	Output string `toml:"output" yaml:"output"`
}

// LockConfig represents lock file configuration
type LockConfig struct {
	Dir                 string `toml:"dir" yaml:"dir"`
	RetryAttempts       int    `toml:"retry_attempts" yaml:"retry_attempts"`               // scheduled runs only; 0 = default (3)
	RetryBackoffSeconds int    `toml:"retry_backoff_seconds" yaml:"retry_backoff_seconds"` // first wait, doubled each time; 0 = default (5)
}

// MetricsConfig represents the Prometheus endpoint configuration
type MetricsConfig struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Listen  string `toml:"listen" yaml:"listen"`
}

// TargetConfig describes one managed directory.
type TargetConfig struct {
	Name          string `toml:"name" yaml:"name"`
	Path          string `toml:"path" yaml:"path"`
	Mode          string `toml:"mode" yaml:"mode"`                       // archive or delete
	MinAgeSeconds int64  `toml:"min_age_seconds" yaml:"min_age_seconds"` // 0 = no age filter
	Schedule      string `toml:"schedule" yaml:"schedule"`               // cron expression, used by serve
	Enabled       *bool  `toml:"enabled" yaml:"enabled"`                 // nil = enabled
}

// IsEnabled reports whether the target takes part in run and serve.
func (t TargetConfig) IsEnabled() bool {
	return t.Enabled == nil || *t.Enabled
}

// EnabledTargets returns the targets that are not switched off.
func (c *Config) EnabledTargets() []TargetConfig {
	var targets []TargetConfig
	for _, t := range c.Targets {
		if t.IsEnabled() {
			targets = append(targets, t)
		}
	}
	return targets
}

// FindTarget returns the target with the given name.
func (c *Config) FindTarget(name string) (TargetConfig, bool) {
	for _, t := range c.Targets {
		if t.Name == name {
			return t, true
		}
	}
	return TargetConfig{}, false
}
