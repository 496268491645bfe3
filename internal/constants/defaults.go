package constants

// DefaultVersion is the default version of the application
const DefaultVersion = "0.1.0-dev"

// DefaultBuildTime is the default build time when not provided at build time
const DefaultBuildTime = "unknown"

// DefaultGitCommit is the default git commit hash when not provided at build time
const DefaultGitCommit = "unknown"

// DefaultGoVersion is the default Go version when not provided at build time
const DefaultGoVersion = "unknown"

// MetricsNamespace prefixes every exported Prometheus metric
const MetricsNamespace = "housekeeper"

// DefaultMetricsListen is the listen address of the metrics endpoint
const DefaultMetricsListen = "127.0.0.1:9464"

// DefaultMode is used by targets that do not set mode
const DefaultMode = "archive"

// DefaultLockRetryAttempts is how often a scheduled run tries to take a busy lock
const DefaultLockRetryAttempts = 3

// DefaultLockRetryBackoffSeconds is the first wait between lock attempts
const DefaultLockRetryBackoffSeconds = 5
