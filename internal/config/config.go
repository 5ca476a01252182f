// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Default configuration values.
const (
	DefaultHost               = "0.0.0.0"
	DefaultPort               = 8080
	DefaultLogLevel           = "INFO"
	DefaultLogFormat          = "pretty"
	DefaultGitHubBaseURL      = "https://api.github.com"
	DefaultGitHubTimeout      = 30 * time.Second
	DefaultAdvisorModel       = "gpt-4o-mini"
	DefaultAdvisorTimeout     = 60 * time.Second
	DefaultDailySyncHour      = 3
	DefaultRetrySweepInterval = 10 * time.Minute
	DefaultMaxConcurrentRetry = 5
	DefaultJobMaxRetries      = 3
	DefaultEventBatchSize     = 50
	DefaultMirrorSubdir       = "mirrors"
)

// GitHubConfig configures the version-control host client.
type GitHubConfig struct {
	token   string
	baseURL string
	timeout time.Duration
}

// Token returns the API token.
func (g GitHubConfig) Token() string { return g.token }

// BaseURL returns the API base URL.
func (g GitHubConfig) BaseURL() string { return g.baseURL }

// Timeout returns the per-request timeout.
func (g GitHubConfig) Timeout() time.Duration { return g.timeout }

// AdvisorConfig configures the documentation-impact language model endpoint.
type AdvisorConfig struct {
	apiKey  string
	baseURL string
	model   string
	timeout time.Duration
}

// APIKey returns the API key.
func (a AdvisorConfig) APIKey() string { return a.apiKey }

// BaseURL returns the endpoint base URL (empty means the provider default).
func (a AdvisorConfig) BaseURL() string { return a.baseURL }

// Model returns the model identifier.
func (a AdvisorConfig) Model() string { return a.model }

// Timeout returns the per-request timeout.
func (a AdvisorConfig) Timeout() time.Duration { return a.timeout }

// IsConfigured reports whether the advisor endpoint can be called at all.
func (a AdvisorConfig) IsConfigured() bool { return a.apiKey != "" }

// SyncConfig configures the sync scheduler and retry sweeps.
type SyncConfig struct {
	dailyEnabled       bool
	dailyHour          int
	retrySweepInterval time.Duration
	maxConcurrentRetry int
	jobMaxRetries      int
}

// DailyEnabled reports whether the daily scheduled sweep runs.
func (s SyncConfig) DailyEnabled() bool { return s.dailyEnabled }

// DailyHour returns the UTC hour of the daily sweep.
func (s SyncConfig) DailyHour() int { return s.dailyHour }

// RetrySweepInterval returns how often failed jobs are re-checked.
func (s SyncConfig) RetrySweepInterval() time.Duration { return s.retrySweepInterval }

// MaxConcurrentRetry caps how many failed jobs one sweep re-executes in parallel.
func (s SyncConfig) MaxConcurrentRetry() int { return s.maxConcurrentRetry }

// JobMaxRetries returns the default retry budget for new sync jobs.
func (s SyncConfig) JobMaxRetries() int { return s.jobMaxRetries }

// AppConfig holds the full application configuration.
type AppConfig struct {
	host          string
	port          int
	dataDir       string
	dbURL         string
	logLevel      string
	logFormat     string
	apiKeys       []string
	webhookSecret string
	mirrorEnabled bool
	github        GitHubConfig
	advisor       AdvisorConfig
	sync          SyncConfig
}

// AppConfigOption mutates an AppConfig during construction.
type AppConfigOption func(*AppConfig)

// NewAppConfig creates an AppConfig with defaults applied.
func NewAppConfig(opts ...AppConfigOption) AppConfig {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	cfg := AppConfig{
		host:      DefaultHost,
		port:      DefaultPort,
		dataDir:   filepath.Join(home, ".codecite"),
		logLevel:  DefaultLogLevel,
		logFormat: DefaultLogFormat,
		github: GitHubConfig{
			baseURL: DefaultGitHubBaseURL,
			timeout: DefaultGitHubTimeout,
		},
		advisor: AdvisorConfig{
			model:   DefaultAdvisorModel,
			timeout: DefaultAdvisorTimeout,
		},
		sync: SyncConfig{
			dailyEnabled:       true,
			dailyHour:          DefaultDailySyncHour,
			retrySweepInterval: DefaultRetrySweepInterval,
			maxConcurrentRetry: DefaultMaxConcurrentRetry,
			jobMaxRetries:      DefaultJobMaxRetries,
		},
	}

	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Apply returns a copy of the config with the given options applied.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithHost sets the server host.
func WithHost(host string) AppConfigOption {
	return func(c *AppConfig) { c.host = host }
}

// WithPort sets the server port.
func WithPort(port int) AppConfigOption {
	return func(c *AppConfig) { c.port = port }
}

// WithDataDir sets the data directory.
func WithDataDir(dir string) AppConfigOption {
	return func(c *AppConfig) { c.dataDir = dir }
}

// WithDBURL sets the database connection URL.
func WithDBURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.dbURL = url }
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = level }
}

// WithLogFormat sets the log format.
func WithLogFormat(format string) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithAPIKeys sets the accepted API keys.
func WithAPIKeys(keys []string) AppConfigOption {
	return func(c *AppConfig) { c.apiKeys = keys }
}

// WithWebhookSecret sets the shared webhook signing secret.
func WithWebhookSecret(secret string) AppConfigOption {
	return func(c *AppConfig) { c.webhookSecret = secret }
}

// WithMirrorEnabled switches host access to local git mirrors.
func WithMirrorEnabled(enabled bool) AppConfigOption {
	return func(c *AppConfig) { c.mirrorEnabled = enabled }
}

// WithGitHub sets the version-control host configuration.
func WithGitHub(g GitHubConfig) AppConfigOption {
	return func(c *AppConfig) { c.github = g }
}

// WithAdvisor sets the language model endpoint configuration.
func WithAdvisor(a AdvisorConfig) AppConfigOption {
	return func(c *AppConfig) { c.advisor = a }
}

// WithSync sets the sync scheduler configuration.
func WithSync(s SyncConfig) AppConfigOption {
	return func(c *AppConfig) { c.sync = s }
}

// Host returns the server host.
func (c AppConfig) Host() string { return c.host }

// Port returns the server port.
func (c AppConfig) Port() int { return c.port }

// Addr returns the host:port listen address.
func (c AppConfig) Addr() string { return fmt.Sprintf("%s:%d", c.host, c.port) }

// DataDir returns the data directory.
func (c AppConfig) DataDir() string { return c.dataDir }

// DBURL returns the database URL, defaulting to a sqlite file in the data dir.
func (c AppConfig) DBURL() string {
	if c.dbURL != "" {
		return c.dbURL
	}
	return "sqlite:///" + filepath.Join(c.dataDir, "codecite.db")
}

// LogLevel returns the log level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log format.
func (c AppConfig) LogFormat() string { return c.logFormat }

// APIKeys returns the accepted API keys.
func (c AppConfig) APIKeys() []string {
	keys := make([]string, len(c.apiKeys))
	copy(keys, c.apiKeys)
	return keys
}

// WebhookSecret returns the webhook signing secret.
func (c AppConfig) WebhookSecret() string { return c.webhookSecret }

// MirrorEnabled reports whether host access should use local git mirrors.
func (c AppConfig) MirrorEnabled() bool { return c.mirrorEnabled }

// GitHub returns the version-control host configuration.
func (c AppConfig) GitHub() GitHubConfig { return c.github }

// Advisor returns the language model endpoint configuration.
func (c AppConfig) Advisor() AdvisorConfig { return c.advisor }

// Sync returns the sync scheduler configuration.
func (c AppConfig) Sync() SyncConfig { return c.sync }

// MirrorDir returns the directory local repository mirrors are cloned into.
func (c AppConfig) MirrorDir() string {
	return filepath.Join(c.dataDir, DefaultMirrorSubdir)
}

// EnsureDataDir creates the data directory if missing.
func (c AppConfig) EnsureDataDir() error {
	return os.MkdirAll(c.dataDir, 0o755)
}

// EnsureMirrorDir creates the mirror directory if missing.
func (c AppConfig) EnsureMirrorDir() error {
	return os.MkdirAll(c.MirrorDir(), 0o755)
}
