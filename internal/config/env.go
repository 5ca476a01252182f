package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration.
// Nested structs use underscore delimiters (e.g. GITHUB_TOKEN, SYNC_DAILY_HOUR).
type EnvConfig struct {
	// Host is the server host to bind to.
	// Env: HOST (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Port is the server port to listen on.
	// Env: PORT (default: 8080)
	Port int `envconfig:"PORT" default:"8080"`

	// DataDir is the data directory path.
	// Env: DATA_DIR
	// Default: ~/.codecite
	DataDir string `envconfig:"DATA_DIR"`

	// DBURL is the database connection URL.
	// Env: DB_URL
	// Default: sqlite:///{data_dir}/codecite.db
	DBURL string `envconfig:"DB_URL"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// APIKeys is a comma-separated list of valid API keys.
	// Env: API_KEYS
	APIKeys string `envconfig:"API_KEYS"`

	// WebhookSecret is the shared secret for webhook signature verification.
	// Env: WEBHOOK_SECRET
	WebhookSecret string `envconfig:"WEBHOOK_SECRET"`

	// MirrorEnabled switches commit and file access to local git mirrors
	// under {data_dir}/mirrors instead of the host API.
	// Env: MIRROR_ENABLED (default: false)
	MirrorEnabled bool `envconfig:"MIRROR_ENABLED" default:"false"`

	// GitHub configures the version-control host client.
	GitHub GitHubEnv `envconfig:"GITHUB"`

	// Advisor configures the documentation-impact language model endpoint.
	Advisor AdvisorEnv `envconfig:"ADVISOR"`

	// Sync configures the scheduler and retry sweeps.
	Sync SyncEnv `envconfig:"SYNC"`
}

// GitHubEnv holds environment configuration for the host client.
type GitHubEnv struct {
	// Token is the API token.
	// Env: GITHUB_TOKEN
	Token string `envconfig:"TOKEN"`

	// BaseURL is the API base URL.
	// Env: GITHUB_BASE_URL (default: https://api.github.com)
	BaseURL string `envconfig:"BASE_URL" default:"https://api.github.com"`

	// Timeout is the request timeout in seconds.
	// Env: GITHUB_TIMEOUT (default: 30)
	Timeout float64 `envconfig:"TIMEOUT" default:"30"`
}

// AdvisorEnv holds environment configuration for the language model endpoint.
type AdvisorEnv struct {
	// APIKey is the API key.
	// Env: ADVISOR_API_KEY
	APIKey string `envconfig:"API_KEY"`

	// BaseURL overrides the provider base URL.
	// Env: ADVISOR_BASE_URL
	BaseURL string `envconfig:"BASE_URL"`

	// Model is the model identifier.
	// Env: ADVISOR_MODEL (default: gpt-4o-mini)
	Model string `envconfig:"MODEL" default:"gpt-4o-mini"`

	// Timeout is the request timeout in seconds.
	// Env: ADVISOR_TIMEOUT (default: 60)
	Timeout float64 `envconfig:"TIMEOUT" default:"60"`
}

// SyncEnv holds environment configuration for the sync scheduler.
type SyncEnv struct {
	// DailyEnabled controls the daily scheduled sweep.
	// Env: SYNC_DAILY_ENABLED (default: true)
	DailyEnabled bool `envconfig:"DAILY_ENABLED" default:"true"`

	// DailyHour is the UTC hour of the daily sweep.
	// Env: SYNC_DAILY_HOUR (default: 3)
	DailyHour int `envconfig:"DAILY_HOUR" default:"3"`

	// RetrySweepSeconds is the failed-job sweep interval in seconds.
	// Env: SYNC_RETRY_SWEEP_SECONDS (default: 600)
	RetrySweepSeconds float64 `envconfig:"RETRY_SWEEP_SECONDS" default:"600"`

	// MaxConcurrentRetry caps parallel job re-executions per sweep.
	// Env: SYNC_MAX_CONCURRENT_RETRY (default: 5)
	MaxConcurrentRetry int `envconfig:"MAX_CONCURRENT_RETRY" default:"5"`

	// JobMaxRetries is the retry budget for new sync jobs.
	// Env: SYNC_JOB_MAX_RETRIES (default: 3)
	JobMaxRetries int `envconfig:"JOB_MAX_RETRIES" default:"3"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	opts := []AppConfigOption{
		WithGitHub(GitHubConfig{
			token:   e.GitHub.Token,
			baseURL: e.GitHub.BaseURL,
			timeout: secondsToDuration(e.GitHub.Timeout, DefaultGitHubTimeout),
		}),
		WithAdvisor(AdvisorConfig{
			apiKey:  e.Advisor.APIKey,
			baseURL: e.Advisor.BaseURL,
			model:   e.Advisor.Model,
			timeout: secondsToDuration(e.Advisor.Timeout, DefaultAdvisorTimeout),
		}),
		WithSync(SyncConfig{
			dailyEnabled:       e.Sync.DailyEnabled,
			dailyHour:          e.Sync.DailyHour,
			retrySweepInterval: secondsToDuration(e.Sync.RetrySweepSeconds, DefaultRetrySweepInterval),
			maxConcurrentRetry: e.Sync.MaxConcurrentRetry,
			jobMaxRetries:      e.Sync.JobMaxRetries,
		}),
	}

	if e.Host != "" {
		opts = append(opts, WithHost(e.Host))
	}
	if e.Port != 0 {
		opts = append(opts, WithPort(e.Port))
	}
	if e.DataDir != "" {
		opts = append(opts, WithDataDir(e.DataDir))
	}
	if e.DBURL != "" {
		opts = append(opts, WithDBURL(e.DBURL))
	}
	if e.LogLevel != "" {
		opts = append(opts, WithLogLevel(e.LogLevel))
	}
	if e.LogFormat != "" {
		opts = append(opts, WithLogFormat(e.LogFormat))
	}
	if e.APIKeys != "" {
		opts = append(opts, WithAPIKeys(ParseAPIKeys(e.APIKeys)))
	}
	if e.WebhookSecret != "" {
		opts = append(opts, WithWebhookSecret(e.WebhookSecret))
	}
	if e.MirrorEnabled {
		opts = append(opts, WithMirrorEnabled(true))
	}

	return NewAppConfig(opts...)
}

// ParseAPIKeys splits a comma-separated key list, dropping empty entries.
func ParseAPIKeys(s string) []string {
	parts := strings.Split(s, ",")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		if k := strings.TrimSpace(p); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func secondsToDuration(seconds float64, fallback time.Duration) time.Duration {
	if seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds * float64(time.Second))
}
