package codecite

import (
	"log/slog"

	"github.com/codecite/codecite/application/service"
	"github.com/codecite/codecite/infrastructure/advisor"
	"github.com/codecite/codecite/infrastructure/hosting"
	"github.com/codecite/codecite/internal/config"
)

// databaseType identifies the database.
type databaseType int

const (
	databaseUnset databaseType = iota
	databaseSQLite
	databasePostgres
)

// clientConfig holds configuration for Client construction.
// Use newClientConfig() to create with defaults from internal/config.
type clientConfig struct {
	database          databaseType
	dbPath            string
	dbDSN             string
	logger            *slog.Logger
	apiKeys           []string
	webhookSecret     string
	githubToken       string
	githubBaseURL     string
	advisorAPIKey     string
	advisorBaseURL    string
	advisorModel      string
	mirrorDir         string
	host              hosting.Client
	advisor           advisor.Advisor
	notifier          service.Notifier
	sync              config.SyncConfig
	schedulerDisabled bool
}

// newClientConfig creates a clientConfig with defaults from internal/config.
func newClientConfig() *clientConfig {
	return &clientConfig{
		advisorModel: config.DefaultAdvisorModel,
		sync:         config.NewAppConfig().Sync(),
	}
}

// Option configures the Client.
type Option func(*clientConfig)

// WithSQLite configures SQLite as the database.
func WithSQLite(path string) Option {
	return func(c *clientConfig) {
		c.database = databaseSQLite
		c.dbPath = path
	}
}

// WithPostgres configures PostgreSQL with the given DSN.
func WithPostgres(dsn string) Option {
	return func(c *clientConfig) {
		c.database = databasePostgres
		c.dbDSN = dsn
	}
}

// WithGitHubToken sets the token used by the default GitHub hosting client.
func WithGitHubToken(token string) Option {
	return func(c *clientConfig) {
		c.githubToken = token
	}
}

// WithGitHubBaseURL overrides the GitHub API base URL, for GitHub Enterprise
// or test servers.
func WithGitHubBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.githubBaseURL = url
	}
}

// WithMirrorDir switches the default hosting client to local go-git mirrors
// cloned under dir. Commit walks and file reads then run against the clones
// instead of the host API. Ignored when WithHostingClient is also set.
func WithMirrorDir(dir string) Option {
	return func(c *clientConfig) {
		c.mirrorDir = dir
	}
}

// WithHostingClient sets a custom hosting client, replacing the default
// GitHub client entirely.
func WithHostingClient(h hosting.Client) Option {
	return func(c *clientConfig) {
		c.host = h
	}
}

// WithOpenAIAdvisor enables the chat-model documentation advisor.
func WithOpenAIAdvisor(apiKey string) Option {
	return func(c *clientConfig) {
		c.advisorAPIKey = apiKey
	}
}

// WithAdvisorBaseURL overrides the advisor provider base URL, for
// OpenAI-compatible endpoints.
func WithAdvisorBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.advisorBaseURL = url
	}
}

// WithAdvisorModel sets the advisor model identifier.
func WithAdvisorModel(model string) Option {
	return func(c *clientConfig) {
		if model != "" {
			c.advisorModel = model
		}
	}
}

// WithAdvisor sets a custom documentation advisor, replacing the OpenAI one.
func WithAdvisor(a advisor.Advisor) Option {
	return func(c *clientConfig) {
		c.advisor = a
	}
}

// WithWebhookSecret sets the shared secret for webhook signature verification.
func WithWebhookSecret(secret string) Option {
	return func(c *clientConfig) {
		c.webhookSecret = secret
	}
}

// WithNotifier sets a custom conflict notifier. Defaults to log output.
func WithNotifier(n service.Notifier) Option {
	return func(c *clientConfig) {
		c.notifier = n
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithAPIKeys sets the API keys for HTTP API write protection.
func WithAPIKeys(keys ...string) Option {
	return func(c *clientConfig) {
		c.apiKeys = keys
	}
}

// WithSyncConfig sets the scheduler configuration.
func WithSyncConfig(cfg config.SyncConfig) Option {
	return func(c *clientConfig) {
		c.sync = cfg
	}
}

// WithSchedulerDisabled keeps the background sweeps from starting. Intended
// for tests and for embedding codecite where syncs are driven externally.
func WithSchedulerDisabled() Option {
	return func(c *clientConfig) {
		c.schedulerDisabled = true
	}
}
