package main

import (
	"strings"

	"github.com/codecite/codecite"
	"github.com/codecite/codecite/internal/config"
)

// clientOptions returns the codecite.Option slice derived from the shared
// parts of AppConfig: database storage, GitHub access, advisor, webhook
// secret, API keys, and the sync schedule. Callers append entrypoint-specific
// options before passing the full slice to codecite.New.
func clientOptions(cfg config.AppConfig) []codecite.Option {
	var opts []codecite.Option

	opts = append(opts, storageOption(cfg))

	gh := cfg.GitHub()
	if gh.Token() != "" {
		opts = append(opts, codecite.WithGitHubToken(gh.Token()))
	}
	if gh.BaseURL() != "" && gh.BaseURL() != config.DefaultGitHubBaseURL {
		opts = append(opts, codecite.WithGitHubBaseURL(gh.BaseURL()))
	}

	adv := cfg.Advisor()
	if adv.IsConfigured() {
		opts = append(opts, codecite.WithOpenAIAdvisor(adv.APIKey()))
		if adv.BaseURL() != "" {
			opts = append(opts, codecite.WithAdvisorBaseURL(adv.BaseURL()))
		}
		if adv.Model() != "" {
			opts = append(opts, codecite.WithAdvisorModel(adv.Model()))
		}
	}

	if secret := cfg.WebhookSecret(); secret != "" {
		opts = append(opts, codecite.WithWebhookSecret(secret))
	}
	if keys := cfg.APIKeys(); len(keys) > 0 {
		opts = append(opts, codecite.WithAPIKeys(keys...))
	}

	if cfg.MirrorEnabled() {
		opts = append(opts, codecite.WithMirrorDir(cfg.MirrorDir()))
	}

	opts = append(opts, codecite.WithSyncConfig(cfg.Sync()))

	return opts
}

// storageOption returns the codecite.Option for the configured database.
func storageOption(cfg config.AppConfig) codecite.Option {
	dbURL := cfg.DBURL()

	if dbURL != "" && !isSQLite(dbURL) {
		return codecite.WithPostgres(dbURL)
	}

	dbPath := cfg.DataDir() + "/codecite.db"
	if dbURL != "" && isSQLite(dbURL) {
		dbPath = strings.TrimPrefix(dbURL, "sqlite:///")
		if dbPath == dbURL {
			dbPath = strings.TrimPrefix(dbURL, "sqlite:")
		}
	}

	return codecite.WithSQLite(dbPath)
}

// isSQLite checks if the database URL is for SQLite.
func isSQLite(url string) bool {
	return strings.HasPrefix(url, "sqlite:")
}
