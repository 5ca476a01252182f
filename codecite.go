// Package codecite provides a library for tracking code citations in
// documentation against the repositories they cite.
//
// Codecite fingerprints the functions of a tracked repository at each synced
// commit, classifies how they change between commits, and keeps documentation
// references pointing at the right lines — relocating them when code moves and
// flagging them when it doesn't survive.
//
// Basic usage:
//
//	client, err := codecite.New(
//	    codecite.WithSQLite(".codecite/data.db"),
//	    codecite.WithGitHubToken(os.Getenv("GITHUB_TOKEN")),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Track a repository
//	repo, err := client.Repositories.Save(ctx,
//	    repository.New("acme", "billing", "https://github.com/acme/billing.git"))
//
//	// Run a sync
//	job, err := client.Sync.Trigger(ctx, repo.ID(), syncjob.TypeManual)
//	err = client.Sync.Execute(ctx, job)
package codecite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/codecite/codecite/application/service"
	"github.com/codecite/codecite/infrastructure/advisor"
	"github.com/codecite/codecite/infrastructure/hosting"
	"github.com/codecite/codecite/infrastructure/persistence"
	"github.com/codecite/codecite/internal/config"
	"github.com/codecite/codecite/internal/database"
	"github.com/codecite/codecite/internal/log"
)

// Client is the main entry point for the codecite library.
// The retry scheduler starts automatically on creation unless disabled.
//
// Access resources via struct fields:
//
//	client.Repositories.Find(ctx)
//	client.References.ActiveByRepository(ctx, "acme", "billing")
//	client.Sync.Trigger(ctx, repoID, syncjob.TypeManual)
type Client struct {
	// Public resource fields (direct store and service access)
	Repositories persistence.RepositoryStore
	Structures   persistence.StructureStore
	References   persistence.ReferenceStore
	Events       persistence.EventStore
	Jobs         persistence.SyncJobStore
	Pipeline     *service.Pipeline
	Sync         *service.Orchestrator
	Scan         *service.Scanner

	db        database.Database
	host      hosting.Client
	scheduler *service.Scheduler
	logger    *slog.Logger
	apiKeys   []string
	closed    atomic.Bool
}

// New creates a Client with the given options. A database option is
// required; everything else has defaults.
func New(opts ...Option) (*Client, error) {
	cfg := newClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.database == databaseUnset {
		return nil, ErrNoDatabase
	}

	logger := cfg.logger
	if logger == nil {
		logger = log.New(log.FormatPretty, config.DefaultLogLevel).Slog()
	}

	ctx := context.Background()
	db, err := database.NewDatabase(ctx, buildDatabaseURL(cfg))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := persistence.AutoMigrate(db); err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("auto migrate: %w", err), errClose)
	}
	if err := persistence.ValidateSchema(db); err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("validate schema: %w", err), errClose)
	}

	repoStore := persistence.NewRepositoryStore(db)
	structureStore := persistence.NewStructureStore(db)
	referenceStore := persistence.NewReferenceStore(db)
	eventStore := persistence.NewEventStore(db)
	jobStore := persistence.NewSyncJobStore(db)

	host := cfg.host
	if host == nil && cfg.mirrorDir != "" {
		host = hosting.NewLocalClient(cfg.mirrorDir, func(ctx context.Context, owner, name string) (string, error) {
			repo, err := repoStore.ByOwnerName(ctx, owner, name)
			if err != nil {
				return "", err
			}
			return repo.RemoteURL(), nil
		}, logger)
	}
	if host == nil {
		ghOpts := []hosting.GitHubOption{}
		if cfg.githubToken != "" {
			ghOpts = append(ghOpts, hosting.WithToken(cfg.githubToken))
		}
		baseURL := cfg.githubBaseURL
		if baseURL == "" {
			baseURL = config.DefaultGitHubBaseURL
		}
		host = hosting.NewGitHubClient(baseURL, logger, ghOpts...)
	}

	docAdvisor := cfg.advisor
	if docAdvisor == nil && cfg.advisorAPIKey != "" {
		docAdvisor = advisor.NewOpenAIAdvisor(advisor.Config{
			APIKey:  cfg.advisorAPIKey,
			BaseURL: cfg.advisorBaseURL,
			Model:   cfg.advisorModel,
			Timeout: config.DefaultAdvisorTimeout,
		}, logger)
	}

	registry := service.NewProgressRegistry()
	orchestrator := service.NewOrchestrator(
		repoStore, structureStore, referenceStore, eventStore, jobStore,
		host, docAdvisor, registry, logger,
	)
	pipeline := service.NewPipeline(
		cfg.webhookSecret, eventStore, referenceStore, nil, host, cfg.notifier, logger,
	)
	scanner := service.NewScanner(referenceStore, host, logger)
	scheduler := service.NewScheduler(cfg.sync, repoStore, jobStore, orchestrator, logger)

	client := &Client{
		Repositories: repoStore,
		Structures:   structureStore,
		References:   referenceStore,
		Events:       eventStore,
		Jobs:         jobStore,
		Pipeline:     pipeline,
		Sync:         orchestrator,
		Scan:         scanner,
		db:           db,
		host:         host,
		scheduler:    scheduler,
		logger:       logger,
		apiKeys:      cfg.apiKeys,
	}

	if !cfg.schedulerDisabled {
		scheduler.Start(ctx)
	}

	return client, nil
}

// Close stops the scheduler and releases the database.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClientClosed
	}

	c.scheduler.Stop()

	if err := c.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}

	c.logger.Info("codecite client closed")
	return nil
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}

// APIKeys returns the keys configured for HTTP API write protection.
func (c *Client) APIKeys() []string {
	return c.apiKeys
}

// Host returns the configured hosting client.
func (c *Client) Host() hosting.Client {
	return c.host
}

func buildDatabaseURL(cfg *clientConfig) string {
	switch cfg.database {
	case databaseSQLite:
		return "sqlite:///" + cfg.dbPath
	case databasePostgres:
		return cfg.dbDSN
	}
	return ""
}
