package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codecite/codecite"
	"github.com/codecite/codecite/domain/repository"
	"github.com/codecite/codecite/domain/syncjob"
	"github.com/codecite/codecite/internal/database"
	"github.com/codecite/codecite/internal/log"
)

func syncCmd() *cobra.Command {
	var (
		envFile   string
		remoteURL string
		branch    string
	)

	cmd := &cobra.Command{
		Use:   "sync OWNER/REPO",
		Short: "Run a sync for a repository and wait for it to finish",
		Long: `Run a sync for a repository and wait for it to finish.

The repository must already be registered, unless --remote-url is given,
in which case it is registered first. The command triggers a manual sync
job, executes it in the foreground, and prints the result.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), envFile, args[0], remoteURL, branch)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&remoteURL, "remote-url", "", "Clone URL, registers the repository if it is unknown")
	cmd.Flags().StringVar(&branch, "branch", "", "Default branch when registering a new repository")

	return cmd
}

func runSync(ctx context.Context, envFile, fullName, remoteURL, branch string) error {
	owner, name, ok := strings.Cut(fullName, "/")
	if ok {
		owner = strings.TrimSpace(owner)
		name = strings.TrimSpace(name)
	}
	if !ok || owner == "" || name == "" {
		return fmt.Errorf("repository must be OWNER/REPO, got %q", fullName)
	}

	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	slogger := log.New(log.ParseFormat(cfg.LogFormat()), cfg.LogLevel()).Slog()

	// The sweeps are not wanted for a one-shot foreground sync.
	opts := append(clientOptions(cfg),
		codecite.WithLogger(slogger),
		codecite.WithSchedulerDisabled())

	client, err := codecite.New(opts...)
	if err != nil {
		return fmt.Errorf("create codecite client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			slogger.Error("failed to close codecite client", "error", err)
		}
	}()

	repo, err := client.Repositories.ByOwnerName(ctx, owner, name)
	switch {
	case errors.Is(err, database.ErrNotFound) && remoteURL != "":
		candidate := repository.New(owner, name, remoteURL)
		if branch != "" {
			candidate = candidate.WithDefaultBranch(branch)
		}
		repo, err = client.Repositories.Save(ctx, candidate)
		if err != nil {
			return fmt.Errorf("register repository: %w", err)
		}
		fmt.Printf("registered %s\n", repo.FullName())
	case errors.Is(err, database.ErrNotFound):
		return fmt.Errorf("repository %s is not registered, pass --remote-url to register it", fullName)
	case err != nil:
		return fmt.Errorf("look up repository: %w", err)
	}

	job, err := client.Sync.Trigger(ctx, repo.ID(), syncjob.TypeManual)
	if err != nil {
		return fmt.Errorf("trigger sync: %w", err)
	}

	if err := client.Sync.Execute(ctx, job); err != nil {
		return fmt.Errorf("sync %s: %w", repo.FullName(), err)
	}

	done, err := client.Jobs.FindOne(ctx, repository.WithID(job.ID()))
	if err != nil {
		return fmt.Errorf("load finished job: %w", err)
	}

	meta := done.Metadata()
	fmt.Printf("sync %s: %s\n", repo.FullName(), done.Status())
	fmt.Printf("  files analyzed:   %d\n", meta.FilesAnalyzed)
	fmt.Printf("  functions found:  %d\n", meta.FunctionsFound)
	fmt.Printf("  changes detected: %d\n", meta.ChangesDetected)
	if meta.ToCommit != "" {
		fmt.Printf("  synced to commit: %s\n", meta.ToCommit)
	}

	return nil
}
