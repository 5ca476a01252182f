package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/codecite/codecite"
	"github.com/codecite/codecite/infrastructure/api"
	"github.com/codecite/codecite/internal/config"
	"github.com/codecite/codecite/internal/log"
)

func serveCmd() *cobra.Command {
	var (
		envFile string
		host    string
		port    int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Command line flags

Environment variables:
  HOST                    Server host to bind to (default: 0.0.0.0)
  PORT                    Server port to listen on (default: 8080)
  DATA_DIR                Data directory (default: .codecite)
  DB_URL                  Database URL (default: sqlite:///{data_dir}/codecite.db)
  LOG_LEVEL               Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT              Log format: pretty, json (default: pretty)
  API_KEYS                Comma-separated list of valid API keys
  WEBHOOK_SECRET          Shared secret for webhook signature verification

  GITHUB_TOKEN            GitHub access token for private repositories
  GITHUB_BASE_URL         GitHub API base URL (default: https://api.github.com)
  MIRROR_ENABLED          Use local git mirrors instead of the host API (default: false)

  ADVISOR_API_KEY         OpenAI-compatible API key for doc update suggestions
  ADVISOR_BASE_URL        Advisor API base URL
  ADVISOR_MODEL           Advisor model (default: gpt-4o-mini)

  SYNC_DAILY_ENABLED      Enable the daily sync sweep (default: true)
  SYNC_DAILY_HOUR         Hour of day for the daily sweep (default: 3)
  SYNC_RETRY_INTERVAL_SECONDS  Retry sweep interval (default: 600)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(envFile, host, port)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on (default: 8080)")

	return cmd
}

func runServe(envFile, host string, port int) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}

	// Flags take precedence over env vars.
	cfg = applyServeOverrides(cfg, host, port)

	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	slogger := log.New(log.ParseFormat(cfg.LogFormat()), cfg.LogLevel()).Slog()

	opts := append(clientOptions(cfg), codecite.WithLogger(slogger))

	slogger.Info("starting codecite",
		slog.String("version", version),
		slog.String("addr", cfg.Addr()),
		slog.String("db_url", cfg.DBURL()))

	client, err := codecite.New(opts...)
	if err != nil {
		return fmt.Errorf("create codecite client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			slogger.Error("failed to close codecite client", slog.Any("error", err))
		}
	}()

	apiServer := api.NewAPIServer(client)
	router := apiServer.Router()
	apiServer.MountRoutes()

	router.Get("/health", healthHandler)
	router.Get("/healthz", healthHandler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	server := api.NewServer(cfg.Addr(), slogger)
	server.Router().Mount("/", router)

	go func() {
		<-sigChan
		slogger.Info("shutting down server")
		cancel()
		if err := server.Shutdown(ctx); err != nil {
			slogger.Error("shutdown error", slog.Any("error", err))
		}
	}()

	slogger.Info("listening", slog.String("addr", cfg.Addr()))
	if err := server.Start(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// applyServeOverrides applies command line flag overrides to the config.
func applyServeOverrides(cfg config.AppConfig, host string, port int) config.AppConfig {
	var opts []config.AppConfigOption

	if host != "" {
		opts = append(opts, config.WithHost(host))
	}
	if port != 0 {
		opts = append(opts, config.WithPort(port))
	}

	return cfg.Apply(opts...)
}
