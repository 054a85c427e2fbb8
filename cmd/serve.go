package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/spf13/cobra"

	"github.com/sitesmith/sitesmith/internal/api"
	"github.com/sitesmith/sitesmith/internal/config"
	"github.com/sitesmith/sitesmith/internal/deploy"
	"github.com/sitesmith/sitesmith/internal/docs"
	"github.com/sitesmith/sitesmith/internal/llm"
	"github.com/sitesmith/sitesmith/internal/log"
	"github.com/sitesmith/sitesmith/internal/observability"
	"github.com/sitesmith/sitesmith/internal/prompts"
	"github.com/sitesmith/sitesmith/internal/session"
	"github.com/sitesmith/sitesmith/internal/space"
)

const (
	// sessionMaxIdle is how long a session survives without traffic.
	sessionMaxIdle = 2 * time.Hour

	// sessionSweepInterval is how often idle sessions are collected.
	sessionSweepInterval = 10 * time.Minute

	// maxHistoryMessages bounds per-session conversation history.
	maxHistoryMessages = 100
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.ValidateServe(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	logger := log.New(log.Config{Level: log.ParseLevel(cfg.LogLevel), JSON: cfg.LogJSON})
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Tracing.Enabled {
		shutdown, err := observability.Setup(ctx, observability.Config{
			Endpoint:    cfg.Tracing.Endpoint,
			Environment: cfg.Tracing.Environment,
			ServiceName: cfg.Tracing.ServiceName,
		})
		if err != nil {
			return fmt.Errorf("setting up tracing: %w", err)
		}
		defer func() {
			flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer flushCancel()
			if err := shutdown(flushCtx); err != nil {
				logger.Warn("tracer shutdown failed", "error", err)
			}
		}()
	}

	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return fmt.Errorf("initializing genkit")
	}

	generator := llm.NewGenkitGenerator(g, llm.GenkitConfig{
		ModelName:         cfg.ModelName,
		Temperature:       cfg.Temperature,
		RequestsPerSecond: cfg.ModelRequestsPerSecond,
	}, logger)

	fetcher := docs.NewFetcher(docs.Config{
		CacheDir: cfg.Docs.CacheDir,
		TTL:      time.Duration(cfg.Docs.TTLHours) * time.Hour,
		MaxPages: cfg.Docs.MaxPages,
	}, logger)

	builder, err := prompts.NewBuilder(fetcher, logger)
	if err != nil {
		return fmt.Errorf("building prompts: %w", err)
	}

	hub, err := space.NewHubClient(space.HubConfig{
		BaseURL:           cfg.Hub.BaseURL,
		Token:             cfg.Hub.Token,
		RequestsPerSecond: cfg.Hub.RequestsPerSecond,
		Logger:            logger,
	})
	if err != nil {
		return fmt.Errorf("creating hub client: %w", err)
	}

	sessions := session.NewStore(maxHistoryMessages)
	records := deploy.NewSessionStore()
	deployer := deploy.New(hub, records, cfg.Hub.Host, cfg.Hub.Owner, logger)
	importer := deploy.NewImporter(hub, records, logger)

	// Deployment records die with their session.
	go func() {
		ticker := time.NewTicker(sessionSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, id := range sessions.ExpireIdle(sessionMaxIdle) {
					records.Forget(id)
				}
			}
		}
	}()

	server := api.NewServer(api.Deps{
		Sessions:    sessions,
		Deployments: records,
		Deployer:    deployer,
		Importer:    importer,
		Generator:   generator,
		Prompts:     builder,
		Manifests:   llm.NewManifestGenerator(generator),
		OwnerHint:   cfg.Hub.Owner,
		HubHost:     cfg.Hub.Host,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logger,
	})

	logger.Info("sitesmith serving", "addr", cfg.Addr, "model", cfg.ModelName, "version", AppVersion)
	return server.Run(ctx, cfg.Addr)
}
