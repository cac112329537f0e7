// sync-activities fetches the athlete's activities from Strava, embeds each
// one, and upserts them into the activities table. Re-running it is
// idempotent: rows are keyed by the provider's activity ID.
//
// Usage: go run ./scripts/sync-activities
//
// Configuration comes from config.yaml plus the standard environment
// overrides; STRAVA_CLIENT_SECRET must be set. The OAuth token is read from
// the configured token file and refreshed in place when expired.
//
// Flags:
//
//	-config    Path to the YAML config file (default: config.yaml)
//	-dry-run   Fetch and report activities without embedding or storing them
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/paceline-ai/paceline-engine/pkg/config"
	"github.com/paceline-ai/paceline-engine/pkg/database"
	"github.com/paceline-ai/paceline-engine/pkg/llm"
	"github.com/paceline-ai/paceline-engine/pkg/logging"
	"github.com/paceline-ai/paceline-engine/pkg/repositories"
	"github.com/paceline-ai/paceline-engine/pkg/services"
	"github.com/paceline-ai/paceline-engine/pkg/strava"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	dryRun := flag.Bool("dry-run", false, "fetch and report without storing")
	flag.Parse()

	if err := run(*configPath, *dryRun); err != nil {
		fmt.Fprintf(os.Stderr, "sync-activities: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, dryRun bool) error {
	cfg, err := config.LoadFrom(configPath, "dev")
	if err != nil {
		return err
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	store := strava.NewTokenStore(cfg.Strava.TokenFile)
	client := strava.NewClient(cfg.Strava.ClientID, cfg.Strava.ClientSecret, cfg.Strava.PerPage, store, logger)

	activities, err := client.FetchActivities(ctx)
	if err != nil {
		return fmt.Errorf("fetch activities: %s", logging.SanitizeError(err))
	}
	logger.Info("fetched activities from provider", zap.Int("count", len(activities)))

	if dryRun {
		for _, a := range activities {
			fmt.Printf("%d\t%s\t%s\n", a.ID, a.Type, a.Name)
		}
		return nil
	}

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		return fmt.Errorf("connect: %s", logging.SanitizeError(err))
	}
	defer db.Close()

	llmClient, err := llm.NewClient(&llm.Config{
		Endpoint: cfg.LLM.Endpoint,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
	}, logger)
	if err != nil {
		return err
	}

	repo := repositories.NewActivityRepository(db.Pool)
	ingest := services.NewIngestService(llmClient, repo, cfg.LLM.EmbeddingModel, logger)

	stored, err := ingest.IngestAll(ctx, activities)
	logger.Info("sync complete",
		zap.Int("fetched", len(activities)),
		zap.Int("stored", stored))
	if err != nil {
		return fmt.Errorf("some activities failed: %s", logging.SanitizeError(err))
	}
	return nil
}
