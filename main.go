package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/paceline-ai/paceline-engine/pkg/config"
	"github.com/paceline-ai/paceline-engine/pkg/database"
	"github.com/paceline-ai/paceline-engine/pkg/datasource"
	"github.com/paceline-ai/paceline-engine/pkg/handlers"
	"github.com/paceline-ai/paceline-engine/pkg/llm"
	"github.com/paceline-ai/paceline-engine/pkg/logging"
	"github.com/paceline-ai/paceline-engine/pkg/middleware"
	"github.com/paceline-ai/paceline-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())),
		zap.String("llm_endpoint", cfg.LLM.Endpoint),
		zap.String("llm_model", cfg.LLM.Model))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Migrations run on a writable pool; the query pipeline gets its own
	// read-only pool below.
	adminDB, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: 2,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.String("error", logging.SanitizeError(err)))
	}

	sqlDB := stdlib.OpenDBFromPool(adminDB.Pool)
	if err := database.RunMigrations(sqlDB, cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.String("error", logging.SanitizeError(err)))
	}
	_ = sqlDB.Close()
	adminDB.Close()

	queryDB, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
		ReadOnly:       true,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.String("error", logging.SanitizeError(err)))
	}
	defer queryDB.Close()

	llmClient, err := llm.NewClient(&llm.Config{
		Endpoint: cfg.LLM.Endpoint,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create LLM client", zap.Error(err))
	}
	executor := datasource.NewExecutor(queryDB.Pool, logger)
	answerService := services.NewAnswerService(llmClient, executor, services.Config{
		GenerationTimeout: cfg.Pipeline.GenerationTimeout(),
		ExecutionTimeout:  cfg.Pipeline.ExecutionTimeout(),
		MaxRows:           cfg.Pipeline.MaxRows,
		Temperature:       cfg.LLM.Temperature,
	}, logger)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(cfg, logger)
	healthHandler.RegisterRoutes(mux)

	askHandler := handlers.NewAskHandler(answerService, logger)
	askHandler.RegisterRoutes(mux)

	mux.Handle("/metrics", promhttp.Handler())

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting paceline-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
