package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/webpulse/webpulse/internal/analyzer"
	"github.com/webpulse/webpulse/internal/collector"
	"github.com/webpulse/webpulse/internal/competitor"
	"github.com/webpulse/webpulse/internal/config"
	"github.com/webpulse/webpulse/internal/llm"
	"github.com/webpulse/webpulse/internal/nlp"
	"github.com/webpulse/webpulse/internal/observability"
	"github.com/webpulse/webpulse/internal/repository/postgres"
	"github.com/webpulse/webpulse/internal/temporal"
	"github.com/webpulse/webpulse/internal/workflows"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(string(cfg.Env))
	defer logger.Sync()

	logger.Info("Starting WebPulse Worker",
		zap.String("version", cfg.App.Version),
		zap.String("environment", string(cfg.Env)),
		zap.String("temporal_address", cfg.Temporal.Address()),
		zap.String("namespace", cfg.Temporal.Namespace),
		zap.String("task_queue", cfg.Temporal.TaskQueue),
	)

	observability.InitMetrics(cfg.App.Name)

	// Connect to PostgreSQL; the activities reload persisted state per step
	db, err := postgres.New(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	repos := postgres.NewRepositories(db.DB)

	// Create Temporal client
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.Address(),
		Namespace: cfg.Temporal.Namespace,
		Logger:    temporal.NewZapAdapter(logger),
	})
	if err != nil {
		logger.Fatal("Failed to create Temporal client", zap.Error(err))
	}
	defer c.Close()

	logger.Info("Connected to Temporal server")

	// Competitor audits run reduced-cost, so the HTTP collector is enough
	chain := buildChain(cfg, logger)
	httpCollector := collector.NewHTTPCollector(logger)
	orchestrator := nlp.NewOrchestrator(chain, nlp.NewCache(cfg.NLP.CacheTTL, cfg.NLP.CacheSize), logger)
	auditService := analyzer.NewService(nil, httpCollector, chain, orchestrator, nil, nil, logger)

	// No starter: activities invoke the pipeline steps directly
	pipeline := competitor.NewService(chain, auditService, repos.Comparisons, repos.Reports, nil, logger)
	activities := workflows.NewActivities(pipeline, repos.Reports, repos.Comparisons, logger)

	// Create worker
	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize:     cfg.Temporal.WorkerCount,
		MaxConcurrentWorkflowTaskExecutionSize: cfg.Temporal.WorkerCount,
	})

	// Register workflow and activities
	w.RegisterWorkflow(workflows.CompetitorComparisonWorkflow)

	w.RegisterActivityWithOptions(activities.DiscoverCompetitors, activity.RegisterOptions{
		Name: workflows.DiscoveryActivityName,
	})
	w.RegisterActivityWithOptions(activities.AnalyzeCompetitors, activity.RegisterOptions{
		Name: workflows.BatchActivityName,
	})
	w.RegisterActivityWithOptions(activities.CompareCompetitors, activity.RegisterOptions{
		Name: workflows.CompareActivityName,
	})
	w.RegisterActivityWithOptions(activities.FailComparison, activity.RegisterOptions{
		Name: workflows.FailActivityName,
	})

	// Start worker in goroutine
	workerErrors := make(chan error, 1)
	go func() {
		workerErrors <- w.Run(worker.InterruptCh())
	}()

	logger.Info("Worker started successfully",
		zap.String("task_queue", cfg.Temporal.TaskQueue),
	)

	// Wait for shutdown signal or worker error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-workerErrors:
		if err != nil {
			logger.Fatal("Worker error", zap.Error(err))
		}

	case sig := <-shutdown:
		logger.Info("Shutdown signal received", zap.String("signal", sig.String()))
		w.Stop()
		logger.Info("Worker stopped gracefully")
	}
}

// buildChain assembles the provider fallback chain from configuration.
func buildChain(cfg *config.Config, logger *zap.Logger) *llm.Chain {
	var providers []llm.Provider
	for _, name := range cfg.Providers.Order {
		switch name {
		case "anthropic":
			p, err := llm.NewAnthropicProvider(llm.AnthropicConfig{
				APIKey:  cfg.Anthropic.APIKey,
				BaseURL: cfg.Anthropic.BaseURL,
				Model:   cfg.Anthropic.Model,
				Timeout: cfg.Anthropic.Timeout,
			})
			if err != nil {
				logger.Info("Anthropic provider not configured", zap.Error(err))
				continue
			}
			providers = append(providers, p)
		case "openai":
			p, err := llm.NewOpenAIProvider(llm.OpenAIConfig{
				APIKey:  cfg.OpenAI.APIKey,
				BaseURL: cfg.OpenAI.BaseURL,
				Model:   cfg.OpenAI.Model,
				Timeout: cfg.OpenAI.Timeout,
			})
			if err != nil {
				logger.Info("OpenAI provider not configured", zap.Error(err))
				continue
			}
			providers = append(providers, p)
		}
	}
	providers = append(providers, llm.NewStaticProvider(""))

	return llm.NewChain(llm.ChainConfig{
		AttemptTimeout:  cfg.Providers.AttemptTimeout,
		RateLimitRPM:    cfg.Providers.RateLimitRPM,
		BreakerCooldown: cfg.Providers.BreakerCooldown,
	}, logger, providers...)
}

func initLogger(env string) *zap.Logger {
	var zcfg zap.Config
	if env == "production" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	logger, err := zcfg.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}

	return logger
}
