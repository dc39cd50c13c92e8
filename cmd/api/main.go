package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/webpulse/webpulse/internal/analyzer"
	"github.com/webpulse/webpulse/internal/api"
	"github.com/webpulse/webpulse/internal/api/handlers"
	"github.com/webpulse/webpulse/internal/collector"
	"github.com/webpulse/webpulse/internal/competitor"
	"github.com/webpulse/webpulse/internal/config"
	"github.com/webpulse/webpulse/internal/llm"
	"github.com/webpulse/webpulse/internal/nlp"
	"github.com/webpulse/webpulse/internal/observability"
	"github.com/webpulse/webpulse/internal/repository/postgres"
	rediscache "github.com/webpulse/webpulse/internal/repository/redis"
	"github.com/webpulse/webpulse/internal/storage"
	"github.com/webpulse/webpulse/internal/temporal"
)

func main() {
	// Load .env in development; ignored when absent
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(string(cfg.Env), cfg.GetLogLevel())
	defer logger.Sync()

	logger.Info("Starting WebPulse API",
		zap.String("version", cfg.App.Version),
		zap.String("environment", string(cfg.Env)),
	)

	observability.InitMetrics(cfg.App.Name)

	// Connect to PostgreSQL
	db, err := postgres.New(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL",
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
	)
	repos := postgres.NewRepositories(db.DB)

	// Connect to Redis (optional)
	cache, err := rediscache.New(cfg.Redis)
	if err != nil {
		logger.Warn("Failed to connect to Redis, caching disabled", zap.Error(err))
		cache = nil
	} else {
		defer cache.Close()
		logger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr()))
	}

	// Artifact storage (optional)
	var artifacts analyzer.ArtifactSaver
	var artifactLinks handlers.ArtifactLinker
	if cfg.Storage.Enabled {
		store, storeErr := storage.NewArtifactStore(cfg.Storage)
		if storeErr != nil {
			logger.Warn("Failed to connect to artifact storage, archival disabled", zap.Error(storeErr))
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if bucketErr := store.EnsureBucket(ctx); bucketErr != nil {
				logger.Warn("Failed to prepare artifact bucket, archival disabled", zap.Error(bucketErr))
			} else {
				artifacts = store
				artifactLinks = store
				logger.Info("Artifact storage ready", zap.String("bucket", cfg.Storage.Bucket))
			}
			cancel()
		}
	}

	// AI provider chain; the static terminal keeps Complete total
	chain := buildChain(cfg, logger)

	// Collectors: browser when available, HTTP otherwise
	httpCollector := collector.NewHTTPCollector(logger)
	var full collector.Collector
	if cfg.Browser.Enabled {
		browser, browserErr := collector.NewPlaywrightCollector(collector.PlaywrightConfig{
			Headless:    cfg.Browser.Headless,
			NavTimeout:  cfg.Browser.NavTimeout,
			SettleDelay: cfg.Browser.SettleDelay,
		}, logger)
		if browserErr != nil {
			logger.Warn("Browser collector unavailable, using HTTP collector for all audits", zap.Error(browserErr))
		} else {
			defer browser.Close()
			full = browser
		}
	}

	orchestrator := nlp.NewOrchestrator(chain, nlp.NewCache(cfg.NLP.CacheTTL, cfg.NLP.CacheSize), logger)
	auditService := analyzer.NewService(full, httpCollector, chain, orchestrator, nil, artifacts, logger)

	// Temporal dispatch (optional); comparisons fall back to in-process runs
	var starter competitor.Starter
	if cfg.Temporal.Enabled {
		temporalClient, dialErr := temporal.NewClient(cfg.Temporal, logger)
		if dialErr != nil {
			logger.Warn("Failed to connect to Temporal, comparisons run in-process", zap.Error(dialErr))
		} else {
			defer temporalClient.Close()
			starter = temporalClient
			logger.Info("Connected to Temporal",
				zap.String("address", cfg.Temporal.Address()),
				zap.String("namespace", cfg.Temporal.Namespace),
			)
		}
	}

	pipeline := competitor.NewService(chain, auditService, repos.Comparisons, repos.Reports, starter, logger)

	rateLimit := 0
	if cfg.RateLimits.Enabled {
		rateLimit = cfg.RateLimits.RequestsPerMin
	}

	router := api.NewRouter(api.RouterConfig{
		Auditor:        auditService,
		Reports:        repos.Reports,
		Comparisons:    repos.Comparisons,
		Pipeline:       pipeline,
		Cache:          cache,
		Artifacts:      artifactLinks,
		Database:       db,
		Logger:         logger,
		EnableCORS:     cfg.Security.CORSEnabled,
		AllowedOrigins: cfg.Security.CORSAllowedOrigins,
		RateLimit:      rateLimit,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("API server listening", zap.String("addr", cfg.Server.Addr()))
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Fatal("Server error", zap.Error(err))

	case sig := <-shutdown:
		logger.Info("Shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Graceful shutdown failed, forcing close", zap.Error(err))
			server.Close()
		}

		logger.Info("Server stopped gracefully")
	}
}

// buildChain assembles the provider fallback chain from configuration.
// Providers without keys are skipped; the static provider always terminates
// the chain.
func buildChain(cfg *config.Config, logger *zap.Logger) *llm.Chain {
	var providers []llm.Provider
	for _, name := range cfg.Providers.Order {
		switch strings.ToLower(strings.TrimSpace(name)) {
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

// initLogger creates a configured zap logger
func initLogger(env, level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	var zcfg zap.Config
	if env == "production" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zcfg.Level = zap.NewAtomicLevelAt(zapLevel)

	logger, err := zcfg.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}

	return logger
}
