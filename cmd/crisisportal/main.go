package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/alonsovargas3/commonlight-crisis-portal/internal/config"
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/db"
	dbRedis "github.com/alonsovargas3/commonlight-crisis-portal/internal/db/redis"
	logpkg "github.com/alonsovargas3/commonlight-crisis-portal/internal/logger"
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/metrics"
	budgetrepo "github.com/alonsovargas3/commonlight-crisis-portal/internal/repository/budget"
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/repository/rescache"
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/transport/backend"
	chiTransport "github.com/alonsovargas3/commonlight-crisis-portal/internal/transport/chi"
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/transport/langchain"
	openaiExt "github.com/alonsovargas3/commonlight-crisis-portal/internal/transport/openai"
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/usecase/correction"
	extractionuc "github.com/alonsovargas3/commonlight-crisis-portal/internal/usecase/extraction"
	healthuc "github.com/alonsovargas3/commonlight-crisis-portal/internal/usecase/health"
	searchuc "github.com/alonsovargas3/commonlight-crisis-portal/internal/usecase/search"
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting crisis portal API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("backend_url", cfg.Backend.BaseURL),
		zap.Strings("extraction_order", cfg.Extraction.Order),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterExtractionMetrics()
	metrics.RegisterBackendMetrics()

	ctx := context.Background()

	// Optional cache: resource details and persisted token budgets.
	var store db.Store
	if cfg.Cache.Enabled {
		store = openCache(ctx, cfg.Cache, logger)
	}
	if store != nil {
		defer store.Close()
	}

	// Resource backend
	backendClient := backend.NewClient(&backend.Config{
		BaseURL:    cfg.Backend.BaseURL,
		APIKey:     cfg.Backend.APIKey,
		Timeout:    time.Duration(cfg.Backend.TimeoutSec) * time.Second,
		MaxRetries: *cfg.Backend.MaxRetries,
		RetryBase:  time.Duration(cfg.Backend.RetryBaseMs) * time.Millisecond,
		Logger:     logger,
	})
	gateway := backend.NewGateway(backendClient, backend.NewTransformer(cfg.Backend.UnsupportedParams))

	// Extraction chain, in configured order
	providers, budgets := buildProviders(ctx, cfg, backendClient, store, logger)
	extractionSvc := extractionuc.New(providers, correction.New(),
		extractionuc.WithTimeout(time.Duration(cfg.Extraction.TimeoutSec)*time.Second),
		extractionuc.WithFallbackConfidence(cfg.Extraction.FallbackConfidence),
	)
	logger.Info("Extraction providers ready", zap.Strings("providers", extractionSvc.Providers()))

	// Resource lookups, cached when a store is available
	var resources searchuc.ResourceReader = gateway
	if store != nil {
		resources = rescache.New(gateway, store,
			time.Duration(cfg.Cache.TTLSec)*time.Second, cfg.Cache.KeyPrefix,
			metrics.ResourceCacheTotal, logger,
		)
	}
	searchSvc := searchuc.New(gateway, resources, searchuc.Policy{
		CrisisServiceTypes: cfg.Backend.CrisisServiceTypes,
		FallbackQuery:      cfg.Backend.FallbackQuery,
	})

	// Pass nil interface (not typed nil pointer!) when the cache is off.
	var cachePinger healthuc.CachePinger
	if store != nil {
		cachePinger = store
	}
	healthSvc := healthuc.New(gateway, cachePinger)

	server := chiTransport.NewServer(extractionSvc, searchSvc, healthSvc, logger)
	handler := chiTransport.NewRouter(server, cfg.Auth.APIKeys, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	for _, b := range budgets {
		b.Flush()
	}

	logger.Info("Server stopped gracefully")
}

// openCache connects to Valkey/Redis. The cache is optional, so failures
// are logged and the service runs without it.
func openCache(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) db.Store {
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:      cfg.Addrs,
		Password:   cfg.Password,
		Standalone: cfg.Standalone,
	})
	if err != nil {
		logger.Error("Failed to create cache store, continuing without cache", zap.Error(err))
		return nil
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		logger.Error("Cache not ready, continuing without cache", zap.Error(err))
		store.Close()
		return nil
	}
	logger.Info("Connected to cache", zap.Strings("addrs", cfg.Addrs))
	return store
}

// buildProviders assembles each configured provider as
// adapter -> Instrumented (metrics + budget).
func buildProviders(
	ctx context.Context,
	cfg config.Config,
	backendClient *backend.Client,
	store db.Store,
	logger *zap.Logger,
) ([]extractionuc.Provider, []*extractionuc.BudgetTracker) {
	providers := make([]extractionuc.Provider, 0, len(cfg.Extraction.Order))
	var budgets []*extractionuc.BudgetTracker
	for _, name := range cfg.Extraction.Order {
		pc := cfg.Extraction.Providers[name]

		var base extractionuc.Provider
		switch pc.Kind {
		case config.KindOpenAI:
			base = openaiExt.NewExtractor(&openaiExt.Config{
				Name:        name,
				APIKey:      pc.APIKey,
				BaseURL:     pc.BaseURL,
				Model:       pc.Model,
				Temperature: pc.Temperature,
				MaxTokens:   pc.MaxTokens,
				Logger:      logger,
			})
		case config.KindAnthropic, config.KindOllama:
			model, err := langchain.NewModel(langchain.ModelConfig{
				Kind:    pc.Kind,
				APIKey:  pc.APIKey,
				BaseURL: pc.BaseURL,
				Model:   pc.Model,
			})
			if err != nil {
				logger.Warn("Extraction model unavailable", zap.String("provider", name), zap.Error(err))
			}
			base = langchain.NewExtractor(model, langchain.Config{
				Name:        name,
				Model:       pc.Model,
				Temperature: pc.Temperature,
				MaxTokens:   pc.MaxTokens,
			}, logger)
		case config.KindBackend:
			base = backend.NewExtractor(backendClient, name)
		default:
			logger.Warn("Unknown extraction provider kind", zap.String("provider", name), zap.String("kind", pc.Kind))
			continue
		}

		// Pass nil interface (not typed nil pointer!) when the provider has no limits.
		var checker extractionuc.BudgetChecker
		if tracker := buildBudget(ctx, name, pc.Budget, store, cfg.Cache.KeyPrefix, logger); tracker != nil {
			checker = tracker
			budgets = append(budgets, tracker)
		}
		providers = append(providers, extractionuc.NewInstrumentedProvider(base, pc.Model, checker))
	}
	return providers, budgets
}

// buildBudget returns nil when the provider has no limits.
func buildBudget(
	ctx context.Context,
	name string,
	bc config.BudgetConfig,
	store db.Store,
	keyPrefix string,
	logger *zap.Logger,
) *extractionuc.BudgetTracker {
	if bc.DailyTokenLimit <= 0 && bc.MonthlyTokenLimit <= 0 {
		return nil
	}
	action := extractionuc.BudgetActionWarn
	if bc.Action == string(extractionuc.BudgetActionReject) {
		action = extractionuc.BudgetActionReject
	}
	tracker := extractionuc.NewBudgetTracker(name, bc.DailyTokenLimit, bc.MonthlyTokenLimit, action, logger)
	if store != nil {
		// Loads the current counters from the cache.
		tracker.WithStore(ctx, budgetrepo.New(store, budgetrepo.DefaultRetention()), keyPrefix)
	}
	return tracker
}
