package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/api"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/api/middleware"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/config"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/database"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/jobs"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/logging"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/pricing"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/repository"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/service"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/twse"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/version"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/yahoo"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck // stdout sync errors are not actionable
	undo := zap.ReplaceGlobals(logger)
	defer undo()

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()

	migrated, err := database.Migrate(context.Background(), db)
	if err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	logger.Info("Connected to database",
		zap.String("path", cfg.Database.Path),
		zap.Int64("schema_version", migrated),
		zap.String("app_version", version.Version),
	)

	// Create repositories
	transactionRepo := repository.NewTransactionRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	accountRepo := repository.NewAccountRepository(db)

	// Price oracle
	location := cfg.Pricing.Location()
	clock := pricing.SystemClock{}
	session := pricing.NewSession(location)

	cache, redisClient := buildQuoteCache(cfg, clock, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	var ttl pricing.TTLPolicy = pricing.FixedTTL(cfg.Pricing.CacheTTL)
	if cfg.Pricing.CacheMode == "session" {
		sessionTTL := pricing.NewSessionTTL(session)
		sessionTTL.InSession = cfg.Pricing.CacheTTL
		ttl = sessionTTL
	}

	twseClient := twse.NewClient()
	oracle := pricing.NewOracle(pricing.Options{
		Cache: cache,
		Stages: []pricing.Stage{
			{Source: pricing.NewYahooSource(yahoo.NewFinanceClient(), session, clock, cfg.Pricing.FetchConcurrency)},
			{Source: pricing.NewMISSource(twseClient, clock), SessionOnly: true},
			{Source: pricing.NewCloseSource(twseClient, clock)},
		},
		Session: session,
		TTL:     ttl,
		Clock:   clock,
		Timeout: cfg.Pricing.FetchTimeout,
		Logger:  logger.Named("pricing"),
	})

	// Create services
	systemService := service.NewSystemService(db, map[string]bool{
		"session_tokens": len(cfg.Auth.FernetKeys) > 0,
		"shared_cache":   redisClient != nil,
		"quote_warmup":   cfg.Jobs.WarmupSchedule != "",
	})
	holdingService := service.NewHoldingService(
		transactionRepo,
		settingsRepo,
		accountRepo,
		oracle,
		clock,
		location,
		logger.Named("holdings"),
	)

	auth, err := middleware.NewAuthenticator(cfg.Auth.FernetKeys, cfg.Auth.TokenTTL)
	if err != nil {
		logger.Fatal("Failed to configure authentication", zap.Error(err))
	}
	if len(cfg.Auth.FernetKeys) == 0 {
		logger.Warn("AUTH_FERNET_KEYS not set, trusting X-User-ID header")
	}

	// Background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()
	var runner *jobs.Runner
	if cfg.Jobs.WarmupSchedule != "" {
		runner = jobs.NewRunner(jobCtx, logger.Named("jobs"))
		if _, err := runner.Add(cfg.Jobs.WarmupSchedule, jobs.WarmupJob(holdingService, 2*cfg.Pricing.FetchTimeout, logger.Named("warmup"))); err != nil {
			logger.Fatal("Invalid PRICE_WARMUP_SCHEDULE", zap.Error(err))
		}
		runner.Start()
	}

	// Create router
	router := api.NewRouter(systemService, holdingService, auth, logger.Named("http"), cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	cancelJobs()
	if runner != nil {
		runner.Stop()
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	logger.Info("Server exited")
}

// buildQuoteCache returns the in-process cache, layered over Redis when
// REDIS_URL is set. An unreachable Redis is only logged: cache errors
// count as misses.
func buildQuoteCache(cfg *config.Config, clock pricing.Clock, logger *zap.Logger) (pricing.Cache, *redis.Client) {
	memory := pricing.NewMemoryCache(clock)
	if cfg.Redis.URL == "" {
		return memory, nil
	}

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Fatal("Invalid REDIS_URL", zap.Error(err))
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unreachable, quotes will be cached locally until it recovers", zap.Error(err))
	} else {
		logger.Info("Connected to redis", zap.String("addr", opts.Addr))
	}

	return pricing.NewTieredCache(memory, pricing.NewRedisCache(client), cfg.Pricing.CacheTTL), client
}
