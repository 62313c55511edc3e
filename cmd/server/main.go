// Package main runs the curricula HTTP server with graceful shutdown.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/curricula/backend/config"
	"github.com/curricula/backend/internal/approval"
	"github.com/curricula/backend/internal/auth"
	"github.com/curricula/backend/internal/catalog"
	"github.com/curricula/backend/internal/discovery"
	"github.com/curricula/backend/internal/submissions"
	"github.com/curricula/backend/pkg/cache"
	"github.com/curricula/backend/pkg/database"
	"github.com/curricula/backend/pkg/queue"
	"github.com/curricula/backend/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	// Redis is optional: without it catalog reads go straight to Postgres and
	// approved images keep their source URL.
	var (
		catalogCache *cache.Cache
		images       approval.ImageEnqueuer
	)
	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	switch {
	case errors.Is(err, redis.ErrNotConfigured):
		logger.Warn("redis disabled: catalog cache and image mirroring are off")
	case err != nil:
		logger.Fatal("redis", zap.Error(err))
	default:
		defer rdb.Close()
		catalogCache = cache.New(rdb.Client, cfg.Redis.CacheTTL, logger)
		images = queue.NewQueue(rdb.Client, logger)
	}

	finder, err := newFinder(ctx, cfg.AI, logger)
	if err != nil {
		logger.Fatal("ai provider", zap.Error(err))
	}

	authRepo := auth.NewRepository(pool)
	sessions := auth.NewManager(authRepo, auth.ManagerConfig{
		Secret:        cfg.Auth.Secret,
		TTL:           cfg.Auth.SessionTTL,
		Refresh:       cfg.Auth.SessionRefresh,
		CacheTTL:      cfg.Auth.CookieCacheTTL,
		SecureCookies: cfg.Auth.SecureCookies,
	}, logger)

	catalogRepo := catalog.NewRepository(pool)
	submissionRepo := submissions.NewRepository(pool)
	approvalSvc := approval.NewService(approval.NewRepository(pool), catalogCache, images, logger)

	router := newRouter(routerDeps{
		cfg:       cfg,
		logger:    logger,
		health:    pool.Ping,
		sessions:  sessions,
		auth:      auth.NewHandler(authRepo, sessions, logger),
		catalog:   catalog.NewHandler(catalog.NewService(catalogRepo, catalogCache, logger), catalogRepo, logger),
		intake:    submissions.NewIntakeHandler(submissionRepo, logger),
		review:    submissions.NewAdminHandler(submissionRepo, catalogRepo, logger),
		approval:  approval.NewHandler(approvalSvc, logger),
		discovery: discovery.NewHandler(finder, submissionRepo, logger),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	janitorCtx, janitorCancel := context.WithCancel(context.Background())
	defer janitorCancel()
	go sweepSessions(janitorCtx, authRepo, time.Hour, logger)

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	janitorCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

// newFinder wires the completers named by AI_PROVIDER.
func newFinder(ctx context.Context, cfg config.AIConfig, logger *zap.Logger) (*discovery.Service, error) {
	reader := discovery.NewReader(cfg.ReaderBaseURL, cfg.Timeout)
	if cfg.Provider == "gemini" {
		gemini, err := discovery.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		return discovery.NewService(gemini, gemini, reader, logger), nil
	}
	discoverer := discovery.NewOpenAIClient(discovery.OpenAIConfig{
		APIKey:  cfg.PerplexityAPIKey,
		BaseURL: cfg.PerplexityBaseURL,
		Model:   cfg.DiscoverModel,
		Timeout: cfg.Timeout,
	})
	extractor := discovery.NewOpenAIClient(discovery.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.ExtractModel,
		Timeout: cfg.Timeout,
	})
	return discovery.NewService(discoverer, extractor, reader, logger), nil
}

func sweepSessions(ctx context.Context, repo *auth.Repository, every time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.DeleteExpiredSessions(ctx)
			if err != nil {
				logger.Warn("sweep sessions", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("expired sessions removed", zap.Int64("count", n))
			}
		}
	}
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
