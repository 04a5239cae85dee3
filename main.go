package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ai-visibility/backend/analyzer"
	"github.com/ai-visibility/backend/api"
	"github.com/ai-visibility/backend/cache"
	"github.com/ai-visibility/backend/config"
	"github.com/ai-visibility/backend/logging"
	"github.com/ai-visibility/backend/metrics"
	"github.com/ai-visibility/backend/middleware"
	"github.com/ai-visibility/backend/providers"
	"github.com/ai-visibility/backend/stats"
	"github.com/ai-visibility/backend/store"
	"github.com/ai-visibility/backend/visibility"
)

const (
	shutdownTimeout = 15 * time.Second
	retainMonths    = 12
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func newPageCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) cache.Cache {
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Analysis.CacheTTL, logger)
		if err == nil {
			return redisCache
		}
		logger.Warn("redis unavailable, falling back to in-memory cache", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}
	return cache.NewMemory(cfg.Analysis.CacheTTL, cfg.Analysis.MaxCacheEntries)
}

func run() error {
	envFile := config.LoadEnv()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if envFile != "" {
		logger.Info("loaded environment file", zap.String("file", envFile))
	} else {
		logger.Info("no .env file found, using environment variables")
	}

	gin.SetMode(cfg.Server.Mode)
	metrics.Init()

	st, err := store.Open(cfg.SQLite.Path, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	monthly, err := stats.NewStorage(cfg.Stats.DataDir, logger)
	if err != nil {
		return err
	}
	defer monthly.Shutdown()
	monthly.Cleanup(retainMonths)

	requestStats := logging.NewStatistics(filepath.Join(cfg.Stats.DataDir, "statistics.json"), cfg.Server.DevMode, logger)
	defer func() {
		if err := requestStats.Save(); err != nil {
			logger.Warn("failed to save statistics", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pageCache := newPageCache(ctx, cfg, logger)
	defer pageCache.Close()

	registry, err := providers.NewRegistry(cfg.OpenAI, logger)
	if err != nil {
		return err
	}

	aggregator := visibility.NewAggregator(registry,
		visibility.WithPacing(cfg.Analysis.Pacing),
		visibility.WithFailureRecorder(monthly),
		visibility.WithAggregatorLogger(logger),
	)
	pages := analyzer.New(analyzer.NewHTTPFetcher(cfg.Analysis.FetchTimeout),
		analyzer.WithCache(pageCache),
		analyzer.WithStats(monthly),
		analyzer.WithLogger(logger),
	)

	rateLimiter := middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst, "/api/health", "/metrics")
	defer rateLimiter.Stop()

	r := gin.New()
	r.Use(middleware.ErrorHandler(logger))
	r.Use(middleware.CORS(middleware.DefaultCORSOptions()))
	r.Use(middleware.StatsMiddleware(requestStats, logger))
	r.Use(rateLimiter.RateLimit())

	api.New(api.Deps{
		Companies:    visibility.NewService(aggregator, st, monthly, logger),
		Pages:        pages,
		Store:        st,
		RequestStats: requestStats,
		MonthlyStats: monthly,
		PageCache:    pageCache,
		Logger:       logger,
	}).Register(r)

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("mode", cfg.Server.Mode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
