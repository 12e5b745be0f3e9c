// Command searcher serves ranked retrieval over HTTP from the artifacts
// written by the indexer.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/searcher/model"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/middleware"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/redis"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := pflag.NewFlagSet("searcher", pflag.ContinueOnError)
	configPath := flags.String("config", "configs/development.yaml", "path to config file")
	port := flags.IntP("port", "p", 0, "HTTP port (overrides config)")
	tokens := flags.Bool("tokens", true, "load token files so the proximity model is available")
	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service", "port", cfg.Server.Port, "partitions", cfg.Search.Partitions)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(nil)

	searchModel, err := model.Load(ctx, cfg, model.Options{Tokens: *tokens, Workers: cfg.Indexer.Workers}, m)
	if err != nil {
		slog.Error("failed to load search model", "error", err)
		return apperrors.ExitCode(err)
	}
	exec := executor.New(searchModel, executor.Config{
		Partitions:   cfg.Search.Partitions,
		DefaultModel: ranker.Model(cfg.Search.DefaultModel),
		DefaultLimit: cfg.Search.DefaultLimit,
		DefaultK:     cfg.Search.ProximityK,
	}, m)
	if _, err := exec.Resolve(executor.Options{}); err != nil {
		slog.Error("default search options rejected", "error", err)
		return apperrors.ExitCode(err)
	}

	var queryCache *cache.QueryCache
	var redisClient *pkgredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.NewClient(ctx, cfg.Redis, 5*time.Second)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
			queryCache = cache.New(redisClient, cfg.Redis.CacheTTL, m)
			slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	aggregator := analytics.NewAggregator(10)
	var publisher analytics.Publisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka)
		defer producer.Close()
		publisher = producer
		slog.Info("analytics publishing enabled", "topic", cfg.Kafka.AnalyticsTopic)
	}
	collector := analytics.NewCollector(publisher, aggregator, analytics.CollectorConfig{BufferSize: cfg.Kafka.EventBufferSize})
	collector.Start(ctx)
	defer collector.Close()

	checker := health.NewChecker()
	checker.Register("search_model", func(ctx context.Context) health.ComponentHealth {
		if searchModel.Size() == 0 {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "empty collection"}
		}
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d documents, %d terms", searchModel.Size(), searchModel.Vocab.Size()),
		}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	h := handler.New(exec, queryCache, collector, cfg.Search.MaxResults)
	analyticsH := analytics.NewHandler(aggregator)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /api/v1/stats", analyticsH.Stats)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())
	mux.Handle("GET /metrics", metrics.Handler())

	var limiter *middleware.Limiter
	if cfg.Server.RateLimit > 0 {
		limiter = middleware.NewLimiter(cfg.Server.RateLimit, cfg.Server.RateWindow)
	}

	var chain http.Handler = mux
	chain = middleware.RateLimit(limiter)(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("search service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		return 1
	}
	<-shutdownDone
	slog.Info("search service stopped")
	return 0
}
