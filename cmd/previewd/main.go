// Package main wires together the preview service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/previewd/previewd/internal/api"
	cacheMemory "github.com/previewd/previewd/internal/cache/memory"
	cachePostgres "github.com/previewd/previewd/internal/cache/postgres"
	"github.com/previewd/previewd/internal/clock/system"
	"github.com/previewd/previewd/internal/config"
	"github.com/previewd/previewd/internal/dispatcher"
	collyfetcher "github.com/previewd/previewd/internal/fetcher/colly"
	"github.com/previewd/previewd/internal/hash/sha256"
	"github.com/previewd/previewd/internal/logging"
	"github.com/previewd/previewd/internal/metrics"
	"github.com/previewd/previewd/internal/oembed"
	"github.com/previewd/previewd/internal/policy"
	"github.com/previewd/previewd/internal/policy/ratelimit"
	"github.com/previewd/previewd/internal/preview"
	queueMemory "github.com/previewd/previewd/internal/queue/memory"
	queuePubsub "github.com/previewd/previewd/internal/queue/pubsub"
	"github.com/previewd/previewd/internal/render"
	"github.com/previewd/previewd/internal/resolver"
	"github.com/previewd/previewd/internal/scrape"
	storeMemory "github.com/previewd/previewd/internal/store/memory"
	storePostgres "github.com/previewd/previewd/internal/store/postgres"
	"github.com/previewd/previewd/internal/worker"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	providers, err := oembed.LoadCatalogue(ctx, cfg.OEmbed.CataloguePath)
	if err != nil {
		logger.Fatal("load provider catalogue failed", zap.Error(err))
	}
	registry, err := oembed.NewRegistry(providers)
	if err != nil {
		logger.Fatal("compile provider catalogue failed", zap.Error(err))
	}
	logger.Info("provider catalogue loaded",
		zap.Int("providers", len(providers)),
		zap.Int("endpoints", registry.Len()),
	)

	var limiter collyfetcher.Limiter
	if cfg.HTTP.RateLimitRPS > 0 {
		limiter = ratelimit.New(ratelimit.Config{
			DefaultRPS:   cfg.HTTP.RateLimitRPS,
			DefaultBurst: cfg.HTTP.RateLimitBurst,
		})
	}
	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent:    cfg.HTTP.UserAgent,
		Timeout:      cfg.FetchTimeout(),
		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
		Limiter:      limiter,
	})
	oembedClient := oembed.NewClient(fetcher, cfg.OEmbed.MaxWidth, cfg.OEmbed.MaxHeight, logger.Named("oembed"))
	scraper := scrape.NewScraper(logger.Named("scrape"))

	cache, closeCache, err := buildCache(ctx, cfg)
	if err != nil {
		logger.Fatal("cache init failed", zap.Error(err))
	}
	defer closeCache()

	contentStore, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		logger.Fatal("content store init failed", zap.Error(err))
	}
	defer closeStore()

	var queue preview.Queue
	var closeQueue func()
	if cfg.PubSub.Enabled {
		psQueue, psErr := queuePubsub.NewQueue(ctx, queuePubsub.Config{
			ProjectID:      cfg.PubSub.ProjectID,
			TopicID:        cfg.PubSub.TopicName,
			SubscriptionID: cfg.PubSub.SubscriptionID,
		}, logger.Named("pubsub"))
		if psErr != nil {
			logger.Fatal("pubsub queue init failed", zap.Error(psErr))
		}
		queue = psQueue
		closeQueue = func() {
			if closeErr := psQueue.Close(); closeErr != nil {
				logger.Warn("pubsub queue close failed", zap.Error(closeErr))
			}
		}
	} else {
		memQueue := queueMemory.NewQueue(cfg.Worker.QueueDepth)
		queue = memQueue
		closeQueue = memQueue.Close
	}

	resolve := resolver.NewCached(
		resolver.New(registry, oembedClient, fetcher, scraper, logger.Named("resolver")),
		cache,
		cfg.Cache.StoreFailures,
		logger.Named("cache"),
	)
	gate := policy.NewGate(cfg.Policy.DisabledRealms, logger.Named("policy"))
	renderer := render.New()

	var workers []*worker.Worker
	for i := 0; i < cfg.Worker.Concurrency; i++ {
		workers = append(workers, worker.New(
			queue,
			resolve,
			contentStore,
			gate,
			renderer,
			logger.Named("worker").With(zap.Int("index", i)),
		))
	}
	dispatch := dispatcher.New(queue, workers)

	apiServer := api.NewServer(cache, dispatch, sha256.New(), system.New(), cfg, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("dispatcher started", zap.Int("workers", cfg.Worker.Concurrency))
		dispatch.Run(ctx)
	}()

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	closeQueue()
	logger.Info("shutdown complete")
}

func buildCache(ctx context.Context, cfg config.Config) (preview.Cache, func(), error) {
	switch cfg.Cache.Backend {
	case "postgres":
		pgCache, err := cachePostgres.NewCache(ctx, cachePostgres.CacheConfig{
			DSN:      cfg.DB.DSN,
			MaxConns: cfg.DB.MaxConns,
			MinConns: cfg.DB.MinConns,
		})
		if err != nil {
			return nil, nil, err
		}
		return pgCache, pgCache.Close, nil
	default:
		return cacheMemory.New(), func() {}, nil
	}
}

func buildStore(ctx context.Context, cfg config.Config) (preview.ContentStore, func(), error) {
	switch cfg.Store.Backend {
	case "postgres":
		pgStore, err := storePostgres.NewStore(ctx, storePostgres.StoreConfig{
			DSN:      cfg.DB.DSN,
			MaxConns: cfg.DB.MaxConns,
			MinConns: cfg.DB.MinConns,
		})
		if err != nil {
			return nil, nil, err
		}
		return pgStore, pgStore.Close, nil
	default:
		return storeMemory.New(), func() {}, nil
	}
}
