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

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/weiawesome/wes-io-live/discovery-service/internal/config"
	"github.com/weiawesome/wes-io-live/discovery-service/internal/domain"
	"github.com/weiawesome/wes-io-live/discovery-service/internal/handler"
	"github.com/weiawesome/wes-io-live/discovery-service/internal/kv"
	"github.com/weiawesome/wes-io-live/discovery-service/internal/metrics"
	"github.com/weiawesome/wes-io-live/discovery-service/internal/recommend"
	"github.com/weiawesome/wes-io-live/discovery-service/internal/repository"
	"github.com/weiawesome/wes-io-live/discovery-service/internal/service"
	pkglog "github.com/weiawesome/wes-io-live/discovery-service/pkg/log"
)

const shutdownTimeout = 10 * time.Second

func newSearcher(cfg *config.Config, logger zerolog.Logger) repository.Searcher {
	if cfg.Search.Backend != "elasticsearch" {
		logger.Info().Str("base_url", cfg.Search.BaseURL).Msg("using http search api")
		return repository.NewHTTPSearchClient(cfg.Search.BaseURL, cfg.Search.Timeout)
	}

	esClient, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Elasticsearch.Addresses,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create elasticsearch client")
	}

	// Verify ES connection
	res, err := esClient.Info()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to elasticsearch")
	}
	res.Body.Close()
	logger.Info().Strs("addresses", cfg.Elasticsearch.Addresses).Msg("elasticsearch connected")

	return repository.NewESSearchRepository(esClient, cfg.Elasticsearch.IndexPrefix)
}

func newGenerator(cfg *config.Config, logger zerolog.Logger) recommend.Generator {
	if cfg.AI.APIKey == "" {
		logger.Warn().Msg("no ai api key configured, recommendations use local fallback only")
		return recommend.OfflineGenerator{}
	}
	return repository.NewGeminiClient(cfg.AI.Endpoint, cfg.AI.APIKey, cfg.AI.Timeout)
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// Initialize structured logger
	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Level == "debug",
		ServiceName: "discovery-service",
	})
	logger := pkglog.L()

	ctx := pkglog.WithLogger(context.Background(), logger)

	// Initialize persistent medium
	medium, err := kv.Open(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.Storage.Backend).Msg("failed to open storage")
	}
	defer medium.Close()
	logger.Info().Str("backend", cfg.Storage.Backend).Msg("storage opened")

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	categories := make([]domain.Category, 0, len(cfg.Categories))
	for _, c := range cfg.Categories {
		categories = append(categories, domain.Category(c))
	}

	// Initialize service
	manager := service.NewManager(ctx, medium, newSearcher(cfg, logger), newGenerator(cfg, logger), service.Options{
		Categories:   categories,
		SessionTTL:   cfg.Cache.SessionTTL,
		RecommendTTL: cfg.Cache.RecommendTTL,
		HistoryLimit: cfg.History.Limit,
		MaxEntries:   cfg.Cache.MaxEntries,
		Metrics:      m,
	})

	// Initialize HTTP handler
	httpHandler := handler.NewHandler(manager)

	// Setup Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Register routes
	httpHandler.RegisterRoutes(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logger.Info().Str("addr", addr).Msg("discovery-service starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	if err := manager.Close(pkglog.WithLogger(shutdownCtx, logger)); err != nil {
		logger.Error().Err(err).Msg("failed to persist caches")
	}
}
