package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/namedex/internal/config"
	"github.com/kailas-cloud/namedex/internal/db"
	dbRedis "github.com/kailas-cloud/namedex/internal/db/redis"
	"github.com/kailas-cloud/namedex/internal/domain"
	"github.com/kailas-cloud/namedex/internal/index"
	logpkg "github.com/kailas-cloud/namedex/internal/logger"
	"github.com/kailas-cloud/namedex/internal/metrics"
	"github.com/kailas-cloud/namedex/internal/repository/embcache"
	"github.com/kailas-cloud/namedex/internal/repository/knowledge"
	chiTransport "github.com/kailas-cloud/namedex/internal/transport/chi"
	lcTransport "github.com/kailas-cloud/namedex/internal/transport/langchain"
	oaiTransport "github.com/kailas-cloud/namedex/internal/transport/openai"
	analyzeuc "github.com/kailas-cloud/namedex/internal/usecase/analyze"
	assembleuc "github.com/kailas-cloud/namedex/internal/usecase/assemble"
	healthuc "github.com/kailas-cloud/namedex/internal/usecase/health"
	pipelineuc "github.com/kailas-cloud/namedex/internal/usecase/pipeline"
	reloaduc "github.com/kailas-cloud/namedex/internal/usecase/reload"
	retrieveuc "github.com/kailas-cloud/namedex/internal/usecase/retrieve"
	synthesizeuc "github.com/kailas-cloud/namedex/internal/usecase/synthesize"
	"github.com/kailas-cloud/namedex/internal/version"
)

// llmProvider bundles the collaborator capabilities one driver must cover.
type llmProvider interface {
	domain.Embedder
	domain.KeywordExtractor
	domain.Generator
	domain.HealthChecker
}

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

	logger.Info("Starting namedex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("llm_driver", cfg.LLM.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterLLMMetrics()
	metrics.RegisterPipelineMetrics()

	ctx := context.Background()

	// Knowledge store. No addrs switches the loader to snapshot-file mode.
	var store db.Store
	if len(cfg.Database.Addrs) > 0 {
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create knowledge store", zap.Error(err))
		}
		defer s.Close()

		if err := s.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Knowledge store not ready", zap.Error(err))
		}
		logger.Info("Connected to knowledge store")
		store = s
	}

	// LLM provider selected by config
	llm, err := buildLLM(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create LLM provider", zap.Error(err))
	}
	logger.Info("LLM provider created",
		zap.String("driver", cfg.LLM.Driver),
		zap.String("chat_model", cfg.LLM.ChatModel),
		zap.String("embedding_model", cfg.LLM.EmbeddingModel),
		zap.Int("dimensions", cfg.LLM.Dimensions),
	)

	// Query embedder chain: provider -> cached -> instruction prefix
	var embedder domain.Embedder = llm
	if store != nil {
		embedder = embcache.New(llm, store, cfg.Storage.KeyPrefix, cfg.LLM.EmbeddingModel, metrics.EmbeddingCacheTotal, logger)
	}
	if cfg.LLM.QueryInstruction != "" {
		embedder = domain.NewInstructionEmbedder(embedder, cfg.LLM.QueryInstruction)
	}

	// Knowledge base load and initial index build
	indexCfg := index.Config{
		VectorDim: cfg.LLM.Dimensions,
		Profiles:  cfg.ScoringProfiles(),
	}

	var loader reloaduc.Loader
	if store != nil {
		loader = knowledge.New(store, cfg.Storage.KeyPrefix, cfg.Storage.LoadWorkers, logger)
	} else {
		loader = snapshotLoader{path: cfg.Storage.SnapshotPath}
	}

	docs, err := loader.LoadAll(ctx)
	if err != nil {
		logger.Fatal("Failed to load knowledge base", zap.Error(err))
	}
	ix, err := index.Build(indexCfg, docs)
	if err != nil {
		logger.Fatal("Failed to build index", zap.Error(err))
	}
	holder := index.NewHolder(ix)

	counts := ix.Counts()
	logger.Info("Knowledge base indexed",
		zap.Int("documents", ix.Size()),
		zap.Int("rules", counts[domain.CollectionRules]),
		zap.Int("dictionary", counts[domain.CollectionDictionary]),
		zap.Int("qa", counts[domain.CollectionQA]),
	)

	// Use case services
	backoff := time.Duration(cfg.Pipeline.BackoffBaseMs) * time.Millisecond

	analyzeSvc := analyzeuc.New(
		llm, embedder, cfg.LLM.Dimensions, cfg.Pipeline.Retries["analyze"], backoff, logger,
	)
	retrieveSvc := retrieveuc.New(
		holder, cfg.Pipeline.TopK,
		time.Duration(cfg.Pipeline.CollectionTimeout)*time.Millisecond,
		cfg.Pipeline.Retries["retrieve"], backoff, logger,
	)
	assembleSvc := assembleuc.New(cfg.Pipeline.ContextBudgetChars)
	synthesizeSvc := synthesizeuc.New(llm, logger)

	pipelineSvc := pipelineuc.New(
		analyzeSvc, retrieveSvc, assembleSvc, synthesizeSvc,
		pipelineuc.Timeouts{
			Analyze:    time.Duration(cfg.Pipeline.StageTimeoutSec.Analyze) * time.Second,
			Retrieve:   time.Duration(cfg.Pipeline.StageTimeoutSec.Retrieve) * time.Second,
			Synthesize: time.Duration(cfg.Pipeline.StageTimeoutSec.Synthesize) * time.Second,
		},
		cfg.Pipeline.Retries["synthesize"], backoff, cfg.Pipeline.KeywordFallback,
		logger,
	)

	// Health service. Pass nil interface (not typed nil pointer!) when the
	// store is not configured.
	var storePinger healthuc.StorePinger
	if store != nil {
		storePinger = store
	}
	healthSvc := healthuc.New(storePinger, llm, holder)
	reloadSvc := reloaduc.New(loader, holder, indexCfg, logger)

	// Create chi server
	server := chiTransport.NewServer(pipelineSvc, healthSvc, reloadSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())

	r.Post("/v1/query", server.Query)
	r.Get("/health", server.HealthCheck)
	r.Get("/metrics", server.Metrics)
	r.Post("/internal/reload", server.Reload)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

	logger.Info("Server stopped gracefully")
}

// buildLLM selects the provider driver.
func buildLLM(cfg config.Config, logger *zap.Logger) (llmProvider, error) {
	switch cfg.LLM.Driver {
	case "langchain":
		return lcTransport.NewClient(&lcTransport.Config{
			APIKey:         cfg.LLM.APIKey,
			BaseURL:        cfg.LLM.BaseURL,
			ChatModel:      cfg.LLM.ChatModel,
			EmbeddingModel: cfg.LLM.EmbeddingModel,
			Logger:         logger,
		})
	case "", "openai":
		return oaiTransport.NewClient(&oaiTransport.Config{
			APIKey:         cfg.LLM.APIKey,
			BaseURL:        cfg.LLM.BaseURL,
			ChatModel:      cfg.LLM.ChatModel,
			EmbeddingModel: cfg.LLM.EmbeddingModel,
			Dimensions:     cfg.LLM.Dimensions,
			Provider:       "openai",
			Logger:         logger,
		}), nil
	default:
		return nil, fmt.Errorf("unknown llm driver %q", cfg.LLM.Driver)
	}
}

// snapshotLoader reads the knowledge base from a JSON file. Used in local
// setups without a store.
type snapshotLoader struct {
	path string
}

func (l snapshotLoader) LoadAll(_ context.Context) ([]domain.Document, error) {
	return knowledge.LoadSnapshot(l.path)
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
