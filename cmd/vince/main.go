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

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vince/internal/config"
	"github.com/kailas-cloud/vince/internal/db"
	"github.com/kailas-cloud/vince/internal/db/memory"
	dbRedis "github.com/kailas-cloud/vince/internal/db/redis"
	"github.com/kailas-cloud/vince/internal/domain"
	"github.com/kailas-cloud/vince/internal/domain/rag/backend"
	logpkg "github.com/kailas-cloud/vince/internal/logger"
	"github.com/kailas-cloud/vince/internal/metrics"
	"github.com/kailas-cloud/vince/internal/repository/corpus"
	"github.com/kailas-cloud/vince/internal/repository/embcache"
	chiTransport "github.com/kailas-cloud/vince/internal/transport/chi"
	"github.com/kailas-cloud/vince/internal/transport/gemini"
	"github.com/kailas-cloud/vince/internal/transport/ollama"
	openaiTransport "github.com/kailas-cloud/vince/internal/transport/openai"
	answeruc "github.com/kailas-cloud/vince/internal/usecase/answer"
	embeddinguc "github.com/kailas-cloud/vince/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/vince/internal/usecase/health"
	retrievaluc "github.com/kailas-cloud/vince/internal/usecase/retrieval"
	"github.com/kailas-cloud/vince/internal/version"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Println(version.String())
		return
	}

	// .env is optional; real environment variables win.
	_ = godotenv.Load()

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

	logger.Info("Starting vince API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("scorer", cfg.Retrieval.Scorer),
		zap.String("default_backend", cfg.Synthesis.DefaultBackend),
	)

	// Register RAG metrics explicitly (no init())
	metrics.RegisterRAGMetrics()

	var corpusOpts []corpus.Option
	if cfg.Retrieval.SimulateLocator {
		corpusOpts = append(corpusOpts, corpus.WithSimulatedLocator())
	}
	docs, err := corpus.Load(cfg.Corpus.Path, corpusOpts...)
	if err != nil {
		logger.Fatal("Failed to load corpus", zap.String("path", cfg.Corpus.Path), zap.Error(err))
	}
	logger.Info("Corpus loaded", zap.Int("documents", docs.Len()), zap.String("path", cfg.Corpus.Path))

	ctx := context.Background()

	// Scorer: lexical by default, embedding similarity when configured.
	var (
		scorer      retrievaluc.Scorer
		store       db.Store
		embChecker  healthuc.Checker
		cachePinger healthuc.Pinger
	)
	switch cfg.Retrieval.Scorer {
	case config.ScorerEmbedding:
		store = createStore(ctx, cfg.Cache, logger)
		defer store.Close()
		cachePinger = store

		base := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Provider:   cfg.Embedding.Provider,
			Logger:     logger,
		})
		embChecker = base

		docEmbedder := buildEmbedder(base, cfg.Embedding, cfg.Embedding.DocumentInstruction, store, cfg.Cache, logger)
		queryEmbedder := buildEmbedder(base, cfg.Embedding, cfg.Embedding.QueryInstruction, store, cfg.Cache, logger)
		scorer = retrievaluc.NewEmbeddingScorer(queryEmbedder, docEmbedder, cfg.Embedding.Concurrency)
		logger.Info("Embedding scorer created",
			zap.String("provider", cfg.Embedding.Provider),
			zap.String("model", cfg.Embedding.Model),
			zap.String("cache", cfg.Cache.Driver),
		)
	default:
		scorer = retrievaluc.NewLexicalScorer(cfg.Retrieval.JitterMax, retrievaluc.JitterMode(cfg.Retrieval.JitterMode))
	}

	generators, checkers := buildGenerators(ctx, cfg.Synthesis, logger)

	retrievalSvc := retrievaluc.New(docs, scorer, logger)
	answerSvc := answeruc.New(retrievalSvc, generators, answeruc.Config{
		DefaultBackend: backend.Backend(cfg.Synthesis.DefaultBackend),
		Timeout:        cfg.Synthesis.Timeout(),
	}, logger)

	if _, ok := generators[answerSvc.DefaultBackend()]; !ok {
		logger.Warn("Default generation backend is not configured, answers will fall back",
			zap.String("backend", string(answerSvc.DefaultBackend())),
		)
	}

	healthSvc := healthuc.New(docs, cachePinger, embChecker)
	for name, c := range checkers {
		healthSvc.WithGenerator(name, c)
	}

	server := chiTransport.NewServer(answerSvc, retrievalSvc, docs, healthSvc, logger)
	handler := chiTransport.NewRouter(server, cfg.CORS.AllowedOrigins, logger)

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

	logger.Info("Server stopped gracefully")
}

// createStore opens the embedding cache store selected by cache.driver.
func createStore(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) db.Store {
	var (
		store db.Store
		err   error
	)
	switch cfg.Driver {
	case config.CacheRedis, config.CacheValkey:
		// Valkey speaks the Redis protocol; one rueidis client serves both.
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
	default:
		store, err = memory.NewStore(cfg.Size)
	}
	if err != nil {
		logger.Fatal("Failed to create cache store", zap.String("driver", cfg.Driver), zap.Error(err))
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Cache store not ready", zap.Error(err))
	}
	logger.Info("Connected to cache store", zap.String("driver", cfg.Driver))
	return store
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction
func buildEmbedder(
	base domain.Embedder,
	embCfg config.EmbeddingConfig,
	instruction string,
	store db.Store,
	cacheCfg config.CacheConfig,
	logger *zap.Logger,
) domain.Embedder {
	var embedder domain.Embedder = embcache.New(base, store, embcache.Config{
		Namespace:  embcache.Namespace(embCfg.Provider, embCfg.Model, embCfg.Dimensions),
		TTL:        cacheCfg.TTL(),
		CacheTotal: metrics.EmbeddingCacheTotal,
	}, logger)

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, embCfg.Provider, embCfg.Model, logger)

	// Instruction prefix (outermost, so the cache key includes the instruction)
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}
	return embedder
}

// buildGenerators creates a generator for every backend with credentials.
// Backends that fail to initialise are skipped with a warning.
func buildGenerators(
	ctx context.Context, cfg config.SynthesisConfig, logger *zap.Logger,
) (map[backend.Backend]domain.Generator, map[string]healthuc.Checker) {
	generators := make(map[backend.Backend]domain.Generator)
	checkers := make(map[string]healthuc.Checker)

	if cfg.Local.Model != "" {
		g, err := ollama.NewGenerator(&ollama.Config{
			Host:        cfg.Local.Host,
			Model:       cfg.Local.Model,
			Temperature: cfg.Temperature,
		})
		if err != nil {
			logger.Warn("Local backend disabled", zap.Error(err))
		} else {
			generators[backend.Local] = g
			checkers[string(backend.Local)] = g
		}
	}

	if cfg.Gemini.APIKey != "" {
		g, err := gemini.NewGenerator(ctx, &gemini.Config{
			APIKey:      cfg.Gemini.APIKey,
			BaseURL:     cfg.Gemini.BaseURL,
			Model:       cfg.Gemini.Model,
			Temperature: cfg.Temperature,
		})
		if err != nil {
			logger.Warn("Gemini backend disabled", zap.Error(err))
		} else {
			generators[backend.Gemini] = g
			checkers[string(backend.Gemini)] = g
		}
	}

	if cfg.OpenAI.APIKey != "" {
		g := openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
			APIKey:      cfg.OpenAI.APIKey,
			BaseURL:     cfg.OpenAI.BaseURL,
			Model:       cfg.OpenAI.Model,
			Temperature: cfg.Temperature,
		})
		generators[backend.OpenAI] = g
		checkers[string(backend.OpenAI)] = g
	}

	names := make([]string, 0, len(generators))
	for _, b := range backend.All {
		if _, ok := generators[b]; ok {
			names = append(names, string(b))
		}
	}
	logger.Info("Generation backends configured", zap.Strings("backends", names))

	return generators, checkers
}
