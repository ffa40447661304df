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

	"floorchat-backend/cache"
	"floorchat-backend/config"
	"floorchat-backend/generation"
	"floorchat-backend/handlers"
	"floorchat-backend/knowledge"
	"floorchat-backend/livedata"
	"floorchat-backend/llm"
	"floorchat-backend/logging"
	"floorchat-backend/repository"
	"floorchat-backend/service"
	"floorchat-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	foundEnv := config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	if !foundEnv {
		logger.Warn("no .env file found, using environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := initPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize Postgres: %w", err)
	}
	defer db.Close()
	logger.Info("postgres connection established")

	docs, err := initStorage(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	logger.Info("storage initialized", zap.String("type", string(cfg.Storage.Type)))

	genaiClient, err := llm.NewClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return fmt.Errorf("failed to initialize Gemini: %w", err)
	}
	defer genaiClient.Close()

	gemini := llm.NewGemini(genaiClient,
		llm.WithChatModel(cfg.ChatModel),
		llm.WithEmbeddingModel(cfg.EmbeddingModel),
		llm.WithLogger(logger.Named("llm")),
	)

	embedder, closeCache := initEmbeddingCache(ctx, cfg, gemini, logger)
	defer closeCache()

	productionRepo := repository.NewProductionRepository(db)
	knowledgeRepo := repository.NewKnowledgeRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	callerRepo := repository.NewCallerRepository(db)

	aggregator := livedata.NewAggregator(productionRepo,
		livedata.WithLogger(logger.Named("livedata")),
	)
	retriever := knowledge.NewRetriever(embedder, knowledgeRepo,
		knowledge.WithTopK(cfg.KnowledgeTopK),
		knowledge.WithMinSimilarity(cfg.KnowledgeMinSimilarity),
		knowledge.WithURLResolver(docs),
		knowledge.WithLogger(logger.Named("knowledge")),
	)
	generator := generation.NewGenerator(gemini,
		generation.WithMaxOutputTokens(cfg.MaxOutputTokens),
		generation.WithLogger(logger.Named("generation")),
	)

	chatService := service.NewChatService(
		service.WithConversationStore(conversationRepo),
		service.WithLiveData(aggregator),
		service.WithKnowledge(retriever),
		service.WithGenerator(generator),
		service.WithGenerationTimeout(cfg.GenerationTimeout),
		service.WithLogger(logger.Named("chat")),
	)

	gin.SetMode(cfg.GinMode)
	router := handlers.Router{
		Chat:    handlers.NewChatHandler(chatService),
		Callers: callerRepo,
		Logger:  logger.Named("http"),
	}
	if cfg.Storage.Type == storage.StorageTypeLocal {
		router.Files = handlers.NewFileHandler(docs, logger.Named("files"))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GenerationTimeout+5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func initPostgres(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func initStorage(ctx context.Context, cfg storage.StorageConfig) (storage.Storage, error) {
	docs, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if az, ok := docs.(*storage.AzureStorage); ok {
		if err := az.EnsureContainer(ctx); err != nil {
			return nil, err
		}
	}
	return docs, nil
}

// initEmbeddingCache wraps the embedder in the Redis cache when REDIS_URL is
// set. Redis being unreachable at startup only disables the cache.
func initEmbeddingCache(ctx context.Context, cfg *config.Config, next cache.Embedder, logger *zap.Logger) (*cache.EmbeddingCache, func()) {
	opts := []cache.Option{
		cache.WithTTL(cfg.EmbeddingCacheTTL),
		cache.WithModel(cfg.EmbeddingModel),
		cache.WithLogger(logger.Named("cache")),
	}
	if cfg.RedisURL == "" {
		return cache.NewEmbeddingCache(nil, next, opts...), func() {}
	}

	rdb, err := cache.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Warn("embedding cache disabled", zap.Error(err))
		return cache.NewEmbeddingCache(nil, next, opts...), func() {}
	}
	logger.Info("embedding cache enabled")
	return cache.NewEmbeddingCache(rdb, next, opts...), func() { _ = rdb.Close() }
}
