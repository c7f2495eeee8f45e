package app

import (
	"context"

	"quiz-forge/internal/adapter"
	"quiz-forge/internal/cache"
	"quiz-forge/internal/config"
	"quiz-forge/internal/content"
	"quiz-forge/internal/database"
	"quiz-forge/internal/domain"
	"quiz-forge/internal/llm"
	"quiz-forge/internal/ratelimit"
	"quiz-forge/internal/repository"
	"quiz-forge/internal/service"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Options selects the optional collaborators to connect.
type Options struct {
	// UseRedis backs the rate limiter with Redis when an address is configured.
	UseRedis bool
	// UseDatabase connects the question repository when DB settings are present.
	UseDatabase bool
}

// Components holds everything a command needs to serve generations.
type Components struct {
	Service    domain.GenerationService
	Client     *llm.Client
	Extractor  domain.ContentExtractor
	Repository domain.QuestionRepository

	redis *redis.Client
	db    *sqlx.DB
}

// Build wires the generation pipeline from configuration. Redis and the
// database are optional: without Redis the limiter counts in memory, without
// a database Repository stays nil.
func Build(ctx context.Context, cfg *config.Config, log *zap.Logger, opts Options) (*Components, error) {
	if log == nil {
		log = zap.NewNop()
	}

	provider, err := llm.NewProvider(cfg.LLM)
	if err != nil {
		return nil, err
	}
	client := llm.NewClient(provider, llm.ClientConfigFrom(cfg.LLM), log.Named("llm"))
	log.Info("Model client initialized",
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", client.ModelID()))

	c := &Components{
		Client:    client,
		Extractor: content.NewFileExtractor(cfg.Generation.MaxContentChars),
	}

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		store := c.counterStore(ctx, cfg, log, opts.UseRedis)
		limiter = ratelimit.NewLimiter(store, cfg.RateLimit.PerHour, cfg.RateLimit.Window, log.Named("ratelimit"))
	}

	if opts.UseDatabase && cfg.HasDatabase() {
		db, err := database.NewSQLXOracleDB(cfg.GetDSN())
		if err != nil {
			c.Close()
			return nil, err
		}
		c.db = db
		c.Repository = repository.NewQuestionDatabaseAdapter(db)
		log.Info("Question repository initialized")
	}

	normalizer := content.NewNormalizer(cfg.Generation.MaxContentChars, cfg.Generation.MinContentChars)
	c.Service = service.NewGenerationService(limiter, normalizer, client, cfg.Generation, log.Named("generation"))
	return c, nil
}

func (c *Components) counterStore(ctx context.Context, cfg *config.Config, log *zap.Logger, useRedis bool) domain.CounterStore {
	if useRedis && cfg.Redis.Address != "" {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err == nil {
			c.redis = client
			log.Info("Rate limiter backed by Redis", zap.String("address", cfg.Redis.Address))
			return adapter.NewRedisCounterStore(client)
		}
		log.Warn("Redis unavailable, rate limiter falls back to memory", zap.Error(err))
	}
	return adapter.NewMemoryCounterStore(nil)
}

// Close releases the Redis and database connections.
func (c *Components) Close() {
	if c.redis != nil {
		_ = c.redis.Close()
	}
	if c.db != nil {
		_ = c.db.Close()
	}
}
