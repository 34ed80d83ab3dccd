package cmd

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"lexstream/internal/ai"
	"lexstream/internal/cellar"
	"lexstream/internal/config"
	"lexstream/internal/enrich"
	"lexstream/internal/eurlex"
	"lexstream/internal/ingest"
	"lexstream/internal/redisclient"
	"lexstream/internal/relevance"
	"lexstream/internal/rss"
	"lexstream/internal/storage"
)

// app bundles the wired components shared by the subcommands.
type app struct {
	cfg      config.Config
	pool     *pgxpool.Pool
	rdb      *redis.Client
	store    *storage.Store
	ingest   *ingest.Service
	pipeline *enrich.Pipeline
}

func buildApp(ctx context.Context, cfg config.Config) (*app, error) {
	pool, err := storage.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, err
	}
	store := storage.New(pool)

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redisclient.New(cfg.Redis)
	}

	var analyst ai.Analyst
	if cfg.OpenAI.APIKey != "" {
		analyst = ai.NewOpenAI(ai.Config{
			APIKey:  cfg.OpenAI.APIKey,
			Model:   cfg.OpenAI.Model,
			BaseURL: cfg.OpenAI.BaseURL,
		})
	}

	return &app{
		cfg:   cfg,
		pool:  pool,
		rdb:   rdb,
		store: store,
		ingest: &ingest.Service{
			Store:   store,
			Fetcher: rss.NewFetcher(),
			Cellar:  cellar.NewClient(cfg.Sources.Cellar.Endpoint),
			Scraper: eurlex.NewScraper(cfg.Sources.Cellar.EURLexBaseURL),
			Feeds:   cfg.Sources.Feeds,
			Locker:  rdb,
		},
		pipeline: &enrich.Pipeline{Store: store, Analyst: analyst},
	}, nil
}

func (a *app) Close() {
	if a.rdb != nil {
		a.rdb.Close()
	}
	a.pool.Close()
}

func (a *app) rescore(ctx context.Context) (int, error) {
	return relevance.Refresh(ctx, a.store)
}

// commandContext bounds one-shot subcommands so a hung external service
// cannot wedge them.
func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Minute)
}
