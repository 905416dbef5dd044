package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/stockledger-backend/internal/journal"
	"github.com/angelmondragon/stockledger-backend/internal/numbering"
	"github.com/angelmondragon/stockledger-backend/pkg/config"
	"github.com/angelmondragon/stockledger-backend/pkg/db"
	"github.com/angelmondragon/stockledger-backend/pkg/logger"
	"github.com/angelmondragon/stockledger-backend/pkg/metrics"
	"github.com/angelmondragon/stockledger-backend/pkg/migrate"
	"github.com/angelmondragon/stockledger-backend/pkg/outbox"
	"github.com/angelmondragon/stockledger-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/stockledger-backend/pkg/pubsub"
	"github.com/angelmondragon/stockledger-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "posting-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "posting-worker"

	logg = logger.New(logger.Options{
		ServiceName: "posting-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}()

	consumer, err := buildConsumer(cfg, logg, dbClient, redisClient, pubsubClient)
	if err != nil {
		logg.Error(context.Background(), "failed to build posting consumer", err)
		os.Exit(1)
	}

	service, err := NewService(ServiceParams{
		Logger:   logg,
		DB:       dbClient,
		Redis:    redisClient,
		PubSub:   pubsubClient,
		Consumer: consumer,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create posting worker", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"serviceKind":  cfg.Service.Kind,
		"subscription": cfg.PubSub.DomainSubscription,
	})
	go func() {
		if err := metrics.Serve(ctx, cfg.Service.MetricsAddr, prometheus.DefaultGatherer, logg); err != nil {
			logg.Error(ctx, "metrics listener stopped", err)
		}
	}()
	logg.Info(ctx, "starting posting worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "posting worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "posting worker shutting down gracefully")
}

func buildConsumer(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, pubsubClient *pubsub.Client) (*journal.Consumer, error) {
	var seq redis.Sequencer
	if cfg.FeatureFlags.RedisNumbering {
		seq = redisClient
	}
	engine, err := journal.NewService(journal.ServiceParams{
		Repo:    journal.NewRepository(dbClient.DB()),
		Numbers: numbering.NewGenerator(seq, logg),
		Outbox:  outbox.NewService(outbox.NewRepository(dbClient.DB()), logg),
		Tx:      dbClient,
		Logger:  logg,
		Locker:  redisClient,
		LockTTL: cfg.Posting.LockTTL,
		Metrics: metrics.NewPostingMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		return nil, fmt.Errorf("journal service: %w", err)
	}

	manager, err := idempotency.NewManager(redisClient, cfg.Eventing.IdempotencyTTL)
	if err != nil {
		return nil, fmt.Errorf("idempotency manager: %w", err)
	}

	subscription := pubsubClient.DomainSubscription()
	if subscription == nil {
		return nil, fmt.Errorf("%s is required for the posting worker", config.EnvDomainSubscription)
	}
	return journal.NewConsumer(engine, subscription, manager, logg)
}
