package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/stockledger-backend/api/routes"
	"github.com/angelmondragon/stockledger-backend/internal/expenses"
	"github.com/angelmondragon/stockledger-backend/internal/goodsreceipts"
	"github.com/angelmondragon/stockledger-backend/internal/invoices"
	"github.com/angelmondragon/stockledger-backend/internal/journal"
	"github.com/angelmondragon/stockledger-backend/internal/numbering"
	"github.com/angelmondragon/stockledger-backend/internal/purchaseorders"
	"github.com/angelmondragon/stockledger-backend/internal/serials"
	"github.com/angelmondragon/stockledger-backend/internal/stock"
	"github.com/angelmondragon/stockledger-backend/internal/tenancy"
	"github.com/angelmondragon/stockledger-backend/internal/transfers"
	"github.com/angelmondragon/stockledger-backend/pkg/config"
	"github.com/angelmondragon/stockledger-backend/pkg/db"
	"github.com/angelmondragon/stockledger-backend/pkg/logger"
	"github.com/angelmondragon/stockledger-backend/pkg/metrics"
	"github.com/angelmondragon/stockledger-backend/pkg/migrate"
	"github.com/angelmondragon/stockledger-backend/pkg/outbox"
	"github.com/angelmondragon/stockledger-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	params, err := buildRouterParams(cfg, logg, dbClient, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(params),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
		logg.Info(shutdownCtx, "api server shut down gracefully")
	}
}

func buildRouterParams(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (routes.RouterParams, error) {
	conn := dbClient.DB()
	reg := prometheus.DefaultRegisterer

	var seq redis.Sequencer
	if cfg.FeatureFlags.RedisNumbering {
		seq = redisClient
	}
	numbers := numbering.NewGenerator(seq, logg)
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), logg)
	maxRetries := cfg.Numbering.MaxRetries

	stockRepo := stock.NewRepository(conn)
	ledger, err := stock.NewLedger(stockRepo, outboxSvc, metrics.NewStockMetrics(reg))
	if err != nil {
		return routes.RouterParams{}, fmt.Errorf("stock ledger: %w", err)
	}
	stockSvc, err := stock.NewService(stockRepo, ledger, dbClient)
	if err != nil {
		return routes.RouterParams{}, fmt.Errorf("stock service: %w", err)
	}
	tracker, err := serials.NewTracker(serials.NewRepository(conn))
	if err != nil {
		return routes.RouterParams{}, fmt.Errorf("serial tracker: %w", err)
	}

	receiptRepo := goodsreceipts.NewRepository(conn)
	creator, err := goodsreceipts.NewCreator(receiptRepo, numbers, outboxSvc)
	if err != nil {
		return routes.RouterParams{}, fmt.Errorf("goods receipt creator: %w", err)
	}
	purchaseOrderSvc, err := purchaseorders.NewService(purchaseorders.ServiceParams{
		Repo:       purchaseorders.NewRepository(conn),
		Receipts:   creator,
		Numbers:    numbers,
		Outbox:     outboxSvc,
		Tx:         dbClient,
		MaxRetries: maxRetries,
	})
	if err != nil {
		return routes.RouterParams{}, fmt.Errorf("purchase order service: %w", err)
	}
	receiptSvc, err := goodsreceipts.NewService(goodsreceipts.ServiceParams{
		Repo:           receiptRepo,
		Ledger:         ledger,
		Serials:        tracker,
		PurchaseOrders: purchaseOrderSvc,
		Outbox:         outboxSvc,
		Tx:             dbClient,
	})
	if err != nil {
		return routes.RouterParams{}, fmt.Errorf("goods receipt service: %w", err)
	}
	transferSvc, err := transfers.NewService(transfers.ServiceParams{
		Repo:       transfers.NewRepository(conn),
		Ledger:     ledger,
		Serials:    tracker,
		Numbers:    numbers,
		Outbox:     outboxSvc,
		Tx:         dbClient,
		MaxRetries: maxRetries,
	})
	if err != nil {
		return routes.RouterParams{}, fmt.Errorf("stock transfer service: %w", err)
	}
	invoiceSvc, err := invoices.NewService(invoices.ServiceParams{
		Repo:       invoices.NewRepository(conn),
		Ledger:     ledger,
		Serials:    tracker,
		Numbers:    numbers,
		Outbox:     outboxSvc,
		Tx:         dbClient,
		MaxRetries: maxRetries,
	})
	if err != nil {
		return routes.RouterParams{}, fmt.Errorf("invoice service: %w", err)
	}
	expenseSvc, err := expenses.NewService(expenses.ServiceParams{
		Repo:       expenses.NewRepository(conn),
		Numbers:    numbers,
		Outbox:     outboxSvc,
		Tx:         dbClient,
		MaxRetries: maxRetries,
	})
	if err != nil {
		return routes.RouterParams{}, fmt.Errorf("expense service: %w", err)
	}
	journalSvc, err := journal.NewService(journal.ServiceParams{
		Repo:    journal.NewRepository(conn),
		Numbers: numbers,
		Outbox:  outboxSvc,
		Tx:      dbClient,
		Logger:  logg,
		Locker:  redisClient,
		LockTTL: cfg.Posting.LockTTL,
		Metrics: metrics.NewPostingMetrics(reg),
	})
	if err != nil {
		return routes.RouterParams{}, fmt.Errorf("journal service: %w", err)
	}
	dispatcher, err := journal.NewDispatcher(journalSvc, logg)
	if err != nil {
		return routes.RouterParams{}, fmt.Errorf("posting dispatcher: %w", err)
	}
	guard, err := tenancy.NewGuard(conn)
	if err != nil {
		return routes.RouterParams{}, fmt.Errorf("tenancy guard: %w", err)
	}

	return routes.RouterParams{
		Config:         cfg,
		Logger:         logg,
		DBPinger:       dbClient,
		RedisPinger:    redisClient,
		Idempotency:    redisClient,
		Metrics:        metrics.NewHTTPMetrics(reg),
		Gatherer:       prometheus.DefaultGatherer,
		Guard:          guard,
		Dispatcher:     dispatcher,
		PurchaseOrders: purchaseOrderSvc,
		GoodsReceipts:  receiptSvc,
		Transfers:      transferSvc,
		Stock:          stockSvc,
		Invoices:       invoiceSvc,
		Expenses:       expenseSvc,
		Journal:        journalSvc,
	}, nil
}
