package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/stockledger-backend/api/controllers"
	"github.com/angelmondragon/stockledger-backend/api/controllers/accounting"
	"github.com/angelmondragon/stockledger-backend/api/controllers/inventory"
	"github.com/angelmondragon/stockledger-backend/api/controllers/purchasing"
	"github.com/angelmondragon/stockledger-backend/api/controllers/sales"
	"github.com/angelmondragon/stockledger-backend/api/middleware"
	"github.com/angelmondragon/stockledger-backend/internal/expenses"
	"github.com/angelmondragon/stockledger-backend/internal/goodsreceipts"
	"github.com/angelmondragon/stockledger-backend/internal/invoices"
	"github.com/angelmondragon/stockledger-backend/internal/journal"
	"github.com/angelmondragon/stockledger-backend/internal/purchaseorders"
	"github.com/angelmondragon/stockledger-backend/internal/stock"
	"github.com/angelmondragon/stockledger-backend/internal/tenancy"
	"github.com/angelmondragon/stockledger-backend/internal/transfers"
	"github.com/angelmondragon/stockledger-backend/pkg/config"
	"github.com/angelmondragon/stockledger-backend/pkg/logger"
	"github.com/angelmondragon/stockledger-backend/pkg/metrics"
	"github.com/angelmondragon/stockledger-backend/pkg/outbox"
)

type ownershipGuard interface {
	Require(ctx context.Context, resource tenancy.Resource, id, companyID uint) error
}

type postingDispatcher interface {
	Dispatch(ctx context.Context, events ...outbox.DomainEvent)
}

// RouterParams carries everything the HTTP surface depends on. Pingers,
// Idempotency, Metrics and Gatherer are optional.
type RouterParams struct {
	Config *config.Config
	Logger *logger.Logger

	DBPinger    controllers.Pinger
	RedisPinger controllers.Pinger
	Idempotency middleware.IdempotencyStore
	Metrics     *metrics.HTTPMetrics
	Gatherer    prometheus.Gatherer

	Guard      ownershipGuard
	Dispatcher postingDispatcher

	PurchaseOrders purchaseorders.Service
	GoodsReceipts  goodsreceipts.Service
	Transfers      transfers.Service
	Stock          stock.Service
	Invoices       invoices.Service
	Expenses       expenses.Service
	Journal        journal.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg, logg := p.Config, p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(p.Metrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DBPinger, p.RedisPinger))
	})
	if p.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Actor(logg))
		r.Use(middleware.Idempotency(p.Idempotency, logg))

		r.Route("/purchase-orders", func(r chi.Router) {
			r.Post("/", purchasing.CreatePurchaseOrder(p.PurchaseOrders, logg))
			r.Get("/{id}", purchasing.GetPurchaseOrder(p.PurchaseOrders, p.Guard, logg))
			r.Delete("/{id}", purchasing.DeletePurchaseOrder(p.PurchaseOrders, p.Guard, logg))
			r.Post("/{id}/{action}", purchasing.TransitionPurchaseOrder(p.PurchaseOrders, p.Guard, logg))
		})
		r.Route("/goods-receipts", func(r chi.Router) {
			r.Get("/{id}", purchasing.GetGoodsReceipt(p.GoodsReceipts, p.Guard, logg))
			r.Post("/{id}/transfer", purchasing.TransferGoodsReceipt(p.GoodsReceipts, p.Guard, logg))
		})
		r.Route("/goods-receipt-details", func(r chi.Router) {
			r.Post("/{id}/receive", purchasing.ReceiveGoodsReceiptDetail(p.GoodsReceipts, p.Guard, logg))
			r.Post("/{id}/return", purchasing.ReturnGoodsReceiptDetail(p.GoodsReceipts, p.Guard, logg))
		})
		r.Delete("/goods-receipt-serials/{id}", purchasing.DeleteGoodsReceiptSerial(p.GoodsReceipts, p.Guard, logg))

		r.Route("/stock-transfers", func(r chi.Router) {
			r.Post("/", inventory.StoreTransfer(p.Transfers, logg))
			r.Post("/immediate", inventory.StoreImmediateTransfer(p.Transfers, logg))
			r.Get("/{id}", inventory.GetTransfer(p.Transfers, p.Guard, logg))
			r.Post("/{id}/complete", inventory.CompleteTransfer(p.Transfers, p.Guard, logg))
			r.Post("/{id}/validate-serial", inventory.ValidateTransferSerial(p.Transfers, p.Guard, logg))
			r.Post("/{id}/{action}", inventory.TransitionTransfer(p.Transfers, p.Guard, logg))
		})
		r.Post("/stock-transfer-details/{id}/receive", inventory.ReceiveTransferDetail(p.Transfers, p.Guard, logg))

		r.Route("/warehouses/{id}/stock", func(r chi.Router) {
			r.Get("/", inventory.WarehouseStock(p.Stock, p.Guard, logg))
			r.Get("/critical", inventory.CriticalStock(p.Stock, p.Guard, logg))
		})
		r.Route("/warehouse-products/{id}", func(r chi.Router) {
			r.Get("/movements", inventory.StockMovements(p.Stock, p.Guard, logg))
			r.Post("/adjust", inventory.AdjustStock(p.Stock, p.Guard, logg))
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Post("/", sales.CreateInvoice(p.Invoices, p.Dispatcher, logg))
			r.Get("/{id}", sales.GetInvoice(p.Invoices, p.Guard, logg))
			r.Post("/{id}/pay", sales.PayInvoice(p.Invoices, p.Guard, p.Dispatcher, logg))
			r.Post("/{id}/cancel", sales.CancelInvoice(p.Invoices, p.Guard, logg))
		})

		r.Route("/expenses", func(r chi.Router) {
			r.Post("/", accounting.CreateExpense(p.Expenses, p.Dispatcher, logg))
			r.Get("/{id}", accounting.GetExpense(p.Expenses, p.Guard, logg))
		})
		r.Route("/journal-entries", func(r chi.Router) {
			r.Get("/", accounting.ListJournalEntries(p.Journal, logg))
			r.Post("/", accounting.CreateJournalEntry(p.Journal, logg))
			r.Get("/{id}", accounting.GetJournalEntry(p.Journal, p.Guard, logg))
		})
	})

	return r
}
