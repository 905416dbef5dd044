package stock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockledger-backend/internal/repo"
	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"github.com/angelmondragon/stockledger-backend/pkg/metrics"
	"github.com/angelmondragon/stockledger-backend/pkg/outbox"
	"github.com/angelmondragon/stockledger-backend/pkg/outbox/payloads"
)

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Source identifies the document responsible for a movement.
type Source struct {
	Type      string
	ID        uint
	Reference string
}

// Defaults seed a stock row created lazily by FindOrCreate.
type Defaults struct {
	CompanyID        uint
	Price            decimal.Decimal
	LastCost         decimal.Decimal
	AverageCost      decimal.Decimal
	HasSerials       bool
	CriticalLevelQty decimal.Decimal
}

// DefaultsFrom copies the pricing and tracking attributes of an existing row.
func DefaultsFrom(row *models.WarehouseProduct) Defaults {
	return Defaults{
		CompanyID:        row.CompanyID,
		Price:            row.Price,
		LastCost:         row.LastCost,
		AverageCost:      row.AverageCost,
		HasSerials:       row.HasSerials,
		CriticalLevelQty: row.CriticalLevelQty,
	}
}

type AdjustInput struct {
	WarehouseID      uint
	ProductVariantID uint
	Delta            decimal.Decimal
	Reason           enums.StockMovementReason
	Source           Source
	Defaults         Defaults
	Metadata         map[string]any
}

type ReceiveInput struct {
	WarehouseID      uint
	ProductVariantID uint
	Qty              decimal.Decimal
	UnitCost         decimal.Decimal
	Source           Source
	Defaults         Defaults
}

// Ledger is the only writer of warehouse quantities. Every method runs on the
// caller's transaction and locks the stock row it touches.
type Ledger interface {
	Adjust(ctx context.Context, tx *gorm.DB, input AdjustInput) (*models.WarehouseProduct, error)
	AdjustByID(ctx context.Context, tx *gorm.DB, warehouseProductID uint, delta decimal.Decimal, reason enums.StockMovementReason, source Source) (*models.WarehouseProduct, error)
	FindOrCreate(ctx context.Context, tx *gorm.DB, warehouseID, productVariantID uint, defaults Defaults) (*models.WarehouseProduct, error)
	ReceiveAtCost(ctx context.Context, tx *gorm.DB, input ReceiveInput) (*models.WarehouseProduct, error)
}

type ledger struct {
	repo    Repository
	outbox  outboxPublisher
	metrics *metrics.StockMetrics
}

// NewLedger wires the stock ledger. outbox and stockMetrics may be nil.
func NewLedger(repo Repository, outbox outboxPublisher, stockMetrics *metrics.StockMetrics) (Ledger, error) {
	if repo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	return &ledger{repo: repo, outbox: outbox, metrics: stockMetrics}, nil
}

func (l *ledger) Adjust(ctx context.Context, tx *gorm.DB, input AdjustInput) (*models.WarehouseProduct, error) {
	if tx == nil {
		return nil, fmt.Errorf("stock adjust requires a transaction")
	}
	if err := validateDelta(input.Delta, input.Reason); err != nil {
		return nil, err
	}

	row, err := l.FindOrCreate(ctx, tx, input.WarehouseID, input.ProductVariantID, input.Defaults)
	if err != nil {
		return nil, err
	}
	if err := l.apply(ctx, tx, row, input.Delta, input.Reason, input.Source, input.Metadata); err != nil {
		return nil, err
	}
	return row, nil
}

func (l *ledger) AdjustByID(ctx context.Context, tx *gorm.DB, warehouseProductID uint, delta decimal.Decimal, reason enums.StockMovementReason, source Source) (*models.WarehouseProduct, error) {
	if tx == nil {
		return nil, fmt.Errorf("stock adjust requires a transaction")
	}
	if err := validateDelta(delta, reason); err != nil {
		return nil, err
	}

	row, err := l.repo.WithTx(tx).FindByIDForUpdate(ctx, warehouseProductID)
	if err != nil {
		return nil, repo.MapError(err, "warehouse product")
	}
	if err := l.apply(ctx, tx, row, delta, reason, source, nil); err != nil {
		return nil, err
	}
	return row, nil
}

func (l *ledger) FindOrCreate(ctx context.Context, tx *gorm.DB, warehouseID, productVariantID uint, defaults Defaults) (*models.WarehouseProduct, error) {
	if tx == nil {
		return nil, fmt.Errorf("stock lookup requires a transaction")
	}
	if warehouseID == 0 || productVariantID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "warehouse and product variant are required")
	}
	r := l.repo.WithTx(tx)

	row, err := r.FindPairForUpdate(ctx, warehouseID, productVariantID)
	if err == nil {
		if defaults.HasSerials && !row.HasSerials {
			if err := r.UpdateFields(ctx, row.ID, map[string]any{"has_serials": true}); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "enable serial tracking")
			}
			row.HasSerials = true
		}
		return row, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load warehouse stock")
	}

	companyID := defaults.CompanyID
	if companyID == 0 {
		warehouse, err := r.FindWarehouse(ctx, warehouseID)
		if err != nil {
			return nil, repo.MapError(err, "warehouse")
		}
		companyID = warehouse.CompanyID
	}

	row = &models.WarehouseProduct{
		CompanyID:        companyID,
		WarehouseID:      warehouseID,
		ProductVariantID: productVariantID,
		Qty:              decimal.Zero,
		Price:            defaults.Price,
		LastCost:         defaults.LastCost,
		AverageCost:      defaults.AverageCost,
		HasSerials:       defaults.HasSerials,
		CriticalLevelQty: defaults.CriticalLevelQty,
	}
	created, err := r.CreateIfAbsent(ctx, row)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create warehouse stock")
	}
	if !created {
		// lost the creation race; the winner's row is authoritative
		existing, ferr := r.FindPairForUpdate(ctx, warehouseID, productVariantID)
		if ferr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, ferr, "reload warehouse stock")
		}
		return existing, nil
	}
	return row, nil
}

func (l *ledger) ReceiveAtCost(ctx context.Context, tx *gorm.DB, input ReceiveInput) (*models.WarehouseProduct, error) {
	if tx == nil {
		return nil, fmt.Errorf("stock receive requires a transaction")
	}
	if !input.Qty.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "received quantity must be positive")
	}
	if input.UnitCost.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit cost cannot be negative")
	}

	row, err := l.FindOrCreate(ctx, tx, input.WarehouseID, input.ProductVariantID, input.Defaults)
	if err != nil {
		return nil, err
	}

	avg := WeightedAverageCost(row.Qty, row.AverageCost, input.Qty, input.UnitCost)
	if err := l.repo.WithTx(tx).UpdateFields(ctx, row.ID, map[string]any{
		"last_cost":    input.UnitCost,
		"average_cost": avg,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update stock cost")
	}
	row.LastCost = input.UnitCost
	row.AverageCost = avg

	meta := map[string]any{"unit_cost": input.UnitCost.String()}
	if err := l.apply(ctx, tx, row, input.Qty, enums.StockMovementGoodsReceipt, input.Source, meta); err != nil {
		return nil, err
	}
	return row, nil
}

// WeightedAverageCost blends the existing average with a new receipt.
func WeightedAverageCost(oldQty, oldAvg, qty, unitCost decimal.Decimal) decimal.Decimal {
	total := oldQty.Add(qty)
	if !total.IsPositive() {
		return unitCost
	}
	if !oldQty.IsPositive() {
		return unitCost.Round(4)
	}
	return oldQty.Mul(oldAvg).Add(qty.Mul(unitCost)).Div(total).Round(4)
}

func (l *ledger) apply(ctx context.Context, tx *gorm.DB, row *models.WarehouseProduct, delta decimal.Decimal, reason enums.StockMovementReason, source Source, meta map[string]any) error {
	prior := row.Qty
	next := prior.Add(delta)
	if next.IsNegative() {
		l.metrics.IncInsufficient()
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf(
			"Insufficient stock: available %s, requested %s", prior.String(), delta.Neg().String(),
		)).WithDetails(map[string]any{
			"warehouse_product_id": row.ID,
			"available":            prior.String(),
			"requested":            delta.Neg().String(),
		})
	}

	r := l.repo.WithTx(tx)
	if err := r.UpdateFields(ctx, row.ID, map[string]any{"qty": next}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update stock quantity")
	}
	row.Qty = next

	movement := &models.StockMovement{
		CompanyID:          row.CompanyID,
		WarehouseProductID: row.ID,
		WarehouseID:        row.WarehouseID,
		ProductVariantID:   row.ProductVariantID,
		Delta:              delta,
		BalanceAfter:       next,
		Reason:             reason,
	}
	if source.Type != "" {
		movement.SourceType = &source.Type
	}
	if source.ID != 0 {
		movement.SourceID = &source.ID
	}
	if source.Reference != "" {
		movement.ReferenceNumber = &source.Reference
	}
	if len(meta) > 0 {
		raw, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("encode movement metadata: %w", err)
		}
		movement.Metadata = datatypes.JSON(raw)
	}
	if err := r.InsertMovement(ctx, movement); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock movement")
	}
	l.metrics.IncMovement(string(reason))

	if crossedCritical(prior, next, row.CriticalLevelQty) && l.outbox != nil {
		event := outbox.DomainEvent{
			EventType:     enums.EventStockBelowCritical,
			AggregateType: enums.AggregateWarehouseItem,
			AggregateID:   row.ID,
			Actor:         &outbox.ActorRef{CompanyID: row.CompanyID},
			Data: payloads.StockBelowCriticalEvent{
				WarehouseProductID: row.ID,
				WarehouseID:        row.WarehouseID,
				ProductVariantID:   row.ProductVariantID,
				Qty:                next,
				CriticalLevelQty:   row.CriticalLevelQty,
			},
		}
		if err := l.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit stock below critical")
		}
	}
	return nil
}

func crossedCritical(prior, next, critical decimal.Decimal) bool {
	return critical.IsPositive() && prior.GreaterThan(critical) && next.LessThanOrEqual(critical)
}

func validateDelta(delta decimal.Decimal, reason enums.StockMovementReason) error {
	if delta.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity delta must be non-zero")
	}
	if !reason.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid stock movement reason %q", reason))
	}
	return nil
}
