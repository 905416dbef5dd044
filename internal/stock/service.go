package stock

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockledger-backend/internal/repo"
	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"github.com/angelmondragon/stockledger-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes stock reads and operator adjustments to the HTTP layer.
type Service interface {
	Get(ctx context.Context, warehouseProductID uint) (*models.WarehouseProduct, error)
	ListByWarehouse(ctx context.Context, warehouseID uint, params pagination.Params) (pagination.Page[models.WarehouseProduct], error)
	ListMovements(ctx context.Context, warehouseProductID uint, params pagination.Params) (pagination.Page[models.StockMovement], error)
	BelowCriticalLevel(ctx context.Context, warehouseID uint) ([]models.WarehouseProduct, error)
	ManualAdjust(ctx context.Context, input ManualAdjustInput) (*models.WarehouseProduct, error)
}

// ManualAdjustInput corrects a stock row after a physical count.
type ManualAdjustInput struct {
	WarehouseProductID uint
	Delta              decimal.Decimal
	Remarks            string
}

type service struct {
	repo   Repository
	ledger Ledger
	tx     txRunner
}

func NewService(repo Repository, ledger Ledger, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, ledger: ledger, tx: tx}, nil
}

func (s *service) Get(ctx context.Context, warehouseProductID uint) (*models.WarehouseProduct, error) {
	row, err := s.repo.FindByID(ctx, warehouseProductID)
	if err != nil {
		return nil, repo.MapError(err, "warehouse product")
	}
	return row, nil
}

func (s *service) ListByWarehouse(ctx context.Context, warehouseID uint, params pagination.Params) (pagination.Page[models.WarehouseProduct], error) {
	if _, err := s.repo.FindWarehouse(ctx, warehouseID); err != nil {
		return pagination.Page[models.WarehouseProduct]{}, repo.MapError(err, "warehouse")
	}
	page, err := s.repo.ListByWarehouse(ctx, warehouseID, params)
	if err != nil {
		return page, repo.MapError(err, "warehouse stock")
	}
	return page, nil
}

func (s *service) ListMovements(ctx context.Context, warehouseProductID uint, params pagination.Params) (pagination.Page[models.StockMovement], error) {
	if _, err := s.repo.FindByID(ctx, warehouseProductID); err != nil {
		return pagination.Page[models.StockMovement]{}, repo.MapError(err, "warehouse product")
	}
	page, err := s.repo.ListMovements(ctx, warehouseProductID, params)
	if err != nil {
		return page, repo.MapError(err, "stock movements")
	}
	return page, nil
}

func (s *service) BelowCriticalLevel(ctx context.Context, warehouseID uint) ([]models.WarehouseProduct, error) {
	if _, err := s.repo.FindWarehouse(ctx, warehouseID); err != nil {
		return nil, repo.MapError(err, "warehouse")
	}
	rows, err := s.repo.BelowCriticalLevel(ctx, warehouseID)
	if err != nil {
		return nil, repo.MapError(err, "warehouse stock")
	}
	if rows == nil {
		rows = []models.WarehouseProduct{}
	}
	return rows, nil
}

func (s *service) ManualAdjust(ctx context.Context, input ManualAdjustInput) (*models.WarehouseProduct, error) {
	if input.WarehouseProductID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "warehouse product id required")
	}
	if input.Delta.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity delta must be non-zero")
	}

	var result *models.WarehouseProduct
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		row, err := s.repo.WithTx(tx).FindByIDForUpdate(ctx, input.WarehouseProductID)
		if err != nil {
			return repo.MapError(err, "warehouse product")
		}
		if row.HasSerials {
			return pkgerrors.New(pkgerrors.CodeValidation, "serial-tracked stock can only change through documents")
		}

		source := Source{Type: "manual", Reference: input.Remarks}
		updated, err := s.ledger.AdjustByID(ctx, tx, row.ID, input.Delta, enums.StockMovementManualAdjustment, source)
		if err != nil {
			return err
		}
		result = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
