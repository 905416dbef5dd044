package stock

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/stockledger-backend/internal/repo"
	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/pagination"
)

// Repository manages warehouse stock rows and their movement history.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uint) (*models.WarehouseProduct, error)
	FindByIDForUpdate(ctx context.Context, id uint) (*models.WarehouseProduct, error)
	FindPairForUpdate(ctx context.Context, warehouseID, productVariantID uint) (*models.WarehouseProduct, error)
	FindWarehouse(ctx context.Context, id uint) (*models.Warehouse, error)
	CreateIfAbsent(ctx context.Context, row *models.WarehouseProduct) (bool, error)
	UpdateFields(ctx context.Context, id uint, values map[string]any) error
	InsertMovement(ctx context.Context, movement *models.StockMovement) error
	ListByWarehouse(ctx context.Context, warehouseID uint, params pagination.Params) (pagination.Page[models.WarehouseProduct], error)
	ListMovements(ctx context.Context, warehouseProductID uint, params pagination.Params) (pagination.Page[models.StockMovement], error)
	BelowCriticalLevel(ctx context.Context, warehouseID uint) ([]models.WarehouseProduct, error)
}

type repository struct {
	stock      repo.Repository[models.WarehouseProduct]
	movements  repo.Repository[models.StockMovement]
	warehouses repo.Repository[models.Warehouse]
}

// NewRepository returns a stock repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{
		stock:      repo.New[models.WarehouseProduct](db),
		movements:  repo.New[models.StockMovement](db),
		warehouses: repo.New[models.Warehouse](db),
	}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

func (r *repository) FindByID(ctx context.Context, id uint) (*models.WarehouseProduct, error) {
	return r.stock.FindByID(ctx, id)
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uint) (*models.WarehouseProduct, error) {
	return r.stock.FindByIDForUpdate(ctx, id)
}

func (r *repository) FindPairForUpdate(ctx context.Context, warehouseID, productVariantID uint) (*models.WarehouseProduct, error) {
	var row models.WarehouseProduct
	err := r.stock.DB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("warehouse_id = ? AND product_variant_id = ?", warehouseID, productVariantID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) FindWarehouse(ctx context.Context, id uint) (*models.Warehouse, error) {
	return r.warehouses.FindByID(ctx, id)
}

// CreateIfAbsent inserts row unless the (warehouse, product variant) pair
// already exists, reporting whether the insert happened.
func (r *repository) CreateIfAbsent(ctx context.Context, row *models.WarehouseProduct) (bool, error) {
	res := r.stock.DB(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) UpdateFields(ctx context.Context, id uint, values map[string]any) error {
	return r.stock.Updates(ctx, id, values)
}

func (r *repository) InsertMovement(ctx context.Context, movement *models.StockMovement) error {
	return r.movements.Create(ctx, movement)
}

func (r *repository) ListByWarehouse(ctx context.Context, warehouseID uint, params pagination.Params) (pagination.Page[models.WarehouseProduct], error) {
	return r.stock.ListPage(ctx, params, func(row models.WarehouseProduct) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	}, func(q *gorm.DB) *gorm.DB {
		return q.Where("warehouse_id = ?", warehouseID)
	})
}

func (r *repository) ListMovements(ctx context.Context, warehouseProductID uint, params pagination.Params) (pagination.Page[models.StockMovement], error) {
	return r.movements.ListPage(ctx, params, func(row models.StockMovement) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	}, func(q *gorm.DB) *gorm.DB {
		return q.Where("warehouse_product_id = ?", warehouseProductID)
	})
}

func (r *repository) BelowCriticalLevel(ctx context.Context, warehouseID uint) ([]models.WarehouseProduct, error) {
	var rows []models.WarehouseProduct
	err := r.stock.DB(ctx).
		Where("warehouse_id = ? AND critical_level_qty > 0 AND qty <= critical_level_qty", warehouseID).
		Order("qty ASC").Order("id ASC").
		Find(&rows).Error
	return rows, err
}
