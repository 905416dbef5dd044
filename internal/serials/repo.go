package serials

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/stockledger-backend/internal/repo"
	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
)

// Repository manages warehouse-scoped serial units and consults receiving
// dock serials for availability checks.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindUnsoldForUpdate(ctx context.Context, warehouseProductID uint, serialNumber string) (*models.WarehouseProductSerial, error)
	FindByIDForUpdate(ctx context.Context, id uint) (*models.WarehouseProductSerial, error)
	UnsoldExists(ctx context.Context, productVariantID uint, serialNumber string) (bool, error)
	PendingDockExists(ctx context.Context, productVariantID uint, serialNumber string) (bool, error)
	CreateMany(ctx context.Context, rows []models.WarehouseProductSerial) error
	MarkSold(ctx context.Context, id uint, soldAt time.Time) error
	MarkUnsold(ctx context.Context, id uint) error
	Reassign(ctx context.Context, ids []uint, warehouseProductID uint) (int64, error)
	CountUnsold(ctx context.Context, warehouseProductID uint) (int64, error)
}

type repository struct {
	units repo.Repository[models.WarehouseProductSerial]
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{units: repo.New[models.WarehouseProductSerial](db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

func (r *repository) FindUnsoldForUpdate(ctx context.Context, warehouseProductID uint, serialNumber string) (*models.WarehouseProductSerial, error) {
	var row models.WarehouseProductSerial
	err := r.units.DB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("warehouse_product_id = ? AND serial_number = ? AND is_sold = ?", warehouseProductID, serialNumber, false).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uint) (*models.WarehouseProductSerial, error) {
	return r.units.FindByIDForUpdate(ctx, id)
}

func (r *repository) UnsoldExists(ctx context.Context, productVariantID uint, serialNumber string) (bool, error) {
	var count int64
	err := r.units.DB(ctx).Model(&models.WarehouseProductSerial{}).
		Where("product_variant_id = ? AND serial_number = ? AND is_sold = ?", productVariantID, serialNumber, false).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) PendingDockExists(ctx context.Context, productVariantID uint, serialNumber string) (bool, error) {
	var count int64
	err := r.units.DB(ctx).Model(&models.GoodsReceiptSerial{}).
		Where("product_variant_id = ? AND serial_number = ? AND is_transferred = ?", productVariantID, serialNumber, false).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) CreateMany(ctx context.Context, rows []models.WarehouseProductSerial) error {
	if len(rows) == 0 {
		return nil
	}
	return r.units.DB(ctx).Create(&rows).Error
}

func (r *repository) MarkSold(ctx context.Context, id uint, soldAt time.Time) error {
	return r.units.Updates(ctx, id, map[string]any{"is_sold": true, "sold_at": soldAt})
}

func (r *repository) MarkUnsold(ctx context.Context, id uint) error {
	return r.units.Updates(ctx, id, map[string]any{"is_sold": false, "sold_at": nil})
}

func (r *repository) Reassign(ctx context.Context, ids []uint, warehouseProductID uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.units.DB(ctx).Model(&models.WarehouseProductSerial{}).
		Where("id IN ? AND is_sold = ?", ids, false).
		Update("warehouse_product_id", warehouseProductID)
	return res.RowsAffected, res.Error
}

func (r *repository) CountUnsold(ctx context.Context, warehouseProductID uint) (int64, error) {
	var count int64
	err := r.units.DB(ctx).Model(&models.WarehouseProductSerial{}).
		Where("warehouse_product_id = ? AND is_sold = ?", warehouseProductID, false).
		Count(&count).Error
	return count, err
}
