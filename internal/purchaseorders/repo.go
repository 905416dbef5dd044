package purchaseorders

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/stockledger-backend/internal/repo"
	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
)

// Repository persists purchase orders and their detail lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.PurchaseOrder) error
	FindByID(ctx context.Context, id uint) (*models.PurchaseOrder, error)
	FindForUpdate(ctx context.Context, id uint) (*models.PurchaseOrder, error)
	ProductVariantsExist(ctx context.Context, companyID uint, ids []uint) (bool, error)
	WarehouseBelongsTo(ctx context.Context, companyID, warehouseID uint) (bool, error)
	UpdateStatus(ctx context.Context, id uint, status enums.PurchaseOrderStatus) error
	Delete(ctx context.Context, id uint) error
}

type repository struct {
	orders repo.Repository[models.PurchaseOrder]
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{orders: repo.New[models.PurchaseOrder](db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

func (r *repository) Create(ctx context.Context, order *models.PurchaseOrder) error {
	return r.orders.Create(ctx, order)
}

func (r *repository) FindByID(ctx context.Context, id uint) (*models.PurchaseOrder, error) {
	return r.orders.FindByID(ctx, id, "Details")
}

func (r *repository) FindForUpdate(ctx context.Context, id uint) (*models.PurchaseOrder, error) {
	order, err := r.orders.FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.orders.DB(ctx).Where("purchase_order_id = ?", id).Order("id ASC").Find(&order.Details).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) ProductVariantsExist(ctx context.Context, companyID uint, ids []uint) (bool, error) {
	unique := map[uint]struct{}{}
	for _, id := range ids {
		unique[id] = struct{}{}
	}
	var count int64
	err := r.orders.DB(ctx).Model(&models.ProductVariant{}).
		Where("company_id = ? AND id IN ?", companyID, ids).
		Count(&count).Error
	return count == int64(len(unique)), err
}

func (r *repository) WarehouseBelongsTo(ctx context.Context, companyID, warehouseID uint) (bool, error) {
	var count int64
	err := r.orders.DB(ctx).Model(&models.Warehouse{}).
		Where("id = ? AND company_id = ?", warehouseID, companyID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) UpdateStatus(ctx context.Context, id uint, status enums.PurchaseOrderStatus) error {
	return r.orders.Updates(ctx, id, map[string]any{"status": status})
}

func (r *repository) Delete(ctx context.Context, id uint) error {
	return r.orders.Delete(ctx, id)
}
