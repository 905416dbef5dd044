package transfers

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/stockledger-backend/internal/repo"
	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, transfer *models.StockTransfer) error
	CreateSerials(ctx context.Context, rows []models.StockTransferSerial) error
	FindByID(ctx context.Context, id uint) (*models.StockTransfer, error)
	FindForUpdate(ctx context.Context, id uint) (*models.StockTransfer, error)
	FindDetailForUpdate(ctx context.Context, detailID uint) (*models.StockTransferDetail, error)
	UpdateStatus(ctx context.Context, id uint, status enums.StockTransferStatus, completedAt *time.Time) error
	UpdateTransferredQty(ctx context.Context, detailID uint, qty decimal.Decimal) error
	MarkSerialsReceived(ctx context.Context, ids []uint) error
	MarkSerialsMoved(ctx context.Context, transferID uint) error
	WarehouseBelongsTo(ctx context.Context, companyID, warehouseID uint) (bool, error)
	FindStockForUpdate(ctx context.Context, warehouseProductID uint) (*models.WarehouseProduct, error)
	FindUnsoldSerial(ctx context.Context, warehouseProductID uint, serialNumber string) (*models.WarehouseProductSerial, error)
	FindManifestEntry(ctx context.Context, transferID, serialID uint) (*models.StockTransferSerial, error)
	ClaimedByOtherTransfer(ctx context.Context, transferID, serialID uint) (bool, error)
}

type repository struct {
	transfers repo.Repository[models.StockTransfer]
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{transfers: repo.New[models.StockTransfer](db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

func (r *repository) Create(ctx context.Context, transfer *models.StockTransfer) error {
	return r.transfers.DB(ctx).Omit("Details.Serials").Create(transfer).Error
}

func (r *repository) CreateSerials(ctx context.Context, rows []models.StockTransferSerial) error {
	if len(rows) == 0 {
		return nil
	}
	return r.transfers.DB(ctx).Create(&rows).Error
}

func (r *repository) FindByID(ctx context.Context, id uint) (*models.StockTransfer, error) {
	return r.transfers.FindByID(ctx, id, "Details", "Details.Serials")
}

func (r *repository) FindForUpdate(ctx context.Context, id uint) (*models.StockTransfer, error) {
	transfer, err := r.transfers.FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	err = r.transfers.DB(ctx).
		Preload("Serials", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("stock_transfer_id = ?", id).
		Order("id ASC").
		Find(&transfer.Details).Error
	if err != nil {
		return nil, err
	}
	return transfer, nil
}

func (r *repository) FindDetailForUpdate(ctx context.Context, detailID uint) (*models.StockTransferDetail, error) {
	var detail models.StockTransferDetail
	err := r.transfers.DB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Serials").
		First(&detail, detailID).Error
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uint, status enums.StockTransferStatus, completedAt *time.Time) error {
	values := map[string]any{"status": status}
	if completedAt != nil {
		values["completed_at"] = *completedAt
	}
	return r.transfers.Updates(ctx, id, values)
}

func (r *repository) UpdateTransferredQty(ctx context.Context, detailID uint, qty decimal.Decimal) error {
	return r.transfers.DB(ctx).Model(&models.StockTransferDetail{}).
		Where("id = ?", detailID).
		Update("transferred_qty", qty).Error
}

func (r *repository) MarkSerialsReceived(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.transfers.DB(ctx).Model(&models.StockTransferSerial{}).
		Where("id IN ?", ids).
		Update("is_received", true).Error
}

func (r *repository) MarkSerialsMoved(ctx context.Context, transferID uint) error {
	return r.transfers.DB(ctx).Model(&models.StockTransferSerial{}).
		Where("stock_transfer_id = ? AND is_received = ?", transferID, true).
		Update("moved", true).Error
}

func (r *repository) WarehouseBelongsTo(ctx context.Context, companyID, warehouseID uint) (bool, error) {
	var count int64
	err := r.transfers.DB(ctx).Model(&models.Warehouse{}).
		Where("id = ? AND company_id = ?", warehouseID, companyID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) FindStockForUpdate(ctx context.Context, warehouseProductID uint) (*models.WarehouseProduct, error) {
	var row models.WarehouseProduct
	err := r.transfers.DB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&row, warehouseProductID).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) FindUnsoldSerial(ctx context.Context, warehouseProductID uint, serialNumber string) (*models.WarehouseProductSerial, error) {
	var unit models.WarehouseProductSerial
	err := r.transfers.DB(ctx).
		Where("warehouse_product_id = ? AND serial_number = ? AND is_sold = ?", warehouseProductID, serialNumber, false).
		First(&unit).Error
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *repository) FindManifestEntry(ctx context.Context, transferID, serialID uint) (*models.StockTransferSerial, error) {
	var entry models.StockTransferSerial
	err := r.transfers.DB(ctx).
		Where("stock_transfer_id = ? AND warehouse_product_serial_id = ?", transferID, serialID).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ClaimedByOtherTransfer reports whether an active transfer other than
// transferID still lists the serial in an unmoved manifest entry.
func (r *repository) ClaimedByOtherTransfer(ctx context.Context, transferID, serialID uint) (bool, error) {
	var count int64
	err := r.transfers.DB(ctx).Model(&models.StockTransferSerial{}).
		Joins("JOIN stock_transfers ON stock_transfers.id = stock_transfer_serials.stock_transfer_id").
		Where("stock_transfer_serials.warehouse_product_serial_id = ?", serialID).
		Where("stock_transfer_serials.stock_transfer_id <> ?", transferID).
		Where("stock_transfer_serials.moved = ?", false).
		Where("stock_transfers.status IN ?", enums.ActiveStockTransferStatuses).
		Where("stock_transfers.deleted_at IS NULL").
		Count(&count).Error
	return count > 0, err
}
