package goodsreceipts

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

// Repository persists goods receipts, their detail lines and dock serials.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, receipt *models.GoodsReceipt) error
	FindByID(ctx context.Context, id uint) (*models.GoodsReceipt, error)
	FindForUpdate(ctx context.Context, id uint) (*models.GoodsReceipt, error)
	FindDetailForUpdate(ctx context.Context, detailID uint) (*models.GoodsReceiptDetail, error)
	ListDetails(ctx context.Context, receiptID uint) ([]models.GoodsReceiptDetail, error)
	UpdateDetail(ctx context.Context, detailID uint, receivedQty decimal.Decimal, notes *string) error
	UpdateStatus(ctx context.Context, receiptID uint, status enums.GoodsReceiptStatus, transferredAt *time.Time) error
	CreateSerial(ctx context.Context, serial *models.GoodsReceiptSerial) error
	FindSerialForUpdate(ctx context.Context, serialID uint) (*models.GoodsReceiptSerial, error)
	DeleteSerial(ctx context.Context, serialID uint) error
	MarkSerialsTransferred(ctx context.Context, detailIDs []uint) error
	PurchaseOrderPrices(ctx context.Context, purchaseOrderID uint) (map[uint]decimal.Decimal, error)
	FindVariant(ctx context.Context, id uint) (*models.ProductVariant, error)
}

type repository struct {
	receipts repo.Repository[models.GoodsReceipt]
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{receipts: repo.New[models.GoodsReceipt](db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

func (r *repository) Create(ctx context.Context, receipt *models.GoodsReceipt) error {
	return r.receipts.Create(ctx, receipt)
}

func (r *repository) FindByID(ctx context.Context, id uint) (*models.GoodsReceipt, error) {
	return r.receipts.FindByID(ctx, id, "Details", "Details.Serials")
}

func (r *repository) FindForUpdate(ctx context.Context, id uint) (*models.GoodsReceipt, error) {
	receipt, err := r.receipts.FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	details, err := r.ListDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	receipt.Details = details
	return receipt, nil
}

func (r *repository) FindDetailForUpdate(ctx context.Context, detailID uint) (*models.GoodsReceiptDetail, error) {
	var detail models.GoodsReceiptDetail
	err := r.receipts.DB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&detail, detailID).Error
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

func (r *repository) ListDetails(ctx context.Context, receiptID uint) ([]models.GoodsReceiptDetail, error) {
	var details []models.GoodsReceiptDetail
	err := r.receipts.DB(ctx).
		Preload("Serials", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("goods_receipt_id = ?", receiptID).
		Order("id ASC").
		Find(&details).Error
	return details, err
}

func (r *repository) UpdateDetail(ctx context.Context, detailID uint, receivedQty decimal.Decimal, notes *string) error {
	values := map[string]any{"received_qty": receivedQty}
	if notes != nil {
		values["notes"] = *notes
	}
	return r.receipts.DB(ctx).Model(&models.GoodsReceiptDetail{}).
		Where("id = ?", detailID).
		Updates(values).Error
}

func (r *repository) UpdateStatus(ctx context.Context, receiptID uint, status enums.GoodsReceiptStatus, transferredAt *time.Time) error {
	values := map[string]any{"status": status}
	if transferredAt != nil {
		values["transferred_at"] = *transferredAt
	}
	return r.receipts.Updates(ctx, receiptID, values)
}

func (r *repository) CreateSerial(ctx context.Context, serial *models.GoodsReceiptSerial) error {
	return r.receipts.DB(ctx).Create(serial).Error
}

func (r *repository) FindSerialForUpdate(ctx context.Context, serialID uint) (*models.GoodsReceiptSerial, error) {
	var serial models.GoodsReceiptSerial
	err := r.receipts.DB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&serial, serialID).Error
	if err != nil {
		return nil, err
	}
	return &serial, nil
}

func (r *repository) DeleteSerial(ctx context.Context, serialID uint) error {
	return r.receipts.DB(ctx).Delete(&models.GoodsReceiptSerial{}, serialID).Error
}

func (r *repository) MarkSerialsTransferred(ctx context.Context, detailIDs []uint) error {
	if len(detailIDs) == 0 {
		return nil
	}
	return r.receipts.DB(ctx).Model(&models.GoodsReceiptSerial{}).
		Where("goods_receipt_detail_id IN ? AND is_transferred = ?", detailIDs, false).
		Update("is_transferred", true).Error
}

func (r *repository) PurchaseOrderPrices(ctx context.Context, purchaseOrderID uint) (map[uint]decimal.Decimal, error) {
	var details []models.PurchaseOrderDetail
	if err := r.receipts.DB(ctx).
		Where("purchase_order_id = ?", purchaseOrderID).
		Find(&details).Error; err != nil {
		return nil, err
	}
	prices := make(map[uint]decimal.Decimal, len(details))
	for _, d := range details {
		prices[d.ID] = d.Price
	}
	return prices, nil
}

func (r *repository) FindVariant(ctx context.Context, id uint) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := r.receipts.DB(ctx).First(&variant, id).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}
