package models

import (
	"time"

	"gorm.io/gorm"
)

// GoodsReceiptSerial tracks a serial on the receiving dock until the receipt moves into a warehouse.
type GoodsReceiptSerial struct {
	ID                   uint           `gorm:"column:id;primaryKey"`
	GoodsReceiptDetailID uint           `gorm:"column:goods_receipt_detail_id;not null;index"`
	ProductVariantID     uint           `gorm:"column:product_variant_id;not null;uniqueIndex:idx_gr_serials_pending_variant_serial,where:is_transferred = false AND deleted_at IS NULL"`
	SerialNumber         string         `gorm:"column:serial_number;not null;uniqueIndex:idx_gr_serials_pending_variant_serial,where:is_transferred = false AND deleted_at IS NULL"`
	BatchNumber          *string        `gorm:"column:batch_number"`
	ManufacturedAt       *time.Time     `gorm:"column:manufactured_at"`
	ExpiresAt            *time.Time     `gorm:"column:expires_at"`
	IsTransferred        bool           `gorm:"column:is_transferred;not null;default:false"`
	CreatedAt            time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt            gorm.DeletedAt `gorm:"column:deleted_at;index"`
}
