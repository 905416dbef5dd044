package models

import (
	"time"

	"gorm.io/gorm"
)

// WarehouseProductSerial is a serial or batch unit owned by exactly one stock record.
// Serial numbers are unique per product variant among unsold units.
type WarehouseProductSerial struct {
	ID                 uint           `gorm:"column:id;primaryKey"`
	WarehouseProductID uint           `gorm:"column:warehouse_product_id;not null;index"`
	ProductVariantID   uint           `gorm:"column:product_variant_id;not null;uniqueIndex:idx_serials_unsold_variant_serial,where:is_sold = false AND deleted_at IS NULL"`
	SerialNumber       string         `gorm:"column:serial_number;not null;uniqueIndex:idx_serials_unsold_variant_serial,where:is_sold = false AND deleted_at IS NULL"`
	BatchNumber        *string        `gorm:"column:batch_number"`
	ManufacturedAt     *time.Time     `gorm:"column:manufactured_at"`
	ExpiresAt          *time.Time     `gorm:"column:expires_at"`
	IsSold             bool           `gorm:"column:is_sold;not null;default:false"`
	SoldAt             *time.Time     `gorm:"column:sold_at"`
	CreatedAt          time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt          gorm.DeletedAt `gorm:"column:deleted_at;index"`
}
