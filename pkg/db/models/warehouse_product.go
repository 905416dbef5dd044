package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WarehouseProduct is the on-hand stock record for one product variant at one warehouse.
type WarehouseProduct struct {
	ID               uint                     `gorm:"column:id;primaryKey"`
	CompanyID        uint                     `gorm:"column:company_id;not null;index"`
	WarehouseID      uint                     `gorm:"column:warehouse_id;not null;uniqueIndex:idx_warehouse_products_pair,where:deleted_at IS NULL"`
	ProductVariantID uint                     `gorm:"column:product_variant_id;not null;uniqueIndex:idx_warehouse_products_pair,where:deleted_at IS NULL"`
	Qty              decimal.Decimal          `gorm:"column:qty;type:numeric(18,4);not null"`
	Price            decimal.Decimal          `gorm:"column:price;type:numeric(18,4);not null"`
	LastCost         decimal.Decimal          `gorm:"column:last_cost;type:numeric(18,4);not null"`
	AverageCost      decimal.Decimal          `gorm:"column:average_cost;type:numeric(18,4);not null"`
	HasSerials       bool                     `gorm:"column:has_serials;not null;default:false"`
	CriticalLevelQty decimal.Decimal          `gorm:"column:critical_level_qty;type:numeric(18,4);not null"`
	Serials          []WarehouseProductSerial `gorm:"foreignKey:WarehouseProductID"`
	CreatedAt        time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time                `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt        gorm.DeletedAt           `gorm:"column:deleted_at;index"`
}
