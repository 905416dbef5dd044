package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PurchaseOrderDetail struct {
	ID               uint            `gorm:"column:id;primaryKey"`
	PurchaseOrderID  uint            `gorm:"column:purchase_order_id;not null;index"`
	ProductVariantID uint            `gorm:"column:product_variant_id;not null"`
	Qty              decimal.Decimal `gorm:"column:qty;type:numeric(18,4);not null"`
	Price            decimal.Decimal `gorm:"column:price;type:numeric(18,4);not null"`
	Total            decimal.Decimal `gorm:"column:total;type:numeric(18,4);not null"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
