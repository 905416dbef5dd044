package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceDetail struct {
	ID                 uint                  `gorm:"column:id;primaryKey"`
	InvoiceID          uint                  `gorm:"column:invoice_id;not null;index"`
	WarehouseProductID uint                  `gorm:"column:warehouse_product_id;not null"`
	ProductVariantID   uint                  `gorm:"column:product_variant_id;not null"`
	Qty                decimal.Decimal       `gorm:"column:qty;type:numeric(18,4);not null"`
	Price              decimal.Decimal       `gorm:"column:price;type:numeric(18,4);not null"`
	Total              decimal.Decimal       `gorm:"column:total;type:numeric(18,4);not null"`
	Serials            []InvoiceDetailSerial `gorm:"foreignKey:InvoiceDetailID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
