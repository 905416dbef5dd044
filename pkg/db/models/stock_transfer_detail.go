package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type StockTransferDetail struct {
	ID                            uint                  `gorm:"column:id;primaryKey"`
	StockTransferID               uint                  `gorm:"column:stock_transfer_id;not null;index"`
	OriginWarehouseProductID      uint                  `gorm:"column:origin_warehouse_product_id;not null"`
	DestinationWarehouseProductID uint                  `gorm:"column:destination_warehouse_product_id;not null"`
	ProductVariantID              uint                  `gorm:"column:product_variant_id;not null"`
	Qty                           decimal.Decimal       `gorm:"column:qty;type:numeric(18,4);not null"`
	TransferredQty                decimal.Decimal       `gorm:"column:transferred_qty;type:numeric(18,4);not null"`
	Serials                       []StockTransferSerial `gorm:"foreignKey:StockTransferDetailID;constraint:OnDelete:CASCADE"`
	CreatedAt                     time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                     time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
