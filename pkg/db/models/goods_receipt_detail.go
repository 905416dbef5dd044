package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type GoodsReceiptDetail struct {
	ID                    uint                 `gorm:"column:id;primaryKey"`
	GoodsReceiptID        uint                 `gorm:"column:goods_receipt_id;not null;index"`
	PurchaseOrderDetailID uint                 `gorm:"column:purchase_order_detail_id;not null"`
	ProductVariantID      uint                 `gorm:"column:product_variant_id;not null"`
	ExpectedQty           decimal.Decimal      `gorm:"column:expected_qty;type:numeric(18,4);not null"`
	ReceivedQty           decimal.Decimal      `gorm:"column:received_qty;type:numeric(18,4);not null"`
	UnitCost              decimal.Decimal      `gorm:"column:unit_cost;type:numeric(18,4);not null"`
	Notes                 *string              `gorm:"column:notes"`
	Serials               []GoodsReceiptSerial `gorm:"foreignKey:GoodsReceiptDetailID;constraint:OnDelete:CASCADE"`
	CreatedAt             time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
