package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/stockledger-backend/pkg/enums"
)

// GoodsReceipt records arrival of purchase order goods before they enter warehouse stock.
type GoodsReceipt struct {
	ID              uint                     `gorm:"column:id;primaryKey"`
	CompanyID       uint                     `gorm:"column:company_id;not null;uniqueIndex:idx_goods_receipts_company_number"`
	Number          string                   `gorm:"column:number;not null;uniqueIndex:idx_goods_receipts_company_number"`
	PurchaseOrderID uint                     `gorm:"column:purchase_order_id;not null;index"`
	WarehouseID     uint                     `gorm:"column:warehouse_id;not null"`
	Status          enums.GoodsReceiptStatus `gorm:"column:status;type:varchar(32);not null;default:'pending'"`
	Remarks         *string                  `gorm:"column:remarks"`
	TransferredAt   *time.Time               `gorm:"column:transferred_at"`
	Details         []GoodsReceiptDetail     `gorm:"foreignKey:GoodsReceiptID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time                `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt       gorm.DeletedAt           `gorm:"column:deleted_at;index"`
}
