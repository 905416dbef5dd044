package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockledger-backend/pkg/enums"
)

// PurchaseOrder is the supplier order that seeds a goods receipt once ordered.
type PurchaseOrder struct {
	ID           uint                      `gorm:"column:id;primaryKey"`
	CompanyID    uint                      `gorm:"column:company_id;not null;uniqueIndex:idx_purchase_orders_company_number"`
	Number       string                    `gorm:"column:number;not null;uniqueIndex:idx_purchase_orders_company_number"`
	SupplierName string                    `gorm:"column:supplier_name;not null"`
	WarehouseID  uint                      `gorm:"column:warehouse_id;not null"`
	OrderDate    time.Time                 `gorm:"column:order_date;not null"`
	Status       enums.PurchaseOrderStatus `gorm:"column:status;type:varchar(32);not null;default:'draft'"`
	Subtotal     decimal.Decimal           `gorm:"column:subtotal;type:numeric(18,4);not null"`
	TaxRate      decimal.Decimal           `gorm:"column:tax_rate;type:numeric(9,4);not null"`
	TaxAmount    decimal.Decimal           `gorm:"column:tax_amount;type:numeric(18,4);not null"`
	ShippingCost decimal.Decimal           `gorm:"column:shipping_cost;type:numeric(18,4);not null"`
	Total        decimal.Decimal           `gorm:"column:total;type:numeric(18,4);not null"`
	Remarks      *string                   `gorm:"column:remarks"`
	Details      []PurchaseOrderDetail     `gorm:"foreignKey:PurchaseOrderID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt    gorm.DeletedAt            `gorm:"column:deleted_at;index"`
}
