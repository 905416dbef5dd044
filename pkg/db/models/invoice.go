package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockledger-backend/pkg/enums"
)

// Invoice is a sales or point-of-sale document that deducts stock once fully paid.
type Invoice struct {
	ID             uint                   `gorm:"column:id;primaryKey"`
	CompanyID      uint                   `gorm:"column:company_id;not null;uniqueIndex:idx_invoices_company_number"`
	Number         string                 `gorm:"column:number;not null;uniqueIndex:idx_invoices_company_number"`
	Type           enums.InvoiceType      `gorm:"column:type;type:varchar(32);not null"`
	Status         enums.InvoiceStatus    `gorm:"column:status;type:varchar(32);not null;default:'draft'"`
	CustomerName   string                 `gorm:"column:customer_name;not null"`
	InvoiceDate    time.Time              `gorm:"column:invoice_date;not null"`
	Subtotal       decimal.Decimal        `gorm:"column:subtotal;type:numeric(18,4);not null"`
	DiscountRate   decimal.Decimal        `gorm:"column:discount_rate;type:numeric(9,4);not null"`
	DiscountAmount decimal.Decimal        `gorm:"column:discount_amount;type:numeric(18,4);not null"`
	TaxRate        decimal.Decimal        `gorm:"column:tax_rate;type:numeric(9,4);not null"`
	TaxAmount      decimal.Decimal        `gorm:"column:tax_amount;type:numeric(18,4);not null"`
	ShippingCost   decimal.Decimal        `gorm:"column:shipping_cost;type:numeric(18,4);not null"`
	Total          decimal.Decimal        `gorm:"column:total;type:numeric(18,4);not null"`
	Currency       string                 `gorm:"column:currency;type:varchar(3);not null;default:'PHP'"`
	Notes          *string                `gorm:"column:notes"`
	StockDeducted  bool                   `gorm:"column:stock_deducted;not null;default:false"`
	PaidAt         *time.Time             `gorm:"column:paid_at"`
	CancelledAt    *time.Time             `gorm:"column:cancelled_at"`
	Details        []InvoiceDetail        `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	Payments       []InvoicePaymentDetail `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time              `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt      gorm.DeletedAt         `gorm:"column:deleted_at;index"`
}
