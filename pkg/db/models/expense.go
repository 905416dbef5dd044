package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockledger-backend/pkg/enums"
)

type Expense struct {
	ID              uint                    `gorm:"column:id;primaryKey"`
	CompanyID       uint                    `gorm:"column:company_id;not null;uniqueIndex:idx_expenses_company_number"`
	ReferenceNumber string                  `gorm:"column:reference_number;not null;uniqueIndex:idx_expenses_company_number"`
	CategoryID      uint                    `gorm:"column:category_id;not null"`
	SupplierName    *string                 `gorm:"column:supplier_name"`
	Payee           string                  `gorm:"column:payee;not null"`
	PaymentMethod   enums.PaymentMethodCode `gorm:"column:payment_method;type:varchar(32);not null"`
	Amount          decimal.Decimal         `gorm:"column:amount;type:numeric(18,4);not null"`
	Currency        string                  `gorm:"column:currency;type:varchar(3);not null;default:'PHP'"`
	Description     *string                 `gorm:"column:description"`
	ExpenseDate     time.Time               `gorm:"column:expense_date;not null"`
	ReceiptPath     *string                 `gorm:"column:receipt_path"`
	CreatedAt       time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time               `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt       gorm.DeletedAt          `gorm:"column:deleted_at;index"`
}
