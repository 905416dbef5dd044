package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockledger-backend/pkg/enums"
)

// InvoicePaymentDetail records the amount collected through one payment method.
type InvoicePaymentDetail struct {
	ID              uint                    `gorm:"column:id;primaryKey"`
	InvoiceID       uint                    `gorm:"column:invoice_id;not null;index"`
	PaymentMethod   enums.PaymentMethodCode `gorm:"column:payment_method;type:varchar(32);not null"`
	Amount          decimal.Decimal         `gorm:"column:amount;type:numeric(18,4);not null"`
	Status          enums.PaymentStatus     `gorm:"column:status;type:varchar(32);not null;default:'unpaid'"`
	AccountNumber   *string                 `gorm:"column:account_number"`
	AccountName     *string                 `gorm:"column:account_name"`
	BankName        *string                 `gorm:"column:bank_name"`
	ReferenceNumber *string                 `gorm:"column:reference_number"`
	CreatedAt       time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
