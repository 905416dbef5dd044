package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/stockledger-backend/pkg/enums"
)

// PaymentMethod maps a payment method code to the ledger account that collects it.
type PaymentMethod struct {
	ID        uint                    `gorm:"column:id;primaryKey"`
	CompanyID uint                    `gorm:"column:company_id;not null;uniqueIndex:idx_payment_methods_company_code"`
	Name      string                  `gorm:"column:name;not null"`
	Code      enums.PaymentMethodCode `gorm:"column:code;type:varchar(32);not null;uniqueIndex:idx_payment_methods_company_code"`
	AccountID *uint                   `gorm:"column:account_id"`
	CreatedAt time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time               `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt          `gorm:"column:deleted_at;index"`
}
