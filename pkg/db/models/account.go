package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/stockledger-backend/pkg/enums"
)

// Account is a chart-of-accounts entry journal lines post against.
type Account struct {
	ID        uint              `gorm:"column:id;primaryKey"`
	CompanyID uint              `gorm:"column:company_id;not null;uniqueIndex:idx_accounts_company_code"`
	Code      string            `gorm:"column:code;not null;uniqueIndex:idx_accounts_company_code"`
	Name      string            `gorm:"column:name;not null"`
	Type      enums.AccountType `gorm:"column:type;type:varchar(16);not null"`
	IsActive  bool              `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt    `gorm:"column:deleted_at;index"`
}
