package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductVariant is the purchasable unit stock is tracked against.
type ProductVariant struct {
	ID         uint            `gorm:"column:id;primaryKey"`
	CompanyID  uint            `gorm:"column:company_id;not null;index"`
	SKU        string          `gorm:"column:sku;not null"`
	Name       string          `gorm:"column:name;not null"`
	Unit       string          `gorm:"column:unit;not null;default:'pc'"`
	HasSerials bool            `gorm:"column:has_serials;not null;default:false"`
	ListPrice  decimal.Decimal `gorm:"column:list_price;type:numeric(18,4);not null"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt  gorm.DeletedAt  `gorm:"column:deleted_at;index"`
}
