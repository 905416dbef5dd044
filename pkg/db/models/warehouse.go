package models

import (
	"time"

	"gorm.io/gorm"
)

type Warehouse struct {
	ID        uint           `gorm:"column:id;primaryKey"`
	CompanyID uint           `gorm:"column:company_id;not null;index"`
	Name      string         `gorm:"column:name;not null"`
	Address   *string        `gorm:"column:address"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}
