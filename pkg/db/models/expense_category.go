package models

import (
	"time"

	"gorm.io/gorm"
)

type ExpenseCategory struct {
	ID        uint           `gorm:"column:id;primaryKey"`
	CompanyID uint           `gorm:"column:company_id;not null;index"`
	ParentID  *uint          `gorm:"column:parent_id"`
	Name      string         `gorm:"column:name;not null"`
	AccountID *uint          `gorm:"column:account_id"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}
