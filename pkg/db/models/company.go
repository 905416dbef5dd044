package models

import (
	"time"

	"gorm.io/gorm"
)

// Company owns warehouses, documents and the chart of accounts.
type Company struct {
	ID        uint           `gorm:"column:id;primaryKey"`
	Name      string         `gorm:"column:name;not null"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}
