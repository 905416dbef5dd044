package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/stockledger-backend/pkg/enums"
)

// StockTransfer moves quantity and serials from one warehouse to another.
type StockTransfer struct {
	ID                     uint                      `gorm:"column:id;primaryKey"`
	CompanyID              uint                      `gorm:"column:company_id;not null;uniqueIndex:idx_stock_transfers_company_number"`
	Number                 string                    `gorm:"column:number;not null;uniqueIndex:idx_stock_transfers_company_number"`
	OriginWarehouseID      uint                      `gorm:"column:origin_warehouse_id;not null"`
	DestinationWarehouseID uint                      `gorm:"column:destination_warehouse_id;not null"`
	TransferDate           time.Time                 `gorm:"column:transfer_date;not null"`
	Status                 enums.StockTransferStatus `gorm:"column:status;type:varchar(32);not null;default:'pending'"`
	Remarks                *string                   `gorm:"column:remarks"`
	CompletedAt            *time.Time                `gorm:"column:completed_at"`
	Details                []StockTransferDetail     `gorm:"foreignKey:StockTransferID;constraint:OnDelete:CASCADE"`
	CreatedAt              time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt              gorm.DeletedAt            `gorm:"column:deleted_at;index"`
}
