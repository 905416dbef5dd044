package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/angelmondragon/stockledger-backend/pkg/enums"
)

// StockMovement is the append-only audit row written for every stock adjustment.
type StockMovement struct {
	ID                 uint                      `gorm:"column:id;primaryKey"`
	CompanyID          uint                      `gorm:"column:company_id;not null;index"`
	WarehouseProductID uint                      `gorm:"column:warehouse_product_id;not null;index"`
	WarehouseID        uint                      `gorm:"column:warehouse_id;not null"`
	ProductVariantID   uint                      `gorm:"column:product_variant_id;not null"`
	Delta              decimal.Decimal           `gorm:"column:delta;type:numeric(18,4);not null"`
	BalanceAfter       decimal.Decimal           `gorm:"column:balance_after;type:numeric(18,4);not null"`
	Reason             enums.StockMovementReason `gorm:"column:reason;type:varchar(32);not null"`
	SourceType         *string                   `gorm:"column:source_type"`
	SourceID           *uint                     `gorm:"column:source_id"`
	ReferenceNumber    *string                   `gorm:"column:reference_number"`
	Metadata           datatypes.JSON            `gorm:"column:metadata"`
	CreatedAt          time.Time                 `gorm:"column:created_at;autoCreateTime"`
}
