package models

import "time"

// StockTransferSerial is a manifest entry naming a serial that travels with a transfer.
type StockTransferSerial struct {
	ID                       uint      `gorm:"column:id;primaryKey"`
	StockTransferID          uint      `gorm:"column:stock_transfer_id;not null;index"`
	StockTransferDetailID    uint      `gorm:"column:stock_transfer_detail_id;not null;index"`
	WarehouseProductSerialID uint      `gorm:"column:warehouse_product_serial_id;not null;index"`
	SerialNumber             string    `gorm:"column:serial_number;not null"`
	IsReceived               bool      `gorm:"column:is_received;not null;default:false"`
	Moved                    bool      `gorm:"column:moved;not null;default:false"`
	CreatedAt                time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
