package models

import "time"

// InvoiceDetailSerial names a serial sold on an invoice line. WarehouseProductSerialID is
// set once the serial has actually been marked sold.
type InvoiceDetailSerial struct {
	ID                       uint      `gorm:"column:id;primaryKey"`
	InvoiceDetailID          uint      `gorm:"column:invoice_detail_id;not null;index"`
	SerialNumber             string    `gorm:"column:serial_number;not null"`
	WarehouseProductSerialID *uint     `gorm:"column:warehouse_product_serial_id"`
	CreatedAt                time.Time `gorm:"column:created_at;autoCreateTime"`
}
