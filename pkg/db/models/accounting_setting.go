package models

import "time"

// AccountingSetting holds the per-company accounts invoice postings resolve against.
type AccountingSetting struct {
	ID                    uint      `gorm:"column:id;primaryKey"`
	CompanyID             uint      `gorm:"column:company_id;not null;uniqueIndex"`
	SalesRevenueAccountID *uint     `gorm:"column:sales_revenue_account_id"`
	TaxesPayableAccountID *uint     `gorm:"column:taxes_payable_account_id"`
	CostOfGoodsAccountID  *uint     `gorm:"column:cogs_account_id"`
	InventoryAccountID    *uint     `gorm:"column:inventory_account_id"`
	CreatedAt             time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
