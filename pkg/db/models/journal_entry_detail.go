package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalEntryDetail carries exactly one non-zero side.
type JournalEntryDetail struct {
	ID             uint            `gorm:"column:id;primaryKey"`
	JournalEntryID uint            `gorm:"column:journal_entry_id;not null;index"`
	AccountID      uint            `gorm:"column:account_id;not null"`
	Name           string          `gorm:"column:name;not null"`
	Debit          decimal.Decimal `gorm:"column:debit;type:numeric(18,4);not null"`
	Credit         decimal.Decimal `gorm:"column:credit;type:numeric(18,4);not null"`
	Remarks        *string         `gorm:"column:remarks"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
}
