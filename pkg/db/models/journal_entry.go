package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockledger-backend/pkg/enums"
)

// JournalEntry groups balanced debit and credit lines derived from one source document.
// At most one live entry exists per (company_id, source_type, reference_number).
type JournalEntry struct {
	ID              uint                    `gorm:"column:id;primaryKey"`
	CompanyID       uint                    `gorm:"column:company_id;not null;index;uniqueIndex:idx_journal_entries_source_reference,where:deleted_at IS NULL"`
	Number          string                  `gorm:"column:number;not null"`
	SourceType      enums.JournalSourceType `gorm:"column:source_type;type:varchar(16);not null;uniqueIndex:idx_journal_entries_source_reference,where:deleted_at IS NULL"`
	SourceID        *uint                   `gorm:"column:source_id"`
	ReferenceNumber string                  `gorm:"column:reference_number;not null;uniqueIndex:idx_journal_entries_source_reference,where:deleted_at IS NULL"`
	ReferenceDate   time.Time               `gorm:"column:reference_date;not null"`
	Remarks         *string                 `gorm:"column:remarks"`
	TotalDebit      decimal.Decimal         `gorm:"column:total_debit;type:numeric(18,4);not null"`
	TotalCredit     decimal.Decimal         `gorm:"column:total_credit;type:numeric(18,4);not null"`
	Details         []JournalEntryDetail    `gorm:"foreignKey:JournalEntryID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time               `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt       gorm.DeletedAt          `gorm:"column:deleted_at;index"`
}
