package journal

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockledger-backend/internal/repo"
	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	"github.com/angelmondragon/stockledger-backend/pkg/pagination"
)

// Repository reads source documents and account configuration and persists
// journal entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.JournalEntry) error
	FindByID(ctx context.Context, id uint) (*models.JournalEntry, error)
	FindBySource(ctx context.Context, companyID uint, source enums.JournalSourceType, referenceNumber string) (*models.JournalEntry, error)
	List(ctx context.Context, companyID uint, params pagination.Params) (pagination.Page[models.JournalEntry], error)

	FindExpense(ctx context.Context, id uint) (*models.Expense, error)
	FindInvoice(ctx context.Context, id uint) (*models.Invoice, error)
	LastCosts(ctx context.Context, warehouseProductIDs []uint) (map[uint]decimal.Decimal, error)

	FindAccount(ctx context.Context, companyID, accountID uint) (*models.Account, error)
	FindPaymentMethod(ctx context.Context, companyID uint, code enums.PaymentMethodCode) (*models.PaymentMethod, error)
	FindExpenseCategory(ctx context.Context, id uint) (*models.ExpenseCategory, error)
	FindSettings(ctx context.Context, companyID uint) (*models.AccountingSetting, error)

	UnpostedInvoiceIDs(ctx context.Context, limit int) ([]uint, error)
	UnpostedExpenseIDs(ctx context.Context, limit int) ([]uint, error)
}

type repository struct {
	entries repo.Repository[models.JournalEntry]
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{entries: repo.New[models.JournalEntry](db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

func (r *repository) Create(ctx context.Context, entry *models.JournalEntry) error {
	return r.entries.Create(ctx, entry)
}

func (r *repository) FindByID(ctx context.Context, id uint) (*models.JournalEntry, error) {
	return r.entries.FindByID(ctx, id, "Details")
}

// FindBySource returns the live entry for a source document, or nil.
func (r *repository) FindBySource(ctx context.Context, companyID uint, source enums.JournalSourceType, referenceNumber string) (*models.JournalEntry, error) {
	var entry models.JournalEntry
	err := r.entries.DB(ctx).
		Where("company_id = ? AND source_type = ? AND reference_number = ?", companyID, source, referenceNumber).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) List(ctx context.Context, companyID uint, params pagination.Params) (pagination.Page[models.JournalEntry], error) {
	return r.entries.ListPage(ctx, params,
		func(e models.JournalEntry) pagination.Cursor {
			return pagination.Cursor{CreatedAt: e.CreatedAt, ID: e.ID}
		},
		func(db *gorm.DB) *gorm.DB { return db.Where("company_id = ?", companyID) },
	)
}

func (r *repository) FindExpense(ctx context.Context, id uint) (*models.Expense, error) {
	var expense models.Expense
	if err := r.entries.DB(ctx).First(&expense, id).Error; err != nil {
		return nil, err
	}
	return &expense, nil
}

func (r *repository) FindInvoice(ctx context.Context, id uint) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.entries.DB(ctx).
		Preload("Details", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&invoice, id).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *repository) LastCosts(ctx context.Context, warehouseProductIDs []uint) (map[uint]decimal.Decimal, error) {
	out := make(map[uint]decimal.Decimal, len(warehouseProductIDs))
	if len(warehouseProductIDs) == 0 {
		return out, nil
	}
	var rows []models.WarehouseProduct
	if err := r.entries.DB(ctx).Unscoped().
		Select("id", "last_cost").
		Where("id IN ?", warehouseProductIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row.LastCost
	}
	return out, nil
}

// FindAccount returns an active account of the company, or nil.
func (r *repository) FindAccount(ctx context.Context, companyID, accountID uint) (*models.Account, error) {
	var account models.Account
	err := r.entries.DB(ctx).
		Where("id = ? AND company_id = ? AND is_active = ?", accountID, companyID, true).
		First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) FindPaymentMethod(ctx context.Context, companyID uint, code enums.PaymentMethodCode) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	err := r.entries.DB(ctx).Where("company_id = ? AND code = ?", companyID, code).First(&method).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &method, nil
}

func (r *repository) FindExpenseCategory(ctx context.Context, id uint) (*models.ExpenseCategory, error) {
	var category models.ExpenseCategory
	err := r.entries.DB(ctx).First(&category, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *repository) FindSettings(ctx context.Context, companyID uint) (*models.AccountingSetting, error) {
	var settings models.AccountingSetting
	err := r.entries.DB(ctx).Where("company_id = ?", companyID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// UnpostedInvoiceIDs lists fully paid invoices that have no live journal entry.
func (r *repository) UnpostedInvoiceIDs(ctx context.Context, limit int) ([]uint, error) {
	var ids []uint
	err := r.entries.DB(ctx).Model(&models.Invoice{}).
		Where("status = ?", enums.InvoiceStatusFullyPaid).
		Where("NOT EXISTS (?)", r.entries.DB(ctx).Model(&models.JournalEntry{}).
			Select("1").
			Where("journal_entries.company_id = invoices.company_id AND journal_entries.source_type = ? AND journal_entries.reference_number = invoices.number", enums.JournalSourceInvoice)).
		Order("id ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

// UnpostedExpenseIDs lists expenses that have no live journal entry.
func (r *repository) UnpostedExpenseIDs(ctx context.Context, limit int) ([]uint, error) {
	var ids []uint
	err := r.entries.DB(ctx).Model(&models.Expense{}).
		Where("NOT EXISTS (?)", r.entries.DB(ctx).Model(&models.JournalEntry{}).
			Select("1").
			Where("journal_entries.company_id = expenses.company_id AND journal_entries.source_type = ? AND journal_entries.reference_number = expenses.reference_number", enums.JournalSourceExpense)).
		Order("id ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}
