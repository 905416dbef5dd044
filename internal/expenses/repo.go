package expenses

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/stockledger-backend/internal/repo"
	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, expense *models.Expense) error
	FindByID(ctx context.Context, id uint) (*models.Expense, error)
	CategoryBelongsTo(ctx context.Context, companyID, categoryID uint) (bool, error)
}

type repository struct {
	expenses repo.Repository[models.Expense]
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{expenses: repo.New[models.Expense](db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

func (r *repository) Create(ctx context.Context, expense *models.Expense) error {
	return r.expenses.Create(ctx, expense)
}

func (r *repository) FindByID(ctx context.Context, id uint) (*models.Expense, error) {
	return r.expenses.FindByID(ctx, id)
}

func (r *repository) CategoryBelongsTo(ctx context.Context, companyID, categoryID uint) (bool, error) {
	var count int64
	err := r.expenses.DB(ctx).Model(&models.ExpenseCategory{}).
		Where("id = ? AND company_id = ?", categoryID, companyID).
		Count(&count).Error
	return count > 0, err
}
