package journal

import (
	"context"
	"fmt"

	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
)

// maxCategoryDepth bounds the walk up the expense category tree.
const maxCategoryDepth = 8

// InvoiceAccounts are the company-level accounts an invoice posting uses. Any
// of them may be nil when unconfigured or inactive.
type InvoiceAccounts struct {
	SalesRevenue *models.Account
	TaxesPayable *models.Account
	CostOfGoods  *models.Account
	Inventory    *models.Account
}

// Resolver maps payment methods, expense categories and company settings to
// ledger accounts. A nil account with a nil error means "not configured".
type Resolver struct {
	repo Repository
}

func NewResolver(repo Repository) (*Resolver, error) {
	if repo == nil {
		return nil, fmt.Errorf("journal repository required")
	}
	return &Resolver{repo: repo}, nil
}

func (r *Resolver) PaymentMethodAccount(ctx context.Context, companyID uint, code enums.PaymentMethodCode) (*models.Account, error) {
	method, err := r.repo.FindPaymentMethod(ctx, companyID, code)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment method")
	}
	if method == nil || method.AccountID == nil {
		return nil, nil
	}
	return r.account(ctx, companyID, *method.AccountID)
}

// ExpenseCategoryAccount resolves the category's account, inheriting from the
// nearest ancestor that has one.
func (r *Resolver) ExpenseCategoryAccount(ctx context.Context, companyID, categoryID uint) (*models.Account, error) {
	id := categoryID
	for depth := 0; depth < maxCategoryDepth; depth++ {
		category, err := r.repo.FindExpenseCategory(ctx, id)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load expense category")
		}
		if category == nil || category.CompanyID != companyID {
			return nil, nil
		}
		if category.AccountID != nil {
			return r.account(ctx, companyID, *category.AccountID)
		}
		if category.ParentID == nil {
			return nil, nil
		}
		id = *category.ParentID
	}
	return nil, nil
}

func (r *Resolver) InvoiceAccounts(ctx context.Context, companyID uint) (InvoiceAccounts, error) {
	var out InvoiceAccounts
	settings, err := r.repo.FindSettings(ctx, companyID)
	if err != nil {
		return out, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load accounting settings")
	}
	if settings == nil {
		return out, nil
	}
	targets := []struct {
		id  *uint
		dst **models.Account
	}{
		{settings.SalesRevenueAccountID, &out.SalesRevenue},
		{settings.TaxesPayableAccountID, &out.TaxesPayable},
		{settings.CostOfGoodsAccountID, &out.CostOfGoods},
		{settings.InventoryAccountID, &out.Inventory},
	}
	for _, t := range targets {
		if t.id == nil {
			continue
		}
		account, err := r.account(ctx, companyID, *t.id)
		if err != nil {
			return out, err
		}
		*t.dst = account
	}
	return out, nil
}

func (r *Resolver) account(ctx context.Context, companyID, accountID uint) (*models.Account, error) {
	account, err := r.repo.FindAccount(ctx, companyID, accountID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}
	return account, nil
}
