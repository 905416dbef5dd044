package journal

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockledger-backend/internal/numbering"
	dbpkg "github.com/angelmondragon/stockledger-backend/pkg/db"
	"github.com/angelmondragon/stockledger-backend/pkg/db/dbtest"
	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"github.com/angelmondragon/stockledger-backend/pkg/logger"
	"github.com/angelmondragon/stockledger-backend/pkg/outbox"
	"github.com/angelmondragon/stockledger-backend/pkg/pagination"
	pkgredis "github.com/angelmondragon/stockledger-backend/pkg/redis"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

type harness struct {
	db      *gorm.DB
	fixture dbtest.Fixture
	logs    *bytes.Buffer
	logg    *logger.Logger
	repo    Repository
	svc     Service
}

func newHarness(t *testing.T, opts ...func(*ServiceParams)) harness {
	t.Helper()
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db, "Kanto", 1)
	logs := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: logs})

	params := ServiceParams{
		Repo:    NewRepository(db),
		Numbers: numbering.NewGenerator(nil, nil),
		Outbox:  outbox.NewService(outbox.NewRepository(db), nil),
		Tx:      dbpkg.NewFromGorm(db),
		Logger:  logg,
	}
	for _, opt := range opts {
		opt(&params)
	}
	svc, err := NewService(params)
	require.NoError(t, err)
	return harness{db: db, fixture: f, logs: logs, logg: logg, repo: params.Repo, svc: svc}
}

func (h harness) account(t *testing.T, code, name string, typ enums.AccountType) models.Account {
	t.Helper()
	return dbtest.Account(t, h.db, h.fixture.Company.ID, code, name, typ)
}

func (h harness) paymentMethod(t *testing.T, code enums.PaymentMethodCode, accountID *uint) {
	t.Helper()
	require.NoError(t, h.db.Create(&models.PaymentMethod{
		CompanyID: h.fixture.Company.ID,
		Name:      string(code),
		Code:      code,
		AccountID: accountID,
	}).Error)
}

func (h harness) category(t *testing.T, name string, parentID, accountID *uint) models.ExpenseCategory {
	t.Helper()
	c := models.ExpenseCategory{CompanyID: h.fixture.Company.ID, Name: name, ParentID: parentID, AccountID: accountID}
	require.NoError(t, h.db.Create(&c).Error)
	return c
}

func (h harness) expense(t *testing.T, number string, categoryID uint, method enums.PaymentMethodCode, amount string) models.Expense {
	t.Helper()
	e := models.Expense{
		CompanyID:       h.fixture.Company.ID,
		ReferenceNumber: number,
		CategoryID:      categoryID,
		Payee:           "Meralco",
		PaymentMethod:   method,
		Amount:          dec(amount),
		Currency:        "PHP",
		ExpenseDate:     time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, h.db.Create(&e).Error)
	return e
}

// paidInvoice stores a fully paid invoice for two units off row at 50 each
// with 12% tax.
func (h harness) paidInvoice(t *testing.T, row models.WarehouseProduct, payments ...models.InvoicePaymentDetail) models.Invoice {
	t.Helper()
	paidAt := time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC)
	inv := models.Invoice{
		CompanyID:     h.fixture.Company.ID,
		Number:        "KAN-INV-000001",
		Type:          enums.InvoiceTypeSales,
		Status:        enums.InvoiceStatusFullyPaid,
		CustomerName:  "Ash",
		InvoiceDate:   paidAt,
		Subtotal:      dec("100"),
		TaxRate:       dec("12"),
		TaxAmount:     dec("12"),
		Total:         dec("112"),
		Currency:      "PHP",
		StockDeducted: true,
		PaidAt:        &paidAt,
		Details: []models.InvoiceDetail{{
			WarehouseProductID: row.ID,
			ProductVariantID:   row.ProductVariantID,
			Qty:                dec("2"),
			Price:              dec("50"),
			Total:              dec("100"),
		}},
		Payments: payments,
	}
	require.NoError(t, h.db.Create(&inv).Error)
	return inv
}

func payment(method enums.PaymentMethodCode, amount string) models.InvoicePaymentDetail {
	return models.InvoicePaymentDetail{PaymentMethod: method, Amount: dec(amount), Status: enums.PaymentStatusFullyPaid}
}

func (h harness) entryCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, h.db.Model(&models.JournalEntry{}).Count(&count).Error)
	return count
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}

func TestBankTransferExpenseWithoutMappingIsSkipped(t *testing.T) {
	h := newHarness(t)
	utilities := h.account(t, "6100", "Utilities Expense", enums.AccountTypeExpense)
	category := h.category(t, "Utilities", nil, &utilities.ID)
	expense := h.expense(t, "KAN-EXP-000001", category.ID, enums.PaymentMethodBankTransfer, "500")

	res, err := h.svc.PostExpense(context.Background(), expense.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PostingOutcomeSkipped, res.Outcome)
	assert.Equal(t, ReasonPaymentAccountMissing, res.Reason)
	assert.Zero(t, h.entryCount(t))

	assert.Contains(t, h.logs.String(), `"level":"warn"`)
	assert.Contains(t, h.logs.String(), "journal posting skipped")
	assert.Contains(t, h.logs.String(), `"reference_number":"KAN-EXP-000001"`)
}

func TestPostExpenseIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	utilities := h.account(t, "6100", "Utilities Expense", enums.AccountTypeExpense)
	bank := h.account(t, "1020", "Cash in Bank", enums.AccountTypeAsset)
	h.paymentMethod(t, enums.PaymentMethodBankTransfer, &bank.ID)
	category := h.category(t, "Utilities", nil, &utilities.ID)
	expense := h.expense(t, "KAN-EXP-000001", category.ID, enums.PaymentMethodBankTransfer, "500")

	res, err := h.svc.PostExpense(ctx, expense.ID)
	require.NoError(t, err)
	require.Equal(t, enums.PostingOutcomePosted, res.Outcome)
	entry, err := h.svc.Get(ctx, res.Entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "KAN-JE-000001", entry.Number)
	assert.Equal(t, "KAN-EXP-000001", entry.ReferenceNumber)
	assert.Equal(t, enums.JournalSourceExpense, entry.SourceType)
	require.NotNil(t, entry.SourceID)
	assert.Equal(t, expense.ID, *entry.SourceID)
	assert.True(t, entry.TotalDebit.Equal(dec("500")))
	assert.True(t, entry.TotalCredit.Equal(dec("500")))
	require.Len(t, entry.Details, 2)
	assert.Equal(t, utilities.ID, entry.Details[0].AccountID)
	assert.True(t, entry.Details[0].Debit.Equal(dec("500")))
	assert.Equal(t, bank.ID, entry.Details[1].AccountID)
	assert.True(t, entry.Details[1].Credit.Equal(dec("500")))

	again, err := h.svc.PostExpense(ctx, expense.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PostingOutcomeDuplicate, again.Outcome)
	assert.Equal(t, res.Entry.ID, again.Entry.ID)
	assert.EqualValues(t, 1, h.entryCount(t))

	var events int64
	require.NoError(t, h.db.Model(&models.OutboxEvent{}).Where("event_type = ?", enums.EventJournalEntryPosted).Count(&events).Error)
	assert.EqualValues(t, 1, events)
}

func TestExpenseCategoryInheritsParentAccount(t *testing.T) {
	h := newHarness(t)
	office := h.account(t, "6200", "Office Expense", enums.AccountTypeExpense)
	cash := h.account(t, "1010", "Cash on Hand", enums.AccountTypeAsset)
	h.paymentMethod(t, enums.PaymentMethodCash, &cash.ID)
	parent := h.category(t, "Office", nil, &office.ID)
	child := h.category(t, "Paper", &parent.ID, nil)
	expense := h.expense(t, "KAN-EXP-000001", child.ID, enums.PaymentMethodCash, "75.25")

	res, err := h.svc.PostExpense(context.Background(), expense.ID)
	require.NoError(t, err)
	require.Equal(t, enums.PostingOutcomePosted, res.Outcome)
	assert.Equal(t, office.ID, res.Entry.Details[0].AccountID)
}

func TestExpenseWithoutCategoryAccountIsSkipped(t *testing.T) {
	h := newHarness(t)
	cash := h.account(t, "1010", "Cash on Hand", enums.AccountTypeAsset)
	h.paymentMethod(t, enums.PaymentMethodCash, &cash.ID)
	category := h.category(t, "Misc", nil, nil)
	expense := h.expense(t, "KAN-EXP-000001", category.ID, enums.PaymentMethodCash, "10")

	res, err := h.svc.PostExpense(context.Background(), expense.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PostingOutcomeSkipped, res.Outcome)
	assert.Equal(t, ReasonCategoryAccountMissing, res.Reason)
}

func TestInactiveAccountIsNotResolved(t *testing.T) {
	h := newHarness(t)
	utilities := h.account(t, "6100", "Utilities Expense", enums.AccountTypeExpense)
	cash := h.account(t, "1010", "Cash on Hand", enums.AccountTypeAsset)
	require.NoError(t, h.db.Model(&models.Account{}).Where("id = ?", cash.ID).Update("is_active", false).Error)
	h.paymentMethod(t, enums.PaymentMethodCash, &cash.ID)
	category := h.category(t, "Utilities", nil, &utilities.ID)
	expense := h.expense(t, "KAN-EXP-000001", category.ID, enums.PaymentMethodCash, "10")

	res, err := h.svc.PostExpense(context.Background(), expense.ID)
	require.NoError(t, err)
	assert.Equal(t, ReasonPaymentAccountMissing, res.Reason)
}

type invoiceAccounts struct {
	cash, revenue, taxes, cogs, inventory models.Account
}

func (h harness) invoiceSetup(t *testing.T, withTaxes bool) invoiceAccounts {
	t.Helper()
	a := invoiceAccounts{
		cash:      h.account(t, "1010", "Cash on Hand", enums.AccountTypeAsset),
		revenue:   h.account(t, "4000", "Sales Revenue", enums.AccountTypeRevenue),
		taxes:     h.account(t, "2100", "Taxes Payable", enums.AccountTypeLiability),
		cogs:      h.account(t, "5000", "Cost of Goods Sold", enums.AccountTypeExpense),
		inventory: h.account(t, "1200", "Inventory", enums.AccountTypeAsset),
	}
	h.paymentMethod(t, enums.PaymentMethodCash, &a.cash.ID)
	settings := models.AccountingSetting{
		CompanyID:             h.fixture.Company.ID,
		SalesRevenueAccountID: &a.revenue.ID,
		CostOfGoodsAccountID:  &a.cogs.ID,
		InventoryAccountID:    &a.inventory.ID,
	}
	if withTaxes {
		settings.TaxesPayableAccountID = &a.taxes.ID
	}
	require.NoError(t, h.db.Create(&settings).Error)
	return a
}

func TestPostInvoiceWritesBalancedEntry(t *testing.T) {
	h := newHarness(t)
	a := h.invoiceSetup(t, true)
	row := dbtest.Stock(t, h.db, h.fixture.Company.ID, h.fixture.Warehouses[0].ID, h.fixture.Variant.ID, 10, false)
	inv := h.paidInvoice(t, row, payment(enums.PaymentMethodCash, "100"), payment(enums.PaymentMethodCash, "12"))

	res, err := h.svc.PostInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, enums.PostingOutcomePosted, res.Outcome)

	entry := res.Entry
	assert.Equal(t, "KAN-INV-000001", entry.ReferenceNumber)
	assert.True(t, entry.TotalDebit.Equal(dec("124")), entry.TotalDebit.String())
	assert.True(t, entry.TotalCredit.Equal(dec("124")), entry.TotalCredit.String())

	type side struct{ debit, credit string }
	want := map[uint]side{
		a.cash.ID:      {"112", "0"},
		a.revenue.ID:   {"0", "100"},
		a.taxes.ID:     {"0", "12"},
		a.cogs.ID:      {"12", "0"},
		a.inventory.ID: {"0", "12"},
	}
	require.Len(t, entry.Details, len(want))
	for _, d := range entry.Details {
		w, ok := want[d.AccountID]
		require.True(t, ok, "unexpected account %d", d.AccountID)
		assert.True(t, d.Debit.Equal(dec(w.debit)), "%s debit %s", d.Name, d.Debit)
		assert.True(t, d.Credit.Equal(dec(w.credit)), "%s credit %s", d.Name, d.Credit)
	}
}

func TestPostInvoiceWithoutCostAccountsOmitsCOGS(t *testing.T) {
	h := newHarness(t)
	a := h.invoiceSetup(t, true)
	require.NoError(t, h.db.Model(&models.AccountingSetting{}).
		Where("company_id = ?", h.fixture.Company.ID).
		Update("inventory_account_id", nil).Error)
	row := dbtest.Stock(t, h.db, h.fixture.Company.ID, h.fixture.Warehouses[0].ID, h.fixture.Variant.ID, 10, false)
	inv := h.paidInvoice(t, row, payment(enums.PaymentMethodCash, "112"))

	res, err := h.svc.PostInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, enums.PostingOutcomePosted, res.Outcome)
	assert.Len(t, res.Entry.Details, 3)
	for _, d := range res.Entry.Details {
		assert.NotEqual(t, a.cogs.ID, d.AccountID)
	}
}

func TestPostInvoiceSkipsWholeEntryWithoutTaxAccount(t *testing.T) {
	h := newHarness(t)
	h.invoiceSetup(t, false)
	row := dbtest.Stock(t, h.db, h.fixture.Company.ID, h.fixture.Warehouses[0].ID, h.fixture.Variant.ID, 10, false)
	inv := h.paidInvoice(t, row, payment(enums.PaymentMethodCash, "112"))

	res, err := h.svc.PostInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PostingOutcomeSkipped, res.Outcome)
	assert.Equal(t, ReasonTaxAccountMissing, res.Reason)
	assert.Zero(t, h.entryCount(t))
}

func TestPostInvoiceWithoutSettingsIsSkipped(t *testing.T) {
	h := newHarness(t)
	row := dbtest.Stock(t, h.db, h.fixture.Company.ID, h.fixture.Warehouses[0].ID, h.fixture.Variant.ID, 10, false)
	inv := h.paidInvoice(t, row, payment(enums.PaymentMethodCash, "112"))

	res, err := h.svc.PostInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, ReasonRevenueAccountMissing, res.Reason)
}

func TestUnmappedPaymentMethodDropsOnlyItsLine(t *testing.T) {
	h := newHarness(t)
	h.invoiceSetup(t, true)
	row := dbtest.Stock(t, h.db, h.fixture.Company.ID, h.fixture.Warehouses[0].ID, h.fixture.Variant.ID, 10, false)
	inv := h.paidInvoice(t, row, payment(enums.PaymentMethodCash, "100"), payment(enums.PaymentMethodGCash, "12"))

	res, err := h.svc.PostInvoice(context.Background(), inv.ID)
	require.NoError(t, err)

	assert.Contains(t, h.logs.String(), "payment line left out of invoice posting")
	assert.Contains(t, h.logs.String(), `"payment_method":"gcash"`)
	// the remaining lines no longer balance, so nothing is written
	assert.Equal(t, enums.PostingOutcomeSkipped, res.Outcome)
	assert.Equal(t, ReasonUnbalanced, res.Reason)
	assert.Zero(t, h.entryCount(t))
}

func TestDraftInvoiceIsNotPosted(t *testing.T) {
	h := newHarness(t)
	h.invoiceSetup(t, true)
	row := dbtest.Stock(t, h.db, h.fixture.Company.ID, h.fixture.Warehouses[0].ID, h.fixture.Variant.ID, 10, false)
	inv := h.paidInvoice(t, row, payment(enums.PaymentMethodCash, "112"))
	require.NoError(t, h.db.Model(&models.Invoice{}).Where("id = ?", inv.ID).Update("status", enums.InvoiceStatusDraft).Error)

	res, err := h.svc.PostInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, ReasonNotFullyPaid, res.Reason)
}

func TestPostMissingDocument(t *testing.T) {
	h := newHarness(t)
	res, err := h.svc.PostInvoice(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Equal(t, enums.PostingOutcome(""), res.Outcome)
}

// racingRepo hides the existing entry from the first lookup, as if another
// worker wrote it between the check and the insert.
type racingRepo struct {
	Repository
	hidden bool
}

func (r *racingRepo) WithTx(tx *gorm.DB) Repository {
	return &racingRepo{Repository: r.Repository.WithTx(tx), hidden: true}
}

func (r *racingRepo) FindBySource(ctx context.Context, companyID uint, src enums.JournalSourceType, ref string) (*models.JournalEntry, error) {
	if !r.hidden {
		r.hidden = true
		return nil, nil
	}
	return r.Repository.FindBySource(ctx, companyID, src, ref)
}

func TestUniqueIndexCatchesConcurrentPosting(t *testing.T) {
	var racing *racingRepo
	h := newHarness(t, func(p *ServiceParams) {
		racing = &racingRepo{Repository: p.Repo, hidden: true}
		p.Repo = racing
	})
	utilities := h.account(t, "6100", "Utilities Expense", enums.AccountTypeExpense)
	cash := h.account(t, "1010", "Cash on Hand", enums.AccountTypeAsset)
	h.paymentMethod(t, enums.PaymentMethodCash, &cash.ID)
	category := h.category(t, "Utilities", nil, &utilities.ID)
	expense := h.expense(t, "KAN-EXP-000001", category.ID, enums.PaymentMethodCash, "10")

	first, err := h.svc.PostExpense(context.Background(), expense.ID)
	require.NoError(t, err)
	require.Equal(t, enums.PostingOutcomePosted, first.Outcome)

	racing.hidden = false
	second, err := h.svc.PostExpense(context.Background(), expense.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PostingOutcomeDuplicate, second.Outcome)
	require.NotNil(t, second.Entry)
	assert.Equal(t, first.Entry.ID, second.Entry.ID)
	assert.EqualValues(t, 1, h.entryCount(t))
}

type fakeLock struct{ released *int }

func (l fakeLock) Release(context.Context) error {
	*l.released++
	return nil
}

type fakeLocker struct {
	keys     []string
	released int
	err      error
}

func (f *fakeLocker) Obtain(_ context.Context, key string, _ time.Duration) (pkgredis.Releaser, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.keys = append(f.keys, key)
	return fakeLock{released: &f.released}, nil
}

func (f *fakeLocker) TryObtain(ctx context.Context, key string, ttl time.Duration) (pkgredis.Releaser, error) {
	return f.Obtain(ctx, key, ttl)
}

func TestPostingHoldsLockPerDocument(t *testing.T) {
	locker := &fakeLocker{}
	h := newHarness(t, func(p *ServiceParams) { p.Locker = locker })
	category := h.category(t, "Misc", nil, nil)
	expense := h.expense(t, "KAN-EXP-000001", category.ID, enums.PaymentMethodCash, "10")

	_, err := h.svc.PostExpense(context.Background(), expense.ID)
	require.NoError(t, err)
	require.Len(t, locker.keys, 1)
	assert.Equal(t, "journal:expense:1:KAN-EXP-000001", locker.keys[0])
	assert.Equal(t, 1, locker.released)
}

func TestPostingFailsWhenLockUnavailable(t *testing.T) {
	locker := &fakeLocker{err: pkgredis.ErrLockNotObtained}
	h := newHarness(t, func(p *ServiceParams) { p.Locker = locker })
	category := h.category(t, "Misc", nil, nil)
	expense := h.expense(t, "KAN-EXP-000001", category.ID, enums.PaymentMethodCash, "10")

	res, err := h.svc.PostExpense(context.Background(), expense.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, pkgredis.ErrLockNotObtained))
	assert.Equal(t, enums.PostingOutcomeFailed, res.Outcome)
}

func TestCreateManual(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	cash := h.account(t, "1010", "Cash on Hand", enums.AccountTypeAsset)
	equity := h.account(t, "3000", "Owner Capital", enums.AccountTypeEquity)

	entry, err := h.svc.CreateManual(ctx, ManualEntryInput{
		CompanyID: h.fixture.Company.ID,
		Lines: []ManualLineInput{
			{AccountID: cash.ID, Debit: dec("1000")},
			{AccountID: equity.ID, Name: "Initial capital", Credit: dec("1000")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, enums.JournalSourceManual, entry.SourceType)
	assert.Equal(t, entry.Number, entry.ReferenceNumber)
	assert.Equal(t, "Cash on Hand", entry.Details[0].Name)
	assert.Equal(t, "Initial capital", entry.Details[1].Name)
	assert.True(t, entry.TotalDebit.Equal(dec("1000")))

	_, err = h.svc.CreateManual(ctx, ManualEntryInput{
		CompanyID:       h.fixture.Company.ID,
		ReferenceNumber: entry.ReferenceNumber,
		Lines: []ManualLineInput{
			{AccountID: cash.ID, Debit: dec("1")},
			{AccountID: equity.ID, Credit: dec("1")},
		},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestCreateManualRejectsBadLines(t *testing.T) {
	h := newHarness(t)
	cash := h.account(t, "1010", "Cash on Hand", enums.AccountTypeAsset)
	equity := h.account(t, "3000", "Owner Capital", enums.AccountTypeEquity)

	cases := []struct {
		name  string
		lines []ManualLineInput
		code  pkgerrors.Code
	}{
		{"unbalanced", []ManualLineInput{{AccountID: cash.ID, Debit: dec("10")}, {AccountID: equity.ID, Credit: dec("9")}}, pkgerrors.CodeUnbalancedEntry},
		{"both sides", []ManualLineInput{{AccountID: cash.ID, Debit: dec("10"), Credit: dec("10")}, {AccountID: equity.ID, Credit: dec("0")}}, pkgerrors.CodeValidation},
		{"empty line", []ManualLineInput{{AccountID: cash.ID}, {AccountID: equity.ID}}, pkgerrors.CodeValidation},
		{"negative", []ManualLineInput{{AccountID: cash.ID, Debit: dec("-5")}, {AccountID: equity.ID, Credit: dec("-5")}}, pkgerrors.CodeValidation},
		{"single line", []ManualLineInput{{AccountID: cash.ID, Debit: dec("10")}}, pkgerrors.CodeValidation},
		{"unknown account", []ManualLineInput{{AccountID: 999, Debit: dec("10")}, {AccountID: equity.ID, Credit: dec("10")}}, pkgerrors.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.svc.CreateManual(context.Background(), ManualEntryInput{CompanyID: h.fixture.Company.ID, Lines: tc.lines})
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, tc.code), "got %v", err)
		})
	}
	assert.Zero(t, h.entryCount(t))
}

func TestListPagesByCompany(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	cash := h.account(t, "1010", "Cash on Hand", enums.AccountTypeAsset)
	equity := h.account(t, "3000", "Owner Capital", enums.AccountTypeEquity)
	for i := 0; i < 3; i++ {
		_, err := h.svc.CreateManual(ctx, ManualEntryInput{
			CompanyID: h.fixture.Company.ID,
			Lines: []ManualLineInput{
				{AccountID: cash.ID, Debit: dec("1")},
				{AccountID: equity.ID, Credit: dec("1")},
			},
		})
		require.NoError(t, err)
	}

	page, err := h.svc.List(ctx, h.fixture.Company.ID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	require.NotEmpty(t, page.NextCursor)

	rest, err := h.svc.List(ctx, h.fixture.Company.ID, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	assert.Len(t, rest.Items, 1)
	assert.Empty(t, rest.NextCursor)

	other, err := h.svc.List(ctx, h.fixture.Company.ID+1, pagination.Params{})
	require.NoError(t, err)
	assert.Empty(t, other.Items)
}
