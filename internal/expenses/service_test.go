package expenses

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/stockledger-backend/internal/numbering"
	dbpkg "github.com/angelmondragon/stockledger-backend/pkg/db"
	"github.com/angelmondragon/stockledger-backend/pkg/db/dbtest"
	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"github.com/angelmondragon/stockledger-backend/pkg/outbox"
	"github.com/angelmondragon/stockledger-backend/pkg/outbox/payloads"
)

func newService(t *testing.T) (Service, dbtest.Fixture, models.ExpenseCategory) {
	t.Helper()
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db, "Kanto", 1)
	category := models.ExpenseCategory{CompanyID: f.Company.ID, Name: "Utilities"}
	require.NoError(t, db.Create(&category).Error)

	svc, err := NewService(ServiceParams{
		Repo:       NewRepository(db),
		Numbers:    numbering.NewGenerator(nil, nil),
		Outbox:     outbox.NewService(outbox.NewRepository(db), nil),
		Tx:         dbpkg.NewFromGorm(db),
		MaxRetries: 3,
	})
	require.NoError(t, err)
	return svc, f, category
}

func TestCreateExpense(t *testing.T) {
	svc, f, category := newService(t)
	ctx := context.Background()
	path := "receipts/2026/10/power.pdf"

	expense, events, err := svc.Create(ctx, CreateInput{
		CompanyID:     f.Company.ID,
		CategoryID:    category.ID,
		Payee:         " Meralco ",
		PaymentMethod: enums.PaymentMethodBankTransfer,
		Amount:        decimal.RequireFromString("1250.50"),
		ReceiptPath:   &path,
	})
	require.NoError(t, err)
	assert.Equal(t, "KAN-EXP-000001", expense.ReferenceNumber)
	assert.Equal(t, "Meralco", expense.Payee)
	assert.Equal(t, "PHP", expense.Currency)
	assert.Equal(t, path, *expense.ReceiptPath)
	assert.False(t, expense.ExpenseDate.IsZero())

	require.Len(t, events, 1)
	assert.Equal(t, enums.EventExpenseRecorded, events[0].EventType)
	data, ok := events[0].Data.(payloads.ExpenseRecordedEvent)
	require.True(t, ok)
	assert.Equal(t, expense.ID, data.ExpenseID)
	assert.Equal(t, "KAN-EXP-000001", data.ReferenceNumber)

	second, _, err := svc.Create(ctx, CreateInput{
		CompanyID:     f.Company.ID,
		CategoryID:    category.ID,
		Payee:         "PLDT",
		PaymentMethod: enums.PaymentMethodCash,
		Amount:        decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	assert.Equal(t, "KAN-EXP-000002", second.ReferenceNumber)

	got, err := svc.Get(ctx, expense.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("1250.5")))
}

func TestCreateExpenseValidation(t *testing.T) {
	svc, f, category := newService(t)
	valid := CreateInput{
		CompanyID:     f.Company.ID,
		CategoryID:    category.ID,
		Payee:         "Meralco",
		PaymentMethod: enums.PaymentMethodCash,
		Amount:        decimal.NewFromInt(1),
	}

	cases := map[string]func(in *CreateInput){
		"missing payee":   func(in *CreateInput) { in.Payee = "" },
		"bad method":      func(in *CreateInput) { in.PaymentMethod = "iou" },
		"zero amount":     func(in *CreateInput) { in.Amount = decimal.Zero },
		"no category":     func(in *CreateInput) { in.CategoryID = 0 },
		"missing company": func(in *CreateInput) { in.CompanyID = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := valid
			mutate(&in)
			_, _, err := svc.Create(context.Background(), in)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
		})
	}
}

func TestCreateExpenseUnknownCategory(t *testing.T) {
	svc, f, _ := newService(t)
	_, _, err := svc.Create(context.Background(), CreateInput{
		CompanyID:     f.Company.ID,
		CategoryID:    999,
		Payee:         "Meralco",
		PaymentMethod: enums.PaymentMethodCash,
		Amount:        decimal.NewFromInt(1),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
