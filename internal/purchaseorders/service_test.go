package purchaseorders

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockledger-backend/internal/goodsreceipts"
	"github.com/angelmondragon/stockledger-backend/internal/numbering"
	dbpkg "github.com/angelmondragon/stockledger-backend/pkg/db"
	"github.com/angelmondragon/stockledger-backend/pkg/db/dbtest"
	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"github.com/angelmondragon/stockledger-backend/pkg/outbox"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func newService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	numbers := numbering.NewGenerator(nil, nil)
	events := outbox.NewService(outbox.NewRepository(db), nil)
	creator, err := goodsreceipts.NewCreator(goodsreceipts.NewRepository(db), numbers, events)
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Repo:       NewRepository(db),
		Receipts:   creator,
		Numbers:    numbers,
		Outbox:     events,
		Tx:         dbpkg.NewFromGorm(db),
		MaxRetries: 3,
	})
	require.NoError(t, err)
	return svc
}

func createOrder(t *testing.T, svc Service, f dbtest.Fixture) *models.PurchaseOrder {
	t.Helper()
	order, err := svc.Create(context.Background(), CreateInput{
		CompanyID:    f.Company.ID,
		SupplierName: " Acme Supply ",
		WarehouseID:  f.Warehouses[0].ID,
		OrderDate:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		TaxRate:      dec("12"),
		ShippingCost: dec("15"),
		Details: []DetailInput{
			{ProductVariantID: f.Variant.ID, Qty: dec("10"), Price: dec("5.00")},
		},
	})
	require.NoError(t, err)
	return order
}

func TestCreateDerivesTotalsAndNumber(t *testing.T) {
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db, "Kanto", 1)
	svc := newService(t, db)

	order := createOrder(t, svc, f)

	assert.Equal(t, "KAN-PO-000001", order.Number)
	assert.Equal(t, enums.PurchaseOrderStatusDraft, order.Status)
	assert.Equal(t, "Acme Supply", order.SupplierName)
	assert.True(t, order.Subtotal.Equal(dec("50")))
	assert.True(t, order.TaxAmount.Equal(dec("6")))
	assert.True(t, order.Total.Equal(dec("71")))
	require.Len(t, order.Details, 1)
	assert.True(t, order.Details[0].Total.Equal(dec("50")))

	var events []models.OutboxEvent
	require.NoError(t, db.Where("aggregate_id = ? AND event_type = ?", order.ID, enums.EventPurchaseOrderCreated).Find(&events).Error)
	assert.Len(t, events, 1)

	second := createOrder(t, svc, f)
	assert.Equal(t, "KAN-PO-000002", second.Number)
}

func TestCreateValidatesInput(t *testing.T) {
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db, "Kanto", 1)
	svc := newService(t, db)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{CompanyID: f.Company.ID, SupplierName: "Acme", WarehouseID: f.Warehouses[0].ID})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Create(ctx, CreateInput{
		CompanyID:    f.Company.ID,
		SupplierName: "Acme",
		WarehouseID:  f.Warehouses[0].ID,
		Details:      []DetailInput{{ProductVariantID: f.Variant.ID, Qty: dec("0"), Price: dec("1")}},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Create(ctx, CreateInput{
		CompanyID:    f.Company.ID,
		SupplierName: "Acme",
		WarehouseID:  f.Warehouses[0].ID,
		Details:      []DetailInput{{ProductVariantID: 9999, Qty: dec("1"), Price: dec("1")}},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	var count int64
	require.NoError(t, db.Model(&models.PurchaseOrder{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestTransitionsFollowApprovalWorkflow(t *testing.T) {
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db, "Kanto", 1)
	svc := newService(t, db)
	ctx := context.Background()
	actor := outbox.ActorRef{UserID: 4, CompanyID: f.Company.ID}

	order := createOrder(t, svc, f)

	_, err := svc.Transition(ctx, order.ID, ActionApprove, actor)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	for _, action := range []Action{ActionSubmit, ActionApprove} {
		res, err := svc.Transition(ctx, order.ID, action, actor)
		require.NoError(t, err)
		assert.Nil(t, res.GoodsReceipt)
	}

	// repeating a transition is a no-op
	res, err := svc.Transition(ctx, order.ID, ActionApprove, actor)
	require.NoError(t, err)
	assert.Equal(t, enums.PurchaseOrderStatusApproved, res.Order.Status)

	res, err = svc.Transition(ctx, order.ID, ActionOrder, actor)
	require.NoError(t, err)
	assert.Equal(t, enums.PurchaseOrderStatusOrdered, res.Order.Status)
	require.NotNil(t, res.GoodsReceipt)
	assert.Equal(t, "KAN-GR-000001", res.GoodsReceipt.Number)
	assert.Equal(t, enums.GoodsReceiptStatusPending, res.GoodsReceipt.Status)
	require.NotNil(t, res.GoodsReceipt.Remarks)
	assert.Equal(t, "Auto-generated from PO: KAN-PO-000001", *res.GoodsReceipt.Remarks)

	var details []models.GoodsReceiptDetail
	require.NoError(t, db.Where("goods_receipt_id = ?", res.GoodsReceipt.ID).Find(&details).Error)
	require.Len(t, details, 1)
	assert.True(t, details[0].ExpectedQty.Equal(dec("10")))
	assert.True(t, details[0].ReceivedQty.IsZero())

	_, err = svc.Transition(ctx, order.ID, ActionCancel, actor)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	var changes int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).
		Where("aggregate_id = ? AND event_type = ?", order.ID, enums.EventPurchaseOrderStatusChanged).
		Count(&changes).Error)
	assert.EqualValues(t, 3, changes)
}

func TestRejectAndCancelAreTerminal(t *testing.T) {
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db, "Kanto", 1)
	svc := newService(t, db)
	ctx := context.Background()
	actor := outbox.ActorRef{CompanyID: f.Company.ID}

	rejected := createOrder(t, svc, f)
	_, err := svc.Transition(ctx, rejected.ID, ActionSubmit, actor)
	require.NoError(t, err)
	_, err = svc.Transition(ctx, rejected.ID, ActionReject, actor)
	require.NoError(t, err)
	_, err = svc.Transition(ctx, rejected.ID, ActionApprove, actor)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	cancelled := createOrder(t, svc, f)
	_, err = svc.Transition(ctx, cancelled.ID, ActionCancel, actor)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "draft orders cannot be cancelled")
	_, err = svc.Transition(ctx, cancelled.ID, ActionSubmit, actor)
	require.NoError(t, err)
	res, err := svc.Transition(ctx, cancelled.ID, ActionCancel, actor)
	require.NoError(t, err)
	assert.Equal(t, enums.PurchaseOrderStatusCancelled, res.Order.Status)

	_, err = svc.Transition(ctx, cancelled.ID, ActionReceive, actor)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestMarkReceivedIsIdempotent(t *testing.T) {
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db, "Kanto", 1)
	svc := newService(t, db)
	ctx := context.Background()
	actor := outbox.ActorRef{CompanyID: f.Company.ID}

	order := createOrder(t, svc, f)
	err := db.Transaction(func(tx *gorm.DB) error { return svc.MarkReceived(ctx, tx, order.ID) })
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	for _, action := range []Action{ActionSubmit, ActionApprove, ActionOrder} {
		_, err := svc.Transition(ctx, order.ID, action, actor)
		require.NoError(t, err)
	}
	for i := 0; i < 2; i++ {
		require.NoError(t, db.Transaction(func(tx *gorm.DB) error { return svc.MarkReceived(ctx, tx, order.ID) }))
	}

	got, err := svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PurchaseOrderStatusReceived, got.Status)
	require.Len(t, got.Details, 1)
}

func TestDeleteOnlyAllowsInactiveOrders(t *testing.T) {
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db, "Kanto", 1)
	svc := newService(t, db)
	ctx := context.Background()

	pending := createOrder(t, svc, f)
	_, err := svc.Transition(ctx, pending.ID, ActionSubmit, outbox.ActorRef{})
	require.NoError(t, err)
	err = svc.Delete(ctx, pending.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	draft := createOrder(t, svc, f)
	require.NoError(t, svc.Delete(ctx, draft.ID))
	_, err = svc.Get(ctx, draft.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	// soft-deleted orders still hold their number
	next := createOrder(t, svc, f)
	assert.Equal(t, "KAN-PO-000003", next.Number)
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction("order")
	require.NoError(t, err)
	assert.Equal(t, ActionOrder, a)

	_, err = ParseAction("receive")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = ParseAction("ship")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
