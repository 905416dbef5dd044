package transfers

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockledger-backend/internal/numbering"
	"github.com/angelmondragon/stockledger-backend/internal/serials"
	"github.com/angelmondragon/stockledger-backend/internal/stock"
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
	events := outbox.NewService(outbox.NewRepository(db), nil)
	ledger, err := stock.NewLedger(stock.NewRepository(db), events, nil)
	require.NoError(t, err)
	tracker, err := serials.NewTracker(serials.NewRepository(db))
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Repo:       NewRepository(db),
		Ledger:     ledger,
		Serials:    tracker,
		Numbers:    numbering.NewGenerator(nil, nil),
		Outbox:     events,
		Tx:         dbpkg.NewFromGorm(db),
		MaxRetries: 3,
	})
	require.NoError(t, err)
	return svc
}

func qtyOf(t *testing.T, db *gorm.DB, id uint) decimal.Decimal {
	t.Helper()
	var row models.WarehouseProduct
	require.NoError(t, db.First(&row, id).Error)
	return row.Qty
}

type serialFixture struct {
	f      dbtest.Fixture
	origin models.WarehouseProduct
}

func seedSerialStock(t *testing.T, db *gorm.DB, numbers ...string) serialFixture {
	t.Helper()
	f := dbtest.Seed(t, db, "Kanto", 2)
	variant := dbtest.Variant(t, db, f.Company.ID, "SKU-SER", true)
	origin := dbtest.Stock(t, db, f.Company.ID, f.Warehouses[0].ID, variant.ID, int64(len(numbers)), true)
	for _, n := range numbers {
		dbtest.Serial(t, db, origin, n)
	}
	return serialFixture{f: f, origin: origin}
}

func TestStoreValidatesWarehousesAndStock(t *testing.T) {
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db, "Kanto", 2)
	origin := dbtest.Stock(t, db, f.Company.ID, f.Warehouses[0].ID, f.Variant.ID, 5, false)
	svc := newService(t, db)
	ctx := context.Background()

	_, err := svc.Store(ctx, StoreInput{
		CompanyID:              f.Company.ID,
		OriginWarehouseID:      f.Warehouses[0].ID,
		DestinationWarehouseID: f.Warehouses[0].ID,
		Details:                []DetailInput{{OriginWarehouseProductID: origin.ID, Qty: dec("1")}},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Store(ctx, StoreInput{
		CompanyID:              f.Company.ID,
		OriginWarehouseID:      f.Warehouses[1].ID,
		DestinationWarehouseID: f.Warehouses[0].ID,
		Details:                []DetailInput{{OriginWarehouseProductID: origin.ID, Qty: dec("1")}},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "stock must belong to the origin warehouse")

	_, err = svc.Store(ctx, StoreInput{
		CompanyID:              f.Company.ID,
		OriginWarehouseID:      f.Warehouses[0].ID,
		DestinationWarehouseID: f.Warehouses[1].ID,
		Details:                []DetailInput{{OriginWarehouseProductID: origin.ID, Qty: dec("6")}},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))

	var count int64
	require.NoError(t, db.Model(&models.StockTransfer{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestStagedTransferLifecycle(t *testing.T) {
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db, "Kanto", 2)
	origin := dbtest.Stock(t, db, f.Company.ID, f.Warehouses[0].ID, f.Variant.ID, 8, false)
	svc := newService(t, db)
	ctx := context.Background()
	actor := outbox.ActorRef{UserID: 1, CompanyID: f.Company.ID}

	transfer, err := svc.Store(ctx, StoreInput{
		CompanyID:              f.Company.ID,
		OriginWarehouseID:      f.Warehouses[0].ID,
		DestinationWarehouseID: f.Warehouses[1].ID,
		Details:                []DetailInput{{OriginWarehouseProductID: origin.ID, Qty: dec("5")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "KAN-ST-000001", transfer.Number)
	assert.Equal(t, enums.StockTransferStatusPending, transfer.Status)
	require.Len(t, transfer.Details, 1)
	detail := transfer.Details[0]

	var destination models.WarehouseProduct
	require.NoError(t, db.First(&destination, detail.DestinationWarehouseProductID).Error)
	assert.Equal(t, f.Warehouses[1].ID, destination.WarehouseID)
	assert.True(t, destination.Qty.IsZero())
	assert.True(t, destination.Price.Equal(origin.Price))
	assert.True(t, qtyOf(t, db, origin.ID).Equal(dec("8")), "staged transfers only reserve")

	_, err = svc.Receive(ctx, ReceiveInput{DetailID: detail.ID, Qty: dec("1")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "pending transfers are not receivable")

	_, err = svc.Transition(ctx, transfer.ID, ActionApprove, actor)
	require.NoError(t, err)

	got, err := svc.Receive(ctx, ReceiveInput{DetailID: detail.ID, Qty: dec("2")})
	require.NoError(t, err)
	assert.Equal(t, enums.StockTransferStatusPartiallyReceived, got.Status)

	_, err = svc.Complete(ctx, transfer.ID, actor)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = svc.Receive(ctx, ReceiveInput{DetailID: detail.ID, Qty: dec("4")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeOverReceipt))

	got, err = svc.Receive(ctx, ReceiveInput{DetailID: detail.ID, Qty: dec("3")})
	require.NoError(t, err)
	assert.Equal(t, enums.StockTransferStatusFullyTransferred, got.Status)

	done, err := svc.Complete(ctx, transfer.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, enums.StockTransferStatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)
	assert.True(t, qtyOf(t, db, origin.ID).Equal(dec("3")))
	assert.True(t, qtyOf(t, db, destination.ID).Equal(dec("5")))

	// a second completion never moves stock again
	_, err = svc.Complete(ctx, transfer.ID, actor)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.True(t, qtyOf(t, db, origin.ID).Equal(dec("3")))
	assert.True(t, qtyOf(t, db, destination.ID).Equal(dec("5")))

	var completed int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).
		Where("aggregate_id = ? AND event_type = ?", transfer.ID, enums.EventStockTransferCompleted).
		Count(&completed).Error)
	assert.EqualValues(t, 1, completed)
}

func TestCompleteRollsBackEveryLineWhenOneFails(t *testing.T) {
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db, "Kanto", 2)
	second := dbtest.Variant(t, db, f.Company.ID, "SKU-002", false)
	first := dbtest.Stock(t, db, f.Company.ID, f.Warehouses[0].ID, f.Variant.ID, 5, false)
	drained := dbtest.Stock(t, db, f.Company.ID, f.Warehouses[0].ID, second.ID, 3, false)
	svc := newService(t, db)
	ctx := context.Background()
	actor := outbox.ActorRef{UserID: 1, CompanyID: f.Company.ID}

	transfer, err := svc.Store(ctx, StoreInput{
		CompanyID:              f.Company.ID,
		OriginWarehouseID:      f.Warehouses[0].ID,
		DestinationWarehouseID: f.Warehouses[1].ID,
		Details: []DetailInput{
			{OriginWarehouseProductID: first.ID, Qty: dec("2")},
			{OriginWarehouseProductID: drained.ID, Qty: dec("3")},
		},
	})
	require.NoError(t, err)
	require.Len(t, transfer.Details, 2)
	_, err = svc.Transition(ctx, transfer.ID, ActionApprove, actor)
	require.NoError(t, err)
	for _, d := range transfer.Details {
		_, err = svc.Receive(ctx, ReceiveInput{DetailID: d.ID, Qty: d.Qty})
		require.NoError(t, err)
	}

	// stock sold elsewhere between receipt and completion
	require.NoError(t, db.Model(&models.WarehouseProduct{}).Where("id = ?", drained.ID).Update("qty", dec("1")).Error)

	_, err = svc.Complete(ctx, transfer.ID, actor)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))

	assert.True(t, qtyOf(t, db, first.ID).Equal(dec("5")))
	assert.True(t, qtyOf(t, db, drained.ID).Equal(dec("1")))
	for _, d := range transfer.Details {
		assert.True(t, qtyOf(t, db, d.DestinationWarehouseProductID).IsZero())
	}

	var stored models.StockTransfer
	require.NoError(t, db.First(&stored, transfer.ID).Error)
	assert.Equal(t, enums.StockTransferStatusFullyTransferred, stored.Status)
	assert.Nil(t, stored.CompletedAt)

	var movements int64
	require.NoError(t, db.Model(&models.StockMovement{}).Count(&movements).Error)
	assert.Zero(t, movements)
}

func TestReviewTransitionsOnlyLeavePending(t *testing.T) {
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db, "Kanto", 2)
	origin := dbtest.Stock(t, db, f.Company.ID, f.Warehouses[0].ID, f.Variant.ID, 8, false)
	svc := newService(t, db)
	ctx := context.Background()

	store := func() *models.StockTransfer {
		tr, err := svc.Store(ctx, StoreInput{
			CompanyID:              f.Company.ID,
			OriginWarehouseID:      f.Warehouses[0].ID,
			DestinationWarehouseID: f.Warehouses[1].ID,
			Details:                []DetailInput{{OriginWarehouseProductID: origin.ID, Qty: dec("1")}},
		})
		require.NoError(t, err)
		return tr
	}

	rejected := store()
	got, err := svc.Transition(ctx, rejected.ID, ActionReject, outbox.ActorRef{})
	require.NoError(t, err)
	assert.Equal(t, enums.StockTransferStatusRejected, got.Status)
	_, err = svc.Transition(ctx, rejected.ID, ActionReject, outbox.ActorRef{})
	require.NoError(t, err, "same status is a no-op")
	_, err = svc.Transition(ctx, rejected.ID, ActionApprove, outbox.ActorRef{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	cancelled := store()
	_, err = svc.Transition(ctx, cancelled.ID, ActionApprove, outbox.ActorRef{})
	require.NoError(t, err)
	_, err = svc.Transition(ctx, cancelled.ID, ActionCancel, outbox.ActorRef{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = ParseAction("teleport")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestStoreImmediateMovesStockAtOnce(t *testing.T) {
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db, "Kanto", 2)
	origin := dbtest.Stock(t, db, f.Company.ID, f.Warehouses[0].ID, f.Variant.ID, 8, false)
	svc := newService(t, db)
	ctx := context.Background()

	transfer, err := svc.StoreImmediate(ctx, StoreInput{
		CompanyID:              f.Company.ID,
		OriginWarehouseID:      f.Warehouses[0].ID,
		DestinationWarehouseID: f.Warehouses[1].ID,
		Details:                []DetailInput{{OriginWarehouseProductID: origin.ID, Qty: dec("8")}},
	})
	require.NoError(t, err)
	assert.Equal(t, enums.StockTransferStatusCompleted, transfer.Status)
	assert.True(t, transfer.Details[0].TransferredQty.Equal(dec("8")))
	assert.True(t, qtyOf(t, db, origin.ID).IsZero())
	assert.True(t, qtyOf(t, db, transfer.Details[0].DestinationWarehouseProductID).Equal(dec("8")))

	var movements []models.StockMovement
	require.NoError(t, db.Where("source_id = ?", transfer.ID).Order("id").Find(&movements).Error)
	require.Len(t, movements, 2)
	assert.Equal(t, enums.StockMovementTransferOut, movements[0].Reason)
	assert.Equal(t, enums.StockMovementTransferIn, movements[1].Reason)

	_, err = svc.StoreImmediate(ctx, StoreInput{
		CompanyID:              f.Company.ID,
		OriginWarehouseID:      f.Warehouses[0].ID,
		DestinationWarehouseID: f.Warehouses[1].ID,
		Details:                []DetailInput{{OriginWarehouseProductID: origin.ID, Qty: dec("1"), Serials: []string{"SN"}}},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestValidateSerialChecksInOrder(t *testing.T) {
	db := dbtest.Open(t)
	sf := seedSerialStock(t, db, "SN-1", "SN-2", "SN-3")
	svc := newService(t, db)
	ctx := context.Background()
	f := sf.f

	transfer, err := svc.Store(ctx, StoreInput{
		CompanyID:              f.Company.ID,
		OriginWarehouseID:      f.Warehouses[0].ID,
		DestinationWarehouseID: f.Warehouses[1].ID,
		Details:                []DetailInput{{OriginWarehouseProductID: sf.origin.ID, Qty: dec("1"), Serials: []string{"SN-1"}}},
	})
	require.NoError(t, err)

	check, err := svc.ValidateSerial(ctx, transfer.ID, sf.origin.ID, "SN-1")
	require.NoError(t, err)
	assert.Equal(t, SerialValidation{Reason: ReasonNotReceivable}, check)

	_, err = svc.Transition(ctx, transfer.ID, ActionApprove, outbox.ActorRef{})
	require.NoError(t, err)

	check, err = svc.ValidateSerial(ctx, transfer.ID, sf.origin.ID, "SN-404")
	require.NoError(t, err)
	assert.Equal(t, ReasonNotAtOrigin, check.Reason)

	check, err = svc.ValidateSerial(ctx, transfer.ID, sf.origin.ID, "SN-2")
	require.NoError(t, err)
	assert.Equal(t, ReasonNotInManifest, check.Reason)

	check, err = svc.ValidateSerial(ctx, transfer.ID, sf.origin.ID, "SN-1")
	require.NoError(t, err)
	assert.Equal(t, SerialValidation{Valid: true}, check)

	// a second active transfer cannot claim SN-1
	_, err = svc.Store(ctx, StoreInput{
		CompanyID:              f.Company.ID,
		OriginWarehouseID:      f.Warehouses[0].ID,
		DestinationWarehouseID: f.Warehouses[1].ID,
		Details:                []DetailInput{{OriginWarehouseProductID: sf.origin.ID, Qty: dec("1"), Serials: []string{"SN-1"}}},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeSerialConflict))

	// a claim made on the manifest outside Store still short-circuits the last check
	other := models.StockTransfer{
		CompanyID:              f.Company.ID,
		Number:                 "KAN-ST-900000",
		OriginWarehouseID:      f.Warehouses[0].ID,
		DestinationWarehouseID: f.Warehouses[1].ID,
		Status:                 enums.StockTransferStatusApproved,
	}
	require.NoError(t, db.Create(&other).Error)
	var unit models.WarehouseProductSerial
	require.NoError(t, db.Where("serial_number = ?", "SN-1").First(&unit).Error)
	require.NoError(t, db.Create(&models.StockTransferSerial{
		StockTransferID:          other.ID,
		StockTransferDetailID:    999,
		WarehouseProductSerialID: unit.ID,
		SerialNumber:             "SN-1",
	}).Error)

	check, err = svc.ValidateSerial(ctx, transfer.ID, sf.origin.ID, "SN-1")
	require.NoError(t, err)
	assert.Equal(t, ReasonClaimedByOther, check.Reason)

	_, err = svc.ValidateSerial(ctx, 9999, sf.origin.ID, "SN-1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestSerialTransferMovesUnitsOnComplete(t *testing.T) {
	db := dbtest.Open(t)
	sf := seedSerialStock(t, db, "SN-1", "SN-2", "SN-3")
	svc := newService(t, db)
	ctx := context.Background()
	f := sf.f

	_, err := svc.Store(ctx, StoreInput{
		CompanyID:              f.Company.ID,
		OriginWarehouseID:      f.Warehouses[0].ID,
		DestinationWarehouseID: f.Warehouses[1].ID,
		Details:                []DetailInput{{OriginWarehouseProductID: sf.origin.ID, Qty: dec("2"), Serials: []string{"SN-1"}}},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "serialized lines need one serial per unit")

	transfer, err := svc.Store(ctx, StoreInput{
		CompanyID:              f.Company.ID,
		OriginWarehouseID:      f.Warehouses[0].ID,
		DestinationWarehouseID: f.Warehouses[1].ID,
		Details:                []DetailInput{{OriginWarehouseProductID: sf.origin.ID, Qty: dec("2"), Serials: []string{"SN-1", "SN-2"}}},
	})
	require.NoError(t, err)
	_, err = svc.Transition(ctx, transfer.ID, ActionApprove, outbox.ActorRef{})
	require.NoError(t, err)
	detail := transfer.Details[0]

	_, err = svc.Receive(ctx, ReceiveInput{DetailID: detail.ID, Qty: dec("1")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Receive(ctx, ReceiveInput{DetailID: detail.ID, SerialNumbers: []string{"SN-3"}})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeSerialConflict))
	assert.Equal(t, ReasonNotInManifest, pkgerrors.As(err).Message())

	_, err = svc.Receive(ctx, ReceiveInput{DetailID: detail.ID, SerialNumbers: []string{"SN-1"}})
	require.NoError(t, err)
	_, err = svc.Receive(ctx, ReceiveInput{DetailID: detail.ID, SerialNumbers: []string{"SN-1"}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeSerialConflict))
	got, err := svc.Receive(ctx, ReceiveInput{DetailID: detail.ID, SerialNumbers: []string{"SN-2"}})
	require.NoError(t, err)
	assert.Equal(t, enums.StockTransferStatusFullyTransferred, got.Status)

	_, err = svc.Complete(ctx, transfer.ID, outbox.ActorRef{})
	require.NoError(t, err)

	var moved []models.WarehouseProductSerial
	require.NoError(t, db.Where("warehouse_product_id = ?", detail.DestinationWarehouseProductID).Order("serial_number").Find(&moved).Error)
	require.Len(t, moved, 2)
	assert.Equal(t, "SN-1", moved[0].SerialNumber)

	var destination models.WarehouseProduct
	require.NoError(t, db.First(&destination, detail.DestinationWarehouseProductID).Error)
	assert.True(t, destination.HasSerials)
	assert.True(t, destination.Qty.Equal(dec("2")))
	assert.True(t, qtyOf(t, db, sf.origin.ID).Equal(dec("1")))

	var claims int64
	require.NoError(t, db.Model(&models.StockTransferSerial{}).Where("moved = ?", false).Count(&claims).Error)
	assert.Zero(t, claims)
}
