package goodsreceipts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockledger-backend/internal/repo"
	"github.com/angelmondragon/stockledger-backend/internal/serials"
	"github.com/angelmondragon/stockledger-backend/internal/stock"
	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"github.com/angelmondragon/stockledger-backend/pkg/outbox"
	"github.com/angelmondragon/stockledger-backend/pkg/outbox/payloads"
)

const sourceType = "goods_receipt"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type stockLedger interface {
	ReceiveAtCost(ctx context.Context, tx *gorm.DB, input stock.ReceiveInput) (*models.WarehouseProduct, error)
}

type serialTracker interface {
	EnsureAvailable(ctx context.Context, tx *gorm.DB, productVariantID uint, serialNumber string) error
	Attach(ctx context.Context, tx *gorm.DB, row *models.WarehouseProduct, inputs []serials.Input) ([]models.WarehouseProductSerial, error)
}

type purchaseOrderReceiver interface {
	MarkReceived(ctx context.Context, tx *gorm.DB, id uint) error
}

// Service drives a goods receipt from the receiving dock into warehouse stock.
type Service interface {
	Get(ctx context.Context, id uint) (*models.GoodsReceipt, error)
	Receive(ctx context.Context, input ReceiveInput) (*ReceiveResult, error)
	Return(ctx context.Context, input ReturnInput) (*models.GoodsReceiptDetail, error)
	DeleteSerial(ctx context.Context, serialID uint) (*models.GoodsReceiptDetail, error)
	Transfer(ctx context.Context, goodsReceiptID uint, actor outbox.ActorRef) (*models.GoodsReceipt, error)
}

type ReceiveInput struct {
	DetailID uint
	Qty      decimal.Decimal
	Notes    *string
	Serials  []serials.Input
}

type ReturnInput struct {
	DetailID uint
	Qty      decimal.Decimal
	Notes    *string
}

// SerialError reports why the serial at Index was not recorded.
type SerialError struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

// RecordedSerial is a serial accepted onto the receiving dock.
type RecordedSerial struct {
	Index  int    `json:"index"`
	Serial string `json:"serial"`
}

type ReceiveResult struct {
	Detail   *models.GoodsReceiptDetail `json:"detail"`
	Status   enums.GoodsReceiptStatus   `json:"status"`
	Recorded []RecordedSerial           `json:"recorded"`
	Errors   []SerialError              `json:"errors"`
}

type ServiceParams struct {
	Repo           Repository
	Ledger         stockLedger
	Serials        serialTracker
	PurchaseOrders purchaseOrderReceiver
	Outbox         outboxPublisher
	Tx             txRunner
}

type service struct {
	repo   Repository
	ledger stockLedger
	serial serialTracker
	orders purchaseOrderReceiver
	outbox outboxPublisher
	tx     txRunner
	now    func() time.Time
}

func NewService(p ServiceParams) (Service, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("goods receipt repository required")
	}
	if p.Ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if p.Serials == nil {
		return nil, fmt.Errorf("serial tracker required")
	}
	if p.PurchaseOrders == nil {
		return nil, fmt.Errorf("purchase order receiver required")
	}
	if p.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if p.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:   p.Repo,
		ledger: p.Ledger,
		serial: p.Serials,
		orders: p.PurchaseOrders,
		outbox: p.Outbox,
		tx:     p.Tx,
		now:    time.Now,
	}, nil
}

func (s *service) Get(ctx context.Context, id uint) (*models.GoodsReceipt, error) {
	receipt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repo.MapError(err, "goods receipt")
	}
	return receipt, nil
}

// Receive books arriving quantity against a receipt line. Serials are
// validated one at a time: each one that passes is recorded, each one that
// fails is reported, and the line's received quantity grows by the number
// recorded.
func (s *service) Receive(ctx context.Context, input ReceiveInput) (*ReceiveResult, error) {
	hasSerials := len(input.Serials) > 0
	if !hasSerials && input.Qty.LessThan(decimal.NewFromInt(1)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "qty must be at least 1")
	}
	if hasSerials && !input.Qty.IsZero() && !input.Qty.Equal(decimal.NewFromInt(int64(len(input.Serials)))) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "qty must match the number of serials")
	}

	var result *ReceiveResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		detail, receipt, err := s.lockLine(ctx, txRepo, input.DetailID)
		if err != nil {
			return err
		}

		variant, err := txRepo.FindVariant(ctx, detail.ProductVariantID)
		if err != nil {
			return repo.MapError(err, "product variant")
		}
		if variant.HasSerials && !hasSerials {
			return pkgerrors.New(pkgerrors.CodeValidation, "serials are required for serialized products")
		}

		requested := input.Qty
		if hasSerials {
			requested = decimal.NewFromInt(int64(len(input.Serials)))
		}
		if err := checkOverReceipt(detail, requested); err != nil {
			return err
		}

		result = &ReceiveResult{Recorded: []RecordedSerial{}, Errors: []SerialError{}}
		accepted := requested
		if hasSerials {
			accepted = decimal.Zero
			for i, in := range input.Serials {
				row, err := s.recordSerial(ctx, tx, detail, in)
				if err != nil {
					result.Errors = append(result.Errors, SerialError{Index: i, Message: messageOf(err)})
					continue
				}
				detail.Serials = append(detail.Serials, *row)
				result.Recorded = append(result.Recorded, RecordedSerial{Index: i, Serial: row.SerialNumber})
				accepted = accepted.Add(decimal.NewFromInt(1))
			}
			if accepted.IsZero() {
				return pkgerrors.New(pkgerrors.CodeValidation, "No serials were recorded").
					WithDetails(map[string]any{"errors": result.Errors})
			}
		}

		detail.ReceivedQty = detail.ReceivedQty.Add(accepted)
		if input.Notes != nil {
			detail.Notes = input.Notes
		}
		status, err := s.saveLine(ctx, tx, receipt, detail, accepted, input.Notes)
		if err != nil {
			return err
		}
		result.Detail = detail
		result.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// recordSerial stores one dock serial inside a savepoint so a failure leaves
// the rest of the batch intact.
func (s *service) recordSerial(ctx context.Context, tx *gorm.DB, detail *models.GoodsReceiptDetail, in serials.Input) (*models.GoodsReceiptSerial, error) {
	number, err := serials.Normalize(in.SerialNumber)
	if err != nil {
		return nil, err
	}
	if err := serials.ValidateDates(in.ManufacturedAt, in.ExpiresAt); err != nil {
		return nil, err
	}
	row := &models.GoodsReceiptSerial{
		GoodsReceiptDetailID: detail.ID,
		ProductVariantID:     detail.ProductVariantID,
		SerialNumber:         number,
		BatchNumber:          in.BatchNumber,
		ManufacturedAt:       in.ManufacturedAt,
		ExpiresAt:            in.ExpiresAt,
	}
	err = tx.Transaction(func(sp *gorm.DB) error {
		if err := s.serial.EnsureAvailable(ctx, sp, detail.ProductVariantID, number); err != nil {
			return err
		}
		if err := s.repo.WithTx(sp).CreateSerial(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeSerialConflict, err, fmt.Sprintf("Serial number '%s' is already in use for this product", number))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (s *service) Return(ctx context.Context, input ReturnInput) (*models.GoodsReceiptDetail, error) {
	if input.Qty.LessThan(decimal.NewFromInt(1)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "qty must be at least 1")
	}
	var out *models.GoodsReceiptDetail
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		detail, receipt, err := s.lockLine(ctx, s.repo.WithTx(tx), input.DetailID)
		if err != nil {
			return err
		}
		if input.Qty.GreaterThan(detail.ReceivedQty) {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("Cannot return more than the received quantity of %s", detail.ReceivedQty.String()))
		}
		if len(detail.Serials) > 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "Serialized lines are returned by removing their serials")
		}
		detail.ReceivedQty = detail.ReceivedQty.Sub(input.Qty)
		if input.Notes != nil {
			detail.Notes = input.Notes
		}
		if _, err := s.saveLine(ctx, tx, receipt, detail, input.Qty.Neg(), input.Notes); err != nil {
			return err
		}
		out = detail
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) DeleteSerial(ctx context.Context, serialID uint) (*models.GoodsReceiptDetail, error) {
	var out *models.GoodsReceiptDetail
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		serial, err := txRepo.FindSerialForUpdate(ctx, serialID)
		if err != nil {
			return repo.MapError(err, "goods receipt serial")
		}
		if serial.IsTransferred {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "Serial has already been moved into the warehouse")
		}
		detail, receipt, err := s.lockLine(ctx, txRepo, serial.GoodsReceiptDetailID)
		if err != nil {
			return err
		}
		if err := txRepo.DeleteSerial(ctx, serialID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete goods receipt serial")
		}
		one := decimal.NewFromInt(1)
		if detail.ReceivedQty.GreaterThanOrEqual(one) {
			detail.ReceivedQty = detail.ReceivedQty.Sub(one)
		}
		kept := detail.Serials[:0]
		for _, sr := range detail.Serials {
			if sr.ID != serialID {
				kept = append(kept, sr)
			}
		}
		detail.Serials = kept
		if _, err := s.saveLine(ctx, tx, receipt, detail, one.Neg(), nil); err != nil {
			return err
		}
		out = detail
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Transfer moves a fully received receipt into warehouse stock and closes the
// purchase order. Either every line lands or nothing changes.
func (s *service) Transfer(ctx context.Context, goodsReceiptID uint, actor outbox.ActorRef) (*models.GoodsReceipt, error) {
	var out *models.GoodsReceipt
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		receipt, err := txRepo.FindForUpdate(ctx, goodsReceiptID)
		if err != nil {
			return repo.MapError(err, "goods receipt")
		}
		if receipt.Status == enums.GoodsReceiptStatusInWarehouse {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "Goods receipt is already in the warehouse")
		}
		if !fullyReceived(receipt.Details) {
			return pkgerrors.New(pkgerrors.CodeIncompleteReceipt, "All items must be fully received before transfer")
		}

		prices, err := txRepo.PurchaseOrderPrices(ctx, receipt.PurchaseOrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase order prices")
		}

		detailIDs := make([]uint, 0, len(receipt.Details))
		for _, d := range receipt.Details {
			detailIDs = append(detailIDs, d.ID)
		}
		// dock serials are released before attaching their warehouse copies
		if err := txRepo.MarkSerialsTransferred(ctx, detailIDs); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release receiving serials")
		}

		source := stock.Source{Type: sourceType, ID: receipt.ID, Reference: receipt.Number}
		for i := range receipt.Details {
			d := &receipt.Details[i]
			price, ok := prices[d.PurchaseOrderDetailID]
			if !ok {
				price = d.UnitCost
			}
			if len(d.Serials) > 0 && !decimal.NewFromInt(int64(len(d.Serials))).Equal(d.ReceivedQty) {
				return pkgerrors.New(pkgerrors.CodeIncompleteReceipt,
					fmt.Sprintf("Line %d has %d serials for a received quantity of %s", d.ID, len(d.Serials), d.ReceivedQty.String()))
			}
			row, err := s.ledger.ReceiveAtCost(ctx, tx, stock.ReceiveInput{
				WarehouseID:      receipt.WarehouseID,
				ProductVariantID: d.ProductVariantID,
				Qty:              d.ReceivedQty,
				UnitCost:         price,
				Source:           source,
				Defaults: stock.Defaults{
					CompanyID:   receipt.CompanyID,
					Price:       price,
					LastCost:    price,
					AverageCost: price,
					HasSerials:  len(d.Serials) > 0,
				},
			})
			if err != nil {
				return err
			}
			if len(d.Serials) == 0 {
				continue
			}
			inputs := make([]serials.Input, 0, len(d.Serials))
			for _, sr := range d.Serials {
				inputs = append(inputs, serials.Input{
					SerialNumber:   sr.SerialNumber,
					BatchNumber:    sr.BatchNumber,
					ManufacturedAt: sr.ManufacturedAt,
					ExpiresAt:      sr.ExpiresAt,
				})
			}
			if _, err := s.serial.Attach(ctx, tx, row, inputs); err != nil {
				return err
			}
		}

		at := s.now().UTC()
		if err := txRepo.UpdateStatus(ctx, receipt.ID, enums.GoodsReceiptStatusInWarehouse, &at); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update goods receipt status")
		}
		receipt.Status = enums.GoodsReceiptStatusInWarehouse
		receipt.TransferredAt = &at

		if err := s.orders.MarkReceived(ctx, tx, receipt.PurchaseOrderID); err != nil {
			return err
		}

		if actor.CompanyID == 0 {
			actor.CompanyID = receipt.CompanyID
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventGoodsReceiptTransferred,
			AggregateType: enums.AggregateGoodsReceipt,
			AggregateID:   receipt.ID,
			Actor:         &actor,
			Data: payloads.GoodsReceiptTransferredEvent{
				GoodsReceiptID:  receipt.ID,
				PurchaseOrderID: receipt.PurchaseOrderID,
				CompanyID:       receipt.CompanyID,
				WarehouseID:     receipt.WarehouseID,
				Number:          receipt.Number,
				TransferredAt:   at,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit goods receipt transferred")
		}
		out = receipt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// lockLine loads a detail and its receipt for update and rejects receipts
// that have already moved into the warehouse.
func (s *service) lockLine(ctx context.Context, txRepo Repository, detailID uint) (*models.GoodsReceiptDetail, *models.GoodsReceipt, error) {
	detail, err := txRepo.FindDetailForUpdate(ctx, detailID)
	if err != nil {
		return nil, nil, repo.MapError(err, "goods receipt detail")
	}
	receipt, err := txRepo.FindForUpdate(ctx, detail.GoodsReceiptID)
	if err != nil {
		return nil, nil, repo.MapError(err, "goods receipt")
	}
	if receipt.Status == enums.GoodsReceiptStatusInWarehouse {
		return nil, nil, pkgerrors.New(pkgerrors.CodeStateConflict, "Goods receipt is already in the warehouse")
	}
	for i := range receipt.Details {
		if receipt.Details[i].ID == detail.ID {
			return &receipt.Details[i], receipt, nil
		}
	}
	return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "goods receipt detail not found")
}

// saveLine persists a line's received quantity, re-derives the receipt status
// from all lines and emits the received event.
func (s *service) saveLine(ctx context.Context, tx *gorm.DB, receipt *models.GoodsReceipt, detail *models.GoodsReceiptDetail, delta decimal.Decimal, notes *string) (enums.GoodsReceiptStatus, error) {
	txRepo := s.repo.WithTx(tx)
	if err := txRepo.UpdateDetail(ctx, detail.ID, detail.ReceivedQty, notes); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update goods receipt detail")
	}
	status := DeriveStatus(receipt.Details, receipt.Status)
	if status != receipt.Status {
		if err := txRepo.UpdateStatus(ctx, receipt.ID, status, nil); err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update goods receipt status")
		}
		receipt.Status = status
	}
	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventGoodsReceiptReceived,
		AggregateType: enums.AggregateGoodsReceipt,
		AggregateID:   receipt.ID,
		Actor:         &outbox.ActorRef{CompanyID: receipt.CompanyID},
		Data: payloads.GoodsReceiptReceivedEvent{
			GoodsReceiptID: receipt.ID,
			DetailID:       detail.ID,
			Delta:          delta,
			ReceivedQty:    detail.ReceivedQty,
			Status:         status,
		},
	}); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit goods receipt received")
	}
	return status, nil
}

func checkOverReceipt(detail *models.GoodsReceiptDetail, qty decimal.Decimal) error {
	next := detail.ReceivedQty.Add(qty)
	if next.GreaterThan(detail.ExpectedQty) {
		return pkgerrors.New(pkgerrors.CodeOverReceipt,
			fmt.Sprintf("Cannot receive %s: only %s of %s remain outstanding",
				qty.String(), detail.ExpectedQty.Sub(detail.ReceivedQty).String(), detail.ExpectedQty.String())).
			WithDetails(map[string]any{
				"expected_qty": detail.ExpectedQty,
				"received_qty": detail.ReceivedQty,
				"requested":    qty,
			})
	}
	return nil
}

func messageOf(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Message()
	}
	return strings.TrimSpace(err.Error())
}
