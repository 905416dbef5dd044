package transfers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockledger-backend/internal/numbering"
	"github.com/angelmondragon/stockledger-backend/internal/repo"
	"github.com/angelmondragon/stockledger-backend/internal/stock"
	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"github.com/angelmondragon/stockledger-backend/pkg/outbox"
	"github.com/angelmondragon/stockledger-backend/pkg/outbox/payloads"
)

const sourceType = "stock_transfer"

// Reasons returned by ValidateSerial, in check order.
const (
	ReasonNotReceivable  = "Transfer is not in a receivable status"
	ReasonNotAtOrigin    = "Serial number not found or already sold at origin"
	ReasonNotInManifest  = "Serial number is not part of this transfer"
	ReasonClaimedByOther = "Serial number is claimed by another active transfer"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type numberGenerator interface {
	Next(ctx context.Context, tx *gorm.DB, companyID uint, doc enums.DocumentType) (string, error)
}

type stockLedger interface {
	FindOrCreate(ctx context.Context, tx *gorm.DB, warehouseID, productVariantID uint, defaults stock.Defaults) (*models.WarehouseProduct, error)
	AdjustByID(ctx context.Context, tx *gorm.DB, warehouseProductID uint, delta decimal.Decimal, reason enums.StockMovementReason, source stock.Source) (*models.WarehouseProduct, error)
}

type serialMover interface {
	Reassign(ctx context.Context, tx *gorm.DB, serialIDs []uint, destinationWarehouseProductID uint) error
}

// Service moves stock between two warehouses of a company. Staged transfers
// check origin stock at creation and move quantity on Complete, where the
// origin is checked again; immediate transfers move it at creation.
type Service interface {
	Store(ctx context.Context, input StoreInput) (*models.StockTransfer, error)
	StoreImmediate(ctx context.Context, input StoreInput) (*models.StockTransfer, error)
	Get(ctx context.Context, id uint) (*models.StockTransfer, error)
	Transition(ctx context.Context, id uint, action Action, actor outbox.ActorRef) (*models.StockTransfer, error)
	ValidateSerial(ctx context.Context, transferID, warehouseProductID uint, serialNumber string) (SerialValidation, error)
	Receive(ctx context.Context, input ReceiveInput) (*models.StockTransfer, error)
	Complete(ctx context.Context, transferID uint, actor outbox.ActorRef) (*models.StockTransfer, error)
}

type StoreInput struct {
	CompanyID              uint
	ActorUserID            uint
	OriginWarehouseID      uint
	DestinationWarehouseID uint
	TransferDate           time.Time
	Remarks                *string
	Details                []DetailInput
}

type DetailInput struct {
	OriginWarehouseProductID uint
	Qty                      decimal.Decimal
	Serials                  []string
}

type ReceiveInput struct {
	DetailID      uint
	Qty           decimal.Decimal
	SerialNumbers []string
}

// SerialValidation is the outcome of ValidateSerial. Reason is set when Valid is false.
type SerialValidation struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

type ServiceParams struct {
	Repo       Repository
	Ledger     stockLedger
	Serials    serialMover
	Numbers    numberGenerator
	Outbox     outboxPublisher
	Tx         txRunner
	MaxRetries int
}

type service struct {
	repo       Repository
	ledger     stockLedger
	serials    serialMover
	numbers    numberGenerator
	outbox     outboxPublisher
	tx         txRunner
	maxRetries int
	now        func() time.Time
}

func NewService(p ServiceParams) (Service, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("stock transfer repository required")
	}
	if p.Ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if p.Serials == nil {
		return nil, fmt.Errorf("serial tracker required")
	}
	if p.Numbers == nil {
		return nil, fmt.Errorf("number generator required")
	}
	if p.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if p.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:       p.Repo,
		ledger:     p.Ledger,
		serials:    p.Serials,
		numbers:    p.Numbers,
		outbox:     p.Outbox,
		tx:         p.Tx,
		maxRetries: p.MaxRetries,
		now:        time.Now,
	}, nil
}

func (s *service) Get(ctx context.Context, id uint) (*models.StockTransfer, error) {
	transfer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repo.MapError(err, "stock transfer")
	}
	return transfer, nil
}

func (s *service) Store(ctx context.Context, input StoreInput) (*models.StockTransfer, error) {
	return s.store(ctx, input, false)
}

// StoreImmediate creates a transfer without serials and moves its quantity in
// the same transaction.
func (s *service) StoreImmediate(ctx context.Context, input StoreInput) (*models.StockTransfer, error) {
	for i, d := range input.Details {
		if len(d.Serials) > 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("details[%d]: immediate transfers cannot carry serials", i))
		}
	}
	return s.store(ctx, input, true)
}

func (s *service) store(ctx context.Context, input StoreInput, immediate bool) (*models.StockTransfer, error) {
	if err := validateStore(input); err != nil {
		return nil, err
	}

	var created *models.StockTransfer
	err := numbering.WithRetry(ctx, s.maxRetries, func(int) error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			transfer, err := s.stage(ctx, tx, input, immediate)
			if err != nil {
				return err
			}
			if immediate {
				if err := s.move(ctx, tx, transfer); err != nil {
					return err
				}
			}

			actor := &outbox.ActorRef{UserID: input.ActorUserID, CompanyID: input.CompanyID}
			if err := s.emit(ctx, tx, transfer, enums.EventStockTransferCreated, actor, payloads.StockTransferCreatedEvent{
				StockTransferID:        transfer.ID,
				CompanyID:              transfer.CompanyID,
				Number:                 transfer.Number,
				OriginWarehouseID:      transfer.OriginWarehouseID,
				DestinationWarehouseID: transfer.DestinationWarehouseID,
				Status:                 transfer.Status,
			}); err != nil {
				return err
			}
			if immediate {
				if err := s.emitCompleted(ctx, tx, transfer, actor); err != nil {
					return err
				}
			}
			created = transfer
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func validateStore(input StoreInput) error {
	if input.CompanyID == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "company is required")
	}
	if input.OriginWarehouseID == 0 || input.DestinationWarehouseID == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "origin and destination warehouses are required")
	}
	if input.OriginWarehouseID == input.DestinationWarehouseID {
		return pkgerrors.New(pkgerrors.CodeValidation, "Destination warehouse must differ from the origin warehouse")
	}
	if len(input.Details) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one detail is required")
	}
	seen := map[uint]struct{}{}
	for i, d := range input.Details {
		if d.OriginWarehouseProductID == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("details[%d]: origin stock is required", i))
		}
		if _, dup := seen[d.OriginWarehouseProductID]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("details[%d]: origin stock listed twice", i))
		}
		seen[d.OriginWarehouseProductID] = struct{}{}
		if !d.Qty.IsPositive() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("details[%d]: qty must be positive", i))
		}
		if decimal.NewFromInt(int64(len(d.Serials))).GreaterThan(d.Qty) {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("details[%d]: more serials than qty", i))
		}
	}
	return nil
}

// stage creates the transfer, its lines and the serial manifest after
// checking every line against origin stock.
func (s *service) stage(ctx context.Context, tx *gorm.DB, input StoreInput, immediate bool) (*models.StockTransfer, error) {
	txRepo := s.repo.WithTx(tx)
	for _, wh := range []uint{input.OriginWarehouseID, input.DestinationWarehouseID} {
		ok, err := txRepo.WarehouseBelongsTo(ctx, input.CompanyID, wh)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check warehouse")
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "warehouse not found")
		}
	}

	details := make([]models.StockTransferDetail, 0, len(input.Details))
	units := make([][]*models.WarehouseProductSerial, 0, len(input.Details))
	for i, d := range input.Details {
		origin, err := txRepo.FindStockForUpdate(ctx, d.OriginWarehouseProductID)
		if err != nil {
			return nil, repo.MapError(err, "origin stock")
		}
		if origin.WarehouseID != input.OriginWarehouseID {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("details[%d]: stock does not belong to the origin warehouse", i))
		}
		if origin.Qty.LessThan(d.Qty) {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock,
				fmt.Sprintf("Insufficient stock: available %s, requested %s", origin.Qty.String(), d.Qty.String())).
				WithDetails(map[string]any{
					"warehouse_product_id": origin.ID,
					"available":            origin.Qty,
					"requested":            d.Qty,
				})
		}
		if origin.HasSerials && !immediate && !decimal.NewFromInt(int64(len(d.Serials))).Equal(d.Qty) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("details[%d]: serialized stock needs one serial per unit", i))
		}
		if origin.HasSerials && immediate {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("details[%d]: serialized stock must use a staged transfer", i))
		}

		destination, err := s.ledger.FindOrCreate(ctx, tx, input.DestinationWarehouseID, origin.ProductVariantID, stock.DefaultsFrom(origin))
		if err != nil {
			return nil, err
		}

		lineUnits := make([]*models.WarehouseProductSerial, 0, len(d.Serials))
		seen := map[string]struct{}{}
		for _, raw := range d.Serials {
			number := strings.TrimSpace(raw)
			if _, dup := seen[number]; dup {
				return nil, pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("details[%d]: serial %s listed twice", i, number))
			}
			seen[number] = struct{}{}
			unit, err := txRepo.FindUnsoldSerial(ctx, origin.ID, number)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, pkgerrors.New(pkgerrors.CodeSerialNotFound,
						fmt.Sprintf("Serial number '%s' not found or already sold for this product.", number))
				}
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load origin serial")
			}
			claimed, err := txRepo.ClaimedByOtherTransfer(ctx, 0, unit.ID)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check serial claims")
			}
			if claimed {
				return nil, pkgerrors.New(pkgerrors.CodeSerialConflict, ReasonClaimedByOther).
					WithDetails(map[string]string{"serial_number": number})
			}
			lineUnits = append(lineUnits, unit)
		}
		units = append(units, lineUnits)

		transferred := decimal.Zero
		if immediate {
			transferred = d.Qty
		}
		details = append(details, models.StockTransferDetail{
			OriginWarehouseProductID:      origin.ID,
			DestinationWarehouseProductID: destination.ID,
			ProductVariantID:              origin.ProductVariantID,
			Qty:                           d.Qty,
			TransferredQty:                transferred,
		})
	}

	number, err := s.numbers.Next(ctx, tx, input.CompanyID, enums.DocumentStockTransfer)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generate stock transfer number")
	}
	status := enums.StockTransferStatusPending
	if immediate {
		status = enums.StockTransferStatusFullyTransferred
	}
	transferDate := input.TransferDate
	if transferDate.IsZero() {
		transferDate = s.now().UTC()
	}
	transfer := &models.StockTransfer{
		CompanyID:              input.CompanyID,
		Number:                 number,
		OriginWarehouseID:      input.OriginWarehouseID,
		DestinationWarehouseID: input.DestinationWarehouseID,
		TransferDate:           transferDate,
		Status:                 status,
		Remarks:                input.Remarks,
		Details:                details,
	}
	if err := txRepo.Create(ctx, transfer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stock transfer")
	}

	var manifest []models.StockTransferSerial
	for i := range transfer.Details {
		for _, unit := range units[i] {
			manifest = append(manifest, models.StockTransferSerial{
				StockTransferID:          transfer.ID,
				StockTransferDetailID:    transfer.Details[i].ID,
				WarehouseProductSerialID: unit.ID,
				SerialNumber:             unit.SerialNumber,
			})
		}
	}
	if err := txRepo.CreateSerials(ctx, manifest); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create serial manifest")
	}
	for _, entry := range manifest {
		for i := range transfer.Details {
			if transfer.Details[i].ID == entry.StockTransferDetailID {
				transfer.Details[i].Serials = append(transfer.Details[i].Serials, entry)
			}
		}
	}
	return transfer, nil
}

func (s *service) Transition(ctx context.Context, id uint, action Action, actor outbox.ActorRef) (*models.StockTransfer, error) {
	if action == ActionComplete {
		return s.Complete(ctx, id, actor)
	}
	var out *models.StockTransfer
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		transfer, err := s.repo.WithTx(tx).FindForUpdate(ctx, id)
		if err != nil {
			return repo.MapError(err, "stock transfer")
		}
		target, noop, err := review(transfer.Status, action)
		if err != nil {
			return err
		}
		if !noop {
			if err := s.setStatus(ctx, tx, transfer, target, nil, &actor); err != nil {
				return err
			}
		}
		out = transfer
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ValidateSerial checks whether serialNumber may be received on transfer.
// It never writes.
func (s *service) ValidateSerial(ctx context.Context, transferID, warehouseProductID uint, serialNumber string) (SerialValidation, error) {
	transfer, err := s.repo.FindByID(ctx, transferID)
	if err != nil {
		return SerialValidation{}, repo.MapError(err, "stock transfer")
	}
	return s.checkSerial(ctx, s.repo, transfer, warehouseProductID, strings.TrimSpace(serialNumber))
}

func (s *service) checkSerial(ctx context.Context, r Repository, transfer *models.StockTransfer, warehouseProductID uint, serialNumber string) (SerialValidation, error) {
	if !transfer.Status.IsReceivable() {
		return SerialValidation{Reason: ReasonNotReceivable}, nil
	}
	unit, err := r.FindUnsoldSerial(ctx, warehouseProductID, serialNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SerialValidation{Reason: ReasonNotAtOrigin}, nil
		}
		return SerialValidation{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load origin serial")
	}
	if _, err := r.FindManifestEntry(ctx, transfer.ID, unit.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SerialValidation{Reason: ReasonNotInManifest}, nil
		}
		return SerialValidation{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transfer manifest")
	}
	claimed, err := r.ClaimedByOtherTransfer(ctx, transfer.ID, unit.ID)
	if err != nil {
		return SerialValidation{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check serial claims")
	}
	if claimed {
		return SerialValidation{Reason: ReasonClaimedByOther}, nil
	}
	return SerialValidation{Valid: true}, nil
}

// Receive books quantity arriving at the destination against one line.
func (s *service) Receive(ctx context.Context, input ReceiveInput) (*models.StockTransfer, error) {
	hasSerials := len(input.SerialNumbers) > 0
	qty := input.Qty
	if hasSerials {
		n := decimal.NewFromInt(int64(len(input.SerialNumbers)))
		if !qty.IsZero() && !qty.Equal(n) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "qty must match the number of serials")
		}
		qty = n
	}
	if !qty.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "qty must be at least 1")
	}

	var out *models.StockTransfer
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		line, err := txRepo.FindDetailForUpdate(ctx, input.DetailID)
		if err != nil {
			return repo.MapError(err, "stock transfer detail")
		}
		transfer, err := txRepo.FindForUpdate(ctx, line.StockTransferID)
		if err != nil {
			return repo.MapError(err, "stock transfer")
		}
		if !transfer.Status.IsReceivable() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, ReasonNotReceivable).
				WithDetails(map[string]any{"status": transfer.Status})
		}
		var detail *models.StockTransferDetail
		for i := range transfer.Details {
			if transfer.Details[i].ID == line.ID {
				detail = &transfer.Details[i]
			}
		}
		if detail == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "stock transfer detail not found")
		}

		next := detail.TransferredQty.Add(qty)
		if next.GreaterThan(detail.Qty) {
			return pkgerrors.New(pkgerrors.CodeOverReceipt,
				fmt.Sprintf("Cannot receive %s: only %s of %s remain to be transferred",
					qty.String(), detail.Qty.Sub(detail.TransferredQty).String(), detail.Qty.String()))
		}
		if len(detail.Serials) > 0 && !hasSerials {
			return pkgerrors.New(pkgerrors.CodeValidation, "serials are required for this line")
		}

		received := make([]uint, 0, len(input.SerialNumbers))
		for _, raw := range input.SerialNumbers {
			number := strings.TrimSpace(raw)
			check, err := s.checkSerial(ctx, txRepo, transfer, detail.OriginWarehouseProductID, number)
			if err != nil {
				return err
			}
			if !check.Valid {
				return pkgerrors.New(pkgerrors.CodeSerialConflict, check.Reason).
					WithDetails(map[string]string{"serial_number": number})
			}
			entry := manifestEntry(detail, number)
			if entry == nil {
				return pkgerrors.New(pkgerrors.CodeSerialConflict, ReasonNotInManifest).
					WithDetails(map[string]string{"serial_number": number})
			}
			if entry.IsReceived {
				return pkgerrors.New(pkgerrors.CodeSerialConflict,
					fmt.Sprintf("Serial number '%s' was already received", number))
			}
			entry.IsReceived = true
			received = append(received, entry.ID)
		}
		if err := txRepo.MarkSerialsReceived(ctx, received); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark serials received")
		}
		if err := txRepo.UpdateTransferredQty(ctx, detail.ID, next); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update transferred qty")
		}
		detail.TransferredQty = next

		status := receivedStatus(transfer.Details)
		if status != transfer.Status {
			if err := s.setStatus(ctx, tx, transfer, status, nil, &outbox.ActorRef{CompanyID: transfer.CompanyID}); err != nil {
				return err
			}
		}
		out = transfer
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func manifestEntry(detail *models.StockTransferDetail, number string) *models.StockTransferSerial {
	for i := range detail.Serials {
		if detail.Serials[i].SerialNumber == number {
			return &detail.Serials[i]
		}
	}
	return nil
}

// Complete moves the transferred quantity and serials. Only a fully
// transferred transfer can complete, so stock never moves twice.
func (s *service) Complete(ctx context.Context, transferID uint, actor outbox.ActorRef) (*models.StockTransfer, error) {
	var out *models.StockTransfer
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		transfer, err := s.repo.WithTx(tx).FindForUpdate(ctx, transferID)
		if err != nil {
			return repo.MapError(err, "stock transfer")
		}
		if transfer.Status != enums.StockTransferStatusFullyTransferred {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("Cannot complete a stock transfer that is %s", transfer.Status)).
				WithDetails(map[string]any{"status": transfer.Status})
		}
		if err := s.move(ctx, tx, transfer); err != nil {
			return err
		}
		if actor.CompanyID == 0 {
			actor.CompanyID = transfer.CompanyID
		}
		if err := s.emitCompleted(ctx, tx, transfer, &actor); err != nil {
			return err
		}
		out = transfer
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// move applies every line's transferred quantity to both stock rows, hands
// received serials to the destination row and marks the transfer completed.
func (s *service) move(ctx context.Context, tx *gorm.DB, transfer *models.StockTransfer) error {
	source := stock.Source{Type: sourceType, ID: transfer.ID, Reference: transfer.Number}
	for _, d := range transfer.Details {
		if !d.TransferredQty.IsPositive() {
			continue
		}
		if _, err := s.ledger.AdjustByID(ctx, tx, d.OriginWarehouseProductID, d.TransferredQty.Neg(), enums.StockMovementTransferOut, source); err != nil {
			return err
		}
		if _, err := s.ledger.AdjustByID(ctx, tx, d.DestinationWarehouseProductID, d.TransferredQty, enums.StockMovementTransferIn, source); err != nil {
			return err
		}
		ids := make([]uint, 0, len(d.Serials))
		for _, entry := range d.Serials {
			if entry.IsReceived {
				ids = append(ids, entry.WarehouseProductSerialID)
			}
		}
		if len(ids) > 0 {
			if err := s.serials.Reassign(ctx, tx, ids, d.DestinationWarehouseProductID); err != nil {
				return err
			}
		}
	}
	if err := s.repo.WithTx(tx).MarkSerialsMoved(ctx, transfer.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark manifest moved")
	}
	at := s.now().UTC()
	if err := s.repo.WithTx(tx).UpdateStatus(ctx, transfer.ID, enums.StockTransferStatusCompleted, &at); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update stock transfer status")
	}
	transfer.Status = enums.StockTransferStatusCompleted
	transfer.CompletedAt = &at
	return nil
}

func (s *service) setStatus(ctx context.Context, tx *gorm.DB, transfer *models.StockTransfer, target enums.StockTransferStatus, completedAt *time.Time, actor *outbox.ActorRef) error {
	from := transfer.Status
	if err := s.repo.WithTx(tx).UpdateStatus(ctx, transfer.ID, target, completedAt); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update stock transfer status")
	}
	transfer.Status = target
	if actor != nil && actor.CompanyID == 0 {
		actor.CompanyID = transfer.CompanyID
	}
	return s.emit(ctx, tx, transfer, enums.EventStockTransferStatusChanged, actor, payloads.StockTransferStatusChangedEvent{
		StockTransferID: transfer.ID,
		CompanyID:       transfer.CompanyID,
		Number:          transfer.Number,
		From:            from,
		To:              target,
	})
}

func (s *service) emitCompleted(ctx context.Context, tx *gorm.DB, transfer *models.StockTransfer, actor *outbox.ActorRef) error {
	completedAt := s.now().UTC()
	if transfer.CompletedAt != nil {
		completedAt = *transfer.CompletedAt
	}
	return s.emit(ctx, tx, transfer, enums.EventStockTransferCompleted, actor, payloads.StockTransferCompletedEvent{
		StockTransferID:        transfer.ID,
		CompanyID:              transfer.CompanyID,
		Number:                 transfer.Number,
		OriginWarehouseID:      transfer.OriginWarehouseID,
		DestinationWarehouseID: transfer.DestinationWarehouseID,
		CompletedAt:            completedAt,
	})
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, transfer *models.StockTransfer, eventType enums.OutboxEventType, actor *outbox.ActorRef, data any) error {
	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateStockTransfer,
		AggregateID:   transfer.ID,
		Actor:         actor,
		Data:          data,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("emit %s", eventType))
	}
	return nil
}
