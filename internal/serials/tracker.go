package serials

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/stockledger-backend/internal/repo"
	dbpkg "github.com/angelmondragon/stockledger-backend/pkg/db"
	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
)

const unsoldIndex = "idx_serials_unsold_variant_serial"

// Input describes one serial or batch unit arriving into custody.
type Input struct {
	SerialNumber   string     `json:"serial_number" validate:"required,max=191"`
	BatchNumber    *string    `json:"batch_number,omitempty" validate:"omitempty,max=191"`
	ManufacturedAt *time.Time `json:"manufactured_at,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

// Tracker enforces serial custody rules. A serial number is unique among the
// unsold units of a product variant, and among receiving-dock units that have
// not yet moved into a warehouse.
type Tracker interface {
	EnsureAvailable(ctx context.Context, tx *gorm.DB, productVariantID uint, serialNumber string) error
	Attach(ctx context.Context, tx *gorm.DB, row *models.WarehouseProduct, inputs []Input) ([]models.WarehouseProductSerial, error)
	MarkSold(ctx context.Context, tx *gorm.DB, warehouseProductID uint, serialNumber string) (*models.WarehouseProductSerial, error)
	Reverse(ctx context.Context, tx *gorm.DB, serialID uint) error
	Reassign(ctx context.Context, tx *gorm.DB, serialIDs []uint, destinationWarehouseProductID uint) error
	CountUnsold(ctx context.Context, tx *gorm.DB, warehouseProductID uint) (int64, error)
}

type tracker struct {
	repo Repository
	now  func() time.Time
}

func NewTracker(repo Repository) (Tracker, error) {
	if repo == nil {
		return nil, fmt.Errorf("serial repository required")
	}
	return &tracker{repo: repo, now: time.Now}, nil
}

// ValidateDates requires expiry to fall after manufacture when both are known.
func ValidateDates(manufactured, expires *time.Time) error {
	if manufactured == nil || expires == nil {
		return nil
	}
	if !expires.After(*manufactured) {
		return pkgerrors.New(pkgerrors.CodeValidation, "Expiry date must be after the manufactured date")
	}
	return nil
}

// Normalize trims the serial number and rejects blanks.
func Normalize(serialNumber string) (string, error) {
	s := strings.TrimSpace(serialNumber)
	if s == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "serial number is required")
	}
	return s, nil
}

func (t *tracker) EnsureAvailable(ctx context.Context, tx *gorm.DB, productVariantID uint, serialNumber string) error {
	r := t.repo.WithTx(tx)
	inStock, err := r.UnsoldExists(ctx, productVariantID, serialNumber)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check serial availability")
	}
	if inStock {
		return conflict(serialNumber)
	}
	onDock, err := r.PendingDockExists(ctx, productVariantID, serialNumber)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check receiving serials")
	}
	if onDock {
		return conflict(serialNumber)
	}
	return nil
}

func (t *tracker) Attach(ctx context.Context, tx *gorm.DB, row *models.WarehouseProduct, inputs []Input) ([]models.WarehouseProductSerial, error) {
	if tx == nil {
		return nil, fmt.Errorf("serial attach requires a transaction")
	}
	if row == nil {
		return nil, fmt.Errorf("stock row required")
	}
	r := t.repo.WithTx(tx)

	seen := make(map[string]struct{}, len(inputs))
	units := make([]models.WarehouseProductSerial, 0, len(inputs))
	for _, in := range inputs {
		number, err := Normalize(in.SerialNumber)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[number]; dup {
			return nil, conflict(number)
		}
		seen[number] = struct{}{}
		if err := ValidateDates(in.ManufacturedAt, in.ExpiresAt); err != nil {
			return nil, err
		}
		taken, err := r.UnsoldExists(ctx, row.ProductVariantID, number)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check serial availability")
		}
		if taken {
			return nil, conflict(number)
		}
		units = append(units, models.WarehouseProductSerial{
			WarehouseProductID: row.ID,
			ProductVariantID:   row.ProductVariantID,
			SerialNumber:       number,
			BatchNumber:        in.BatchNumber,
			ManufacturedAt:     in.ManufacturedAt,
			ExpiresAt:          in.ExpiresAt,
		})
	}

	if err := r.CreateMany(ctx, units); err != nil {
		if dbpkg.IsUniqueViolationOn(err, unsoldIndex, "warehouse_product_serials", "serial_number") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeSerialConflict, err, "Serial number already in use for this product")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach serials")
	}
	return units, nil
}

func (t *tracker) MarkSold(ctx context.Context, tx *gorm.DB, warehouseProductID uint, serialNumber string) (*models.WarehouseProductSerial, error) {
	if tx == nil {
		return nil, fmt.Errorf("serial sale requires a transaction")
	}
	number := strings.TrimSpace(serialNumber)
	r := t.repo.WithTx(tx)

	unit, err := r.FindUnsoldForUpdate(ctx, warehouseProductID, number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound(number)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load serial")
	}

	soldAt := t.now().UTC()
	if err := r.MarkSold(ctx, unit.ID, soldAt); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark serial sold")
	}
	unit.IsSold = true
	unit.SoldAt = &soldAt
	return unit, nil
}

// Reverse flips a sold unit back to unsold. Only document cancellation calls it.
func (t *tracker) Reverse(ctx context.Context, tx *gorm.DB, serialID uint) error {
	if tx == nil {
		return fmt.Errorf("serial reversal requires a transaction")
	}
	r := t.repo.WithTx(tx)

	unit, err := r.FindByIDForUpdate(ctx, serialID)
	if err != nil {
		return repo.MapError(err, "serial")
	}
	if !unit.IsSold {
		return nil
	}
	taken, err := r.UnsoldExists(ctx, unit.ProductVariantID, unit.SerialNumber)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check serial availability")
	}
	if taken {
		return conflict(unit.SerialNumber)
	}
	if err := r.MarkUnsold(ctx, unit.ID); err != nil {
		if dbpkg.IsUniqueViolationOn(err, unsoldIndex, "warehouse_product_serials", "serial_number") {
			return conflict(unit.SerialNumber)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reverse serial sale")
	}
	return nil
}

func (t *tracker) Reassign(ctx context.Context, tx *gorm.DB, serialIDs []uint, destinationWarehouseProductID uint) error {
	if tx == nil {
		return fmt.Errorf("serial reassignment requires a transaction")
	}
	moved, err := t.repo.WithTx(tx).Reassign(ctx, serialIDs, destinationWarehouseProductID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reassign serials")
	}
	if moved != int64(len(serialIDs)) {
		return pkgerrors.New(pkgerrors.CodeSerialNotFound, "One or more serial numbers were sold before they could be moved").
			WithDetails(map[string]any{"expected": len(serialIDs), "moved": moved})
	}
	return nil
}

func (t *tracker) CountUnsold(ctx context.Context, tx *gorm.DB, warehouseProductID uint) (int64, error) {
	count, err := t.repo.WithTx(tx).CountUnsold(ctx, warehouseProductID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count serials")
	}
	return count, nil
}

// NotFound is raised when a serial is absent or already sold.
func NotFound(serialNumber string) error {
	return pkgerrors.New(pkgerrors.CodeSerialNotFound,
		fmt.Sprintf("Serial number '%s' not found or already sold for this product.", serialNumber)).
		WithDetails(map[string]string{"serial_number": serialNumber})
}

func conflict(serialNumber string) error {
	return pkgerrors.New(pkgerrors.CodeSerialConflict,
		fmt.Sprintf("Serial number '%s' already exists for this product.", serialNumber)).
		WithDetails(map[string]string{"serial_number": serialNumber})
}
