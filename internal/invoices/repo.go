package invoices

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/stockledger-backend/internal/repo"
	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, invoice *models.Invoice) error
	FindByID(ctx context.Context, id uint) (*models.Invoice, error)
	FindForUpdate(ctx context.Context, id uint) (*models.Invoice, error)
	FindStock(ctx context.Context, warehouseProductID uint) (*models.WarehouseProduct, error)
	Update(ctx context.Context, id uint, values map[string]any) error
	ReplacePayments(ctx context.Context, invoiceID uint, payments []models.InvoicePaymentDetail) error
	SetPaymentStatus(ctx context.Context, invoiceID uint, status enums.PaymentStatus) error
	LinkSerial(ctx context.Context, invoiceSerialID, warehouseProductSerialID uint) error
}

type repository struct {
	invoices repo.Repository[models.Invoice]
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{invoices: repo.New[models.Invoice](db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

func (r *repository) Create(ctx context.Context, invoice *models.Invoice) error {
	return r.invoices.Create(ctx, invoice)
}

func (r *repository) FindByID(ctx context.Context, id uint) (*models.Invoice, error) {
	return r.invoices.FindByID(ctx, id, "Details", "Details.Serials", "Payments")
}

func (r *repository) FindForUpdate(ctx context.Context, id uint) (*models.Invoice, error) {
	invoice, err := r.invoices.FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	db := r.invoices.DB(ctx)
	if err := db.Preload("Serials").Where("invoice_id = ?", id).Order("id ASC").Find(&invoice.Details).Error; err != nil {
		return nil, err
	}
	if err := db.Where("invoice_id = ?", id).Order("id ASC").Find(&invoice.Payments).Error; err != nil {
		return nil, err
	}
	return invoice, nil
}

func (r *repository) FindStock(ctx context.Context, warehouseProductID uint) (*models.WarehouseProduct, error) {
	var row models.WarehouseProduct
	if err := r.invoices.DB(ctx).First(&row, warehouseProductID).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) Update(ctx context.Context, id uint, values map[string]any) error {
	return r.invoices.Updates(ctx, id, values)
}

func (r *repository) ReplacePayments(ctx context.Context, invoiceID uint, payments []models.InvoicePaymentDetail) error {
	db := r.invoices.DB(ctx)
	if err := db.Where("invoice_id = ?", invoiceID).Delete(&models.InvoicePaymentDetail{}).Error; err != nil {
		return err
	}
	if len(payments) == 0 {
		return nil
	}
	for i := range payments {
		payments[i].InvoiceID = invoiceID
	}
	return db.Create(&payments).Error
}

func (r *repository) SetPaymentStatus(ctx context.Context, invoiceID uint, status enums.PaymentStatus) error {
	return r.invoices.DB(ctx).Model(&models.InvoicePaymentDetail{}).
		Where("invoice_id = ?", invoiceID).
		Update("status", status).Error
}

func (r *repository) LinkSerial(ctx context.Context, invoiceSerialID, warehouseProductSerialID uint) error {
	return r.invoices.DB(ctx).Model(&models.InvoiceDetailSerial{}).
		Where("id = ?", invoiceSerialID).
		Update("warehouse_product_serial_id", warehouseProductSerialID).Error
}
