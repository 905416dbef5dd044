package dbtest

import (
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
)

// Fixture is a company with one or more warehouses and a product variant.
type Fixture struct {
	Company    models.Company
	Warehouses []models.Warehouse
	Variant    models.ProductVariant
}

// Seed creates a company named name with warehouseCount warehouses and one
// product variant.
func Seed(t testing.TB, db *gorm.DB, name string, warehouseCount int) Fixture {
	t.Helper()

	f := Fixture{Company: models.Company{Name: name}}
	mustCreate(t, db, &f.Company)
	for i := 0; i < warehouseCount; i++ {
		w := models.Warehouse{CompanyID: f.Company.ID, Name: string(rune('A'+i)) + " warehouse"}
		mustCreate(t, db, &w)
		f.Warehouses = append(f.Warehouses, w)
	}
	f.Variant = Variant(t, db, f.Company.ID, "SKU-001", false)
	return f
}

func Variant(t testing.TB, db *gorm.DB, companyID uint, sku string, serials bool) models.ProductVariant {
	t.Helper()
	v := models.ProductVariant{CompanyID: companyID, SKU: sku, Name: sku, Unit: "pc", HasSerials: serials, ListPrice: decimal.NewFromInt(10)}
	mustCreate(t, db, &v)
	return v
}

// Stock creates a stock row holding qty units.
func Stock(t testing.TB, db *gorm.DB, companyID, warehouseID, variantID uint, qty int64, serials bool) models.WarehouseProduct {
	t.Helper()
	row := models.WarehouseProduct{
		CompanyID:        companyID,
		WarehouseID:      warehouseID,
		ProductVariantID: variantID,
		Qty:              decimal.NewFromInt(qty),
		Price:            decimal.NewFromInt(10),
		LastCost:         decimal.NewFromInt(6),
		AverageCost:      decimal.NewFromInt(6),
		HasSerials:       serials,
		CriticalLevelQty: decimal.Zero,
	}
	mustCreate(t, db, &row)
	return row
}

// Serial attaches an unsold serial to a stock row.
func Serial(t testing.TB, db *gorm.DB, row models.WarehouseProduct, number string) models.WarehouseProductSerial {
	t.Helper()
	s := models.WarehouseProductSerial{WarehouseProductID: row.ID, ProductVariantID: row.ProductVariantID, SerialNumber: number}
	mustCreate(t, db, &s)
	return s
}

// Account creates a chart-of-accounts entry.
func Account(t testing.TB, db *gorm.DB, companyID uint, code, name string, typ enums.AccountType) models.Account {
	t.Helper()
	a := models.Account{CompanyID: companyID, Code: code, Name: name, Type: typ, IsActive: true}
	mustCreate(t, db, &a)
	return a
}

func mustCreate(t testing.TB, db *gorm.DB, value any) {
	t.Helper()
	if err := db.Create(value).Error; err != nil {
		t.Fatalf("seed %T: %v", value, err)
	}
}
