package numbering

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/stockledger-backend/pkg/db/dbtest"
	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
)

type fakeSequencer struct {
	counters map[string]int64
	err      error
	seeded   []string
}

func (f *fakeSequencer) NextSequence(ctx context.Context, name string, seed func() (int64, error)) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	if f.counters == nil {
		f.counters = map[string]int64{}
	}
	if _, ok := f.counters[name]; !ok {
		start, err := seed()
		if err != nil {
			return 0, err
		}
		f.seeded = append(f.seeded, name)
		f.counters[name] = start
	}
	f.counters[name]++
	return f.counters[name], nil
}

func TestPrefix(t *testing.T) {
	assert.Equal(t, "KAN", Prefix("Kanto Trading"))
	assert.Equal(t, "ABC", Prefix("a b cdef"))
	assert.Equal(t, "XY", Prefix("xy"))
	assert.Equal(t, "", Prefix("   "))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "KAN-PO-000042", Format("KAN", enums.DocumentPurchaseOrder, 42))
	assert.Equal(t, "KAN-INV-1234567", Format("KAN", enums.DocumentInvoice, 1234567))
}

func TestNextCountsSoftDeletedRows(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	company := models.Company{Name: "Kanto Trading"}
	require.NoError(t, db.Create(&company).Error)

	gen := NewGenerator(nil, nil)

	first, err := gen.Next(ctx, db, company.ID, enums.DocumentExpense)
	require.NoError(t, err)
	assert.Equal(t, "KAN-EXP-000001", first)

	expense := newExpense(company.ID, first)
	require.NoError(t, db.Create(&expense).Error)
	require.NoError(t, db.Delete(&expense).Error)

	second, err := gen.Next(ctx, db, company.ID, enums.DocumentExpense)
	require.NoError(t, err)
	assert.Equal(t, "KAN-EXP-000002", second)

	po, err := gen.Next(ctx, db, company.ID, enums.DocumentPurchaseOrder)
	require.NoError(t, err)
	assert.Equal(t, "KAN-PO-000001", po)
}

func TestNextUnknownCompanyUsesRandomSequence(t *testing.T) {
	db := dbtest.Open(t)
	number, err := NewGenerator(nil, nil).Next(context.Background(), db, 999, enums.DocumentGoodsReceipt)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(number, "UNK-GR-"), number)
	assert.Len(t, number, len("UNK-GR-000000"))
}

func TestNextRejectsUnknownDocumentType(t *testing.T) {
	db := dbtest.Open(t)
	_, err := NewGenerator(nil, nil).Next(context.Background(), db, 1, enums.DocumentType("XX"))
	assert.Error(t, err)
}

func TestNextUsesSeededCounter(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	company := models.Company{Name: "Kanto"}
	require.NoError(t, db.Create(&company).Error)

	seq := &fakeSequencer{}
	gen := NewGenerator(seq, nil)

	a, err := gen.Next(ctx, db, company.ID, enums.DocumentInvoice)
	require.NoError(t, err)
	b, err := gen.Next(ctx, db, company.ID, enums.DocumentInvoice)
	require.NoError(t, err)

	assert.Equal(t, "KAN-INV-000001", a)
	assert.Equal(t, "KAN-INV-000002", b)
	assert.Equal(t, []string{fmt.Sprintf("%d:INV", company.ID)}, seq.seeded)
}

func TestNextFallsBackWhenCounterFails(t *testing.T) {
	db := dbtest.Open(t)
	company := models.Company{Name: "Kanto"}
	require.NoError(t, db.Create(&company).Error)

	gen := NewGenerator(&fakeSequencer{err: errors.New("redis down")}, nil)
	number, err := gen.Next(context.Background(), db, company.ID, enums.DocumentStockTransfer)
	require.NoError(t, err)
	assert.Equal(t, "KAN-ST-000001", number)
}
