package numbering

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"unicode"

	"gorm.io/gorm"

	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"github.com/angelmondragon/stockledger-backend/pkg/logger"
	"github.com/angelmondragon/stockledger-backend/pkg/redis"
)

const unknownPrefix = "UNK"

// Generator issues company-scoped reference numbers such as KAN-PO-000042.
type Generator interface {
	Next(ctx context.Context, tx *gorm.DB, companyID uint, doc enums.DocumentType) (string, error)
}

type generator struct {
	seq  redis.Sequencer
	logg *logger.Logger
}

// NewGenerator returns a count-based generator. When seq is non-nil the
// count only seeds a Redis counter that then owns the sequence.
func NewGenerator(seq redis.Sequencer, logg *logger.Logger) Generator {
	return &generator{seq: seq, logg: logg}
}

func (g *generator) Next(ctx context.Context, tx *gorm.DB, companyID uint, doc enums.DocumentType) (string, error) {
	if tx == nil {
		return "", fmt.Errorf("numbering requires a db handle")
	}
	if !doc.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown document type %q", doc))
	}

	prefix, err := companyPrefix(ctx, tx, companyID)
	if err != nil {
		return "", err
	}
	if prefix == "" {
		return Format(unknownPrefix, doc, rand.IntN(900000)+100000), nil
	}

	countRows := func() (int64, error) { return countDocuments(ctx, tx, companyID, doc) }

	var seq int64
	if g.seq != nil {
		name := fmt.Sprintf("%d:%s", companyID, doc.Code())
		seq, err = g.seq.NextSequence(ctx, name, countRows)
		if err != nil && g.logg != nil {
			g.logg.Warn(g.logg.WithFields(ctx, map[string]any{"counter": name, "error": err.Error()}), "numbering counter unavailable, falling back to row count")
		}
	}
	if g.seq == nil || err != nil {
		count, cerr := countRows()
		if cerr != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, cerr, "count documents for numbering")
		}
		seq = count + 1
	}
	return Format(prefix, doc, int(seq)), nil
}

// Format renders a reference number from its parts.
func Format(prefix string, doc enums.DocumentType, seq int) string {
	return fmt.Sprintf("%s-%s-%06d", prefix, doc.Code(), seq)
}

// Prefix derives the three letter company prefix: whitespace removed, upper
// cased, first three runes.
func Prefix(companyName string) string {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, companyName)
	runes := []rune(compact)
	if len(runes) > 3 {
		runes = runes[:3]
	}
	return string(runes)
}

func companyPrefix(ctx context.Context, tx *gorm.DB, companyID uint) (string, error) {
	var company models.Company
	err := tx.WithContext(ctx).Unscoped().Select("id", "name").First(&company, companyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load company for numbering")
	}
	return Prefix(company.Name), nil
}

func countDocuments(ctx context.Context, tx *gorm.DB, companyID uint, doc enums.DocumentType) (int64, error) {
	var model any
	switch doc {
	case enums.DocumentPurchaseOrder:
		model = &models.PurchaseOrder{}
	case enums.DocumentGoodsReceipt:
		model = &models.GoodsReceipt{}
	case enums.DocumentStockTransfer:
		model = &models.StockTransfer{}
	case enums.DocumentInvoice:
		model = &models.Invoice{}
	case enums.DocumentExpense:
		model = &models.Expense{}
	case enums.DocumentJournalEntry:
		model = &models.JournalEntry{}
	}

	var count int64
	err := tx.WithContext(ctx).Unscoped().Model(model).Where("company_id = ?", companyID).Count(&count).Error
	return count, err
}
