package journal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockledger-backend/internal/repo"
	dbpkg "github.com/angelmondragon/stockledger-backend/pkg/db"
	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"github.com/angelmondragon/stockledger-backend/pkg/logger"
	"github.com/angelmondragon/stockledger-backend/pkg/metrics"
	"github.com/angelmondragon/stockledger-backend/pkg/outbox"
	"github.com/angelmondragon/stockledger-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/stockledger-backend/pkg/pagination"
	pkgredis "github.com/angelmondragon/stockledger-backend/pkg/redis"
)

const (
	sourceIndex    = "idx_journal_entries_source_reference"
	defaultLockTTL = 30 * time.Second
)

// Reasons a posting is skipped.
const (
	ReasonCategoryAccountMissing = "expense category account not configured"
	ReasonPaymentAccountMissing  = "payment method account not configured"
	ReasonRevenueAccountMissing  = "sales revenue account not configured"
	ReasonTaxAccountMissing      = "taxes payable account not configured"
	ReasonNotFullyPaid           = "invoice is not fully paid"
	ReasonUnbalanced             = "unbalanced"
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

// Result describes what a posting attempt did. Entry is set for posted and
// duplicate outcomes; Reason is set for skipped ones.
type Result struct {
	Outcome enums.PostingOutcome
	Entry   *models.JournalEntry
	Reason  string
}

// Service derives balanced journal entries from expenses and fully paid
// invoices, at most once per source document, and records manual entries.
type Service interface {
	PostExpense(ctx context.Context, expenseID uint) (Result, error)
	PostInvoice(ctx context.Context, invoiceID uint) (Result, error)
	CreateManual(ctx context.Context, input ManualEntryInput) (*models.JournalEntry, error)
	Get(ctx context.Context, id uint) (*models.JournalEntry, error)
	List(ctx context.Context, companyID uint, params pagination.Params) (pagination.Page[models.JournalEntry], error)
}

type ServiceParams struct {
	Repo    Repository
	Numbers numberGenerator
	Outbox  outboxPublisher
	Tx      txRunner
	Logger  *logger.Logger
	// Locker serializes postings per source document. Optional; the unique
	// index still rejects a second entry without it.
	Locker  pkgredis.Locker
	LockTTL time.Duration
	Metrics *metrics.PostingMetrics
}

type service struct {
	repo     Repository
	resolver *Resolver
	numbers  numberGenerator
	outbox   outboxPublisher
	tx       txRunner
	logg     *logger.Logger
	locker   pkgredis.Locker
	lockTTL  time.Duration
	metrics  *metrics.PostingMetrics
	now      func() time.Time
}

func NewService(p ServiceParams) (Service, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("journal repository required")
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
	if p.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	resolver, err := NewResolver(p.Repo)
	if err != nil {
		return nil, err
	}
	ttl := p.LockTTL
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &service{
		repo:     p.Repo,
		resolver: resolver,
		numbers:  p.Numbers,
		outbox:   p.Outbox,
		tx:       p.Tx,
		logg:     p.Logger,
		locker:   p.Locker,
		lockTTL:  ttl,
		metrics:  p.Metrics,
		now:      time.Now,
	}, nil
}

func (s *service) Get(ctx context.Context, id uint) (*models.JournalEntry, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repo.MapError(err, "journal entry")
	}
	return entry, nil
}

func (s *service) List(ctx context.Context, companyID uint, params pagination.Params) (pagination.Page[models.JournalEntry], error) {
	if companyID == 0 {
		return pagination.Page[models.JournalEntry]{}, pkgerrors.New(pkgerrors.CodeValidation, "company is required")
	}
	page, err := s.repo.List(ctx, companyID, params)
	if err != nil {
		return page, repo.MapError(err, "journal entries")
	}
	return page, nil
}

// source identifies the document being posted.
type source struct {
	Type      enums.JournalSourceType
	CompanyID uint
	ID        uint
	Reference string
}

// draft is a candidate entry. A non-empty skip means the document cannot be
// posted with the current account configuration.
type draft struct {
	ReferenceDate time.Time
	Remarks       string
	Details       []models.JournalEntryDetail
	skip          string
}

func (s *service) PostExpense(ctx context.Context, expenseID uint) (Result, error) {
	expense, err := s.repo.FindExpense(ctx, expenseID)
	if err != nil {
		s.metrics.Observe(string(enums.JournalSourceExpense), string(enums.PostingOutcomeFailed))
		return Result{}, repo.MapError(err, "expense")
	}
	src := source{Type: enums.JournalSourceExpense, CompanyID: expense.CompanyID, ID: expense.ID, Reference: expense.ReferenceNumber}
	return s.post(ctx, src, func(ctx context.Context) (draft, error) {
		return s.expenseDraft(ctx, expense)
	})
}

func (s *service) expenseDraft(ctx context.Context, expense *models.Expense) (draft, error) {
	d := draft{ReferenceDate: expense.ExpenseDate, Remarks: fmt.Sprintf("Expense %s paid to %s", expense.ReferenceNumber, expense.Payee)}

	category, err := s.resolver.ExpenseCategoryAccount(ctx, expense.CompanyID, expense.CategoryID)
	if err != nil {
		return d, err
	}
	if category == nil {
		d.skip = ReasonCategoryAccountMissing
		return d, nil
	}
	payment, err := s.resolver.PaymentMethodAccount(ctx, expense.CompanyID, expense.PaymentMethod)
	if err != nil {
		return d, err
	}
	if payment == nil {
		d.skip = ReasonPaymentAccountMissing
		return d, nil
	}

	d.Details = []models.JournalEntryDetail{
		debitLine(category, expense.Amount, expense.Payee),
		creditLine(payment, expense.Amount, string(expense.PaymentMethod)),
	}
	return d, nil
}

func (s *service) PostInvoice(ctx context.Context, invoiceID uint) (Result, error) {
	invoice, err := s.repo.FindInvoice(ctx, invoiceID)
	if err != nil {
		s.metrics.Observe(string(enums.JournalSourceInvoice), string(enums.PostingOutcomeFailed))
		return Result{}, repo.MapError(err, "invoice")
	}
	src := source{Type: enums.JournalSourceInvoice, CompanyID: invoice.CompanyID, ID: invoice.ID, Reference: invoice.Number}
	return s.post(ctx, src, func(ctx context.Context) (draft, error) {
		return s.invoiceDraft(ctx, invoice)
	})
}

func (s *service) invoiceDraft(ctx context.Context, invoice *models.Invoice) (draft, error) {
	d := draft{ReferenceDate: invoice.InvoiceDate, Remarks: fmt.Sprintf("Invoice %s for %s", invoice.Number, invoice.CustomerName)}
	if invoice.PaidAt != nil {
		d.ReferenceDate = *invoice.PaidAt
	}
	if invoice.Status != enums.InvoiceStatusFullyPaid {
		d.skip = ReasonNotFullyPaid
		return d, nil
	}

	accounts, err := s.resolver.InvoiceAccounts(ctx, invoice.CompanyID)
	if err != nil {
		return d, err
	}
	if accounts.SalesRevenue == nil {
		d.skip = ReasonRevenueAccountMissing
		return d, nil
	}
	if !invoice.TaxAmount.IsZero() && accounts.TaxesPayable == nil {
		d.skip = ReasonTaxAccountMissing
		return d, nil
	}

	// One debit per distinct payment method. An unmapped method drops only
	// its own line.
	order := []enums.PaymentMethodCode{}
	collected := map[enums.PaymentMethodCode]decimal.Decimal{}
	for _, p := range invoice.Payments {
		if _, ok := collected[p.PaymentMethod]; !ok {
			order = append(order, p.PaymentMethod)
			collected[p.PaymentMethod] = decimal.Zero
		}
		collected[p.PaymentMethod] = collected[p.PaymentMethod].Add(p.Amount)
	}
	for _, code := range order {
		account, err := s.resolver.PaymentMethodAccount(ctx, invoice.CompanyID, code)
		if err != nil {
			return d, err
		}
		if account == nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"source_type":      enums.JournalSourceInvoice,
				"reference_number": invoice.Number,
				"payment_method":   code,
				"reason":           ReasonPaymentAccountMissing,
			}), "payment line left out of invoice posting")
			continue
		}
		d.Details = append(d.Details, debitLine(account, collected[code], string(code)))
	}

	d.Details = append(d.Details, creditLine(accounts.SalesRevenue, invoice.Subtotal, "Sales revenue"))
	if !invoice.TaxAmount.IsZero() {
		d.Details = append(d.Details, creditLine(accounts.TaxesPayable, invoice.TaxAmount, "Output tax"))
	}

	if accounts.CostOfGoods != nil && accounts.Inventory != nil {
		cost, err := s.costOfGoods(ctx, invoice)
		if err != nil {
			return d, err
		}
		if cost.IsPositive() {
			d.Details = append(d.Details,
				debitLine(accounts.CostOfGoods, cost, "Cost of goods sold"),
				creditLine(accounts.Inventory, cost, "Inventory relief"),
			)
		}
	}
	return d, nil
}

// costOfGoods values the sold quantities at each stock row's last cost.
func (s *service) costOfGoods(ctx context.Context, invoice *models.Invoice) (decimal.Decimal, error) {
	ids := make([]uint, 0, len(invoice.Details))
	for _, line := range invoice.Details {
		ids = append(ids, line.WarehouseProductID)
	}
	costs, err := s.repo.LastCosts(ctx, ids)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock costs")
	}
	total := decimal.Zero
	for _, line := range invoice.Details {
		total = total.Add(line.Qty.Mul(costs[line.WarehouseProductID]))
	}
	return total, nil
}

// post runs the shared idempotent posting flow for a source document.
func (s *service) post(ctx context.Context, src source, build func(context.Context) (draft, error)) (Result, error) {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"source_type":      src.Type,
		"reference_number": src.Reference,
		"company_id":       src.CompanyID,
	})

	if s.locker != nil {
		lock, err := s.locker.Obtain(ctx, lockKey(src), s.lockTTL)
		if err != nil {
			return s.fail(src, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire posting lock"))
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, pkgredis.ErrLockNotHeld) {
				s.logg.Warn(ctx, "release posting lock: "+err.Error())
			}
		}()
	}

	existing, err := s.repo.FindBySource(ctx, src.CompanyID, src.Type, src.Reference)
	if err != nil {
		return s.fail(src, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing journal entry"))
	}
	if existing != nil {
		return s.done(src, Result{Outcome: enums.PostingOutcomeDuplicate, Entry: existing}), nil
	}

	d, err := build(ctx)
	if err != nil {
		return s.fail(src, err)
	}
	if d.skip == "" && !balanced(d.Details) {
		d.skip = ReasonUnbalanced
	}
	if d.skip != "" {
		s.logg.Warn(s.logg.WithField(ctx, "reason", d.skip), "journal posting skipped")
		return s.done(src, Result{Outcome: enums.PostingOutcomeSkipped, Reason: d.skip}), nil
	}

	sourceID := src.ID
	entry := &models.JournalEntry{
		CompanyID:       src.CompanyID,
		SourceType:      src.Type,
		SourceID:        &sourceID,
		ReferenceNumber: src.Reference,
		ReferenceDate:   d.ReferenceDate,
		Details:         d.Details,
	}
	if d.Remarks != "" {
		remarks := d.Remarks
		entry.Remarks = &remarks
	}

	err = s.write(ctx, entry)
	if isSourceConflict(err) {
		existing, findErr := s.repo.FindBySource(ctx, src.CompanyID, src.Type, src.Reference)
		if findErr != nil {
			return s.fail(src, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load existing journal entry"))
		}
		return s.done(src, Result{Outcome: enums.PostingOutcomeDuplicate, Entry: existing}), nil
	}
	if err != nil {
		return s.fail(src, err)
	}

	s.logg.Info(s.logg.WithField(ctx, "journal_entry_id", entry.ID), "journal entry posted")
	return s.done(src, Result{Outcome: enums.PostingOutcomePosted, Entry: entry}), nil
}

// write numbers, stores and announces an entry in one transaction.
func (s *service) write(ctx context.Context, entry *models.JournalEntry) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		number, err := s.numbers.Next(ctx, tx, entry.CompanyID, enums.DocumentJournalEntry)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generate journal entry number")
		}
		entry.Number = number
		if entry.ReferenceNumber == "" {
			entry.ReferenceNumber = number
		}
		entry.TotalDebit, entry.TotalCredit = totals(entry.Details)

		if err := s.repo.WithTx(tx).Create(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create journal entry")
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventJournalEntryPosted,
			AggregateType: enums.AggregateJournalEntry,
			AggregateID:   entry.ID,
			Actor:         &outbox.ActorRef{CompanyID: entry.CompanyID},
			Data: payloads.JournalEntryPostedEvent{
				JournalEntryID:  entry.ID,
				CompanyID:       entry.CompanyID,
				SourceType:      entry.SourceType,
				ReferenceNumber: entry.ReferenceNumber,
				Total:           entry.TotalDebit,
			},
			OccurredAt: s.now().UTC(),
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit journal entry posted")
		}
		return nil
	})
}

func (s *service) done(src source, res Result) Result {
	s.metrics.Observe(string(src.Type), string(res.Outcome))
	return res
}

func (s *service) fail(src source, err error) (Result, error) {
	s.metrics.Observe(string(src.Type), string(enums.PostingOutcomeFailed))
	return Result{Outcome: enums.PostingOutcomeFailed}, err
}

func isSourceConflict(err error) bool {
	return dbpkg.IsUniqueViolationOn(err, sourceIndex, "journal_entries", "reference_number")
}

func lockKey(src source) string {
	return strings.Join([]string{"journal", string(src.Type), fmt.Sprint(src.CompanyID), src.Reference}, ":")
}
