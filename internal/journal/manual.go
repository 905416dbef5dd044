package journal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
)

type ManualEntryInput struct {
	CompanyID uint
	// ReferenceNumber defaults to the generated entry number.
	ReferenceNumber string
	ReferenceDate   time.Time
	Remarks         *string
	Lines           []ManualLineInput
}

type ManualLineInput struct {
	AccountID uint
	Name      string
	Debit     decimal.Decimal
	Credit    decimal.Decimal
	Remarks   *string
}

func (s *service) CreateManual(ctx context.Context, input ManualEntryInput) (*models.JournalEntry, error) {
	if err := validateManual(input); err != nil {
		return nil, err
	}
	input.ReferenceNumber = strings.TrimSpace(input.ReferenceNumber)
	if input.ReferenceNumber != "" {
		existing, err := s.repo.FindBySource(ctx, input.CompanyID, enums.JournalSourceManual, input.ReferenceNumber)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check reference number")
		}
		if existing != nil {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "reference number already used by another journal entry")
		}
	}

	details := make([]models.JournalEntryDetail, 0, len(input.Lines))
	for i, l := range input.Lines {
		account, err := s.resolver.account(ctx, input.CompanyID, l.AccountID)
		if err != nil {
			return nil, err
		}
		if account == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("lines[%d]: account not found or inactive", i)).
				WithDetails(map[string]string{fmt.Sprintf("lines[%d].account_id", i): "not found or inactive"})
		}
		detail := line(account, l.Debit, l.Credit, "")
		if name := strings.TrimSpace(l.Name); name != "" {
			detail.Name = name
		}
		detail.Remarks = l.Remarks
		details = append(details, detail)
	}

	date := input.ReferenceDate
	if date.IsZero() {
		date = s.now().UTC()
	}
	entry := &models.JournalEntry{
		CompanyID:       input.CompanyID,
		SourceType:      enums.JournalSourceManual,
		ReferenceNumber: input.ReferenceNumber,
		ReferenceDate:   date,
		Remarks:         input.Remarks,
		Details:         details,
	}
	err := s.write(ctx, entry)
	if isSourceConflict(err) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "reference number already used by another journal entry")
	}
	if err != nil {
		return nil, err
	}
	s.metrics.Observe(string(enums.JournalSourceManual), string(enums.PostingOutcomePosted))
	return entry, nil
}

func validateManual(input ManualEntryInput) error {
	if input.CompanyID == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "company is required")
	}
	if len(input.Lines) < 2 {
		return pkgerrors.New(pkgerrors.CodeValidation, "a journal entry needs at least two lines")
	}
	debit, credit := decimal.Zero, decimal.Zero
	for i, l := range input.Lines {
		if l.AccountID == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("lines[%d]: account is required", i))
		}
		if !oneSided(l.Debit, l.Credit) {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("lines[%d]: exactly one of debit or credit must be a positive amount", i))
		}
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	if !debit.Equal(credit) {
		return pkgerrors.New(pkgerrors.CodeUnbalancedEntry, "Total debit must equal total credit").
			WithDetails(map[string]string{
				"total_debit":  debit.String(),
				"total_credit": credit.String(),
			})
	}
	return nil
}
