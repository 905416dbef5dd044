package accounting

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockledger-backend/api/middleware"
	"github.com/angelmondragon/stockledger-backend/api/responses"
	"github.com/angelmondragon/stockledger-backend/api/validators"
	"github.com/angelmondragon/stockledger-backend/internal/journal"
	"github.com/angelmondragon/stockledger-backend/internal/tenancy"
	"github.com/angelmondragon/stockledger-backend/pkg/logger"
)

type manualEntryRequest struct {
	ReferenceNumber string              `json:"reference_number" validate:"omitempty,max=191"`
	ReferenceDate   string              `json:"reference_date"`
	Remarks         *string             `json:"remarks,omitempty" validate:"omitempty,max=1000"`
	Lines           []manualLineRequest `json:"lines" validate:"required,min=2,dive"`
}

type manualLineRequest struct {
	AccountID uint            `json:"account_id" validate:"required"`
	Name      string          `json:"name" validate:"omitempty,max=191"`
	Debit     decimal.Decimal `json:"debit" validate:"gte=0"`
	Credit    decimal.Decimal `json:"credit" validate:"gte=0"`
	Remarks   *string         `json:"remarks,omitempty" validate:"omitempty,max=1000"`
}

func ListJournalEntries(svc journal.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.List(r.Context(), middleware.CompanyIDFromContext(r.Context()), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func GetJournalEntry(svc journal.Service, guard ownershipGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := ownedID(w, r, guard, logg, tenancy.JournalEntry)
		if !ok {
			return
		}
		entry, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entry)
	}
}

// CreateJournalEntry books a manual entry. Unbalanced lines are rejected.
func CreateJournalEntry(svc journal.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body manualEntryRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		referenceDate, err := validators.ParseDate("reference_date", body.ReferenceDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := journal.ManualEntryInput{
			CompanyID:       middleware.CompanyIDFromContext(r.Context()),
			ReferenceNumber: strings.TrimSpace(body.ReferenceNumber),
			ReferenceDate:   referenceDate,
			Remarks:         validators.CleanOptional(body.Remarks),
		}
		for _, l := range body.Lines {
			input.Lines = append(input.Lines, journal.ManualLineInput{
				AccountID: l.AccountID,
				Name:      l.Name,
				Debit:     l.Debit,
				Credit:    l.Credit,
				Remarks:   l.Remarks,
			})
		}
		entry, err := svc.CreateManual(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, entry, "Journal entry created")
	}
}
