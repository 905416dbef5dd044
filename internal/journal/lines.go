package journal

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/money"
)

func debitLine(account *models.Account, amount decimal.Decimal, remarks string) models.JournalEntryDetail {
	return line(account, money.Round(amount), decimal.Zero, remarks)
}

func creditLine(account *models.Account, amount decimal.Decimal, remarks string) models.JournalEntryDetail {
	return line(account, decimal.Zero, money.Round(amount), remarks)
}

func line(account *models.Account, debit, credit decimal.Decimal, remarks string) models.JournalEntryDetail {
	d := models.JournalEntryDetail{
		AccountID: account.ID,
		Name:      account.Name,
		Debit:     debit,
		Credit:    credit,
	}
	if remarks != "" {
		d.Remarks = &remarks
	}
	return d
}

// totals sums both sides of the lines.
func totals(details []models.JournalEntryDetail) (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, d := range details {
		debit = debit.Add(d.Debit)
		credit = credit.Add(d.Credit)
	}
	return debit, credit
}

// balanced reports whether the lines form a postable entry: at least two
// lines, one non-zero side each, equal sums.
func balanced(details []models.JournalEntryDetail) bool {
	if len(details) < 2 {
		return false
	}
	for _, d := range details {
		if !oneSided(d.Debit, d.Credit) {
			return false
		}
	}
	debit, credit := totals(details)
	return debit.Equal(credit)
}

func oneSided(debit, credit decimal.Decimal) bool {
	if debit.IsNegative() || credit.IsNegative() {
		return false
	}
	return debit.IsZero() != credit.IsZero()
}
