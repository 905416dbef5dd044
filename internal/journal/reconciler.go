package journal

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
)

const defaultReconcileBatch = 100

// ReconcileReport counts outcomes of one reconciliation pass.
type ReconcileReport struct {
	Posted    int
	Skipped   int
	Duplicate int
	Failed    int
}

func (r *ReconcileReport) add(outcome enums.PostingOutcome) {
	switch outcome {
	case enums.PostingOutcomePosted:
		r.Posted++
	case enums.PostingOutcomeSkipped:
		r.Skipped++
	case enums.PostingOutcomeDuplicate:
		r.Duplicate++
	default:
		r.Failed++
	}
}

// Reconciler re-runs posting for fully paid invoices and expenses that have
// no journal entry, e.g. because posting failed after commit.
type Reconciler struct {
	repo   Repository
	engine poster
	batch  int
}

func NewReconciler(repo Repository, engine poster, batch int) (*Reconciler, error) {
	if repo == nil {
		return nil, fmt.Errorf("journal repository required")
	}
	if engine == nil {
		return nil, fmt.Errorf("posting engine required")
	}
	if batch <= 0 {
		batch = defaultReconcileBatch
	}
	return &Reconciler{repo: repo, engine: engine, batch: batch}, nil
}

// Run posts up to one batch of each source type. Individual posting errors
// are collected; the pass continues past them.
func (r *Reconciler) Run(ctx context.Context) (ReconcileReport, error) {
	var (
		report ReconcileReport
		errs   error
	)

	invoiceIDs, err := r.repo.UnpostedInvoiceIDs(ctx, r.batch)
	if err != nil {
		return report, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list unposted invoices")
	}
	for _, id := range invoiceIDs {
		res, err := r.engine.PostInvoice(ctx, id)
		report.add(res.Outcome)
		errs = multierr.Append(errs, err)
	}

	expenseIDs, err := r.repo.UnpostedExpenseIDs(ctx, r.batch)
	if err != nil {
		return report, multierr.Append(errs, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list unposted expenses"))
	}
	for _, id := range expenseIDs {
		res, err := r.engine.PostExpense(ctx, id)
		report.add(res.Outcome)
		errs = multierr.Append(errs, err)
	}
	return report, errs
}
