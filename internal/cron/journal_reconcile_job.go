package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/stockledger-backend/internal/journal"
	"github.com/angelmondragon/stockledger-backend/pkg/logger"
)

type journalReconciler interface {
	Run(ctx context.Context) (journal.ReconcileReport, error)
}

type JournalReconcileJobParams struct {
	Logger     *logger.Logger
	Reconciler journalReconciler
}

// NewJournalReconcileJob posts journal entries for documents whose post-commit
// posting never ran or failed.
func NewJournalReconcileJob(params JournalReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reconciler == nil {
		return nil, fmt.Errorf("journal reconciler required")
	}
	return &journalReconcileJob{logg: params.Logger, reconciler: params.Reconciler}, nil
}

type journalReconcileJob struct {
	logg       *logger.Logger
	reconciler journalReconciler
}

func (j *journalReconcileJob) Name() string { return "journal-reconcile" }

func (j *journalReconcileJob) Run(ctx context.Context) error {
	report, err := j.reconciler.Run(ctx)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"posted":    report.Posted,
		"skipped":   report.Skipped,
		"duplicate": report.Duplicate,
		"failed":    report.Failed,
	})
	if err != nil {
		return fmt.Errorf("journal reconcile: %w", err)
	}
	j.logg.Info(logCtx, "journal reconcile complete")
	return nil
}
