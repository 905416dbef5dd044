package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/stockledger-backend/pkg/logger"
)

const (
	defaultRetentionDays = 30
	defaultPurgeBatch    = 500
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type publishedEventPurger interface {
	DeletePublishedBefore(tx *gorm.DB, cutoff time.Time, limit int) (int64, error)
}

type OutboxRetentionJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository publishedEventPurger
	// RetentionDays defaults to 30.
	RetentionDays int
	// BatchSize caps the rows removed per transaction.
	BatchSize int
}

// NewOutboxRetentionJob purges published outbox rows once they are older than
// the retention window. Unpublished rows are never touched.
func NewOutboxRetentionJob(p OutboxRetentionJobParams) (Job, error) {
	switch {
	case p.Logger == nil:
		return nil, errors.New("logger required")
	case p.DB == nil:
		return nil, errors.New("db runner required")
	case p.Repository == nil:
		return nil, errors.New("outbox repository required")
	}
	job := &outboxRetentionJob{
		logg:   p.Logger,
		db:     p.DB,
		purger: p.Repository,
		window: time.Duration(defaultRetentionDays) * 24 * time.Hour,
		batch:  defaultPurgeBatch,
		now:    time.Now,
	}
	if p.RetentionDays > 0 {
		job.window = time.Duration(p.RetentionDays) * 24 * time.Hour
	}
	if p.BatchSize > 0 {
		job.batch = p.BatchSize
	}
	return job, nil
}

type outboxRetentionJob struct {
	logg   *logger.Logger
	db     txRunner
	purger publishedEventPurger
	window time.Duration
	batch  int
	now    func() time.Time
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

// Run deletes in batches until a short batch signals the backlog is gone.
func (j *outboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.window)
	var total int64
	for batches := 0; ; batches++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		var n int64
		err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
			var err error
			n, err = j.purger.DeletePublishedBefore(tx, cutoff, j.batch)
			return err
		})
		if err != nil {
			return fmt.Errorf("outbox retention batch %d: %w", batches+1, err)
		}
		total += n
		if n < int64(j.batch) {
			break
		}
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": total,
	}), "outbox retention cleanup complete")
	return nil
}
