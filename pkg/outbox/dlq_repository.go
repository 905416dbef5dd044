package outbox

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
)

// DLQRepository stores outbox rows the publisher gave up on. A dead-lettered
// invoice_fully_paid means a paid invoice that never reached the journal, so
// operators requeue entries once the cause is fixed.
type DLQRepository struct {
	db *gorm.DB
}

func NewDLQRepository(db *gorm.DB) *DLQRepository {
	return &DLQRepository{db: db}
}

func (r *DLQRepository) InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.ErrorMessage = truncateMessage(entry.ErrorMessage)
	return tx.Create(&entry).Error
}

// Requeue hands a dead-lettered event back to the publisher with a fresh
// attempt budget and drops its DLQ entry.
func (r *DLQRepository) Requeue(ctx context.Context, eventID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry models.OutboxDLQ
		if err := tx.Where("event_id = ?", eventID).First(&entry).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "dead-lettered event not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dlq entry")
		}

		res := tx.Model(&models.OutboxEvent{}).
			Where("id = ? AND published_at IS NULL", eventID).
			Updates(map[string]any{"attempt_count": 0, "last_error": nil})
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "reset outbox event")
		}
		if res.RowsAffected == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("outbox event %s is published or gone", eventID))
		}
		if err := tx.Delete(&entry).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete dlq entry")
		}
		return nil
	})
}

// ListRecent returns the newest dead-lettered events first.
func (r *DLQRepository) ListRecent(ctx context.Context, limit int) ([]models.OutboxDLQ, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.OutboxDLQ
	err := r.db.WithContext(ctx).Order("failed_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

func truncateMessage(msg *string) *string {
	if msg == nil || len(*msg) <= maxLastErrorLen {
		return msg
	}
	short := (*msg)[:maxLastErrorLen]
	return &short
}
