package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	"github.com/angelmondragon/stockledger-backend/pkg/metrics"
	"github.com/angelmondragon/stockledger-backend/pkg/outbox"
	"github.com/angelmondragon/stockledger-backend/pkg/outbox/registry"
)

// delivery tracks one outbox row through resolve, publish and settle.
type delivery struct {
	event    models.OutboxEvent
	resolved *registry.ResolvedEvent
	pub      publisher
	result   publishResult
	err      error
}

func (d *delivery) topic() string {
	if d.resolved == nil {
		return ""
	}
	return d.resolved.Descriptor.Topic
}

func (d *delivery) envelope() outbox.PayloadEnvelope {
	if d.resolved == nil {
		return outbox.PayloadEnvelope{}
	}
	return d.resolved.Envelope
}

// processBatch publishes every row of one locked batch before waiting on any
// result, then settles each row inside the same transaction. It reports
// whether any row was claimed.
func (s *Service) processBatch(ctx context.Context) (bool, error) {
	processed := false
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := s.repo.FetchUnpublishedForPublish(tx, s.batchSize, s.maxAttempts)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}
		processed = true

		publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
		defer cancel()

		deliveries := make([]*delivery, 0, len(events))
		for _, event := range events {
			deliveries = append(deliveries, s.publish(publishCtx, event))
		}
		for _, d := range deliveries {
			if d.result != nil {
				_, d.err = d.result.Get(publishCtx)
			}
			if err := s.settle(ctx, tx, d); err != nil {
				return err
			}
		}
		return nil
	})
	return processed, err
}

func (s *Service) publish(ctx context.Context, event models.OutboxEvent) *delivery {
	d := &delivery{event: event}
	resolved, err := s.registry.Resolve(event)
	if err != nil {
		d.err = registry.NewNonRetryableError(err)
		return d
	}
	d.resolved = resolved

	d.pub = s.publishers(resolved.Descriptor.Topic)
	if d.pub == nil {
		d.err = registry.NewNonRetryableError(fmt.Errorf("publisher not configured for topic %s", resolved.Descriptor.Topic))
		return d
	}
	d.result = d.pub.Publish(ctx, &gcppubsub.Message{
		Data:        event.Payload,
		Attributes:  messageAttributes(event, resolved.Envelope),
		OrderingKey: orderingKey(event),
	})
	if d.result == nil {
		d.err = registry.NewNonRetryableError(fmt.Errorf("publisher returned nil for topic %s", resolved.Descriptor.Topic))
	}
	return d
}

func (s *Service) settle(ctx context.Context, tx *gorm.DB, d *delivery) error {
	fields := s.eventFields(d.event, d.envelope(), d.topic())
	eventType := string(d.event.EventType)

	if d.err == nil {
		if err := s.repo.MarkPublishedTx(tx, d.event.ID); err != nil {
			return fmt.Errorf("mark published %s: %w", d.event.ID, err)
		}
		s.metrics.Observe(eventType, metrics.OutboxPublished)
		s.metrics.ObserveLag(d.event.CreatedAt, s.now())
		s.logg.Info(s.logg.WithFields(ctx, fields), "outbox event published")
		return nil
	}

	// A failed ordered publish pauses its key until resumed.
	if r, ok := d.pub.(orderingResumer); ok {
		r.ResumePublish(orderingKey(d.event))
	}

	var nonRetry registry.NonRetryableError
	if errors.As(d.err, &nonRetry) {
		return s.deadLetter(ctx, tx, d.event, enums.OutboxDLQReasonNonRetryable, d.err, fields)
	}

	attempt := d.event.AttemptCount + 1
	fields["attempt_count"] = attempt
	if attempt >= s.maxAttempts {
		fields["terminal_reason"] = "max_attempts"
		return s.deadLetter(ctx, tx, d.event, enums.OutboxDLQReasonMaxAttempts, fmt.Errorf("max publish attempts reached: %w", d.err), fields)
	}

	s.logg.Warn(s.logg.WithFields(ctx, withError(fields, d.err)), "outbox publish failed, will retry")
	if err := s.repo.MarkFailedTx(tx, d.event.ID, d.err); err != nil {
		return fmt.Errorf("mark failure %s: %w", d.event.ID, err)
	}
	s.metrics.Observe(eventType, metrics.OutboxRetry)
	return nil
}

func (s *Service) deadLetter(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, reason enums.OutboxDLQErrorReason, cause error, fields map[string]any) error {
	fields["error_reason"] = reason
	s.logg.Warn(s.logg.WithFields(ctx, withError(fields, cause)), "outbox event dead-lettered")

	msg := cause.Error()
	entry := models.OutboxDLQ{
		EventID:       event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		ErrorReason:   reason,
		ErrorMessage:  &msg,
		AttemptCount:  event.AttemptCount,
		FailedAt:      s.now(),
	}
	if err := s.dlq.InsertTx(tx, entry); err != nil {
		return fmt.Errorf("insert dlq %s: %w", event.ID, err)
	}
	if err := s.repo.MarkTerminalTx(tx, event.ID, cause, s.maxAttempts); err != nil {
		return fmt.Errorf("mark terminal %s: %w", event.ID, err)
	}
	s.metrics.Observe(string(event.EventType), metrics.OutboxDeadLettered)
	return nil
}

// orderingKey keeps events of one document in commit order on the topic, so
// a consumer never sees invoice_fully_paid before invoice_created.
func orderingKey(event models.OutboxEvent) string {
	return string(event.AggregateType) + ":" + strconv.FormatUint(uint64(event.AggregateID), 10)
}

// messageAttributes lets subscribers filter on company and document without
// decoding the payload.
func messageAttributes(event models.OutboxEvent, envelope outbox.PayloadEnvelope) map[string]string {
	attrs := map[string]string{
		"event_id":       envelope.EventID,
		"event_type":     string(event.EventType),
		"event_version":  strconv.Itoa(envelope.Version),
		"aggregate_type": string(event.AggregateType),
		"aggregate_id":   strconv.FormatUint(uint64(event.AggregateID), 10),
		"created_at":     event.CreatedAt.Format(time.RFC3339Nano),
	}
	if envelope.Actor != nil && envelope.Actor.CompanyID != 0 {
		attrs["company_id"] = strconv.FormatUint(uint64(envelope.Actor.CompanyID), 10)
	}
	return attrs
}

func (s *Service) eventFields(event models.OutboxEvent, envelope outbox.PayloadEnvelope, topic string) map[string]any {
	fields := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID,
		"attempt_count":  event.AttemptCount,
	}
	if envelope.Actor != nil {
		fields["company_id"] = envelope.Actor.CompanyID
	}
	if envelope.EventID != "" {
		fields["event_id"] = envelope.EventID
	}
	if topic != "" {
		fields["topic"] = topic
	}
	return fields
}

func withError(fields map[string]any, err error) map[string]any {
	out := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["error"] = err.Error()
	return out
}
