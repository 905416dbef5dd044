package main

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockledger-backend/pkg/config"
	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	"github.com/angelmondragon/stockledger-backend/pkg/logger"
	"github.com/angelmondragon/stockledger-backend/pkg/outbox"
	"github.com/angelmondragon/stockledger-backend/pkg/outbox/registry"
)

// harness wires a Service to in-memory collaborators.
type harness struct {
	rows        *memoryOutbox
	topic       *scriptedTopic
	resolver    *stubResolver
	deadLetters *memoryDLQ
	svc         *Service
}

func newHarness(t *testing.T, outboxCfg config.OutboxConfig, rows ...models.OutboxEvent) *harness {
	t.Helper()
	h := &harness{
		rows:        &memoryOutbox{pending: rows},
		topic:       &scriptedTopic{},
		resolver:    &stubResolver{},
		deadLetters: &memoryDLQ{},
	}
	if outboxCfg.BatchSize == 0 {
		outboxCfg = config.OutboxConfig{BatchSize: 2, PollIntervalMS: 100, MaxAttempts: 5}
	}
	svc, err := NewService(ServiceParams{
		Config:           &config.Config{Outbox: outboxCfg},
		Logger:           logger.New(logger.Options{ServiceName: "outbox-publisher-test", Output: io.Discard}),
		DB:               inlineTx{},
		PubSub:           &nilPubSub{},
		Repository:       h.rows,
		Registry:         h.resolver,
		PublisherFactory: func(string) publisher { return h.topic },
		DLQRepository:    h.deadLetters,
	})
	require.NoError(t, err)
	h.svc = svc
	return h
}

func outboxRow(t *testing.T, eventType enums.OutboxEventType, aggregate enums.OutboxAggregateType, id uint) models.OutboxEvent {
	t.Helper()
	eventID := uuid.New()
	payload, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID.String(),
		OccurredAt: time.Now(),
		Data:       json.RawMessage(`{}`),
	})
	require.NoError(t, err)
	return models.OutboxEvent{ID: eventID, EventType: eventType, AggregateType: aggregate, AggregateID: id, Payload: payload}
}

type memoryOutbox struct {
	pending   []models.OutboxEvent
	published []uuid.UUID
	retried   []uuid.UUID
	terminal  []uuid.UUID
}

func (m *memoryOutbox) FetchUnpublishedForPublish(_ *gorm.DB, _, _ int) ([]models.OutboxEvent, error) {
	return m.pending, nil
}

func (m *memoryOutbox) MarkPublishedTx(_ *gorm.DB, id uuid.UUID) error {
	m.published = append(m.published, id)
	return nil
}

func (m *memoryOutbox) MarkFailedTx(_ *gorm.DB, id uuid.UUID, _ error) error {
	m.retried = append(m.retried, id)
	return nil
}

func (m *memoryOutbox) MarkTerminalTx(_ *gorm.DB, id uuid.UUID, _ error, _ int) error {
	m.terminal = append(m.terminal, id)
	return nil
}

type memoryDLQ struct{ entries []models.OutboxDLQ }

func (m *memoryDLQ) InsertTx(_ *gorm.DB, entry models.OutboxDLQ) error {
	m.entries = append(m.entries, entry)
	return nil
}

type inlineTx struct{}

func (inlineTx) Ping(context.Context) error { return nil }

func (inlineTx) WithTx(_ context.Context, fn func(*gorm.DB) error) error { return fn(nil) }

type nilPubSub struct{ lookups int }

func (*nilPubSub) Ping(context.Context) error { return nil }

func (n *nilPubSub) Publisher(string) *gcppubsub.Publisher {
	n.lookups++
	return nil
}

// scriptedTopic answers publishes with the queued errors in order; once the
// queue is empty every publish succeeds.
type scriptedTopic struct {
	failures []error
	sent     []*gcppubsub.Message
	resumed  []string
}

func (s *scriptedTopic) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	s.sent = append(s.sent, msg)
	var err error
	if len(s.failures) > 0 {
		err, s.failures = s.failures[0], s.failures[1:]
	}
	return settledResult{err: err}
}

func (s *scriptedTopic) ResumePublish(key string) {
	s.resumed = append(s.resumed, key)
}

type settledResult struct{ err error }

func (r settledResult) Get(context.Context) (string, error) { return "server-id", r.err }

// stubResolver resolves every row to the domain topic unless err is set.
type stubResolver struct {
	err   error
	actor *outbox.ActorRef
}

func (s *stubResolver) Resolve(event models.OutboxEvent) (*registry.ResolvedEvent, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &registry.ResolvedEvent{
		Descriptor: registry.EventDescriptor{Topic: "domain-topic", AggregateType: event.AggregateType},
		Envelope: outbox.PayloadEnvelope{
			Version:    1,
			EventID:    event.ID.String(),
			OccurredAt: time.Now(),
			Actor:      s.actor,
		},
	}, nil
}

type recordingRequeuer struct{ ids []uuid.UUID }

func (r *recordingRequeuer) Requeue(_ context.Context, id uuid.UUID) error {
	r.ids = append(r.ids, id)
	return nil
}
