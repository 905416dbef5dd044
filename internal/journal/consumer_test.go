package journal

import (
	"context"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"github.com/angelmondragon/stockledger-backend/pkg/logger"
	"github.com/angelmondragon/stockledger-backend/pkg/outbox"
)

type recordingPoster struct {
	invoices []uint
	expenses []uint
	err      error
}

func (p *recordingPoster) PostInvoice(ctx context.Context, id uint) (Result, error) {
	p.invoices = append(p.invoices, id)
	return Result{Outcome: enums.PostingOutcomePosted}, p.err
}

func (p *recordingPoster) PostExpense(ctx context.Context, id uint) (Result, error) {
	p.expenses = append(p.expenses, id)
	return Result{Outcome: enums.PostingOutcomePosted}, p.err
}

type memoryMarker struct {
	seen      map[uuid.UUID]bool
	deleted   []uuid.UUID
	deleteErr error
}

func (m *memoryMarker) CheckAndMarkProcessed(ctx context.Context, consumer string, id uuid.UUID) (bool, error) {
	if m.seen[id] {
		return true, nil
	}
	m.seen[id] = true
	return false, nil
}

func (m *memoryMarker) Delete(ctx context.Context, consumer string, id uuid.UUID) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.seen, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func newTestConsumer(p *recordingPoster) (*Consumer, *memoryMarker) {
	marker := &memoryMarker{seen: map[uuid.UUID]bool{}}
	return &Consumer{
		engine:      p,
		idempotency: marker,
		logg:        logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	}, marker
}

func envelopeBytes(t *testing.T, eventID uuid.UUID, data any) []byte {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	out, err := json.Marshal(outbox.PayloadEnvelope{Version: 1, EventID: eventID.String(), OccurredAt: time.Now(), Data: raw})
	require.NoError(t, err)
	return out
}

func TestConsumerPostsFullyPaidInvoiceOnce(t *testing.T) {
	p := &recordingPoster{}
	c, _ := newTestConsumer(p)
	id := uuid.New()
	data := envelopeBytes(t, id, map[string]any{"invoice_id": 9, "company_id": 1})

	assert.False(t, c.process(context.Background(), "m1", string(enums.EventInvoiceFullyPaid), data))
	assert.False(t, c.process(context.Background(), "m2", string(enums.EventInvoiceFullyPaid), data))

	assert.Equal(t, []uint{9}, p.invoices)
}

func TestConsumerPostsRecordedExpense(t *testing.T) {
	p := &recordingPoster{}
	c, _ := newTestConsumer(p)
	data := envelopeBytes(t, uuid.New(), map[string]any{"expense_id": 4})

	assert.False(t, c.process(context.Background(), "m1", string(enums.EventExpenseRecorded), data))
	assert.Equal(t, []uint{4}, p.expenses)
}

func TestConsumerIgnoresOtherEvents(t *testing.T) {
	p := &recordingPoster{}
	c, _ := newTestConsumer(p)

	assert.False(t, c.process(context.Background(), "m1", string(enums.EventInvoiceCreated), []byte("not json")))
	assert.Empty(t, p.invoices)
	assert.Empty(t, p.expenses)
}

func TestConsumerRetriesDependencyFailures(t *testing.T) {
	p := &recordingPoster{err: pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("lock busy"), "acquire posting lock")}
	c, marker := newTestConsumer(p)
	id := uuid.New()
	data := envelopeBytes(t, id, map[string]any{"invoice_id": 9})

	assert.True(t, c.process(context.Background(), "m1", string(enums.EventInvoiceFullyPaid), data))
	assert.Equal(t, []uuid.UUID{id}, marker.deleted, "claim released for redelivery")

	p.err = nil
	assert.False(t, c.process(context.Background(), "m2", string(enums.EventInvoiceFullyPaid), data))
	assert.Equal(t, []uint{9, 9}, p.invoices)
}

func TestConsumerDropsPermanentFailures(t *testing.T) {
	p := &recordingPoster{err: pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")}
	c, marker := newTestConsumer(p)
	data := envelopeBytes(t, uuid.New(), map[string]any{"invoice_id": 9})

	assert.False(t, c.process(context.Background(), "m1", string(enums.EventInvoiceFullyPaid), data))
	assert.Empty(t, marker.deleted)

	bad := envelopeBytes(t, uuid.New(), map[string]any{"company_id": 1})
	assert.False(t, c.process(context.Background(), "m2", string(enums.EventInvoiceFullyPaid), bad))
	assert.Equal(t, []uint{9}, p.invoices)
}

func TestConsumerLogsFailedMarkerRelease(t *testing.T) {
	p := &recordingPoster{err: pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("lock busy"), "acquire posting lock")}
	c, marker := newTestConsumer(p)
	marker.deleteErr = errors.New("redis unavailable")
	buf := &bytes.Buffer{}
	c.logg = logger.New(logger.Options{ServiceName: "test", Output: buf})
	data := envelopeBytes(t, uuid.New(), map[string]any{"invoice_id": 9})

	assert.True(t, c.process(context.Background(), "m1", string(enums.EventInvoiceFullyPaid), data))
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), "release processed marker failed")
	assert.Contains(t, buf.String(), "redis unavailable")
}
