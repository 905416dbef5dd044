package cron

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/stockledger-backend/pkg/logger"
	"github.com/angelmondragon/stockledger-backend/pkg/metrics"
)

type fakeLock struct {
	held       bool
	acquireErr error
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.acquireErr != nil {
		return false, f.acquireErr
	}
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error { f.held = false; return nil }

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

type manualClock struct{ at time.Time }

func (c *manualClock) now() time.Time { return c.at }

func newTestService(t *testing.T, registry *Registry, lock Lock, clock *manualClock, m *metrics.CronJobMetrics) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard}),
		Registry: registry,
		Lock:     lock,
		Metrics:  m,
		Now:      clock.now,
	})
	require.NoError(t, err)
	return svc
}

func TestRunCycleRunsEveryJobEvenOnFailure(t *testing.T) {
	reconcile := &testJob{name: "journal-reconcile", err: errors.New("db down")}
	retention := &testJob{name: "outbox-retention"}
	clock := &manualClock{at: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	reg := prometheus.NewRegistry()
	svc := newTestService(t, NewRegistry(reconcile, retention), &fakeLock{}, clock, metrics.NewCronJobMetrics(reg))

	require.NoError(t, svc.runCycle(context.Background()))

	assert.Equal(t, 1, reconcile.runs)
	assert.Equal(t, 1, retention.runs)
	expected := `
# HELP stockledger_cron_job_runs_total Cron job runs by result.
# TYPE stockledger_cron_job_runs_total counter
stockledger_cron_job_runs_total{job="journal-reconcile",result="failure"} 1
stockledger_cron_job_runs_total{job="outbox-retention",result="success"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "stockledger_cron_job_runs_total"))
}

func TestRunCycleSkipsWhenLockHeldElsewhere(t *testing.T) {
	job := &testJob{name: "journal-reconcile"}
	clock := &manualClock{at: time.Now()}
	svc := newTestService(t, NewRegistry(job), &fakeLock{held: true}, clock, nil)

	require.NoError(t, svc.runCycle(context.Background()))
	assert.Zero(t, job.runs)
}

func TestRunCycleSurfacesLockErrors(t *testing.T) {
	clock := &manualClock{at: time.Now()}
	svc := newTestService(t, NewRegistry(&testJob{name: "x"}), &fakeLock{acquireErr: errors.New("redis down")}, clock, nil)

	err := svc.runCycle(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lock acquire")
}

func TestRunCycleRespectsJobCadence(t *testing.T) {
	registry := NewRegistry()
	reconcile := &testJob{name: "journal-reconcile"}
	retention := &testJob{name: "outbox-retention"}
	registry.Register(reconcile, 5*time.Minute)
	registry.Register(retention, 24*time.Hour)
	clock := &manualClock{at: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	svc := newTestService(t, registry, &fakeLock{}, clock, nil)
	assert.Equal(t, 5*time.Minute, svc.tick)

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.runCycle(context.Background()))
		clock.at = clock.at.Add(5 * time.Minute)
	}

	assert.Equal(t, 3, reconcile.runs)
	assert.Equal(t, 1, retention.runs)
}
