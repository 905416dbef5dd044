package cron

import (
	"context"
	"sync"
	"time"
)

// Job is a unit of periodic ledger maintenance, e.g. re-posting paid invoices
// that never reached the journal.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type schedule struct {
	job     Job
	every   time.Duration
	lastRun time.Time
}

// Registry holds jobs together with their cadence. A zero cadence means the
// job runs on every scheduler tick.
type Registry struct {
	mu        sync.Mutex
	schedules []*schedule
}

func NewRegistry(jobs ...Job) *Registry {
	r := &Registry{}
	for _, job := range jobs {
		r.Register(job, 0)
	}
	return r
}

func (r *Registry) Register(job Job, every time.Duration) {
	if job == nil {
		return
	}
	if every < 0 {
		every = 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schedules = append(r.schedules, &schedule{job: job, every: every})
}

// Jobs returns the registered jobs in registration order.
func (r *Registry) Jobs() []Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	jobs := make([]Job, 0, len(r.schedules))
	for _, s := range r.schedules {
		jobs = append(jobs, s.job)
	}
	return jobs
}

// due returns the jobs whose cadence has elapsed at now and stamps them as run.
func (r *Registry) due(now time.Time) []Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	var jobs []Job
	for _, s := range r.schedules {
		if !s.lastRun.IsZero() && now.Sub(s.lastRun) < s.every {
			continue
		}
		s.lastRun = now
		jobs = append(jobs, s.job)
	}
	return jobs
}

// tick is the smallest non-zero cadence, or fallback when none is set.
func (r *Registry) tick(fallback time.Duration) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	tick := time.Duration(0)
	for _, s := range r.schedules {
		if s.every > 0 && (tick == 0 || s.every < tick) {
			tick = s.every
		}
	}
	if tick == 0 || (fallback > 0 && fallback < tick) {
		return fallback
	}
	return tick
}
