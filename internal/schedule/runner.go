// Package schedule computes report-schedule run times and drives the
// background schedule runner.
package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/tknelms/carkeeper/backend/internal/logging"
	"github.com/tknelms/carkeeper/backend/internal/models"
	"github.com/tknelms/carkeeper/backend/internal/store"
)

// Generator produces the report for a due schedule. The runner stamps
// LastRun and the next NextRun regardless of the generator's outcome, so
// a failing schedule retries at its next slot instead of hot-looping.
type Generator func(ctx context.Context, s models.ReportSchedule) error

// Runner periodically scans the reportSchedules collection and fires the
// ones whose NextRun has passed.
type Runner struct {
	schedules store.Collection[models.ReportSchedule]
	generate  Generator
	interval  time.Duration

	mu        sync.Mutex
	isRunning bool
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

// DefaultPollInterval is how often the runner checks for due schedules.
const DefaultPollInterval = time.Minute

// NewRunner creates a runner over an opened store. A non-positive
// interval selects DefaultPollInterval.
func NewRunner(s *store.Store, generate Generator, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Runner{
		schedules: store.NewCollection[models.ReportSchedule](s, store.ReportSchedules),
		generate:  generate,
		interval:  interval,
	}
}

// Start launches the background loop. Calling Start on a running runner
// is a no-op; a stopped runner may be started again.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	if r.isRunning {
		r.mu.Unlock()
		return
	}
	r.isRunning = true
	r.stopCh = make(chan struct{})
	stop := r.stopCh
	r.mu.Unlock()

	r.wg.Add(1)
	go r.loop(ctx, stop)
}

// Stop halts the loop and waits for an in-flight tick to finish.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.isRunning {
		r.mu.Unlock()
		return
	}
	r.isRunning = false
	close(r.stopCh)
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *Runner) loop(ctx context.Context, stop <-chan struct{}) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			r.tick(ctx, time.Now())
		}
	}
}

// tick fires every enabled schedule whose NextRun is due and reschedules
// it. Schedules with a missing or unparseable NextRun are repaired by
// computing a fresh one.
func (r *Runner) tick(ctx context.Context, now time.Time) {
	all, err := r.schedules.All(ctx)
	if err != nil {
		logging.Error("failed to list report schedules", err, nil)
		return
	}

	for _, s := range all {
		if !s.Enabled {
			continue
		}

		next, parseErr := time.Parse(time.RFC3339, s.NextRun)
		if s.NextRun != "" && parseErr == nil && next.After(now) {
			continue
		}

		if s.NextRun != "" && parseErr == nil {
			if err := r.generate(ctx, s); err != nil {
				logging.Error("scheduled report generation failed", err,
					map[string]any{"schedule": s.ID, "template": s.TemplateID})
			} else {
				s.LastRun = now.UTC().Format(time.RFC3339)
				logging.Info("scheduled report generated",
					map[string]any{"schedule": s.ID, "template": s.TemplateID})
			}
		}

		rescheduled, err := NextRunFor(now, s)
		if err != nil {
			logging.Error("schedule has invalid recurrence, leaving it alone", err,
				map[string]any{"schedule": s.ID})
			continue
		}
		s.NextRun = rescheduled.UTC().Format(time.RFC3339)
		if _, err := r.schedules.Put(ctx, s); err != nil {
			logging.Error("failed to reschedule report", err, map[string]any{"schedule": s.ID})
		}
	}
}
