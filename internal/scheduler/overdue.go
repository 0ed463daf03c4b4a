// Package scheduler runs periodic background jobs.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrvaldes/biblioteca/internal/database/loans"
)

// OverdueReporter periodically logs how many active loans have exceeded the
// configured loan period.
type OverdueReporter struct {
	loans    *loans.Repository
	period   time.Duration
	schedule string
	cron     *cron.Cron
}

// NewOverdueReporter creates a reporter. period is how long a loan may stay
// active; schedule is a cron expression.
func NewOverdueReporter(loansRepo *loans.Repository, period time.Duration, schedule string) *OverdueReporter {
	return &OverdueReporter{
		loans:    loansRepo,
		period:   period,
		schedule: schedule,
		cron:     cron.New(),
	}
}

// Start registers the job and begins the cron loop.
func (r *OverdueReporter) Start() error {
	if _, err := r.cron.AddFunc(r.schedule, r.Report); err != nil {
		return err
	}
	r.cron.Start()
	log.Printf("Overdue report scheduled (%s), loan period %s", r.schedule, r.period)
	return nil
}

// Stop halts the cron loop, waiting for a running job to finish.
func (r *OverdueReporter) Stop(ctx context.Context) {
	stopped := r.cron.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
	}
}

// Report runs one overdue scan.
func (r *OverdueReporter) Report() {
	cutoff := time.Now().UTC().Add(-r.period)
	count, err := r.loans.CountOverdue(cutoff)
	if err != nil {
		log.Printf("Overdue report failed: %v", err)
		return
	}
	if count == 0 {
		log.Printf("Overdue report: no overdue loans")
		return
	}
	log.Printf("Overdue report: %d loan(s) active since before %s", count, cutoff.Format(time.RFC3339))
}
