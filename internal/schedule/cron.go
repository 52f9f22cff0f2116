package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"wildwatch-sim/internal/logging"
)

// Midnight is the cron spec (with seconds) for local midnight.
const Midnight = "0 0 0 * * *"

// Cron wraps a robfig/cron scheduler with seconds precision.
type Cron struct {
	cron *cron.Cron
}

// NewCron creates a scheduler evaluating specs in loc. A nil loc means time.Local.
func NewCron(loc *time.Location) *Cron {
	if loc == nil {
		loc = time.Local
	}
	return &Cron{cron: cron.New(cron.WithSeconds(), cron.WithLocation(loc))}
}

// Add registers fn under spec. Panics in fn are logged and swallowed.
func (c *Cron) Add(ctx context.Context, name, spec string, fn func()) error {
	log := logging.FromContext(ctx)
	_, err := c.cron.AddFunc(spec, func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("scheduled job panicked", "job", name, "panic", r)
			}
		}()
		log.Debug("running scheduled job", "job", name)
		fn()
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	return nil
}

// Start begins running jobs in the background.
func (c *Cron) Start() { c.cron.Start() }

// Stop halts the scheduler and waits for running jobs to complete.
func (c *Cron) Stop() {
	<-c.cron.Stop().Done()
}

// Entries returns the number of registered jobs.
func (c *Cron) Entries() int { return len(c.cron.Entries()) }

// Next returns the next activation time of the first job.
func (c *Cron) Next() time.Time {
	entries := c.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
