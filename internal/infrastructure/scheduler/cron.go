package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"KhiphopPipeline/internal/ports"
)

// CronScheduler fires a job on a cron schedule from a single goroutine.
// The job runs synchronously, so a slow run delays the next tick instead of
// overlapping it.
type CronScheduler struct {
	schedule *Schedule
	location *time.Location
	logger   *slog.Logger
	now      func() time.Time

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler parses expr and evaluates it in loc (UTC when nil).
func NewCronScheduler(expr string, loc *time.Location, logger *slog.Logger) (*CronScheduler, error) {
	schedule, err := ParseSchedule(expr)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.UTC
	}
	return &CronScheduler{
		schedule: schedule,
		location: loc,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Start launches the tick loop. Calling Start twice is a no-op.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		return nil
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	c.stop, c.done = stop, done

	go c.loop(ctx, job, stop, done)
	return nil
}

func (c *CronScheduler) loop(ctx context.Context, job func(time.Time), stop, done chan struct{}) {
	defer close(done)
	for {
		next := c.schedule.Next(c.now().In(c.location))
		if next.IsZero() {
			c.log("cron schedule never fires again")
			return
		}
		c.log("next run scheduled", "at", next.Format(time.RFC3339))

		timer := time.NewTimer(time.Until(next))
		select {
		case t := <-timer.C:
			job(t.In(c.location))
		case <-ctx.Done():
			timer.Stop()
			return
		case <-stop:
			timer.Stop()
			return
		}
	}
}

// Stop halts the loop and waits for an in-flight job to finish or ctx to expire.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	stop, done := c.stop, c.done
	c.stop, c.done = nil, nil
	c.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for scheduler: %w", ctx.Err())
	}
}

func (c *CronScheduler) log(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
