package scheduler

import (
	"context"
	"log"
	"sync/atomic"
	"time"
)

// Sweeper is the slice of the borrowing service the scheduler drives.
type Sweeper interface {
	CheckOverdue(ctx context.Context, now time.Time) (int, error)
	SendDueReminders(ctx context.Context, now time.Time) (int, error)
}

// Scheduler periodically runs the overdue and reminder sweeps. Runs are
// single-flight: a tick that arrives while the previous run is still in
// progress is skipped, so overlapping sweeps cannot double-send
// notifications. Each run gets its own bounded-timeout context.
type Scheduler struct {
	sweeper  Sweeper
	interval time.Duration
	timeout  time.Duration

	running atomic.Bool
	stop    chan struct{}
	done    chan struct{}
}

// New creates a Scheduler. The reference cadence is daily; tests use shorter
// intervals.
func New(sweeper Sweeper, interval, timeout time.Duration) *Scheduler {
	return &Scheduler{
		sweeper:  sweeper,
		interval: interval,
		timeout:  timeout,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop in a goroutine. The sweeps run once
// immediately (covering downtime across the scheduled moment) and then on
// every tick until Stop is called.
func (s *Scheduler) Start() {
	go func() {
		defer close(s.done)

		s.runSweeps(time.Now())

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case now := <-ticker.C:
				s.runSweeps(now)
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop halts the sweep loop and waits for it to exit. A sweep already in
// progress finishes its bounded run.
func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
}

// runSweeps executes both sweeps once, unless a previous run is still going.
func (s *Scheduler) runSweeps(now time.Time) {
	if !s.running.CompareAndSwap(false, true) {
		log.Println("Sweep still in progress, skipping this run")
		return
	}
	defer s.running.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	overdue, err := s.sweeper.CheckOverdue(ctx, now)
	if err != nil {
		log.Printf("Overdue sweep failed: %v", err)
	} else {
		log.Printf("Overdue sweep complete: %d borrowing(s) marked overdue", overdue)
	}

	reminders, err := s.sweeper.SendDueReminders(ctx, now)
	if err != nil {
		log.Printf("Reminder sweep failed: %v", err)
	} else {
		log.Printf("Reminder sweep complete: %d reminder(s) enqueued", reminders)
	}
}
