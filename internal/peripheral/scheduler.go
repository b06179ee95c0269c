package peripheral

import (
	"sync"
	"time"
)

// DefaultInterval is the period between sync ticks.
const DefaultInterval = 500 * time.Millisecond

// Scheduler runs a tick function repeatedly. The next tick is armed only
// after the current one returns, so ticks never overlap and a slow transport
// stretches the period instead of queueing work.
type Scheduler struct {
	interval time.Duration
	tick     func()

	mu      sync.Mutex
	started bool
	stopped bool

	quit chan struct{}
	done chan struct{}
}

// NewScheduler creates a stopped scheduler. A non-positive interval uses
// DefaultInterval.
func NewScheduler(interval time.Duration, tick func()) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		interval: interval,
		tick:     tick,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Interval returns the configured tick period.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Start runs the first tick immediately on a new goroutine. Calling Start
// more than once, or after Stop, does nothing.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started || s.stopped {
		return
	}
	s.started = true
	go s.run()
}

// Stop prevents further ticks. A tick already running is allowed to finish;
// Done is closed once it has. Stop is idempotent and may be called from
// inside the tick function.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.stopped = true
	close(s.quit)
	if !s.started {
		close(s.done)
	}
}

// Done is closed when the scheduler has stopped and no tick is running.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

func (s *Scheduler) run() {
	defer close(s.done)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-s.quit:
			return
		case <-timer.C:
		}

		// quit and the timer can be ready together
		select {
		case <-s.quit:
			return
		default:
		}

		s.tick()
		timer.Reset(s.interval)
	}
}
