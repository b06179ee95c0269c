package peripheral

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitDone(t *testing.T, s *Scheduler) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestSchedulerTicks(t *testing.T) {
	var n atomic.Int32
	s := NewScheduler(2*time.Millisecond, func() { n.Add(1) })
	s.Start()
	s.Start()

	assert.Eventually(t, func() bool { return n.Load() >= 3 }, time.Second, time.Millisecond)

	s.Stop()
	waitDone(t, s)

	stopped := n.Load()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, stopped, n.Load())
}

func TestSchedulerDefaultInterval(t *testing.T) {
	s := NewScheduler(0, func() {})
	assert.Equal(t, DefaultInterval, s.Interval())
}

func TestSchedulerFirstTickImmediate(t *testing.T) {
	ticked := make(chan struct{}, 1)
	s := NewScheduler(time.Hour, func() {
		select {
		case ticked <- struct{}{}:
		default:
		}
	})
	s.Start()
	defer s.Stop()

	select {
	case <-ticked:
	case <-time.After(time.Second):
		t.Fatal("first tick did not run")
	}
}

func TestSchedulerNoOverlap(t *testing.T) {
	var (
		mu      sync.Mutex
		running int
		peak    int
		starts  []time.Time
	)
	const work = 15 * time.Millisecond
	const interval = 5 * time.Millisecond

	s := NewScheduler(interval, func() {
		mu.Lock()
		running++
		peak = max(peak, running)
		starts = append(starts, time.Now())
		mu.Unlock()

		time.Sleep(work)

		mu.Lock()
		running--
		mu.Unlock()
	})
	s.Start()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(starts) >= 4
	}, 2*time.Second, time.Millisecond)

	s.Stop()
	waitDone(t, s)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, peak)

	// the period is measured from the end of the previous tick
	for i := 1; i < len(starts); i++ {
		assert.GreaterOrEqual(t, starts[i].Sub(starts[i-1]), work+interval)
	}
}

func TestSchedulerStopIdempotent(t *testing.T) {
	s := NewScheduler(time.Millisecond, func() {})
	s.Start()
	s.Stop()
	s.Stop()
	waitDone(t, s)
}

func TestSchedulerStopBeforeStart(t *testing.T) {
	var n atomic.Int32
	s := NewScheduler(time.Millisecond, func() { n.Add(1) })
	s.Stop()
	waitDone(t, s)

	s.Start()
	time.Sleep(10 * time.Millisecond)
	assert.Zero(t, n.Load())
}

func TestSchedulerStopFromTick(t *testing.T) {
	var n atomic.Int32
	var s *Scheduler
	s = NewScheduler(time.Millisecond, func() {
		n.Add(1)
		s.Stop()
	})
	s.Start()

	waitDone(t, s)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(1), n.Load())
}

func TestSchedulerStopMidTick(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var n atomic.Int32

	s := NewScheduler(time.Millisecond, func() {
		if n.Add(1) == 1 {
			close(entered)
			<-release
		}
	})
	s.Start()
	<-entered

	s.Stop()
	select {
	case <-s.Done():
		t.Fatal("Done closed while a tick was running")
	default:
	}

	close(release)
	waitDone(t, s)
	require.Equal(t, int32(1), n.Load())
}
