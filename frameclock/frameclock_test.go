package frameclock

import (
	"errors"
	"math"
	"testing"
	"time"
)

// fakeCounter advances by step on every read.
type fakeCounter struct {
	hz      uint64
	value   uint64
	step    uint64
	reads   int
	resets  int
	readErr error
	setErr  error
}

func (c *fakeCounter) TickHz() uint64 { return c.hz }

func (c *fakeCounter) Counter() (uint64, error) {
	if c.readErr != nil {
		return 0, c.readErr
	}
	c.reads++
	v := c.value
	c.value += c.step
	return v, nil
}

func (c *fakeCounter) SetCounter(v uint64) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.resets++
	c.value = v
	return nil
}

func TestFrameTicks(t *testing.T) {
	tests := []struct {
		name    string
		tickHz  uint64
		delayMS uint64
		want    uint64
	}{
		{"millisecond timer", 1000, 10, 10},
		{"megahertz timer", 1_000_000, 10, 10_000},
		{"floor division", 999, 1, 0},
		{"floor division remainder", 1500, 3, 4},
		{"zero delay", 80_000_000, 0, 0},
		{"zero rate", 0, 10, 0},
		{"no intermediate overflow", math.MaxUint64, 1, math.MaxUint64 / 1000},
		{"saturates", math.MaxUint64, 2000, math.MaxUint64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FrameTicks(tt.tickHz, tt.delayMS); got != tt.want {
				t.Errorf("FrameTicks(%d, %d) = %d, want %d", tt.tickHz, tt.delayMS, got, tt.want)
			}
		})
	}
}

func TestStartResetsCounter(t *testing.T) {
	counter := &fakeCounter{hz: 1000, value: 42}

	clock, err := Start(counter, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	if clock.FrameTicks() != 10 {
		t.Errorf("FrameTicks() = %d, want 10", clock.FrameTicks())
	}
	if counter.resets != 1 || counter.value != 0 {
		t.Errorf("counter not reset on start: resets=%d value=%d", counter.resets, counter.value)
	}
}

func TestWaitForBoundary(t *testing.T) {
	counter := &fakeCounter{hz: 1000, step: 3}

	var sleeps []time.Duration
	clock, err := Start(counter, 10*time.Millisecond, WithSleep(func(d time.Duration) {
		sleeps = append(sleeps, d)
	}))
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	if err := clock.WaitForBoundary(); err != nil {
		t.Fatalf("WaitForBoundary() error: %v", err)
	}

	// Reads return 0, 3, 6, 9, 12: four sleeps before the threshold.
	if counter.reads != 5 {
		t.Errorf("reads = %d, want 5", counter.reads)
	}
	if len(sleeps) != 4 {
		t.Errorf("sleeps = %d, want 4", len(sleeps))
	}
	for _, d := range sleeps {
		if d != DefaultPollInterval {
			t.Errorf("slept %v, want %v", d, DefaultPollInterval)
		}
	}
	if counter.resets != 2 || counter.value != 0 {
		t.Errorf("counter not reset after wait: resets=%d value=%d", counter.resets, counter.value)
	}
}

func TestWaitForBoundaryOverrun(t *testing.T) {
	counter := &fakeCounter{hz: 1000}

	clock, err := Start(counter, 10*time.Millisecond, WithSleep(func(time.Duration) {
		t.Error("unexpected sleep after overrun")
	}))
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	// The previous frame took far longer than the period.
	counter.value = 500

	if err := clock.WaitForBoundary(); err != nil {
		t.Fatalf("WaitForBoundary() error: %v", err)
	}
	if counter.value != 0 {
		t.Errorf("counter = %d after overrun, want 0", counter.value)
	}
}

func TestWaitForBoundaryZeroDelay(t *testing.T) {
	counter := &fakeCounter{hz: 80_000_000}

	clock, err := Start(counter, 0, WithSleep(func(time.Duration) {
		t.Error("zero delay must never sleep")
	}))
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := clock.WaitForBoundary(); err != nil {
			t.Fatalf("WaitForBoundary() error: %v", err)
		}
	}
}

func TestWaitForBoundaryErrors(t *testing.T) {
	errTimer := errors.New("timer fault")

	t.Run("read", func(t *testing.T) {
		counter := &fakeCounter{hz: 1000}
		clock, err := Start(counter, 10*time.Millisecond)
		if err != nil {
			t.Fatalf("Start() error: %v", err)
		}

		counter.readErr = errTimer
		if err := clock.WaitForBoundary(); err != errTimer {
			t.Errorf("WaitForBoundary() error = %v, want %v", err, errTimer)
		}
	})

	t.Run("reset", func(t *testing.T) {
		counter := &fakeCounter{hz: 1000, step: 100}
		clock, err := Start(counter, 10*time.Millisecond)
		if err != nil {
			t.Fatalf("Start() error: %v", err)
		}

		counter.setErr = errTimer
		if err := clock.WaitForBoundary(); err != errTimer {
			t.Errorf("WaitForBoundary() error = %v, want %v", err, errTimer)
		}
	})

	t.Run("start", func(t *testing.T) {
		counter := &fakeCounter{hz: 1000, setErr: errTimer}
		if _, err := Start(counter, 10*time.Millisecond); err != errTimer {
			t.Errorf("Start() error = %v, want %v", err, errTimer)
		}
	})
}

func TestSoftwareCounter(t *testing.T) {
	now := time.Unix(1000, 0)
	clock := func() time.Time { return now }

	counter, err := newSoftwareCounter(1_000_000, clock)
	if err != nil {
		t.Fatalf("newSoftwareCounter() error: %v", err)
	}

	now = now.Add(10 * time.Millisecond)
	if ticks, _ := counter.Counter(); ticks != 10_000 {
		t.Errorf("Counter() = %d, want 10000", ticks)
	}

	if err := counter.SetCounter(0); err != nil {
		t.Fatalf("SetCounter(0) error: %v", err)
	}
	if ticks, _ := counter.Counter(); ticks != 0 {
		t.Errorf("Counter() after reset = %d, want 0", ticks)
	}

	if err := counter.SetCounter(2_500); err != nil {
		t.Fatalf("SetCounter(2500) error: %v", err)
	}
	now = now.Add(time.Millisecond)
	if ticks, _ := counter.Counter(); ticks != 3_500 {
		t.Errorf("Counter() = %d, want 3500", ticks)
	}
}

func TestSoftwareCounterRate(t *testing.T) {
	if _, err := NewSoftwareCounter(0); err == nil {
		t.Error("NewSoftwareCounter(0) succeeded, want error")
	}
	if _, err := NewSoftwareCounter(2 * uint64(time.Second)); err == nil {
		t.Error("NewSoftwareCounter above 1 GHz succeeded, want error")
	}
}

func TestSoftwareCounterDrivesClock(t *testing.T) {
	now := time.Unix(0, 0)
	counter, err := newSoftwareCounter(1000, func() time.Time { return now })
	if err != nil {
		t.Fatalf("newSoftwareCounter() error: %v", err)
	}

	clock, err := Start(counter, 10*time.Millisecond, WithSleep(func(d time.Duration) {
		now = now.Add(d)
	}))
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	start := now
	if err := clock.WaitForBoundary(); err != nil {
		t.Fatalf("WaitForBoundary() error: %v", err)
	}
	if elapsed := now.Sub(start); elapsed != 10*time.Millisecond {
		t.Errorf("waited %v, want 10ms", elapsed)
	}
}
