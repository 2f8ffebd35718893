// Package frameclock gates frame emission on a free-running tick counter.
//
// A Clock converts a frame period into a tick threshold and blocks callers
// until the counter reaches it. The cadence is "at least every period": when a
// frame takes longer than the period, the next wait returns immediately and no
// attempt is made to catch up.
package frameclock

import (
	"math"
	"math/bits"
	"time"
)

// DefaultPollInterval is the cooperative sleep between counter reads.
const DefaultPollInterval = time.Millisecond

// Counter is a monotonically increasing hardware counter.
type Counter interface {
	// TickHz returns the number of ticks per second.
	TickHz() uint64
	// Counter returns the current tick count.
	Counter() (uint64, error)
	// SetCounter overwrites the tick count.
	SetCounter(uint64) error
}

// FrameTicks returns delayMS*tickHz/1000 using floor division. The result
// saturates at math.MaxUint64 instead of overflowing.
func FrameTicks(tickHz, delayMS uint64) uint64 {
	hi, lo := bits.Mul64(delayMS, tickHz)
	if hi >= 1000 {
		return math.MaxUint64
	}
	q, _ := bits.Div64(hi, lo, 1000)
	return q
}

// Clock waits for frame boundaries.
type Clock struct {
	counter    Counter
	frameTicks uint64
	poll       time.Duration
	sleep      func(time.Duration)
}

// Option configures a Clock.
type Option func(*Clock)

// WithSleep replaces time.Sleep. It is mostly useful for tests.
func WithSleep(sleep func(time.Duration)) Option {
	return func(c *Clock) { c.sleep = sleep }
}

// Start creates a clock for the given frame delay and resets the counter.
// A zero delay is legal: every wait returns immediately.
func Start(counter Counter, delay time.Duration, opts ...Option) (*Clock, error) {
	var delayMS uint64
	if ms := delay.Milliseconds(); ms > 0 {
		delayMS = uint64(ms)
	}

	c := &Clock{
		counter:    counter,
		frameTicks: FrameTicks(counter.TickHz(), delayMS),
		poll:       DefaultPollInterval,
		sleep:      time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.Reset(); err != nil {
		return nil, err
	}
	return c, nil
}

// FrameTicks returns the tick threshold of one frame.
func (c *Clock) FrameTicks() uint64 {
	return c.frameTicks
}

// Reset sets the underlying counter to zero.
func (c *Clock) Reset() error {
	return c.counter.SetCounter(0)
}

// WaitForBoundary blocks until at least FrameTicks ticks have elapsed since
// the last reset, then resets the counter. Counter errors are returned as-is.
func (c *Clock) WaitForBoundary() error {
	for {
		ticks, err := c.counter.Counter()
		if err != nil {
			return err
		}
		if ticks >= c.frameTicks {
			break
		}
		c.sleep(c.poll)
	}
	return c.Reset()
}
