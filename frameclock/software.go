package frameclock

import (
	"math/bits"
	"time"

	"github.com/pkg/errors"
)

// SoftwareCounter is a Counter backed by the runtime's monotonic clock. It is
// used where no hardware timer is exposed, such as the host daemon and TinyGo
// targets.
type SoftwareCounter struct {
	hz   uint64
	now  func() time.Time
	base time.Time
}

var _ Counter = (*SoftwareCounter)(nil)

// NewSoftwareCounter creates a counter ticking hz times per second, starting
// at zero.
func NewSoftwareCounter(hz uint64) (*SoftwareCounter, error) {
	return newSoftwareCounter(hz, time.Now)
}

func newSoftwareCounter(hz uint64, now func() time.Time) (*SoftwareCounter, error) {
	if hz == 0 {
		return nil, errors.New("tick rate must be positive")
	}
	if hz > uint64(time.Second) {
		return nil, errors.Errorf("tick rate %d Hz exceeds clock resolution", hz)
	}
	return &SoftwareCounter{hz: hz, now: now, base: now()}, nil
}

// TickHz implements Counter.
func (c *SoftwareCounter) TickHz() uint64 {
	return c.hz
}

// Counter implements Counter.
func (c *SoftwareCounter) Counter() (uint64, error) {
	elapsed := c.now().Sub(c.base)
	if elapsed <= 0 {
		return 0, nil
	}
	hi, lo := bits.Mul64(uint64(elapsed), c.hz)
	ticks, _ := bits.Div64(hi, lo, uint64(time.Second))
	return ticks, nil
}

// SetCounter implements Counter.
func (c *SoftwareCounter) SetCounter(ticks uint64) error {
	hi, lo := bits.Mul64(ticks, uint64(time.Second))
	if hi >= c.hz {
		return errors.Errorf("counter value %d out of range", ticks)
	}
	ns, _ := bits.Div64(hi, lo, c.hz)
	if ns > uint64(1<<63-1) {
		return errors.Errorf("counter value %d out of range", ticks)
	}
	c.base = c.now().Add(-time.Duration(ns))
	return nil
}
