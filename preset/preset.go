// Package preset implements the animation presets and the render loop that
// drives them.
package preset

import (
	"context"
	"fmt"
	"math"

	"github.com/pkg/errors"
	"libdb.so/presetglow/led"
)

// Settings are the per-preset tunables. Their meaning is up to each preset,
// and a preset may ignore any of them.
type Settings struct {
	Brightness uint8 `toml:"brightness"`
	Speed      uint8 `toml:"speed"`
	Scale      uint8 `toml:"scale"`
}

// DefaultSettings returns the midpoint of every knob.
func DefaultSettings() Settings {
	return Settings{
		Brightness: math.MaxUint8 / 2,
		Speed:      math.MaxUint8 / 2,
		Scale:      math.MaxUint8 / 2,
	}
}

// Topology describes the strip a preset renders to.
type Topology struct {
	// LEDCount is the number of LEDs in the strip.
	LEDCount int
}

// Sink receives rendered frames. WriteFrame blocks until the frame has been
// handed off and must not retain the strip after returning.
type Sink interface {
	WriteFrame(led.LEDs) error
}

// Clock gates frame emission. *frameclock.Clock implements it.
type Clock interface {
	WaitForBoundary() error
}

// Kind identifies a preset variant.
type Kind uint8

const (
	// RunningRainbow cycles a hue wheel along the strip.
	RunningRainbow Kind = iota
)

func (k Kind) String() string {
	switch k {
	case RunningRainbow:
		return "running-rainbow"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Preset is a registered animation. The zero value is RunningRainbow.
type Preset struct {
	kind Kind
}

// Kind returns the variant of the preset.
func (p Preset) Kind() Kind {
	return p.kind
}

func (p Preset) String() string {
	return p.kind.String()
}

// ScaleStateCount returns the number of distinct animation states a preset
// reports for callers reasoning about its cycle length. The render loop does
// not use it.
func (p Preset) ScaleStateCount() uint8 {
	switch p.kind {
	case RunningRainbow:
		// The rainbow has 256 phases, which a uint8 cannot hold; report the
		// highest phase index.
		return math.MaxUint8
	default:
		panic("invalid preset kind")
	}
}

// Phases returns the number of frames before the pattern repeats.
func (p Preset) Phases() int {
	switch p.kind {
	case RunningRainbow:
		return rainbowPhases
	default:
		panic("invalid preset kind")
	}
}

// Run renders frames until ctx is canceled or the clock or sink fails. Each
// iteration computes a frame, waits for the next frame boundary, writes the
// frame and advances the phase. A context that is never canceled makes Run
// loop forever.
func (p Preset) Run(ctx context.Context, topo Topology, sink Sink, clock Clock, settings Settings) error {
	if topo.LEDCount < 1 {
		return errors.Errorf("invalid LED count %d", topo.LEDCount)
	}

	var render func(led.LEDs, int, Settings)
	switch p.kind {
	case RunningRainbow:
		render = renderRainbowFrame
	default:
		return errors.Errorf("unknown preset kind %d", p.kind)
	}

	leds := led.NewLEDs(topo.LEDCount)
	phases := p.Phases()

	for phase := 0; ; phase = (phase + 1) % phases {
		if err := ctx.Err(); err != nil {
			return err
		}

		render(leds, phase, settings)

		if err := clock.WaitForBoundary(); err != nil {
			return errors.Wrap(err, "failed to wait for frame boundary")
		}

		if err := sink.WriteFrame(leds); err != nil {
			return errors.Wrap(err, "failed to write frame")
		}
	}
}
