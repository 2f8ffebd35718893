package esp32

import (
	"image/color"
	"machine"
	"runtime/interrupt"

	"libdb.so/presetglow/led"
	"tinygo.org/x/drivers/ws2812"
)

// Strip is a WS2812 strip. It implements preset.Sink.
type Strip struct {
	dev ws2812.Device
	buf []color.RGBA
}

// NewStrip configures pin as an output and returns the strip on it.
func NewStrip(pin machine.Pin) *Strip {
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return &Strip{dev: ws2812.New(pin)}
}

// WriteFrame pushes leds out to the strip. The bit timing is tight, so
// interrupts stay off for the duration of the write.
func (s *Strip) WriteFrame(leds led.LEDs) error {
	s.buf = leds.AppendRGBA(s.buf[:0])

	var err error
	critical(func() { err = s.dev.WriteColors(s.buf) })
	return err
}

func critical(f func()) {
	state := interrupt.Disable()
	f()
	interrupt.Restore(state)
}
