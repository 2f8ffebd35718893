// Package led contains the pixel types shared by the render engine, the host
// daemon and the firmware.
package led

import (
	"fmt"
	"image/color"
	"unsafe"
)

// RGBColor is a single LED color in wire order (red, green, blue).
type RGBColor [3]uint8

// RGB returns an RGBColor from its components.
func RGB(r, g, b uint8) RGBColor {
	return RGBColor{r, g, b}
}

// RGBA converts the color into an opaque color.RGBA, which is what the
// TinyGo ws2812 driver consumes.
func (c RGBColor) RGBA() color.RGBA {
	return color.RGBA{R: c[0], G: c[1], B: c[2], A: 0xFF}
}

func (c RGBColor) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}

// LEDs describes a strip of LEDs. It is a preallocated slice of RGBColor.
type LEDs []RGBColor

// NewLEDs creates a new strip of LEDs. Colors are initialized to black
// (off).
func NewLEDs(numLEDs int) LEDs {
	return make(LEDs, numLEDs)
}

// AsPixels returns the LED strip as a slice of uint8 values. Each LED is
// represented by three values, one for each color channel. The returned slice
// aliases the strip.
func (l LEDs) AsPixels() []uint8 {
	if len(l) == 0 {
		return nil
	}
	return unsafe.Slice((*uint8)(unsafe.Pointer(&l[0])), 3*len(l))
}

// Fill sets every LED to the given color.
func (l LEDs) Fill(c RGBColor) {
	for i := range l {
		l[i] = c
	}
}

// AppendRGBA appends the strip to dst as opaque color.RGBA values.
func (l LEDs) AppendRGBA(dst []color.RGBA) []color.RGBA {
	for _, c := range l {
		dst = append(dst, c.RGBA())
	}
	return dst
}
