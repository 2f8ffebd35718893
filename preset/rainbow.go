package preset

import "libdb.so/presetglow/led"

const rainbowPhases = 256

// Wheel maps a position on a three-segment hue wheel to a color. All
// arithmetic is done in uint8.
func Wheel(pos uint8) led.RGBColor {
	switch {
	case pos < 85:
		return led.RGB(pos*3, 255-pos*3, 0)
	case pos < 170:
		pos -= 85
		return led.RGB(255-pos*3, 0, pos*3)
	default:
		pos -= 170
		return led.RGB(0, pos*3, 255-pos*3)
	}
}

// WheelPos returns the wheel position of LED j at the given phase. The hue is
// staggered across the strip so the pattern travels as the phase advances.
func WheelPos(j, ledCount int, phase uint8) uint8 {
	return uint8((j*256/ledCount + int(phase)) % 256)
}

// RenderRainbow fills leds with the rainbow frame for the given phase.
func RenderRainbow(leds led.LEDs, phase uint8) {
	for j := range leds {
		leds[j] = Wheel(WheelPos(j, len(leds), phase))
	}
}

// renderRainbowFrame ignores brightness, speed and scale.
func renderRainbowFrame(leds led.LEDs, phase int, _ Settings) {
	RenderRainbow(leds, uint8(phase))
}
