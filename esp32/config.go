// Package esp32 holds the board wiring shared by the ESP32 firmware programs.
package esp32

import (
	"machine"
	"time"
)

var (
	// NumLEDs is the length of the strip on the reference board.
	NumLEDs = 18
	// LEDPin drives the strip's data line.
	LEDPin = machine.GPIO13
	// Baud is the UART rate of the ledserial bridge.
	Baud uint32 = 115200
)

const (
	FrameDelay  = 10 * time.Millisecond
	TickHz      = 1_000_000
	PresetCount = 2
)
