// Command ledserial turns the ESP32 into a strip controller for the host
// daemon: it reads ledserial packets from the UART and acknowledges each one
// once the strip has been written.
package main

import (
	"machine"

	"libdb.so/presetglow/esp32"
)

func main() {
	machine.Serial.Configure(machine.UARTConfig{BaudRate: esp32.Baud})

	d := NewDevice(machine.Serial, esp32.LEDPin)
	d.Run()
}
