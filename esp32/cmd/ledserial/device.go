package main

import (
	"fmt"
	"machine"

	"libdb.so/presetglow/esp32"
	"libdb.so/presetglow/led"
	"libdb.so/presetglow/ledserial"
)

// Device stores the current state of the device.
type Device struct {
	serial SerialReadWriter
	strip  *esp32.Strip
	leds   led.LEDs
}

// NewDevice creates a new device.
func NewDevice(serial machine.Serialer, ledPin machine.Pin) *Device {
	return &Device{
		serial: WrapSerial(serial),
		strip:  esp32.NewStrip(ledPin),
	}
}

// Run runs the device loop forever.
func (d *Device) Run() {
	for {
		p, err := d.readPacket()
		if err != nil {
			d.logError(err)
			continue
		}

		if err := d.handlePacket(p); err != nil {
			d.logError(err)
		}
	}
}

func (d *Device) panic(err error) {
	d.logError(err)
	d.sendPacket(ledserial.PanicPacket{})
	panic("device panic")
}

func (d *Device) log(msg string) {
	d.sendPacket(ledserial.LogPacket{Message: msg})
}

func (d *Device) logError(err error) {
	d.sendPacket(ledserial.ErrorPacket{Message: err.Error()})
}

func (d *Device) sendPacket(p ledserial.OutgoingPacket) {
	ledserial.WriteOutgoingPacket(d.serial, p)
}

func (d *Device) readPacket() (ledserial.IncomingPacket, error) {
	setActivity(true)
	defer setActivity(false)

	return ledserial.ReadIncomingPacket(d.serial, ledserial.ReadContext{
		NumLEDs: uint16(len(d.leds)),
	})
}

func (d *Device) handlePacket(p ledserial.IncomingPacket) error {
	switch p := p.(type) {
	case ledserial.InitializePacket:
		if p.NumLEDs < 1 {
			return fmt.Errorf("invalid number of LEDs: %d", p.NumLEDs)
		}
		d.leds = led.NewLEDs(int(p.NumLEDs))
		d.log(fmt.Sprintf("initialized %d LEDs", p.NumLEDs))

	case ledserial.ClearPacket:
		d.leds.Fill(led.RGBColor{})

	case ledserial.SetPacket:
		if len(p.Pix) != 3*len(d.leds) {
			return fmt.Errorf("invalid number of pixels: %d", len(p.Pix)/3)
		}
		copy(d.leds.AsPixels(), p.Pix)

	default:
		return fmt.Errorf("unknown packet type: %T", p)
	}

	if err := d.strip.WriteFrame(d.leds); err != nil {
		d.panic(fmt.Errorf("failed to write strip: %w", err))
	}

	d.sendPacket(ledserial.AckPacket{
		IncomingPacketType: p.Type(),
	})
	return nil
}
