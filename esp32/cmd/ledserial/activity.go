package main

import "machine"

var activityLED = machine.LED
var activityLEDConfigured bool

// setActivity lights the on-board LED while a packet is being read.
func setActivity(on bool) {
	if !activityLEDConfigured {
		activityLED.Configure(machine.PinConfig{Mode: machine.PinOutput})
		activityLEDConfigured = true
	}
	activityLED.Set(on)
}
