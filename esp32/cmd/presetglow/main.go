// Command presetglow runs the active preset straight from the ESP32. There is
// no flash-backed store on this target, so it always boots from the default
// settings.
package main

import (
	"context"
	"time"

	"libdb.so/presetglow/esp32"
	"libdb.so/presetglow/frameclock"
	"libdb.so/presetglow/preset"
	"libdb.so/presetglow/settings"
)

func main() {
	if err := run(); err != nil {
		halt(err)
	}
}

func run() error {
	store := settings.NewStore(settings.NewMemoryKV(), esp32.PresetCount)

	s, _, err := store.LoadOrDefault()
	if err != nil {
		return err
	}

	p, err := preset.Resolve(s.CurrentPresetID)
	if err != nil {
		return err
	}

	ps, err := s.PresetSettings(s.CurrentPresetID)
	if err != nil {
		return err
	}

	strip := esp32.NewStrip(esp32.LEDPin)

	counter, err := frameclock.NewSoftwareCounter(esp32.TickHz)
	if err != nil {
		return err
	}

	clock, err := frameclock.Start(counter, esp32.FrameDelay)
	if err != nil {
		return err
	}

	println("presetglow: running", p.String())

	topo := preset.Topology{LEDCount: esp32.NumLEDs}
	return p.Run(context.Background(), topo, strip, clock, ps)
}

func halt(err error) {
	println("presetglow:", err.Error())
	for {
		time.Sleep(time.Second)
	}
}
