package preset

import (
	"context"
	"errors"
	"testing"

	"libdb.so/presetglow/led"
)

func TestWheelGolden(t *testing.T) {
	tests := []struct {
		pos  uint8
		want led.RGBColor
	}{
		{0, led.RGB(0, 255, 0)},
		{1, led.RGB(3, 252, 0)},
		{84, led.RGB(252, 3, 0)},
		{85, led.RGB(255, 0, 0)},
		{86, led.RGB(252, 0, 3)},
		{169, led.RGB(3, 0, 252)},
		{170, led.RGB(0, 0, 255)},
		{171, led.RGB(0, 3, 252)},
		{254, led.RGB(0, 252, 3)},
		{255, led.RGB(0, 255, 0)},
	}

	for _, tt := range tests {
		if got := Wheel(tt.pos); got != tt.want {
			t.Errorf("Wheel(%d) = %v, want %v", tt.pos, got, tt.want)
		}
	}
}

func TestWheelPos(t *testing.T) {
	const ledCount = 18

	for j := 0; j < ledCount; j++ {
		want := uint8((j * 256 / ledCount) % 256)
		if got := WheelPos(j, ledCount, 0); got != want {
			t.Errorf("WheelPos(%d, %d, 0) = %d, want %d", j, ledCount, got, want)
		}
	}

	// 17*256/18 = 241; adding 20 wraps around.
	if got := WheelPos(17, ledCount, 20); got != 5 {
		t.Errorf("WheelPos(17, 18, 20) = %d, want 5", got)
	}
}

func TestRenderRainbow(t *testing.T) {
	leds := led.NewLEDs(18)
	RenderRainbow(leds, 0)

	if leds[0] != led.RGB(0, 255, 0) {
		t.Errorf("leds[0] = %v, want wheel(0)", leds[0])
	}
	// 6*256/18 = 85
	if leds[6] != led.RGB(255, 0, 0) {
		t.Errorf("leds[6] = %v, want wheel(85)", leds[6])
	}
	// 12*256/18 = 170
	if leds[12] != led.RGB(0, 0, 255) {
		t.Errorf("leds[12] = %v, want wheel(170)", leds[12])
	}
}

func TestDefaultSettings(t *testing.T) {
	want := Settings{Brightness: 127, Speed: 127, Scale: 127}
	if got := DefaultSettings(); got != want {
		t.Errorf("DefaultSettings() = %+v, want %+v", got, want)
	}
}

func TestLookup(t *testing.T) {
	p, ok := Lookup(0)
	if !ok {
		t.Fatal("Lookup(0) reported absent")
	}
	if p.Kind() != RunningRainbow {
		t.Errorf("Lookup(0).Kind() = %v, want %v", p.Kind(), RunningRainbow)
	}
	if p.ScaleStateCount() != 255 {
		t.Errorf("ScaleStateCount() = %d, want 255", p.ScaleStateCount())
	}
	if p.Phases() != 256 {
		t.Errorf("Phases() = %d, want 256", p.Phases())
	}

	for _, id := range []uint16{1, 2, 255, 65535} {
		if _, ok := Lookup(id); ok {
			t.Errorf("Lookup(%d) reported a preset, want absent", id)
		}
		if _, err := Resolve(id); !errors.Is(err, ErrUnknownPreset) {
			t.Errorf("Resolve(%d) error = %v, want ErrUnknownPreset", id, err)
		}
	}

	for _, id := range Registered() {
		if _, ok := Lookup(id); !ok {
			t.Errorf("registered id %d does not resolve", id)
		}
	}
}

// recorder is a Clock and Sink that logs the call order and keeps a copy of
// every frame. It cancels the context after limit frames.
type recorder struct {
	events  []string
	frames  []led.LEDs
	limit   int
	cancel  context.CancelFunc
	waitErr error
	sinkErr error
}

func (r *recorder) WaitForBoundary() error {
	r.events = append(r.events, "wait")
	return r.waitErr
}

func (r *recorder) WriteFrame(leds led.LEDs) error {
	r.events = append(r.events, "write")
	if r.sinkErr != nil {
		return r.sinkErr
	}
	r.frames = append(r.frames, append(led.LEDs(nil), leds...))
	if len(r.frames) == r.limit {
		r.cancel()
	}
	return nil
}

func TestRunBoundedFrames(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &recorder{limit: 257, cancel: cancel}
	p, _ := Lookup(0)

	err := p.Run(ctx, Topology{LEDCount: 18}, rec, rec, DefaultSettings())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}

	if len(rec.frames) != 257 {
		t.Fatalf("got %d frames, want 257", len(rec.frames))
	}
	for i, frame := range rec.frames {
		if len(frame) != 18 {
			t.Fatalf("frame %d has %d LEDs, want 18", i, len(frame))
		}
	}

	for i := 0; i < 6; i += 2 {
		if rec.events[i] != "wait" || rec.events[i+1] != "write" {
			t.Fatalf("events = %v, want alternating wait/write", rec.events[:6])
		}
	}

	want := led.NewLEDs(18)
	RenderRainbow(want, 1)
	if !equalLEDs(rec.frames[1], want) {
		t.Errorf("frame 1 = %v, want %v", rec.frames[1], want)
	}

	// The phase wraps after 256 frames.
	if !equalLEDs(rec.frames[256], rec.frames[0]) {
		t.Errorf("frame 256 = %v, want frame 0 %v", rec.frames[256], rec.frames[0])
	}
	if equalLEDs(rec.frames[255], rec.frames[0]) {
		t.Error("frame 255 repeats frame 0 too early")
	}
}

func TestRunIgnoresSettings(t *testing.T) {
	render := func(s Settings) led.LEDs {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		rec := &recorder{limit: 3, cancel: cancel}
		p, _ := Lookup(0)
		p.Run(ctx, Topology{LEDCount: 7}, rec, rec, s)
		return rec.frames[2]
	}

	a := render(DefaultSettings())
	b := render(Settings{Brightness: 0, Speed: 255, Scale: 1})
	if !equalLEDs(a, b) {
		t.Errorf("settings changed the rainbow output: %v != %v", a, b)
	}
}

func TestRunErrors(t *testing.T) {
	errFault := errors.New("fault")
	p, _ := Lookup(0)

	t.Run("clock", func(t *testing.T) {
		rec := &recorder{waitErr: errFault}
		err := p.Run(context.Background(), Topology{LEDCount: 4}, rec, rec, DefaultSettings())
		if !errors.Is(err, errFault) {
			t.Errorf("Run() error = %v, want %v", err, errFault)
		}
		if len(rec.events) != 1 {
			t.Errorf("events = %v, want a single wait", rec.events)
		}
	})

	t.Run("sink", func(t *testing.T) {
		rec := &recorder{sinkErr: errFault}
		err := p.Run(context.Background(), Topology{LEDCount: 4}, rec, rec, DefaultSettings())
		if !errors.Is(err, errFault) {
			t.Errorf("Run() error = %v, want %v", err, errFault)
		}
	})

	t.Run("topology", func(t *testing.T) {
		rec := &recorder{}
		if err := p.Run(context.Background(), Topology{}, rec, rec, DefaultSettings()); err == nil {
			t.Error("Run() with no LEDs succeeded, want error")
		}
		if len(rec.events) != 0 {
			t.Errorf("events = %v, want none", rec.events)
		}
	})

	t.Run("already canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		rec := &recorder{}
		if err := p.Run(ctx, Topology{LEDCount: 4}, rec, rec, DefaultSettings()); !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
		if len(rec.events) != 0 {
			t.Errorf("events = %v, want none", rec.events)
		}
	})
}

func equalLEDs(a, b led.LEDs) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
