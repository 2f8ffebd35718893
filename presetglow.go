// Package presetglow boots the LED controller: it loads the persisted device
// settings, brings up the wireless link, resolves the active preset and runs
// it against a strip controller attached over serial.
package presetglow

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"
	"golang.org/x/sync/errgroup"
	"libdb.so/presetglow/frameclock"
	"libdb.so/presetglow/internal/nvs"
	"libdb.so/presetglow/internal/wireless"
	"libdb.so/presetglow/ledserial"
	"libdb.so/presetglow/preset"
	"libdb.so/presetglow/settings"
)

// Daemon is the main presetglow daemon.
type Daemon struct {
	cfg    *Config
	logger *slog.Logger
	link   wireless.Link
}

// DaemonOption configures a Daemon.
type DaemonOption func(*Daemon)

// WithLink overrides the wireless link driver. By default, NetworkManager is
// driven through nmcli.
func WithLink(link wireless.Link) DaemonOption {
	return func(d *Daemon) { d.link = link }
}

// NewDaemon creates a new presetglow daemon.
func NewDaemon(cfg *Config, logger *slog.Logger, opts ...DaemonOption) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	d := &Daemon{
		cfg:    cfg,
		logger: logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.link == nil {
		d.link = wireless.NewNetworkManager(cfg.WiFi.Interface, time.Duration(cfg.WiFi.Timeout), logger)
	}

	return d, nil
}

// Bootstrap is the state the render loop starts from.
type Bootstrap struct {
	// Settings are the loaded (or default) device settings.
	Settings settings.DeviceSettings
	// Defaulted is true if nothing was stored and defaults were used.
	Defaulted bool
	// Preset is the active preset.
	Preset preset.Preset
	// PresetSettings are the tunables of the active preset.
	PresetSettings preset.Settings
}

// Run boots the device and renders the active preset. It blocks until the
// given context is canceled or an unrecoverable error occurs.
func (d *Daemon) Run(ctx context.Context) error {
	boot, err := d.Bootstrap(ctx)
	if err != nil {
		return err
	}
	return (&internalDaemon{Daemon: d, boot: boot}).Run(ctx)
}

// Bootstrap loads the settings, brings up the wireless link and resolves the
// active preset. An unregistered preset id is a configuration error.
func (d *Daemon) Bootstrap(ctx context.Context) (*Bootstrap, error) {
	s, defaulted, err := d.loadSettings(ctx)
	if err != nil {
		return nil, err
	}

	if defaulted {
		d.logger.Info("no stored settings, using defaults")
	}

	d.logger.Debug(
		"loaded settings",
		"wifi_mode", s.WiFi.Mode,
		"ssid", s.WiFi.SSID,
		"preset_id", s.CurrentPresetID)

	if err := wireless.BringUp(ctx, d.link, s.WiFi, d.logger); err != nil {
		return nil, errors.Wrap(err, "failed to bring up wifi")
	}

	p, err := preset.Resolve(s.CurrentPresetID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid settings")
	}

	ps, err := s.PresetSettings(s.CurrentPresetID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid settings")
	}

	return &Bootstrap{
		Settings:       s,
		Defaulted:      defaulted,
		Preset:         p,
		PresetSettings: ps,
	}, nil
}

// UpdateSettings loads the stored settings (or the defaults), applies f and
// saves the result. It does not touch the wireless link or the strip.
func (d *Daemon) UpdateSettings(ctx context.Context, f func(*settings.DeviceSettings) error) error {
	store, closeStore, err := d.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	s, _, err := store.LoadOrDefault()
	if err != nil {
		return err
	}

	if err := f(&s); err != nil {
		return err
	}

	if err := store.Save(s); err != nil {
		return err
	}

	d.logger.Info(
		"saved settings",
		"wifi_mode", s.WiFi.Mode,
		"ssid", s.WiFi.SSID,
		"preset_id", s.CurrentPresetID)
	return nil
}

func (d *Daemon) loadSettings(ctx context.Context) (settings.DeviceSettings, bool, error) {
	store, closeStore, err := d.openStore(ctx)
	if err != nil {
		return settings.DeviceSettings{}, false, err
	}
	defer closeStore()

	return store.LoadOrDefault()
}

func (d *Daemon) openStore(ctx context.Context) (*settings.Store, func() error, error) {
	kv, err := nvs.Open(ctx, d.cfg.Storage.Path, d.cfg.Storage.Namespace)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to open settings storage")
	}

	d.logger.Debug(
		"opened settings storage",
		"path", d.cfg.Storage.Path,
		"namespace", kv.Namespace())

	return settings.NewStore(kv, d.cfg.PresetCount), kv.Close, nil
}

type internalDaemon struct {
	*Daemon
	boot *Bootstrap
	port serial.Port
}

func (d *internalDaemon) Run(ctx context.Context) error {
	device, err := d.device()
	if err != nil {
		return err
	}

	d.logger.Debug("opening serial port", "device", device, "baud", d.cfg.Baud)

	port, err := serial.Open(device, &serial.Mode{
		BaudRate: d.cfg.Baud,
	})
	if err != nil {
		return errors.Wrap(err, "failed to open serial port")
	}
	defer port.Close()

	d.port = port

	errg, ctx := errgroup.WithContext(ctx)
	errg.Go(func() error {
		<-ctx.Done()
		d.logger.Debug("closing serial port")
		if err := port.Close(); err != nil {
			return errors.Wrap(err, "failed to close serial port")
		}
		return ctx.Err()
	})

	outPackets := make(chan ledserial.OutgoingPacket)
	errg.Go(func() error {
		return d.renderLoop(ctx, outPackets)
	})
	errg.Go(func() error {
		return d.readPackets(ctx, outPackets)
	})

	return errg.Wait()
}

// device returns the configured serial device, or the first port found.
func (d *internalDaemon) device() (string, error) {
	if d.cfg.Device != "" {
		return d.cfg.Device, nil
	}

	ports, err := serial.GetPortsList()
	if err != nil {
		return "", errors.Wrap(err, "failed to list serial ports")
	}
	if len(ports) == 0 {
		return "", errors.New("no serial ports found")
	}

	d.logger.Info("no device configured, using first serial port", "device", ports[0])
	return ports[0], nil
}

func (d *internalDaemon) renderLoop(ctx context.Context, packets <-chan ledserial.OutgoingPacket) error {
	sink := newSerialSink(d.port, packets, time.Duration(d.cfg.AckTimeout), d.logger)

	d.logger.Debug("sending initialize packet")
	if err := sink.Initialize(ctx, d.cfg.LEDCount); err != nil {
		return errors.Wrap(err, "failed to initialize LEDs")
	}

	return d.Render(ctx, d.boot, sink)
}

// Render starts the frame clock and runs the bootstrapped preset on sink
// until ctx is canceled or the clock or sink fails.
func (d *Daemon) Render(ctx context.Context, boot *Bootstrap, sink preset.Sink) error {
	counter, err := frameclock.NewSoftwareCounter(d.cfg.TickHz)
	if err != nil {
		return errors.Wrap(err, "failed to create frame counter")
	}

	clock, err := frameclock.Start(counter, time.Duration(d.cfg.FrameDelay))
	if err != nil {
		return errors.Wrap(err, "failed to start frame clock")
	}

	d.logger.Info(
		"starting preset",
		"preset", boot.Preset,
		"leds", d.cfg.LEDCount,
		"frame_ticks", clock.FrameTicks())

	return boot.Preset.Run(ctx, d.cfg.Topology(), sink, clock, boot.PresetSettings)
}

func (d *internalDaemon) readPackets(ctx context.Context, dst chan<- ledserial.OutgoingPacket) error {
	if err := d.port.SetReadTimeout(serial.NoTimeout); err != nil {
		return errors.Wrap(err, "failed to reset read timeout")
	}

	for ctx.Err() == nil {
		p, err := ledserial.ReadOutgoingPacket(d.port)
		if err != nil {
			// A short read indicates a timeout. This is expected.
			// Ignore the error and try again.
			if errors.Is(err, io.EOF) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.Wrap(err, "failed to read packet")
		}

		d.logger.Debug(
			"received packet from controller",
			"type", p.Type())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case dst <- p:
			// ok
		}
	}

	return ctx.Err()
}
