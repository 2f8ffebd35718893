package presetglow

import (
	"encoding"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"libdb.so/presetglow/preset"
)

// Config is the configuration for the presetglow daemon. It describes the
// hardware topology and where the persisted device settings live; the
// settings themselves are kept in the key/value store.
type Config struct {
	// Device is the path to the serial device of the strip controller.
	// This is usually /dev/ttyUSB0 or /dev/ttyACM0. If empty, the first
	// serial port found is used.
	Device string `toml:"device"`
	// Baud is the baud rate for the serial connection.
	Baud int `toml:"baud"`
	// AckTimeout bounds how long a frame write waits for the controller to
	// acknowledge it.
	AckTimeout TOMLDuration `toml:"ack_timeout"`

	// LEDCount is the number of LEDs in the strip.
	LEDCount int `toml:"led_count"`
	// FrameDelay is the minimum time between two frames.
	FrameDelay TOMLDuration `toml:"frame_delay"`
	// TickHz is the rate of the frame counter.
	TickHz uint64 `toml:"tick_hz"`
	// PresetCount is the number of preset slots in the persisted settings.
	PresetCount int `toml:"preset_count"`

	Storage StorageConfig `toml:"storage"`
	WiFi    WiFiConfig    `toml:"wifi"`
}

// StorageConfig locates the key/value store.
type StorageConfig struct {
	// Path is the path to the SQLite database emulating the NVS partition.
	Path string `toml:"path"`
	// Namespace is the NVS namespace holding the device settings.
	Namespace string `toml:"namespace"`
}

// WiFiConfig configures the wireless link driver.
type WiFiConfig struct {
	// Interface is the wireless network interface.
	Interface string `toml:"interface"`
	// Timeout bounds each link operation, including the wait for an
	// address lease.
	Timeout TOMLDuration `toml:"timeout"`
}

// DefaultConfig returns the configuration matching the reference board: 18
// LEDs refreshed every 10ms against a 1 MHz counter.
func DefaultConfig() *Config {
	return &Config{
		Device:      "",
		Baud:        115200,
		AckTimeout:  TOMLDuration(time.Second),
		LEDCount:    18,
		FrameDelay:  TOMLDuration(10 * time.Millisecond),
		TickHz:      1_000_000,
		PresetCount: 2,
		Storage: StorageConfig{
			Path:      "presetglow.db",
			Namespace: "device",
		},
		WiFi: WiFiConfig{
			Interface: "wlan0",
			Timeout:   TOMLDuration(30 * time.Second),
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.LEDCount < 1 || c.LEDCount > math.MaxUint16 {
		return fmt.Errorf("led_count %d out of range [1, %d]", c.LEDCount, math.MaxUint16)
	}
	if c.Baud <= 0 {
		return fmt.Errorf("invalid baud rate %d", c.Baud)
	}
	if c.AckTimeout <= 0 {
		return errors.New("ack_timeout must be positive")
	}
	if c.FrameDelay < 0 {
		return errors.New("frame_delay must not be negative")
	}
	if c.TickHz == 0 || c.TickHz > uint64(time.Second) {
		return fmt.Errorf("tick_hz %d out of range [1, %d]", c.TickHz, uint64(time.Second))
	}
	if c.PresetCount < 1 || c.PresetCount > math.MaxUint8 {
		return fmt.Errorf("preset_count %d out of range [1, %d]", c.PresetCount, math.MaxUint8)
	}

	// Every registered preset needs a settings slot.
	for _, id := range preset.Registered() {
		if int(id) >= c.PresetCount {
			return fmt.Errorf("preset_count %d leaves preset %d without settings", c.PresetCount, id)
		}
	}

	if c.Storage.Path == "" {
		return errors.New("storage.path is empty")
	}
	if c.Storage.Namespace == "" {
		return errors.New("storage.namespace is empty")
	}
	if c.WiFi.Interface == "" {
		return errors.New("wifi.interface is empty")
	}
	if c.WiFi.Timeout <= 0 {
		return errors.New("wifi.timeout must be positive")
	}

	return nil
}

// Topology returns the strip description handed to presets.
func (c *Config) Topology() preset.Topology {
	return preset.Topology{LEDCount: c.LEDCount}
}

// TOMLDuration is a duration that can be parsed from TOML.
type TOMLDuration time.Duration

var (
	_ encoding.TextUnmarshaler = (*TOMLDuration)(nil)
	_ encoding.TextMarshaler   = (*TOMLDuration)(nil)
)

func (d *TOMLDuration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = TOMLDuration(duration)
	return nil
}

func (d TOMLDuration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// ParseConfig parses a configuration from a reader. Fields missing from the
// file keep their value from DefaultConfig.
func ParseConfig(r io.Reader) (*Config, error) {
	config := DefaultConfig()
	if err := toml.NewDecoder(r).Decode(config); err != nil {
		return nil, err
	}
	return config, nil
}
