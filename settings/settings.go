// Package settings holds the persisted device configuration and the policy for
// storing it in a key/value store.
package settings

import (
	"fmt"

	"github.com/pkg/errors"
	"libdb.so/presetglow/preset"
)

const (
	// DefaultAPSSID is the access point name used when nothing is stored.
	DefaultAPSSID = "esp-32"
	// DefaultAPPassword is the access point password used when nothing is
	// stored.
	DefaultAPPassword = "31415926"
)

// WiFiMode selects how the wireless link is brought up.
type WiFiMode uint8

const (
	// WiFiClient joins an existing network.
	WiFiClient WiFiMode = iota
	// WiFiServer hosts an access point.
	WiFiServer
)

func (m WiFiMode) String() string {
	switch m {
	case WiFiClient:
		return "client"
	case WiFiServer:
		return "server"
	default:
		return fmt.Sprintf("WiFiMode(%d)", m)
	}
}

// Valid reports whether m is a known mode.
func (m WiFiMode) Valid() bool {
	return m == WiFiClient || m == WiFiServer
}

// MarshalText implements encoding.TextMarshaler.
func (m WiFiMode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, errors.Errorf("invalid wifi mode %d", uint8(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *WiFiMode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "client":
		*m = WiFiClient
	case "server":
		*m = WiFiServer
	default:
		return errors.Errorf("unknown wifi mode %q", text)
	}
	return nil
}

// WiFiSettings are the wireless mode and credentials.
type WiFiSettings struct {
	Mode     WiFiMode
	SSID     string
	Password string
}

// DefaultWiFiSettings hosts an access point with the built-in credentials.
func DefaultWiFiSettings() WiFiSettings {
	return WiFiSettings{
		Mode:     WiFiServer,
		SSID:     DefaultAPSSID,
		Password: DefaultAPPassword,
	}
}

// DeviceSettings is the persisted root record.
type DeviceSettings struct {
	WiFi WiFiSettings
	// Presets has one slot per statically known preset.
	Presets []preset.Settings
	// CurrentPresetID is the id of the active preset. It is only resolved
	// when the preset is looked up.
	CurrentPresetID uint16
}

// Default returns the settings used when the store holds nothing.
func Default(presetCount int) DeviceSettings {
	presets := make([]preset.Settings, presetCount)
	for i := range presets {
		presets[i] = preset.DefaultSettings()
	}
	return DeviceSettings{
		WiFi:    DefaultWiFiSettings(),
		Presets: presets,
	}
}

// PresetSettings returns the tunables stored for the given preset id.
func (s *DeviceSettings) PresetSettings(id uint16) (preset.Settings, error) {
	if int(id) >= len(s.Presets) {
		return preset.Settings{}, errors.Errorf(
			"no settings slot for preset %d (have %d)", id, len(s.Presets))
	}
	return s.Presets[id], nil
}
