// Package wireless brings up the wireless link before the render loop starts.
package wireless

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
	"libdb.so/presetglow/settings"
)

// Credentials are validated link parameters.
type Credentials struct {
	SSID     string
	Password string
}

// Open reports whether the network uses no authentication.
func (c Credentials) Open() bool {
	return c.Password == ""
}

// Link is the platform's wireless driver.
type Link interface {
	// HostAccessPoint starts an access point.
	HostAccessPoint(ctx context.Context, creds Credentials) error
	// JoinNetwork associates with an existing network and blocks until an
	// address has been leased.
	JoinNetwork(ctx context.Context, creds Credentials) error
}

// ConfigError reports a credential field the wireless stack cannot accept.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid wifi %s: %s", e.Field, e.Reason)
}

// Validate checks the credentials against the wireless stack's field widths.
func Validate(ssid, password string) (Credentials, error) {
	if ssid == "" {
		return Credentials{}, &ConfigError{Field: "ssid", Reason: "missing"}
	}
	if len(ssid) > settings.MaxSSIDLen {
		return Credentials{}, &ConfigError{
			Field:  "ssid",
			Reason: fmt.Sprintf("%d bytes exceeds %d", len(ssid), settings.MaxSSIDLen),
		}
	}
	if len(password) > settings.MaxPasswordLen {
		return Credentials{}, &ConfigError{
			Field:  "password",
			Reason: fmt.Sprintf("%d bytes exceeds %d", len(password), settings.MaxPasswordLen),
		}
	}
	return Credentials{SSID: ssid, Password: password}, nil
}

// BringUp validates the settings and starts the link in the selected mode.
// Errors from the link are returned without retrying.
func BringUp(ctx context.Context, link Link, s settings.WiFiSettings, logger *slog.Logger) error {
	creds, err := Validate(s.SSID, s.Password)
	if err != nil {
		return err
	}

	if creds.Open() {
		logger.Info("wifi password is empty, using open authentication", "mode", s.Mode)
	}

	switch s.Mode {
	case settings.WiFiServer:
		logger.Info("starting access point", "ssid", creds.SSID)
		if err := link.HostAccessPoint(ctx, creds); err != nil {
			return errors.Wrap(err, "failed to start access point")
		}

	case settings.WiFiClient:
		logger.Info("joining network", "ssid", creds.SSID)
		if err := link.JoinNetwork(ctx, creds); err != nil {
			return errors.Wrap(err, "failed to join network")
		}

	default:
		return &ConfigError{Field: "mode", Reason: fmt.Sprintf("unknown mode %d", uint8(s.Mode))}
	}

	return nil
}
