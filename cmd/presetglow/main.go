package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/pflag"
	"libdb.so/presetglow"
	"libdb.so/presetglow/settings"
)

var (
	config  = "presetglow.toml"
	verbose = false

	wifiMode settings.WiFiMode
	ssid     string
	password string
	presetID uint16
)

func init() {
	pflag.StringVarP(&config, "config", "c", config, "configuration file")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "verbose output")

	pflag.Var(textFlag{&wifiMode}, "set-wifi-mode", "store the wifi mode (client or server) and exit")
	pflag.StringVar(&ssid, "set-ssid", ssid, "store the wifi SSID and exit")
	pflag.StringVar(&password, "set-password", password, "store the wifi password and exit")
	pflag.Uint16Var(&presetID, "set-preset", presetID, "store the active preset id and exit")
}

func main() {
	pflag.Parse()

	logLevel := slog.LevelWarn
	if verbose {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := readConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	d, err := presetglow.NewDaemon(cfg, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}

	if provisioning() {
		return d.UpdateSettings(ctx, applyFlags)
	}

	if err := d.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("daemon failed: %w", err)
	}

	return nil
}

func provisioning() bool {
	for _, name := range []string{"set-wifi-mode", "set-ssid", "set-password", "set-preset"} {
		if pflag.CommandLine.Changed(name) {
			return true
		}
	}
	return false
}

func applyFlags(s *settings.DeviceSettings) error {
	if pflag.CommandLine.Changed("set-wifi-mode") {
		s.WiFi.Mode = wifiMode
	}
	if pflag.CommandLine.Changed("set-ssid") {
		s.WiFi.SSID = ssid
	}
	if pflag.CommandLine.Changed("set-password") {
		s.WiFi.Password = password
	}
	if pflag.CommandLine.Changed("set-preset") {
		s.CurrentPresetID = presetID
	}
	return nil
}

// readConfig reads the configuration file. A missing file at the default
// path means the default configuration.
func readConfig() (*presetglow.Config, error) {
	f, err := os.Open(config)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !pflag.CommandLine.Changed("config") {
			slog.Info("no config file, using defaults", "path", config)
			return presetglow.DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	return presetglow.ParseConfig(f)
}
