package wireless

import (
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// APConnectionName is the NetworkManager connection profile used for the
// access point.
const APConnectionName = "presetglow-ap"

// Runner runs a command and returns its trimmed combined output.
type Runner func(ctx context.Context, name string, args ...string) (string, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	s := strings.TrimSpace(string(out))
	if ctx.Err() == context.DeadlineExceeded {
		return s, errors.Errorf("command timed out: %s %v", name, args)
	}
	if err != nil {
		if s != "" {
			return s, errors.Wrapf(err, "command failed: %s %v: %s", name, args, s)
		}
		return s, errors.Wrapf(err, "command failed: %s %v", name, args)
	}
	return s, nil
}

// NetworkManager is a Link driven through nmcli.
type NetworkManager struct {
	iface   string
	timeout time.Duration
	poll    time.Duration
	logger  *slog.Logger
	run     Runner
}

var _ Link = (*NetworkManager)(nil)

// NewNetworkManager creates a link on the given interface. timeout bounds
// each nmcli call and the wait for an address lease.
func NewNetworkManager(iface string, timeout time.Duration, logger *slog.Logger) *NetworkManager {
	return &NetworkManager{
		iface:   iface,
		timeout: timeout,
		poll:    500 * time.Millisecond,
		logger:  logger,
		run:     ExecRunner,
	}
}

func (nm *NetworkManager) nmcli(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, nm.timeout)
	defer cancel()
	return nm.run(ctx, "nmcli", args...)
}

// HostAccessPoint implements Link.
func (nm *NetworkManager) HostAccessPoint(ctx context.Context, creds Credentials) error {
	// A stale profile would make "con add" fail; its absence is fine.
	nm.nmcli(ctx, "con", "delete", APConnectionName)

	args := []string{
		"con", "add",
		"type", "wifi",
		"ifname", nm.iface,
		"con-name", APConnectionName,
		"autoconnect", "no",
		"ssid", creds.SSID,
		"802-11-wireless.mode", "ap",
		"ipv4.method", "shared",
	}
	if !creds.Open() {
		args = append(args, "wifi-sec.key-mgmt", "wpa-psk", "wifi-sec.psk", creds.Password)
	}

	if _, err := nm.nmcli(ctx, args...); err != nil {
		return errors.Wrap(err, "failed to configure access point")
	}

	nm.logger.Info("starting wifi", "interface", nm.iface)

	if _, err := nm.nmcli(ctx, "con", "up", APConnectionName); err != nil {
		return errors.Wrap(err, "failed to start access point")
	}
	return nil
}

// JoinNetwork implements Link.
func (nm *NetworkManager) JoinNetwork(ctx context.Context, creds Credentials) error {
	nm.logger.Info("scanning", "interface", nm.iface)

	out, err := nm.nmcli(ctx,
		"-t", "-e", "yes",
		"-f", "CHAN,SSID",
		"dev", "wifi", "list",
		"ifname", nm.iface,
		"--rescan", "yes",
	)
	if err != nil {
		return errors.Wrap(err, "failed to scan")
	}

	if channel, ok := findChannel(out, creds.SSID); ok {
		nm.logger.Info(
			"found configured access point",
			"ssid", creds.SSID,
			"channel", channel)
	} else {
		nm.logger.Info(
			"configured access point not found during scanning, proceeding with unknown channel",
			"ssid", creds.SSID)
	}

	args := []string{"dev", "wifi", "connect", creds.SSID}
	if !creds.Open() {
		args = append(args, "password", creds.Password)
	}
	args = append(args, "ifname", nm.iface)

	nm.logger.Info("connecting to wifi access point", "ssid", creds.SSID)

	if _, err := nm.nmcli(ctx, args...); err != nil {
		return errors.Wrap(err, "failed to connect")
	}

	nm.logger.Info("waiting for DHCP lease")

	addr, err := nm.waitAddress(ctx)
	if err != nil {
		return err
	}

	nm.logger.Info("wifi DHCP info", "interface", nm.iface, "address", addr)
	return nil
}

func (nm *NetworkManager) waitAddress(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, nm.timeout)
	defer cancel()

	for {
		out, err := nm.run(ctx, "nmcli", "-g", "IP4.ADDRESS", "dev", "show", nm.iface)
		if err != nil {
			return "", errors.Wrap(err, "failed to query address")
		}
		if addr := firstLine(out); addr != "" {
			return addr, nil
		}

		select {
		case <-ctx.Done():
			return "", errors.Wrap(ctx.Err(), "no address leased")
		case <-time.After(nm.poll):
		}
	}
}

// findChannel looks for ssid in terse, escaped "CHAN:SSID" output.
func findChannel(out, ssid string) (string, bool) {
	for _, line := range strings.Split(out, "\n") {
		channel, name, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}
		if unescapeTerse(name) == ssid {
			return channel, true
		}
	}
	return "", false
}

func unescapeTerse(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(line)
}
