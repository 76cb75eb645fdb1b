// Package devconf renders and applies the device-side configuration files:
// the wifi supplicant config, resolv.conf and the client's config.ini.
package devconf

import (
	"context"
	"fmt"
	"net/netip"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"geniectl/internal/config"
	"geniectl/internal/logging"
	"geniectl/internal/remote"
)

// AccessTokenPlaceholder is replaced in config.ini templates.
const AccessTokenPlaceholder = "${ACCESS_TOKEN}"

// WPASupplicant returns the supplicant config lines for one network. An
// empty psk configures an open network.
func WPASupplicant(ssid, psk string) ([]string, error) {
	if ssid == "" {
		return nil, fmt.Errorf("wifi network name is required")
	}
	for _, v := range []string{ssid, psk} {
		if strings.ContainsAny(v, "\"\n") {
			return nil, fmt.Errorf("wifi values may not contain quotes or newlines")
		}
	}
	lines := []string{
		"ctrl_interface=/var/run/wpa_supplicant",
		"update_config=1",
		"network={",
		fmt.Sprintf(`    ssid="%s"`, ssid),
	}
	if psk == "" {
		lines = append(lines, "    key_mgmt=NONE")
	} else {
		lines = append(lines, fmt.Sprintf(`    psk="%s"`, psk))
	}
	return append(lines, "}"), nil
}

// ResolvConf returns one nameserver line per server.
func ResolvConf(servers []string) ([]string, error) {
	if len(servers) == 0 {
		return nil, fmt.Errorf("at least one DNS server is required")
	}
	lines := make([]string, 0, len(servers))
	for _, s := range servers {
		addr, err := netip.ParseAddr(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("dns server %q: %w", s, err)
		}
		lines = append(lines, "nameserver "+addr.String())
	}
	return lines, nil
}

// RenderConfigINI substitutes the access token into a config.ini template.
func RenderConfigINI(template, token string) string {
	return strings.ReplaceAll(template, AccessTokenPlaceholder, token)
}

// Configurator writes configuration to one device.
type Configurator struct {
	Transport remote.Transport
	Device    config.Device
	Logger    *log.Logger
}

// WifiOptions are the inputs of ApplyWifi.
type WifiOptions struct {
	Network  string
	Password string
	// Reconfigure makes wpa_supplicant reload the file.
	Reconfigure bool
}

// ApplyWifi writes the supplicant config and optionally reloads it.
func (c *Configurator) ApplyWifi(ctx context.Context, opts WifiOptions) error {
	lines, err := WPASupplicant(opts.Network, opts.Password)
	if err != nil {
		return err
	}
	logging.OrDiscard(c.Logger).Info("Setting wifi", "network", opts.Network, "path", c.Device.WifiConfig)
	if err := c.Transport.WriteLines(ctx, c.Device.WifiConfig, lines...); err != nil {
		return err
	}
	if opts.Reconfigure {
		return c.Transport.Run(ctx, remote.RunOptions{}, "wpa_cli", "reconfigure")
	}
	return nil
}

// WifiStatus is the supplicant file plus the interface state.
type WifiStatus struct {
	ConfigPath string
	Config     string
	Interface  string
	Addr       string
}

// Wifi reads the current wifi configuration and interface state.
func (c *Configurator) Wifi(ctx context.Context) (WifiStatus, error) {
	cfg, err := c.Transport.Read(ctx, c.Device.WifiConfig)
	if err != nil {
		return WifiStatus{}, err
	}
	addr, err := c.Transport.Get(ctx, "ip", "addr", "show", c.Device.NetworkInterface)
	if err != nil {
		return WifiStatus{}, err
	}
	return WifiStatus{
		ConfigPath: c.Device.WifiConfig,
		Config:     cfg,
		Interface:  c.Device.NetworkInterface,
		Addr:       addr,
	}, nil
}

// ApplyDNS writes resolv.conf.
func (c *Configurator) ApplyDNS(ctx context.Context, servers []string) error {
	lines, err := ResolvConf(servers)
	if err != nil {
		return err
	}
	logging.OrDiscard(c.Logger).Info("Setting DNS servers", "servers", servers, "path", c.Device.ResolvConf)
	return c.Transport.WriteLines(ctx, c.Device.ResolvConf, lines...)
}

// ApplyConfig renders the template at templatePath and writes it as the
// device's config.ini.
func (c *Configurator) ApplyConfig(ctx context.Context, templatePath, token string) error {
	data, err := os.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("read config template: %w", err)
	}
	if token == "" {
		return fmt.Errorf("access token is required")
	}
	logging.OrDiscard(c.Logger).Info("Applying config", "template", templatePath, "dest", c.Device.Config)
	return c.Transport.Write(ctx, c.Device.Config, RenderConfigINI(string(data), token))
}
