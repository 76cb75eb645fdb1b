package app

import (
	"context"

	"geniectl/internal/devconf"
	"geniectl/internal/exitcode"
	"geniectl/internal/profile"
)

func (a *App) configurator(ctx context.Context, params *profile.Params) (*devconf.Configurator, error) {
	if err := a.fill(ctx, params); err != nil {
		return nil, err
	}
	t, err := a.transportFor(params.TargetValue())
	if err != nil {
		return nil, err
	}
	return &devconf.Configurator{Transport: t, Device: a.cfg.Device, Logger: a.logger}, nil
}

// WifiGet reads the device's wifi configuration and interface state.
func (a *App) WifiGet(ctx context.Context, target *string) (devconf.WifiStatus, error) {
	c, err := a.configurator(ctx, &profile.Params{Target: target})
	if err != nil {
		return devconf.WifiStatus{}, err
	}
	return c.Wifi(ctx)
}

// WifiSetParams configures WifiSet. Unset values come from the current
// context.
type WifiSetParams struct {
	Target      *string
	Network     *string
	Password    *string
	Reconfigure bool
}

// WifiSet writes the supplicant configuration.
func (a *App) WifiSet(ctx context.Context, params WifiSetParams) error {
	p := profile.Params{Target: params.Target, WifiName: params.Network, WifiPassword: params.Password}
	c, err := a.configurator(ctx, &p)
	if err != nil {
		return err
	}
	if p.WifiName == nil || *p.WifiName == "" {
		return exitcode.Usage("no wifi network given: pass --network or set wifi-name in the current context")
	}
	var password string
	if p.WifiPassword != nil {
		password = *p.WifiPassword
	}
	return c.ApplyWifi(ctx, devconf.WifiOptions{
		Network:     *p.WifiName,
		Password:    password,
		Reconfigure: params.Reconfigure,
	})
}

// DNSSetParams configures DNSSet.
type DNSSetParams struct {
	Target  *string
	Servers []string
}

// DNSSet writes the device's resolv.conf.
func (a *App) DNSSet(ctx context.Context, params DNSSetParams) error {
	p := profile.Params{Target: params.Target, DNSServers: params.Servers}
	c, err := a.configurator(ctx, &p)
	if err != nil {
		return err
	}
	if len(p.DNSServers) == 0 {
		return exitcode.Usage("no DNS servers given: pass --server or set dns-servers in the current context")
	}
	return c.ApplyDNS(ctx, p.DNSServers)
}
