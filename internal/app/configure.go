package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"geniectl/internal/devconf"
	"geniectl/internal/exitcode"
	"geniectl/internal/profile"
)

// DefaultProfileConfig is the config template used when none is named.
const DefaultProfileConfig = "demo"

// ConfigureApplyParams configures ConfigureApply.
type ConfigureApplyParams struct {
	// Config names the template directory under the profiles path.
	Config      string
	Target      *string
	AccessToken string
}

func (a *App) configTemplate(name string) (string, error) {
	if name == "" {
		name = DefaultProfileConfig
	}
	if _, err := profile.ValidateName(name); err != nil {
		return "", exitcode.Wrap(exitcode.ErrUsage, "", err)
	}
	p := filepath.Join(a.cfg.Paths.Profiles, name, "config.ini")
	if _, err := os.Stat(p); err != nil {
		return "", exitcode.Wrap(exitcode.ErrNotFound, fmt.Sprintf("config %q", name), err)
	}
	return p, nil
}

// ConfigureApply renders the named config.ini with the access token and
// writes it to the device. A bare host is reached as the ssh user.
func (a *App) ConfigureApply(ctx context.Context, params ConfigureApplyParams) error {
	tmpl, err := a.configTemplate(params.Config)
	if err != nil {
		return err
	}
	p := profile.Params{Target: params.Target}
	if err := a.fill(ctx, &p); err != nil {
		return err
	}
	t, err := a.transportFor(a.withRootUser(p.TargetValue()))
	if err != nil {
		return err
	}
	c := &devconf.Configurator{Transport: t, Device: a.cfg.Device, Logger: a.logger}
	return c.ApplyConfig(ctx, tmpl, params.AccessToken)
}

// ConfigureShow loads the named config.ini with its base chain resolved.
func (a *App) ConfigureShow(name string) (*devconf.INI, error) {
	tmpl, err := a.configTemplate(name)
	if err != nil {
		return nil, err
	}
	return devconf.LoadINI(tmpl)
}
