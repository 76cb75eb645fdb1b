package app

import (
	"context"

	"geniectl/internal/exitcode"
	"geniectl/internal/profile"
)

// ContextSummary is one row of ContextList.
type ContextSummary struct {
	Name    string
	Current bool
}

// ContextList returns every saved context, marking the current one.
func (a *App) ContextList(ctx context.Context) ([]ContextSummary, error) {
	names, err := a.store.List(ctx)
	if err != nil {
		return nil, err
	}
	current, err := a.store.Current(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ContextSummary, 0, len(names))
	for _, n := range names {
		out = append(out, ContextSummary{Name: n, Current: n == current})
	}
	return out, nil
}

// ContextCurrentParams configures ContextCurrent.
type ContextCurrentParams struct {
	// Name, when set, becomes the current context.
	Name string
	// List loads the current context's values.
	List bool
}

// ContextCurrentResult reports the current context.
type ContextCurrentResult struct {
	Name string
	// Context is loaded when List was requested.
	Context *profile.Context
}

// ContextCurrent gets or sets the current context. Setting and listing at
// once is a usage error.
func (a *App) ContextCurrent(ctx context.Context, params ContextCurrentParams) (ContextCurrentResult, error) {
	if params.Name != "" {
		if params.List {
			return ContextCurrentResult{}, exitcode.Userf("list and set operations are in conflict")
		}
		if err := a.store.SetCurrent(ctx, params.Name); err != nil {
			return ContextCurrentResult{}, err
		}
		a.logger.Info("Switched context", "name", params.Name)
		return ContextCurrentResult{Name: params.Name}, nil
	}

	if params.List {
		c, err := a.store.LoadCurrent(ctx)
		if err != nil {
			return ContextCurrentResult{}, err
		}
		if c == nil {
			return ContextCurrentResult{}, nil
		}
		return ContextCurrentResult{Name: c.Name, Context: c}, nil
	}
	name, err := a.store.Current(ctx)
	return ContextCurrentResult{Name: name}, err
}

// ContextGet loads a saved context.
func (a *App) ContextGet(ctx context.Context, name string) (profile.Context, error) {
	return a.store.Load(ctx, name)
}

// ContextSetParams configures ContextSet. Only non-nil values are written.
type ContextSetParams struct {
	Name         string
	Target       *string
	WifiName     *string
	WifiPassword *string
	DNSServers   []string
}

// ContextSet writes values into a context, creating it if needed.
func (a *App) ContextSet(ctx context.Context, params ContextSetParams) error {
	if params.Target == nil && params.WifiName == nil && params.WifiPassword == nil && params.DNSServers == nil {
		return exitcode.Usage("nothing to set: pass at least one of --target, --wifi-name, --wifi-password, --dns-servers")
	}
	return a.store.Save(ctx, profile.Context{
		Name:         params.Name,
		Target:       params.Target,
		WifiName:     params.WifiName,
		WifiPassword: params.WifiPassword,
		DNSServers:   params.DNSServers,
	})
}

// ContextUnset removes one field from a context.
func (a *App) ContextUnset(ctx context.Context, name string, field string) error {
	f, err := profile.ParseField(field)
	if err != nil {
		return exitcode.Wrap(exitcode.ErrUsage, "", err)
	}
	return a.store.Set(ctx, name, f, nil)
}
