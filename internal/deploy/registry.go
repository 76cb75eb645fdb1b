// Package deploy pushes build artifacts to the device and manages the
// install directory around them.
package deploy

import (
	"fmt"

	"geniectl/internal/config"
)

// Deployable is one artifact and where it lives on the device.
type Deployable struct {
	Name        string
	Source      string
	Destination string
	// Stops lists the kill-pattern labels that must be stopped before this
	// artifact alone is replaced. Nil means the full stop; empty means none.
	Stops []string
}

// NeedsFullStop reports whether replacing d requires stopping everything.
func (d Deployable) NeedsFullStop() bool { return d.Stops == nil }

// Registry is the ordered, immutable set of deployables.
type Registry struct {
	items []Deployable
	index map[string]int
}

// NewRegistry builds a registry; names must be unique and non-empty.
func NewRegistry(items ...Deployable) (*Registry, error) {
	r := &Registry{
		items: make([]Deployable, 0, len(items)),
		index: make(map[string]int, len(items)),
	}
	for _, d := range items {
		if d.Name == "" {
			return nil, fmt.Errorf("deployable without a name (source %s)", d.Source)
		}
		if _, dup := r.index[d.Name]; dup {
			return nil, fmt.Errorf("duplicate deployable %q", d.Name)
		}
		r.index[d.Name] = len(r.items)
		r.items = append(r.items, d)
	}
	return r, nil
}

// DefaultRegistry lists the client's artifacts in install order.
func DefaultRegistry(cfg *config.Config) *Registry {
	p, d := cfg.Paths, cfg.Device
	r, err := NewRegistry(
		Deployable{Name: "lib", Source: p.OutLib, Destination: d.Lib},
		Deployable{Name: "assets", Source: p.OutAssets, Destination: d.Assets, Stops: []string{}},
		Deployable{Name: "launch", Source: p.Launch, Destination: d.Launch, Stops: []string{"launcher"}},
		Deployable{Name: "asoundrc", Source: p.Asoundrc, Destination: d.Asoundrc, Stops: []string{}},
		Deployable{Name: "config", Source: p.OutConfig, Destination: d.Config, Stops: []string{}},
		Deployable{Name: "exe", Source: p.OutExe, Destination: d.Exe, Stops: []string{"launcher", "genie"}},
	)
	if err != nil {
		panic(err)
	}
	return r
}

// All returns every deployable in order.
func (r *Registry) All() []Deployable {
	return append([]Deployable(nil), r.items...)
}

// Names returns the deployable names in order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.items))
	for i, d := range r.items {
		names[i] = d.Name
	}
	return names
}

// Lookup returns the deployable called name.
func (r *Registry) Lookup(name string) (Deployable, bool) {
	i, ok := r.index[name]
	if !ok {
		return Deployable{}, false
	}
	return r.items[i], true
}

// Select resolves names in registry order. An empty selection means every
// deployable. Any unknown name fails the whole selection.
func (r *Registry) Select(names []string) ([]Deployable, error) {
	if len(names) == 0 {
		return r.All(), nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		if _, ok := r.index[n]; !ok {
			return nil, &UnknownDeployableError{Name: n, Known: r.Names()}
		}
		want[n] = true
	}
	out := make([]Deployable, 0, len(want))
	for _, d := range r.items {
		if want[d.Name] {
			out = append(out, d)
		}
	}
	return out, nil
}
