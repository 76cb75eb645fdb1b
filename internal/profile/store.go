package profile

import (
	"context"
	"sort"
	"strings"
)

// Store reads and writes contexts through a KV backend.
type Store struct {
	KV KV
}

// NewStore returns a Store over kv.
func NewStore(kv KV) *Store {
	return &Store{KV: kv}
}

// Set stores a scalar field; nil removes it.
func (s *Store) Set(ctx context.Context, name string, f Field, value *string) error {
	name, err := ValidateName(name)
	if err != nil {
		return err
	}
	if value == nil {
		return s.KV.Unset(ctx, fieldKey(name, f))
	}
	if f.IsList() {
		return s.SetList(ctx, name, f, []string{*value})
	}
	return s.KV.Set(ctx, fieldKey(name, f), *value)
}

// SetList stores a list field; nil removes it.
func (s *Store) SetList(ctx context.Context, name string, f Field, items []string) error {
	name, err := ValidateName(name)
	if err != nil {
		return err
	}
	if items == nil {
		return s.KV.Unset(ctx, fieldKey(name, f))
	}
	encoded, err := EncodeList(items)
	if err != nil {
		return err
	}
	return s.KV.Set(ctx, fieldKey(name, f), encoded)
}

// Save writes every set field of c. Unset fields are left alone.
func (s *Store) Save(ctx context.Context, c Context) error {
	name, err := ValidateName(c.Name)
	if err != nil {
		return err
	}
	if c.DNSServers != nil {
		// Encode first so a bad list leaves the store untouched.
		if _, err := EncodeList(c.DNSServers); err != nil {
			return err
		}
	}
	for _, kv := range []struct {
		f Field
		v *string
	}{
		{FieldTarget, c.Target},
		{FieldWifiName, c.WifiName},
		{FieldWifiPassword, c.WifiPassword},
	} {
		if kv.v == nil {
			continue
		}
		if err := s.KV.Set(ctx, fieldKey(name, kv.f), *kv.v); err != nil {
			return err
		}
	}
	if c.DNSServers != nil {
		return s.SetList(ctx, name, FieldDNSServers, c.DNSServers)
	}
	return nil
}

// Load reads a context. Missing fields stay nil; a context with no fields
// at all loads as an empty Context.
func (s *Store) Load(ctx context.Context, name string) (Context, error) {
	name, err := ValidateName(name)
	if err != nil {
		return Context{}, err
	}
	c := Context{Name: name}
	for _, f := range Fields {
		v, ok, err := s.KV.Get(ctx, fieldKey(name, f))
		if err != nil {
			return Context{}, err
		}
		if !ok {
			continue
		}
		switch f {
		case FieldTarget:
			c.Target = &v
		case FieldWifiName:
			c.WifiName = &v
		case FieldWifiPassword:
			c.WifiPassword = &v
		case FieldDNSServers:
			c.DNSServers = DecodeList(v)
		}
	}
	return c, nil
}

// List returns the sorted names of contexts that have at least one field.
func (s *Store) List(ctx context.Context) ([]string, error) {
	keys, err := s.KV.Keys(ctx, keyPrefix+".")
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	for _, k := range keys {
		parts := strings.Split(strings.TrimPrefix(k, keyPrefix+"."), ".")
		if len(parts) >= 2 && parts[0] != "" {
			seen[parts[0]] = true
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

// Current returns the current context name, or "" when none is set.
func (s *Store) Current(ctx context.Context) (string, error) {
	v, ok, err := s.KV.Get(ctx, currentKey)
	if err != nil || !ok {
		return "", err
	}
	return v, nil
}

// SetCurrent points at name. The context does not need to exist yet.
func (s *Store) SetCurrent(ctx context.Context, name string) error {
	name, err := ValidateName(name)
	if err != nil {
		return err
	}
	return s.KV.Set(ctx, currentKey, name)
}

// ClearCurrent removes the pointer.
func (s *Store) ClearCurrent(ctx context.Context) error {
	return s.KV.Unset(ctx, currentKey)
}

// LoadCurrent loads the current context, or returns nil when there is none.
func (s *Store) LoadCurrent(ctx context.Context) (*Context, error) {
	name, err := s.Current(ctx)
	if err != nil || name == "" {
		return nil, err
	}
	c, err := s.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
