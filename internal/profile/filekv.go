package profile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gofrs/flock"
)

// FileKV keeps values in a TOML file. Every operation holds a file lock so
// concurrent invocations do not lose writes.
type FileKV struct {
	Path string
}

const fileVersion = 1

type fileDoc struct {
	Version int               `toml:"version"`
	Values  map[string]string `toml:"values"`
}

func (f *FileKV) lock(exclusive bool) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return nil, err
	}
	l := flock.New(f.Path + ".lock")
	var err error
	if exclusive {
		err = l.Lock()
	} else {
		err = l.RLock()
	}
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", f.Path, err)
	}
	return func() { _ = l.Unlock() }, nil
}

func (f *FileKV) load() (map[string]string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	var doc fileDoc
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.Path, err)
	}
	if doc.Values == nil {
		doc.Values = map[string]string{}
	}
	return doc.Values, nil
}

func (f *FileKV) save(values map[string]string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(fileDoc{Version: fileVersion, Values: values}); err != nil {
		return err
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.Path)
}

func (f *FileKV) update(fn func(values map[string]string)) error {
	unlock, err := f.lock(true)
	if err != nil {
		return err
	}
	defer unlock()

	values, err := f.load()
	if err != nil {
		return err
	}
	fn(values)
	return f.save(values)
}

func (f *FileKV) Get(_ context.Context, key string) (string, bool, error) {
	unlock, err := f.lock(false)
	if err != nil {
		return "", false, err
	}
	defer unlock()

	values, err := f.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (f *FileKV) Set(_ context.Context, key, value string) error {
	return f.update(func(values map[string]string) { values[key] = value })
}

func (f *FileKV) Unset(_ context.Context, key string) error {
	return f.update(func(values map[string]string) { delete(values, key) })
}

func (f *FileKV) Keys(_ context.Context, prefix string) ([]string, error) {
	unlock, err := f.lock(false)
	if err != nil {
		return nil, err
	}
	defer unlock()

	values, err := f.load()
	if err != nil {
		return nil, err
	}
	var keys []string
	for k := range values {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
