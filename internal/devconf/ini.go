package devconf

import (
	"fmt"
	"path/filepath"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

const (
	metaSection = "meta"
	baseKey     = "base"
)

// INI is a parsed config.ini with its inheritance resolved. Sections and keys
// keep file order; keys are case-sensitive.
type INI struct {
	Sections []Section
}

// Section is one [name] block.
type Section struct {
	Name string
	Keys []KeyValue
}

// KeyValue is one option.
type KeyValue struct {
	Key   string
	Value string
}

// Get returns the value of key in section.
func (d *INI) Get(section, key string) (string, bool) {
	s := d.section(section)
	if s == nil {
		return "", false
	}
	for _, kv := range s.Keys {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

func (d *INI) section(name string) *Section {
	for i := range d.Sections {
		if d.Sections[i].Name == name {
			return &d.Sections[i]
		}
	}
	return nil
}

// LoadINI parses path. A [meta] section with a base key names another file
// (relative to path's directory) whose sections and keys are inherited where
// path does not set them. The meta section itself is dropped.
func LoadINI(path string) (*INI, error) {
	return loadINI(path, map[string]bool{})
}

func loadINI(path string, seen map[string]bool) (*INI, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if seen[abs] {
		return nil, fmt.Errorf("config %s: base chain loops back to itself", abs)
	}
	seen[abs] = true

	f, err := ini.LoadSources(ini.LoadOptions{SpaceBeforeInlineComment: true}, abs)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", abs, err)
	}

	doc := &INI{}
	var base string
	for _, s := range f.Sections() {
		if s.Name() == ini.DefaultSection && len(s.Keys()) == 0 {
			continue
		}
		if s.Name() == metaSection {
			if s.HasKey(baseKey) {
				base = s.Key(baseKey).String()
			}
			continue
		}
		sec := Section{Name: s.Name()}
		for _, k := range s.Keys() {
			sec.Keys = append(sec.Keys, KeyValue{Key: k.Name(), Value: k.String()})
		}
		doc.Sections = append(doc.Sections, sec)
	}

	if base != "" {
		if !filepath.IsAbs(base) {
			base = filepath.Join(filepath.Dir(abs), base)
		}
		parent, err := loadINI(base, seen)
		if err != nil {
			return nil, err
		}
		doc.inherit(parent)
	}
	return doc, nil
}

// inherit adds parent's sections and keys that d does not define.
func (d *INI) inherit(parent *INI) {
	for _, ps := range parent.Sections {
		s := d.section(ps.Name)
		if s == nil {
			d.Sections = append(d.Sections, Section{Name: ps.Name})
			s = &d.Sections[len(d.Sections)-1]
		}
		for _, kv := range ps.Keys {
			if _, ok := d.Get(ps.Name, kv.Key); !ok {
				s.Keys = append(s.Keys, kv)
			}
		}
	}
}

// YAML renders the document as a mapping of sections to key mappings,
// preserving order.
func (d *INI) YAML() ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, s := range d.Sections {
		keys := &yaml.Node{Kind: yaml.MappingNode}
		for _, kv := range s.Keys {
			keys.Content = append(keys.Content, str(kv.Key), str(kv.Value))
		}
		root.Content = append(root.Content, str(s.Name), keys)
	}
	return yaml.Marshal(root)
}

func str(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}
