// Package profile stores named contexts: per-device settings (target,
// wifi credentials, DNS servers) plus a pointer to the current one, kept in a
// key/value backend (the repository's git config or a TOML file).
package profile

import (
	"fmt"
	"strings"
	"unicode"
)

// Field names a context value. The names double as key segments.
type Field string

const (
	FieldTarget       Field = "target"
	FieldWifiName     Field = "wifi-name"
	FieldWifiPassword Field = "wifi-password"
	FieldDNSServers   Field = "dns-servers"
)

// Fields lists every context field in display order.
var Fields = []Field{FieldTarget, FieldWifiName, FieldWifiPassword, FieldDNSServers}

// IsList reports whether the field holds a list.
func (f Field) IsList() bool { return f == FieldDNSServers }

// ParseField validates a field name; underscores are accepted for dashes.
func ParseField(s string) (Field, error) {
	f := Field(strings.ReplaceAll(s, "_", "-"))
	for _, known := range Fields {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown context field %q", s)
}

// Context is one named profile. Nil fields are unset.
type Context struct {
	Name         string   `yaml:"name"`
	Target       *string  `yaml:"target,omitempty"`
	WifiName     *string  `yaml:"wifi-name,omitempty"`
	WifiPassword *string  `yaml:"wifi-password,omitempty"`
	DNSServers   []string `yaml:"dns-servers,omitempty"`
}

const (
	keyPrefix  = "context"
	currentKey = keyPrefix + ".current"
	maxNameLen = 64
)

func fieldKey(name string, f Field) string {
	return keyPrefix + "." + name + "." + string(f)
}

// ValidateName checks a profile name. Dots would break the key scheme.
func ValidateName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", fmt.Errorf("context name is required")
	}
	if len(name) > maxNameLen {
		return "", fmt.Errorf("context name %q is too long (max %d characters)", name, maxNameLen)
	}
	if name == "current" {
		return "", fmt.Errorf("context name %q is reserved", name)
	}
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			continue
		}
		return "", fmt.Errorf("context name %q contains invalid character %q (allowed: letters, digits, '-', '_')", name, r)
	}
	return name, nil
}
