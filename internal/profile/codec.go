package profile

import (
	"errors"
	"fmt"
	"strings"
)

// ListSeparator joins list items in a stored value.
const ListSeparator = ";"

var (
	// ErrSeparatorInValue rejects a list item containing ListSeparator.
	ErrSeparatorInValue = errors.New("list items may not contain " + ListSeparator)
	// ErrEmptyItem rejects an empty list item, which would not survive
	// decoding.
	ErrEmptyItem = errors.New("list items may not be empty")
)

// EncodeList joins items with ListSeparator.
func EncodeList(items []string) (string, error) {
	for _, item := range items {
		if item == "" {
			return "", ErrEmptyItem
		}
		if strings.Contains(item, ListSeparator) {
			return "", fmt.Errorf("%w: %q", ErrSeparatorInValue, item)
		}
	}
	return strings.Join(items, ListSeparator), nil
}

// DecodeList splits a stored value. The empty string is the empty list.
func DecodeList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ListSeparator)
}
