package proctable

import (
	"context"
	"fmt"
	"strings"

	"geniectl/internal/remote"
)

// List runs ps on the device and returns every process. The header line is
// skipped; any other line that does not parse fails the whole listing.
func List(ctx context.Context, t remote.Transport) ([]Entry, error) {
	out, err := t.Get(ctx, "ps")
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	return Parse(out)
}

// Parse parses full ps output, header included.
func Parse(out string) ([]Entry, error) {
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) <= 1 {
		return nil, nil
	}
	entries := make([]Entry, 0, len(lines)-1)
	for _, line := range lines[1:] {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		entry, err := ParseLine(line)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
