// Package proctable parses the device's `ps` output and kills processes
// whose command line matches a named pattern.
package proctable

import (
	"fmt"
	"regexp"
	"strconv"
)

// The device runs busybox ps: PID USER VSZ STAT COMMAND. Only one
// separator is consumed before COMMAND; the rest of the column padding stays
// in the command so rendering it back is lossless.
var lineRE = regexp.MustCompile(`^\s*(\d+)\s+(\S+)\s+(\S+)\s+(\S+)\s(.*)$`)

// Entry is one row of the process table.
type Entry struct {
	PID           int
	User          string
	VirtualMemory string
	ProcessState  string
	// Command is the full command line, arguments included, with any
	// leading column padding.
	Command string
}

// ParseError reports a ps line that does not have the expected shape.
type ParseError struct {
	Line string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unparseable process line: %q", e.Line)
}

// ParseLine parses one non-header ps line.
func ParseLine(line string) (Entry, error) {
	m := lineRE.FindStringSubmatch(line)
	if m == nil {
		return Entry{}, &ParseError{Line: line}
	}
	pid, err := strconv.Atoi(m[1])
	if err != nil || pid <= 0 {
		return Entry{}, &ParseError{Line: line}
	}
	return Entry{
		PID:           pid,
		User:          m[2],
		VirtualMemory: m[3],
		ProcessState:  m[4],
		Command:       m[5],
	}, nil
}

// String renders e in ps column order. ParseLine(e.String()) == e.
func (e Entry) String() string {
	return fmt.Sprintf("%5d %s %s %s %s", e.PID, e.User, e.VirtualMemory, e.ProcessState, e.Command)
}
