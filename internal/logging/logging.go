// Package logging builds the structured logger shared by every command.
package logging

import (
	"io"

	"github.com/charmbracelet/log"
)

// Options configures New.
type Options struct {
	Verbose bool
	Quiet   bool
}

// New returns a logger writing to w. Verbose wins over Quiet.
func New(w io.Writer, opts Options) *log.Logger {
	level := log.InfoLevel
	switch {
	case opts.Verbose:
		level = log.DebugLevel
	case opts.Quiet:
		level = log.WarnLevel
	}
	return log.NewWithOptions(w, log.Options{
		Level:  level,
		Prefix: "geniectl",
	})
}

// OrDiscard returns logger, or a logger that drops everything when nil.
func OrDiscard(logger *log.Logger) *log.Logger {
	if logger != nil {
		return logger
	}
	return log.New(io.Discard)
}
