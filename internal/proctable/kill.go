package proctable

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"geniectl/internal/config"
	"geniectl/internal/logging"
	"geniectl/internal/remote"
)

// Pattern identifies processes by their full command line.
type Pattern struct {
	Label string
	re    *regexp.Regexp
}

// Compile builds a Pattern. expr must match the whole command line.
func Compile(label, expr string) (Pattern, error) {
	re, err := regexp.Compile(`^(?:` + expr + `)$`)
	if err != nil {
		return Pattern{}, fmt.Errorf("pattern %s: %w", label, err)
	}
	return Pattern{Label: label, re: re}, nil
}

// Matches reports whether command fully matches the pattern, either as
// listed or with its leading column padding removed.
func (p Pattern) Matches(command string) bool {
	if p.re == nil {
		return false
	}
	return p.re.MatchString(command) || p.re.MatchString(strings.TrimLeft(command, " \t"))
}

func (p Pattern) String() string {
	if p.re == nil {
		return ""
	}
	return p.re.String()
}

// PatternSet is an ordered list of patterns; order is report order.
type PatternSet []Pattern

// CompileSet compiles the configured kill patterns, preserving order.
func CompileSet(patterns []config.KillPattern) (PatternSet, error) {
	set := make(PatternSet, 0, len(patterns))
	for _, kp := range patterns {
		p, err := Compile(kp.Label, kp.Expr)
		if err != nil {
			return nil, err
		}
		set = append(set, p)
	}
	return set, nil
}

// Labels returns the labels in order.
func (s PatternSet) Labels() []string {
	labels := make([]string, len(s))
	for i, p := range s {
		labels[i] = p.Label
	}
	return labels
}

// Select returns the patterns with the given labels, in set order.
func (s PatternSet) Select(labels ...string) (PatternSet, error) {
	want := make(map[string]bool, len(labels))
	for _, l := range labels {
		want[l] = true
	}
	var out PatternSet
	for _, p := range s {
		if want[p.Label] {
			out = append(out, p)
			delete(want, p.Label)
		}
	}
	for l := range want {
		return nil, fmt.Errorf("unknown process pattern %q", l)
	}
	return out, nil
}

// Filter returns the entries whose command fully matches p.
func (p Pattern) Filter(entries []Entry) []Entry {
	var out []Entry
	for _, e := range entries {
		if p.Matches(e.Command) {
			out = append(out, e)
		}
	}
	return out
}

// Kill is the outcome of one pattern.
type Kill struct {
	Label string
	PIDs  []int
}

// Count is the number of processes killed.
func (k Kill) Count() int { return len(k.PIDs) }

// Report lists one Kill per pattern, in pattern order.
type Report []Kill

// Total is the number of processes killed across all patterns.
func (r Report) Total() int {
	n := 0
	for _, k := range r {
		n += k.Count()
	}
	return n
}

// Killer kills matching processes through a transport.
type Killer struct {
	Transport remote.Transport
	Logger    *log.Logger
}

// KillMatching sends SIGKILL to every process whose command fully matches p.
func (k *Killer) KillMatching(ctx context.Context, p Pattern) (Kill, error) {
	entries, err := List(ctx, k.Transport)
	if err != nil {
		return Kill{}, err
	}
	return k.kill(ctx, p, entries)
}

// KillAll runs every pattern in order. A pattern with no matches does not
// stop the others; a transport failure does.
func (k *Killer) KillAll(ctx context.Context, set PatternSet) (Report, error) {
	report := make(Report, 0, len(set))
	for _, p := range set {
		result, err := k.KillMatching(ctx, p)
		if err != nil {
			return report, err
		}
		report = append(report, result)
	}
	return report, nil
}

func (k *Killer) kill(ctx context.Context, p Pattern, entries []Entry) (Kill, error) {
	logger := logging.OrDiscard(k.Logger)
	result := Kill{Label: p.Label}
	for _, e := range p.Filter(entries) {
		logger.Info("Killing process", "label", p.Label, "pid", e.PID, "cmd", e.Command)
		if err := k.Transport.Run(ctx, remote.RunOptions{}, "kill", "-9", strconv.Itoa(e.PID)); err != nil {
			return result, fmt.Errorf("kill %s (pid %d): %w", p.Label, e.PID, err)
		}
		result.PIDs = append(result.PIDs, e.PID)
	}
	if len(result.PIDs) == 0 {
		logger.Debug("No matching processes", "label", p.Label)
	}
	return result, nil
}
