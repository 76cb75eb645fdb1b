package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"geniectl/internal/proctable"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// withSpinner runs fn behind a spinner when stdout is a terminal and info
// logging is off; otherwise the log lines already show progress.
func withSpinner(suffix string, fn func() error) error {
	if !quiet || !isTerminal(os.Stdout) {
		return fn()
	}
	s := spinner.New(spinner.CharSets[21], 120*time.Millisecond, spinner.WithWriter(os.Stdout))
	s.Suffix = " " + suffix
	s.Start()
	err := fn()
	s.Stop()
	return err
}

func header(w io.Writer, title string) {
	fmt.Fprintln(w, headerStyle.Render(title))
}

// printReport renders a kill report, one line per pattern.
func printReport(w io.Writer, report proctable.Report) {
	width := 0
	for _, k := range report {
		width = max(width, len(k.Label))
	}
	for _, k := range report {
		label := fmt.Sprintf("%-*s", width, k.Label)
		if k.Count() == 0 {
			fmt.Fprintf(w, "%s  %s\n", label, dimStyle.Render("no processes"))
			continue
		}
		pids := make([]string, len(k.PIDs))
		for i, pid := range k.PIDs {
			pids[i] = fmt.Sprint(pid)
		}
		fmt.Fprintf(w, "%s  %s %s\n", label, okStyle.Render(fmt.Sprintf("killed %d", k.Count())), dimStyle.Render("(pid "+strings.Join(pids, ", ")+")"))
	}
	fmt.Fprintf(w, "%s\n", dimStyle.Render(fmt.Sprintf("%d process(es) killed", report.Total())))
}
