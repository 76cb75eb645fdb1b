package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"geniectl/internal/proctable"
)

const (
	refreshInterval = 3 * time.Second
	requestTimeout  = 10 * time.Second
)

// Controller defines the subset of app.App behaviour the TUI needs.
type Controller interface {
	Processes(ctx context.Context, target *string) ([]proctable.Entry, error)
	KillPID(ctx context.Context, target *string, pid int) error
}

// Options configure the viewer.
type Options struct {
	// Target is the device; nil uses the current context.
	Target *string
	// Patterns mark processes belonging to the client.
	Patterns proctable.PatternSet
}

// Model represents the Bubble Tea state.
type Model struct {
	controller Controller
	opts       Options

	list     list.Model
	entries  []proctable.Entry
	selected map[int]bool

	statusMsg string
	err       error
	loading   bool

	width  int
	height int

	lastUpdated time.Time
}

// New constructs a TUI model with default styles.
func New(ctrl Controller, opts Options) *Model {
	delegate := list.NewDefaultDelegate()
	lst := list.New([]list.Item{}, delegate, 0, 0)
	lst.Title = "Device processes"
	lst.SetShowHelp(false)
	lst.SetFilteringEnabled(false)
	lst.DisableQuitKeybindings()

	target := "current context"
	if opts.Target != nil {
		target = *opts.Target
	}
	return &Model{
		controller: ctrl,
		opts:       opts,
		list:       lst,
		statusMsg:  "Connecting to " + target + "…",
		loading:    true,
		selected:   make(map[int]bool),
	}
}

// Run spins up the Bubble Tea program with sensible defaults.
func Run(ctrl Controller, opts Options) error {
	m := New(ctrl, opts)
	prog := tea.NewProgram(m, tea.WithAltScreen())
	_, err := prog.Run()
	return err
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(loadProcessesCmd(m.controller, m.opts.Target), tickCmd())
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.height > 4 {
			m.list.SetSize(msg.Width, msg.Height-4)
		}

	case processesLoadedMsg:
		m.loading = false
		m.err = nil
		m.setEntries(msg.entries)
		m.statusMsg = fmt.Sprintf("%d processes, %d from the client. Press r to refresh, q to quit.", len(msg.entries), m.clientCount())

	case killedMsg:
		m.statusMsg = fmt.Sprintf("Killed %d process(es).", msg.count)
		m.selected = make(map[int]bool)
		return m, loadProcessesCmd(m.controller, m.opts.Target)

	case tickMsg:
		if m.loading {
			return m, tickCmd()
		}
		return m, tea.Batch(loadProcessesCmd(m.controller, m.opts.Target), tickCmd())

	case errMsg:
		m.loading = false
		m.err = msg.err

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			m.loading = true
			return m, loadProcessesCmd(m.controller, m.opts.Target)
		case " ":
			m.toggleCurrentSelection()
		case "c":
			if len(m.selected) > 0 {
				m.clearSelection()
			}
		case "K":
			if pids := m.killTargets(); len(pids) > 0 {
				m.statusMsg = fmt.Sprintf("Killing %d process(es)…", len(pids))
				return m, killCmd(m.controller, m.opts.Target, pids)
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	statusStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	if m.err != nil {
		statusStyle = statusStyle.Foreground(lipgloss.Color("203"))
	}
	b.WriteString(statusStyle.Render(m.statusMsg))
	b.WriteByte('\n')

	if m.loading {
		b.WriteString("Loading processes…\n")
	} else if m.err != nil {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
		b.WriteString(errStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteByte('\n')
	}

	if len(m.list.Items()) == 0 && !m.loading && m.err == nil {
		b.WriteString("No processes found.\n")
	} else {
		b.WriteString(m.list.View())
		b.WriteByte('\n')
	}

	if current := m.currentEntry(); current != nil {
		detail := fmt.Sprintf(
			"pid=%d user=%s vsz=%s state=%s\ncmd=%s\nmatches=[%s]",
			current.PID,
			current.User,
			current.VirtualMemory,
			current.ProcessState,
			strings.TrimSpace(current.Command),
			strings.Join(m.labelsFor(*current), ","),
		)
		detailStyle := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).MarginBottom(1)
		b.WriteString(detailStyle.Render(detail))
		b.WriteByte('\n')
	}

	help := "Commands: q quit • r reload • space select • c clear selection • K kill (SIGKILL)"
	if count := len(m.selected); count > 0 {
		help += fmt.Sprintf(" • selected=%d", count)
	}
	if !m.lastUpdated.IsZero() {
		help += fmt.Sprintf(" • last update %s", m.lastUpdated.Format(time.Kitchen))
	}
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

// entryItem adapts proctable.Entry to the bubbles list item interface.
type entryItem struct {
	Entry    proctable.Entry
	Labels   []string
	Selected bool
}

func (p entryItem) Title() string {
	mark := " "
	if p.Selected {
		mark = "✓"
	}
	title := fmt.Sprintf("[%s] %5d %s", mark, p.Entry.PID, commandName(p.Entry.Command))
	if len(p.Labels) > 0 {
		title += " (" + strings.Join(p.Labels, ",") + ")"
	}
	return title
}

func (p entryItem) Description() string {
	return fmt.Sprintf("user=%s vsz=%s state=%s | %s", p.Entry.User, p.Entry.VirtualMemory, p.Entry.ProcessState, strings.TrimSpace(p.Entry.Command))
}

func (p entryItem) FilterValue() string {
	return fmt.Sprintf("%d %s %s", p.Entry.PID, p.Entry.User, p.Entry.Command)
}

func commandName(cmd string) string {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return "-"
	}
	return fields[0]
}

// setEntries shows client processes first, then the rest by pid.
func (m *Model) setEntries(entries []proctable.Entry) {
	sorted := append([]proctable.Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		ci, cj := len(m.labelsFor(sorted[i])) > 0, len(m.labelsFor(sorted[j])) > 0
		if ci != cj {
			return ci
		}
		return sorted[i].PID < sorted[j].PID
	})

	newSelected := make(map[int]bool)
	items := make([]list.Item, 0, len(sorted))
	for _, e := range sorted {
		selected := m.selected[e.PID]
		if selected {
			newSelected[e.PID] = true
		}
		items = append(items, entryItem{Entry: e, Labels: m.labelsFor(e), Selected: selected})
	}
	m.entries = sorted
	m.selected = newSelected
	m.list.SetItems(items)
	m.lastUpdated = time.Now()
}

func (m *Model) labelsFor(e proctable.Entry) []string {
	var labels []string
	for _, p := range m.opts.Patterns {
		if p.Matches(e.Command) {
			labels = append(labels, p.Label)
		}
	}
	return labels
}

func (m *Model) clientCount() int {
	n := 0
	for _, e := range m.entries {
		if len(m.labelsFor(e)) > 0 {
			n++
		}
	}
	return n
}

// killTargets is the selection, or the highlighted process when nothing is
// selected.
func (m *Model) killTargets() []int {
	if len(m.selected) > 0 {
		pids := make([]int, 0, len(m.selected))
		for pid := range m.selected {
			pids = append(pids, pid)
		}
		sort.Ints(pids)
		return pids
	}
	if current := m.currentEntry(); current != nil {
		return []int{current.PID}
	}
	return nil
}

func (m *Model) toggleCurrentSelection() {
	if len(m.entries) == 0 {
		return
	}
	idx := m.list.Index()
	if idx < 0 || idx >= len(m.entries) {
		return
	}
	item, ok := m.list.Items()[idx].(entryItem)
	if !ok {
		return
	}
	if item.Selected {
		delete(m.selected, item.Entry.PID)
	} else {
		m.selected[item.Entry.PID] = true
	}
	item.Selected = !item.Selected
	m.list.SetItem(idx, item)
}

func (m *Model) clearSelection() {
	m.selected = make(map[int]bool)
	items := m.list.Items()
	for i, it := range items {
		if pi, ok := it.(entryItem); ok && pi.Selected {
			pi.Selected = false
			m.list.SetItem(i, pi)
		}
	}
}

func (m *Model) currentEntry() *proctable.Entry {
	if len(m.entries) == 0 {
		return nil
	}
	idx := m.list.Index()
	if idx < 0 || idx >= len(m.entries) {
		return nil
	}
	return &m.entries[idx]
}

type processesLoadedMsg struct {
	entries []proctable.Entry
}

type killedMsg struct{ count int }

type tickMsg time.Time

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

func loadProcessesCmd(ctrl Controller, target *string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		entries, err := ctrl.Processes(ctx, target)
		if err != nil {
			return errMsg{err}
		}
		return processesLoadedMsg{entries: entries}
	}
}

func killCmd(ctrl Controller, target *string, pids []int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		for i, pid := range pids {
			if err := ctrl.KillPID(ctx, target, pid); err != nil {
				return errMsg{fmt.Errorf("kill %d (after %d killed): %w", pid, i, err)}
			}
		}
		return killedMsg{count: len(pids)}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}
