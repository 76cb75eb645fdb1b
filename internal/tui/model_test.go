package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"geniectl/internal/config"
	"geniectl/internal/proctable"
)

type stubController struct {
	entries []proctable.Entry
	listErr error
	killed  []int
}

func (s *stubController) Processes(ctx context.Context, target *string) ([]proctable.Entry, error) {
	return s.entries, s.listErr
}

func (s *stubController) KillPID(ctx context.Context, target *string, pid int) error {
	s.killed = append(s.killed, pid)
	return nil
}

func newTestModel(t *testing.T, ctrl Controller) *Model {
	t.Helper()
	patterns, err := proctable.CompileSet(config.Default("/repo").KillPatterns)
	if err != nil {
		t.Fatalf("compile patterns: %v", err)
	}
	m := New(ctrl, Options{Patterns: patterns})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m
}

var sampleEntries = []proctable.Entry{
	{PID: 1, User: "root", VirtualMemory: "1200", ProcessState: "S", Command: " init"},
	{PID: 12, User: "root", VirtualMemory: "500", ProcessState: "S", Command: " /bin/sh /opt/duer/dcslaunch.sh"},
	{PID: 40, User: "root", VirtualMemory: "9000", ProcessState: "S", Command: " /opt/genie/genie"},
}

func TestModelListsClientProcessesFirst(t *testing.T) {
	m := newTestModel(t, &stubController{})
	m.Update(processesLoadedMsg{entries: sampleEntries})

	if len(m.entries) != 3 {
		t.Fatalf("unexpected entries %+v", m.entries)
	}
	if m.entries[0].PID != 12 || m.entries[1].PID != 40 || m.entries[2].PID != 1 {
		t.Fatalf("unexpected order %d %d %d", m.entries[0].PID, m.entries[1].PID, m.entries[2].PID)
	}
	if !strings.Contains(m.statusMsg, "3 processes, 2 from the client") {
		t.Fatalf("unexpected status %q", m.statusMsg)
	}
	item := m.list.Items()[0].(entryItem)
	if !strings.Contains(item.Title(), "(launcher)") {
		t.Fatalf("unexpected title %q", item.Title())
	}
}

func TestModelKillSelection(t *testing.T) {
	ctrl := &stubController{}
	m := newTestModel(t, ctrl)
	m.Update(processesLoadedMsg{entries: sampleEntries})

	m.Update(tea.KeyMsg{Type: tea.KeySpace})
	if !m.selected[12] {
		t.Fatalf("expected pid 12 selected, got %v", m.selected)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'K'}})
	if cmd == nil {
		t.Fatal("expected kill command")
	}
	msg := cmd()
	killed, ok := msg.(killedMsg)
	if !ok || killed.count != 1 {
		t.Fatalf("unexpected message %#v", msg)
	}
	if len(ctrl.killed) != 1 || ctrl.killed[0] != 12 {
		t.Fatalf("unexpected kills %v", ctrl.killed)
	}

	m.Update(killedMsg{count: 1})
	if len(m.selected) != 0 {
		t.Fatalf("expected selection cleared, got %v", m.selected)
	}
}

func TestModelKillWithoutSelectionUsesCursor(t *testing.T) {
	m := newTestModel(t, &stubController{})
	m.Update(processesLoadedMsg{entries: sampleEntries})

	if got := m.killTargets(); len(got) != 1 || got[0] != 12 {
		t.Fatalf("unexpected targets %v", got)
	}
}

func TestModelShowsLoadError(t *testing.T) {
	ctrl := &stubController{listErr: errors.New("adb: no devices")}
	m := newTestModel(t, ctrl)

	msg := loadProcessesCmd(ctrl, nil)()
	m.Update(msg)
	if m.err == nil || !strings.Contains(m.View(), "adb: no devices") {
		t.Fatalf("expected error in view, got %q", m.View())
	}
}
