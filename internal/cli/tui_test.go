package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/nmcanvas/pkg/diff"
)

func sampleChanges() []diff.Result {
	return []diff.Result{
		{Type: diff.NodeUpdated, ID: "n1", Details: []diff.FieldChange{{Field: "label", Before: "R1", After: "R1-renamed"}}},
		{Type: diff.NodeAdded, ID: "n2"},
		{Type: diff.EdgeRemoved, ID: "e1"},
	}
}

func press(m DiffModel, keys ...string) DiffModel {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(DiffModel)
	}
	return m
}

func TestDiffModelNavigation(t *testing.T) {
	m := newDiffModel("snapshot:abcd", "model", sampleChanges())

	tests := []struct {
		keys []string
		want string
	}{
		{nil, "n1"},
		{[]string{"down"}, "n2"},
		{[]string{"down", "down", "down"}, "e1"},
		{[]string{"down", "up", "up"}, "n1"},
		{[]string{"j", "k"}, "n1"},
	}
	for _, tt := range tests {
		got, ok := press(m, tt.keys...).Selected()
		if !ok || got.ID != tt.want {
			t.Errorf("after %v selected = %q, want %q", tt.keys, got.ID, tt.want)
		}
	}
}

func TestDiffModelFilter(t *testing.T) {
	m := newDiffModel("a", "b", sampleChanges())

	m = press(m, "down", "e")
	if sel, _ := m.Selected(); sel.ID != "e1" || len(m.visible) != 1 {
		t.Errorf("edge filter: selected %q, visible %d", sel.ID, len(m.visible))
	}

	m = press(m, "n")
	if len(m.visible) != 2 || m.Cursor != 0 {
		t.Errorf("node filter: visible %d, cursor %d", len(m.visible), m.Cursor)
	}

	m = press(m, "a")
	if len(m.visible) != 3 {
		t.Errorf("all filter: visible %d", len(m.visible))
	}
}

func TestDiffModelQuit(t *testing.T) {
	m := newDiffModel("a", "b", nil)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should return a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestDiffModelView(t *testing.T) {
	view := newDiffModel("snapshot:abcd", "model", sampleChanges()).View()
	for _, want := range []string{"snapshot:abcd", "node-updated", "n2", "label", "R1-renamed"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	empty := press(newDiffModel("a", "b", []diff.Result{{Type: diff.NodeAdded, ID: "x"}}), "e").View()
	if !strings.Contains(empty, "no changes (filter: edges)") {
		t.Errorf("empty view = %q", empty)
	}
}
