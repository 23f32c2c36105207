package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/nmcanvas/pkg/diff"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// DiffModel - Interactive change browser
// =============================================================================

// diffFilter narrows the visible changes.
type diffFilter int

const (
	filterAll diffFilter = iota
	filterNodes
	filterEdges
)

func (f diffFilter) String() string {
	switch f {
	case filterNodes:
		return "nodes"
	case filterEdges:
		return "edges"
	default:
		return "all"
	}
}

func (f diffFilter) keep(t diff.Type) bool {
	switch f {
	case filterNodes:
		return t == diff.NodeAdded || t == diff.NodeUpdated || t == diff.NodeRemoved
	case filterEdges:
		return t == diff.EdgeAdded || t == diff.EdgeUpdated || t == diff.EdgeRemoved
	default:
		return true
	}
}

// DiffModel is the bubbletea model behind `nmcanvas diff --interactive`.
// The list shows one row per change; the panel below shows field details of
// the selected change.
type DiffModel struct {
	Base, Head string
	Changes    []diff.Result
	Cursor     int
	Height     int
	Offset     int
	Filter     diffFilter

	visible []int // indexes into Changes
}

func newDiffModel(base, head string, changes []diff.Result) DiffModel {
	m := DiffModel{Base: base, Head: head, Changes: changes, Height: 12}
	m.refilter()
	return m
}

func (m *DiffModel) refilter() {
	var visible []int
	for i, c := range m.Changes {
		if m.Filter.keep(c.Type) {
			visible = append(visible, i)
		}
	}
	m.visible = visible
	m.Cursor, m.Offset = 0, 0
}

// Selected returns the change under the cursor.
func (m DiffModel) Selected() (diff.Result, bool) {
	if len(m.visible) == 0 {
		return diff.Result{}, false
	}
	return m.Changes[m.visible[m.Cursor]], true
}

func (m DiffModel) Init() tea.Cmd {
	return nil
}

func (m DiffModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.visible)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "a":
			m.Filter = filterAll
			m.refilter()
		case "n":
			m.Filter = filterNodes
			m.refilter()
		case "e":
			m.Filter = filterEdges
			m.refilter()
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-14, 5)
	}
	return m, nil
}

func (m DiffModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(fmt.Sprintf("%s %s %s", m.Base, iconArrow, m.Head)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  a all  n nodes  e edges  q quit"))
	b.WriteString("\n\n")

	if len(m.visible) == 0 {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  no changes (filter: %s)", m.Filter)))
		b.WriteString("\n")
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.visible))
	rows := make([][]string, 0, end-m.Offset)
	for i := m.Offset; i < end; i++ {
		c := m.Changes[m.visible[i]]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		icon, _ := changeStyle(c.Type)
		rows = append(rows, []string{cursor, icon, string(c.Type), c.ID, fmt.Sprintf("%d", len(c.Details))})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "", "Change", "ID", "Fields").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.visible) {
				return lipgloss.NewStyle()
			}
			_, style := changeStyle(m.Changes[m.visible[idx]].Type)
			if idx == m.Cursor {
				return style.Bold(true)
			}
			if col == 4 {
				return listDimStyle
			}
			return style
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d] %s", m.Cursor+1, len(m.visible), m.Filter)))
	b.WriteString("\n\n")

	if sel, ok := m.Selected(); ok {
		b.WriteString(listSelectedStyle.Render(sel.ID))
		b.WriteString("\n")
		if len(sel.Details) == 0 {
			b.WriteString(listDimStyle.Render("  (no field details)"))
			b.WriteString("\n")
		}
		for _, fc := range sel.Details {
			fmt.Fprintf(&b, "  %s  %s %s %s\n",
				StyleValue.Render(fc.Field),
				styleRemoved.Render(formatValue(fc.Before)),
				listDimStyle.Render(iconArrow),
				styleAdded.Render(formatValue(fc.After)))
		}
	}
	return b.String()
}
