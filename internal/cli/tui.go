package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/groupsync/pkg/errors"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// =============================================================================
// GroupPickerModel - Interactive group selection for `run --pick`
// =============================================================================

// PickItem is one selectable group.
type PickItem struct {
	Name     string
	Kind     string
	Packages int
	Locked   bool
	Passed   bool // resume marker present
}

// GroupPickerModel is the bubbletea model for choosing groups to run.
type GroupPickerModel struct {
	Items   []PickItem
	Cursor  int
	Chosen  map[int]bool
	Height  int
	Offset  int
	Done    bool
	Aborted bool
}

// NewGroupPickerModel creates a picker with every group chosen.
func NewGroupPickerModel(items []PickItem) GroupPickerModel {
	chosen := make(map[int]bool, len(items))
	for i := range items {
		chosen[i] = true
	}
	return GroupPickerModel{Items: items, Chosen: chosen, Height: 15}
}

// Selected returns the chosen group names in list order.
func (m GroupPickerModel) Selected() []string {
	var out []string
	for i, it := range m.Items {
		if m.Chosen[i] {
			out = append(out, it.Name)
		}
	}
	return out
}

func (m GroupPickerModel) Init() tea.Cmd {
	return nil
}

func (m GroupPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Aborted = true
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Items)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case " ", "x":
			m.Chosen[m.Cursor] = !m.Chosen[m.Cursor]
		case "a":
			all := len(m.Selected()) < len(m.Items)
			for i := range m.Items {
				m.Chosen[i] = all
			}
		case "enter":
			m.Done = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m GroupPickerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Groups"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  space toggle  a all  ⏎ run  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Items))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		it := m.Items[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		box := "[ ]"
		if m.Chosen[i] {
			box = "[x]"
		}
		rows = append(rows, []string{cursor + box, it.Name, it.Kind, fmt.Sprint(it.Packages), yesNo(it.Locked), yesNo(it.Passed)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Group", "Kind", "Pkgs", "Lock", "Passed").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleTableHeader
			}
			idx := m.Offset + row
			base := lipgloss.NewStyle().PaddingRight(1)
			if idx >= len(m.Items) {
				return base
			}
			switch {
			case idx == m.Cursor && m.Chosen[idx]:
				return base.Foreground(colorGreen).Bold(true)
			case idx == m.Cursor:
				return base.Bold(true)
			case m.Chosen[idx]:
				return base.Foreground(colorGreen)
			}
			return base.Foreground(colorDim)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  %d of %d selected", len(m.Selected()), len(m.Items))))
	return b.String()
}

// pickGroups runs the picker and returns the chosen group names.
func pickGroups(ctx context.Context, items []PickItem) ([]string, error) {
	if len(items) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no groups to pick from")
	}
	final, err := tea.NewProgram(NewGroupPickerModel(items), tea.WithContext(ctx)).Run()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	m := final.(GroupPickerModel)
	if m.Aborted {
		return nil, context.Canceled
	}
	return m.Selected(), nil
}
