package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/postcraft/pkg/templates"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// TemplatePickerModel is the bubbletea model for choosing a template.
type TemplatePickerModel struct {
	Templates []templates.Definition
	Cursor    int
	Offset    int
	Height    int
	Selected  *templates.Definition
}

// NewTemplatePickerModel creates a picker over defs.
func NewTemplatePickerModel(defs []templates.Definition) TemplatePickerModel {
	return TemplatePickerModel{Templates: defs, Height: 12}
}

func (m TemplatePickerModel) Init() tea.Cmd { return nil }

func (m TemplatePickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				m.Offset = min(m.Offset, m.Cursor)
			}
		case "down", "j":
			if m.Cursor < len(m.Templates)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Templates) == 0 {
				return m, tea.Quit
			}
			d := m.Templates[m.Cursor]
			m.Selected = &d
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 3)
	}
	return m, nil
}

func (m TemplatePickerModel) View() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render("Select Template"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Templates))
	b.WriteString(templateTable(m.Templates[m.Offset:end], m.Cursor-m.Offset))
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Templates))))
	return b.String()
}
