package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// changeModel collects free-text feedback on a previewed plan.
type changeModel struct {
	textInput textinput.Model
}

func newChangeModel() changeModel {
	ti := textinput.New()
	ti.Placeholder = "e.g. less physics, keep Sunday free"
	ti.CharLimit = 300
	ti.Width = 60
	ti.Focus()
	return changeModel{textInput: ti}
}

func (m changeModel) Update(msg tea.Msg) (changeModel, tea.Cmd) {
	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m changeModel) Value() string {
	return m.textInput.Value()
}

func (m changeModel) View() string {
	return titleStyle.Render("What should change?") + "\n" +
		m.textInput.View() + "\n" +
		helpStyle.Render("Enter: regenerate • Esc: back to preview")
}
