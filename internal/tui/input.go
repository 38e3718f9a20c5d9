package tui

import (
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
)

type inputModel struct {
	textarea textarea.Model
	width    int
	height   int
}

func newInputModel() inputModel {
	ta := textarea.New()
	ta.Placeholder = "Ask your coach, or ask for a weekly program..."
	ta.Focus()
	ta.CharLimit = 1000
	ta.SetWidth(72)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	return inputModel{textarea: ta}
}

func (m inputModel) Update(msg tea.Msg) (inputModel, tea.Cmd) {
	if ws, ok := msg.(tea.WindowSizeMsg); ok {
		m.width, m.height = ws.Width, ws.Height
		if ws.Width > 4 {
			m.textarea.SetWidth(min(ws.Width-4, 100))
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m inputModel) View() string {
	return m.textarea.View() + "\n" + helpStyle.Render("Enter: send • Ctrl+C: quit")
}

func (m inputModel) Value() string {
	return m.textarea.Value()
}

func (m *inputModel) Reset() {
	m.textarea.Reset()
}
