package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/aharnip2705/studylab-sub000/internal/ai"
	"github.com/aharnip2705/studylab-sub000/internal/chat"
	"github.com/aharnip2705/studylab-sub000/internal/plan"
	"github.com/aharnip2705/studylab-sub000/internal/planner"
)

type viewState int

const (
	chatView viewState = iota
	loadingView
	previewView
	changeView
	applyingView
)

// Pipeline is the part of planner.Pipeline the chat screen drives.
type Pipeline interface {
	GenerateTurnStream(ctx context.Context, s *chat.Session, message string, g ai.Grounding, onDelta func(string)) (planner.TurnResult, error)
	ChangeRequest(ctx context.Context, s *chat.Session, feedback string, g ai.Grounding, onDelta func(string)) (planner.TurnResult, error)
	ApplyPlan(ctx context.Context, userID string, w plan.Weekly) (planner.ApplyResult, error)
}

// Result reports what happened during the session once the program exits.
type Result struct {
	Applied []planner.ApplyResult
}

type deltaMsg string

type turnMsg struct {
	result planner.TurnResult
	err    error
}

type applyMsg struct {
	result planner.ApplyResult
	err    error
}

type App struct {
	state   viewState
	input   inputModel
	spinner spinner.Model
	preview previewModel
	change  changeModel

	pipeline  Pipeline
	session   *chat.Session
	grounding ai.Grounding
	ctx       context.Context

	// transcript is what has been shown so far, one entry per turn.
	transcript []string
	streaming  strings.Builder
	deltas     chan string
	status     string
	result     Result
}

func NewApp(ctx context.Context, pipeline Pipeline, session *chat.Session, grounding ai.Grounding) *App {
	s := spinner.New()
	s.Spinner = spinner.Dot

	a := &App{
		state:     chatView,
		input:     newInputModel(),
		spinner:   s,
		pipeline:  pipeline,
		session:   session,
		grounding: grounding,
		ctx:       ctx,
	}
	for _, t := range session.Turns() {
		a.transcript = append(a.transcript, renderTurn(t.Role, t.Text))
	}
	return a
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.input.textarea.Focus(), a.spinner.Tick)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if wsMsg, ok := msg.(tea.WindowSizeMsg); ok {
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(wsMsg)
		return a, cmd
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
	case deltaMsg:
		a.streaming.WriteString(string(msg))
		return a, a.waitForDelta()
	case turnMsg:
		return a.handleTurn(msg)
	case applyMsg:
		return a.handleApply(msg)
	}

	switch a.state {
	case chatView:
		return a.updateChat(msg)
	case loadingView, applyingView:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	case previewView:
		return a.updatePreview(msg)
	case changeView:
		return a.updateChange(msg)
	}

	return a, nil
}

func (a *App) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("studylab — Study Coach"))
	sb.WriteString("\n")
	if a.grounding.Track != "" {
		sb.WriteString(subtitleStyle.Render("Track: " + a.grounding.Track))
		sb.WriteString("\n")
	}
	for _, line := range a.transcript {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	if a.status != "" {
		sb.WriteString(a.status)
		sb.WriteString("\n\n")
	}

	switch a.state {
	case chatView:
		sb.WriteString(a.input.View())
	case loadingView:
		if a.streaming.Len() > 0 {
			sb.WriteString(coachStyle.Render("coach: "))
			sb.WriteString(a.streaming.String())
			sb.WriteString("\n")
		}
		sb.WriteString(a.spinner.View() + " Thinking...")
	case previewView:
		sb.WriteString(a.preview.View())
	case changeView:
		sb.WriteString(a.change.View())
	case applyingView:
		sb.WriteString(a.spinner.View() + " Saving your week...")
	}
	return sb.String()
}

// GetResult returns the plans applied during the session.
func (a *App) GetResult() Result {
	return a.result
}

func (a *App) updateChat(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.String() == "enter" && strings.TrimSpace(a.input.Value()) != "" {
			text := strings.TrimSpace(a.input.Value())
			a.input.Reset()
			a.status = ""
			a.transcript = append(a.transcript, renderTurn(chat.RoleUser, text))
			return a, a.startTurn(func(ctx context.Context, onDelta func(string)) (planner.TurnResult, error) {
				return a.pipeline.GenerateTurnStream(ctx, a.session, text, a.grounding, onDelta)
			})
		}
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) updatePreview(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "a":
			a.state = applyingView
			return a, tea.Batch(a.spinner.Tick, a.apply(a.preview.plan))
		case "c":
			a.state = changeView
			a.change = newChangeModel()
			return a, nil
		case "d":
			a.status = dimStyle.Render("Plan discarded.")
			a.state = chatView
			return a, a.input.textarea.Focus()
		case "up", "k":
			a.preview.up()
		case "down", "j":
			a.preview.down()
		}
	}
	return a, nil
}

func (a *App) updateChange(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			a.state = previewView
			return a, nil
		case "enter":
			feedback := strings.TrimSpace(a.change.Value())
			if feedback == "" {
				return a, nil
			}
			a.transcript = append(a.transcript, renderTurn(chat.RoleUser, feedback))
			return a, a.startTurn(func(ctx context.Context, onDelta func(string)) (planner.TurnResult, error) {
				return a.pipeline.ChangeRequest(ctx, a.session, feedback, a.grounding, onDelta)
			})
		}
	}

	var cmd tea.Cmd
	a.change, cmd = a.change.Update(msg)
	return a, cmd
}

// startTurn runs one pipeline turn in the background. Streamed fragments
// arrive as deltaMsg values; the final result as a turnMsg.
func (a *App) startTurn(run func(ctx context.Context, onDelta func(string)) (planner.TurnResult, error)) tea.Cmd {
	a.state = loadingView
	a.streaming.Reset()
	deltas := make(chan string, 64)
	a.deltas = deltas

	done := func() tea.Msg {
		res, err := run(a.ctx, func(d string) { deltas <- d })
		close(deltas)
		return turnMsg{result: res, err: err}
	}
	return tea.Batch(a.spinner.Tick, done, a.waitForDelta())
}

func (a *App) waitForDelta() tea.Cmd {
	deltas := a.deltas
	return func() tea.Msg {
		d, ok := <-deltas
		if !ok {
			return nil
		}
		return deltaMsg(d)
	}
}

func (a *App) handleTurn(msg turnMsg) (tea.Model, tea.Cmd) {
	a.streaming.Reset()

	if msg.err != nil {
		a.status = errorStyle.Render("Error: ") + msg.err.Error() + dimStyle.Render(" (send again to retry)")
		a.state = chatView
		return a, a.input.textarea.Focus()
	}

	res := msg.result
	if res.Plan != nil {
		a.transcript = append(a.transcript, renderTurn(chat.RoleAssistant, "Here is a program for this week."))
		if res.Report.DroppedDays > 0 || res.Report.DroppedTasks > 0 {
			a.status = warningStyle.Render(fmt.Sprintf("Skipped %d unreadable days and %d unreadable tasks.",
				res.Report.DroppedDays, res.Report.DroppedTasks))
		}
		a.preview = newPreviewModel(*res.Plan)
		a.state = previewView
		return a, nil
	}

	a.transcript = append(a.transcript, renderTurn(chat.RoleAssistant, res.Reply))
	a.state = chatView
	return a, a.input.textarea.Focus()
}

func (a *App) apply(w plan.Weekly) tea.Cmd {
	return func() tea.Msg {
		res, err := a.pipeline.ApplyPlan(a.ctx, a.session.UserID, w)
		return applyMsg{result: res, err: err}
	}
}

func (a *App) handleApply(msg applyMsg) (tea.Model, tea.Cmd) {
	a.state = chatView
	if msg.err != nil {
		detail := msg.err.Error()
		if errors.Is(msg.err, planner.ErrStoreWriteFailed) {
			detail += dimStyle.Render(" (press [a] on a new preview to retry)")
		}
		a.status = errorStyle.Render("Apply failed: ") + detail
		return a, a.input.textarea.Focus()
	}

	a.result.Applied = append(a.result.Applied, msg.result)
	status := successStyle.Render(fmt.Sprintf("Saved %d tasks for the week of %s.",
		msg.result.Inserted, msg.result.WeekStart.Format("2 Jan")))
	if len(msg.result.Unresolved) > 0 {
		status += "\n" + warningStyle.Render("Not in your subject list: "+strings.Join(msg.result.Unresolved, ", "))
	}
	a.status = status
	return a, a.input.textarea.Focus()
}

func renderTurn(role chat.Role, text string) string {
	if role == chat.RoleUser {
		return userStyle.Render("you: ") + text
	}
	return coachStyle.Render("coach: ") + text
}
