package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/aharnip2705/studylab-sub000/internal/ai"
	"github.com/aharnip2705/studylab-sub000/internal/chat"
	"github.com/aharnip2705/studylab-sub000/internal/plan"
	"github.com/aharnip2705/studylab-sub000/internal/textnorm"
)

type DaySummary struct {
	Day     string
	Label   string // "Wednesday (Çarşamba)"
	Tasks   int
	Minutes int
}

// Summary is the totals shown next to a plan preview.
type Summary struct {
	Tasks   int
	Minutes int
	PerDay  [7]DaySummary
}

func Summarize(w plan.Weekly) Summary {
	var s Summary
	for i, d := range w.Days {
		ds := DaySummary{Day: d.Key.String(), Label: DayLabel(d.Key), Tasks: len(d.Tasks)}
		for _, t := range d.Tasks {
			ds.Minutes += t.Minutes
		}
		s.PerDay[i] = ds
		s.Tasks += ds.Tasks
		s.Minutes += ds.Minutes
	}
	return s
}

// DayLabel names a weekday in English and Turkish.
func DayLabel(d textnorm.Day) string {
	return fmt.Sprintf("%s (%s)", d, d.Turkish())
}

// FormatMinutes renders 150 as "2h 30m".
func FormatMinutes(m int) string {
	h, rem := m/60, m%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", rem)
	case rem == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh %dm", h, rem)
	}
}

// Render is a plain-text rendering of w, one block per day.
func Render(w plan.Weekly) string {
	var sb strings.Builder
	for _, d := range w.Days {
		fmt.Fprintf(&sb, "%s\n", DayLabel(d.Key))
		if len(d.Tasks) == 0 {
			sb.WriteString("  rest\n")
			continue
		}
		for _, t := range d.Tasks {
			fmt.Fprintf(&sb, "  %-24s %6s", t.Subject, FormatMinutes(t.Minutes))
			if t.Description != "" {
				fmt.Fprintf(&sb, "  %s", t.Description)
			}
			sb.WriteString("\n")
		}
	}
	s := Summarize(w)
	fmt.Fprintf(&sb, "\n%d tasks, %s total\n", s.Tasks, FormatMinutes(s.Minutes))
	return sb.String()
}

// ChangeRequest feeds the user's feedback on a previewed plan back through
// the pipeline as a new turn. The previewed plan is discarded; a fresh
// completion produces the next one.
func (p *Pipeline) ChangeRequest(ctx context.Context, s *chat.Session, feedback string, g ai.Grounding, onDelta func(string)) (TurnResult, error) {
	p.logger.Debug("plan change requested", "session", s.ID)
	return p.GenerateTurnStream(ctx, s, feedback, g, onDelta)
}
