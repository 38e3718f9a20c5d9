package tui

import (
	"fmt"
	"strings"

	"github.com/aharnip2705/studylab-sub000/internal/plan"
	"github.com/aharnip2705/studylab-sub000/internal/planner"
)

// previewModel shows a recovered plan one day per block with a cursor on
// the focused day.
type previewModel struct {
	plan   plan.Weekly
	cursor int
}

func newPreviewModel(w plan.Weekly) previewModel {
	return previewModel{plan: w}
}

func (m *previewModel) up() {
	if m.cursor > 0 {
		m.cursor--
	}
}

func (m *previewModel) down() {
	if m.cursor < len(m.plan.Days)-1 {
		m.cursor++
	}
}

func (m previewModel) View() string {
	var sb strings.Builder
	sum := planner.Summarize(m.plan)

	sb.WriteString(titleStyle.Render("Proposed Weekly Program"))
	sb.WriteString("\n")

	for i, d := range m.plan.Days {
		prefix := "  "
		if i == m.cursor {
			prefix = "> "
		}
		header := fmt.Sprintf("%s%-22s %s", prefix, sum.PerDay[i].Label,
			dimStyle.Render(fmt.Sprintf("%d tasks, %s", sum.PerDay[i].Tasks, planner.FormatMinutes(sum.PerDay[i].Minutes))))
		if i == m.cursor {
			header = highlightStyle.Render(fmt.Sprintf("%s%-22s", prefix, sum.PerDay[i].Label)) + " " +
				dimStyle.Render(fmt.Sprintf("%d tasks, %s", sum.PerDay[i].Tasks, planner.FormatMinutes(sum.PerDay[i].Minutes)))
		}
		sb.WriteString(header)
		sb.WriteString("\n")

		if len(d.Tasks) == 0 {
			sb.WriteString(dimStyle.Render("      rest"))
			sb.WriteString("\n")
			continue
		}
		for _, t := range d.Tasks {
			line := fmt.Sprintf("      %-24s %6s  %s", t.Subject, planner.FormatMinutes(t.Minutes), t.Description)
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n")
	sb.WriteString(dayStyle.Render(fmt.Sprintf("%d tasks, %s this week", sum.Tasks, planner.FormatMinutes(sum.Minutes))))
	sb.WriteString("\n")
	sb.WriteString(warningStyle.Render("Applying replaces every task already planned for this week."))
	sb.WriteString("\n")
	sb.WriteString(helpStyle.Render("[a]pply • [c]hange • [d]iscard • ↑/↓ move"))

	return boxStyle.Render(sb.String())
}
