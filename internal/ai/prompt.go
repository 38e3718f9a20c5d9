package ai

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aharnip2705/studylab-sub000/internal/domain"
	"github.com/aharnip2705/studylab-sub000/internal/textnorm"
)

type Mode int

const (
	ModeChat Mode = iota
	ModePlan
)

func (m Mode) String() string {
	if m == ModePlan {
		return "plan"
	}
	return "chat"
}

// Plan task duration bounds given to the model.
const (
	MinTaskMinutes = 15
	MaxTaskMinutes = 240
)

// BuildSystemPrompt assembles the system directive for one turn.
func BuildSystemPrompt(mode Mode, g Grounding, subjects []domain.Subject) string {
	if mode == ModePlan {
		return buildPlanPrompt(g, subjects)
	}
	return buildChatPrompt(g, subjects)
}

func buildChatPrompt(g Grounding, subjects []domain.Subject) string {
	var sb strings.Builder
	sb.WriteString(`You are a friendly, honest study coach for a student preparing for the university entrance exams (YKS: TYT and AYT).
Answer in the language the student writes in. Keep replies short and concrete.

`)
	writeGrounding(&sb, g, subjects)
	sb.WriteString(`
Rules:
- Base every claim about the student's performance on the results above; say so when there is no data
- Net means correct minus a quarter of wrong answers
- Point out the weakest subjects by success ratio (correct divided by the subject's question count), not raw correct count
- Do not write a full weekly schedule in this mode; if a schedule would help, offer to build a weekly program
`)
	return sb.String()
}

func buildPlanPrompt(g Grounding, subjects []domain.Subject) string {
	var sb strings.Builder
	sb.WriteString(`You are a study planner. Produce a seven-day study schedule for the student described below.

`)
	writeGrounding(&sb, g, subjects)

	names := make([]string, 0, len(subjects))
	for _, s := range subjects {
		names = append(names, s.Name)
	}

	days := make([]string, 0, len(textnorm.Week))
	for _, d := range textnorm.Week {
		days = append(days, d.String())
	}

	fmt.Fprintf(&sb, `
Output contract:
- Reply with exactly one JSON object of the form {"plan": [...]} and nothing else: no greeting, no explanation, no markdown
- "plan" has exactly seven entries, one per day, in this order: %s
- Each entry is {"day": <day name>, "tasks": [...]}; a rest day has an empty task list
- Each task is {"subject": <subject>, "duration_minutes": <integer>, "description": <short text>}
- "subject" must be one of: %s
- "duration_minutes" is a whole number between %d and %d
- "description" is at most one short sentence naming the concrete activity (topic review, question drill, mock exam)

Weighting:
- Give more time to subjects with a low success ratio, where success ratio = correct answers / the subject's question count in the exam
- Never weight by raw correct counts: a subject with fewer questions is not weaker just because it has fewer correct answers
- Subjects at or above the target get maintenance sessions only

JSON schema of the reply:
%s
`, strings.Join(days, ", "), strings.Join(names, ", "), MinTaskMinutes, MaxTaskMinutes, PlanSchema())

	return sb.String()
}

func writeGrounding(sb *strings.Builder, g Grounding, subjects []domain.Subject) {
	track := g.Track
	if track == "" {
		track = "unspecified"
	}
	fmt.Fprintf(sb, "Study track: %s\n", track)

	if len(g.Targets) > 0 {
		kinds := make([]string, 0, len(g.Targets))
		for k := range g.Targets {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		sb.WriteString("Target nets:")
		for _, k := range kinds {
			fmt.Fprintf(sb, " %s %.1f;", k, g.Targets[k])
		}
		sb.WriteString("\n")
	}

	maxQ := make(map[string]int, len(subjects))
	for _, s := range subjects {
		maxQ[textnorm.Fold(s.Name)] = s.MaxQuestions
	}

	if len(g.Recent) == 0 {
		sb.WriteString("Recent exams: none recorded\n")
		return
	}

	sb.WriteString("Recent exams (newest first):\n")
	for _, e := range g.Recent {
		fmt.Fprintf(sb, "- %s %s: %d correct, %d wrong, net %.2f, %d min\n",
			e.TakenAt.Format("2006-01-02"), e.Kind, e.Correct, e.Wrong, e.Net(), e.Minutes)

		labels := make([]string, 0, len(e.Subjects))
		for l := range e.Subjects {
			labels = append(labels, l)
		}
		sort.Strings(labels)

		for _, l := range labels {
			sc := e.Subjects[l]
			line := fmt.Sprintf("  - %s: %d correct, %d wrong, net %.2f", l, sc.Correct, sc.Wrong, domain.Net(sc.Correct, sc.Wrong))
			if q := maxQ[textnorm.Fold(l)]; q > 0 {
				line += fmt.Sprintf(", success ratio %.2f of %d questions", float64(sc.Correct)/float64(q), q)
			}
			sb.WriteString(line + "\n")
		}
	}
}
