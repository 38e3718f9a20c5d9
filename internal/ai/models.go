package ai

import (
	"github.com/aharnip2705/studylab-sub000/internal/chat"
	"github.com/aharnip2705/studylab-sub000/internal/domain"
)

// MaxRecentExams caps how many exam results are embedded in a prompt.
const MaxRecentExams = 5

// Grounding carries the facts a reply or plan should be based on.
type Grounding struct {
	Track   string
	Targets map[string]float64
	// Recent is newest first.
	Recent []domain.ExamResult
}

// Capped returns g with at most n of the most recent exams.
func (g Grounding) Capped(n int) Grounding {
	if n > 0 && len(g.Recent) > n {
		g.Recent = g.Recent[:n]
	}
	return g
}

// Request is one call to the completion service.
type Request struct {
	System      string
	Messages    []chat.Turn
	// Temperature is always sent, so 0 asks for deterministic output.
	Temperature float64
	MaxTokens   int
	// Schema, when set, is a JSON schema the reply should satisfy. Providers
	// that cannot enforce it ignore it.
	Schema string
}

// PlanDocument is the structure the plan directive asks the model to emit.
type PlanDocument struct {
	Plan []PlanDay `json:"plan" jsonschema:"minItems=7,maxItems=7"`
}

type PlanDay struct {
	Day   string     `json:"day" jsonschema:"enum=Monday,enum=Tuesday,enum=Wednesday,enum=Thursday,enum=Friday,enum=Saturday,enum=Sunday"`
	Tasks []PlanTask `json:"tasks"`
}

type PlanTask struct {
	Subject         string `json:"subject"`
	DurationMinutes int    `json:"duration_minutes" jsonschema:"minimum=15,maximum=240"`
	Description     string `json:"description" jsonschema:"maxLength=120"`
}
