// Package planner runs a chat turn through classification, prompting,
// completion and plan extraction, and applies confirmed plans to the task
// store.
package planner

import (
	"context"
	"errors"
	"time"

	"github.com/aharnip2705/studylab-sub000/internal/domain"
)

// ErrStoreWriteFailed wraps any failure of the apply step.
var ErrStoreWriteFailed = errors.New("writing plan to store failed")

// UnrecognizedPlanReply is shown instead of the model's text when a plan was
// requested but none could be recovered from the reply.
const UnrecognizedPlanReply = "I couldn't recognize the plan format, please rephrase your request."

// Catalog lists the subjects a plan may reference.
type Catalog interface {
	Subjects(ctx context.Context) ([]domain.Subject, error)
}

// Invalidator is implemented by caching catalogs that can drop their copy.
type Invalidator interface {
	Invalidate()
}

// TaskStore holds one weekly plan aggregate per user and week.
type TaskStore interface {
	GetOrCreateWeek(ctx context.Context, userID string, weekStart time.Time) (domain.WeeklyPlan, error)
	DeleteAllTasks(ctx context.Context, planID int64) error
	InsertTasks(ctx context.Context, planID int64, tasks []domain.ResolvedTask) error
}

// WeekReplacer is implemented by stores that can swap a week's tasks
// atomically. The applier prefers it over the delete-then-insert sequence.
type WeekReplacer interface {
	ReplaceWeekTasks(ctx context.Context, userID string, weekStart time.Time, tasks []domain.ResolvedTask) (domain.WeeklyPlan, error)
}
