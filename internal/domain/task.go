package domain

import "time"

// TaskKindTest is the only kind generated plans produce.
const TaskKindTest = "test"

// ResolvedTask is a planned study block bound to a calendar date. SubjectID
// is nil when the drafted subject label matched nothing in the catalog.
type ResolvedTask struct {
	ID           int64
	Date         time.Time
	SubjectID    *int64
	SubjectLabel string
	Minutes      int
	Description  string
	Kind         string
}

// WeeklyPlan is the aggregate owning a week's tasks for one user.
type WeeklyPlan struct {
	ID        int64
	UserID    string
	WeekStart time.Time
}

const DateLayout = "2006-01-02"

// WeekStart returns local midnight of the Monday of t's ISO week.
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
}
