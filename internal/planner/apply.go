package planner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aharnip2705/studylab-sub000/internal/domain"
	"github.com/aharnip2705/studylab-sub000/internal/plan"
	"github.com/aharnip2705/studylab-sub000/internal/textnorm"
)

type ApplyResult struct {
	PlanID    int64
	WeekStart time.Time
	Inserted  int
	// Unresolved lists subject labels that matched nothing in the catalog.
	// Their tasks are stored without a subject reference.
	Unresolved []string
}

// Applier replaces the current week's tasks with a confirmed plan.
type Applier struct {
	store   TaskStore
	catalog Catalog
	logger  *slog.Logger
	now     func() time.Time
}

func NewApplier(store TaskStore, catalog Catalog, logger *slog.Logger) *Applier {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Applier{store: store, catalog: catalog, logger: logger, now: time.Now}
}

// WithClock returns a copy of a that takes "now" from clock.
func (a *Applier) WithClock(clock func() time.Time) *Applier {
	cp := *a
	cp.now = clock
	return &cp
}

// Apply writes w into the week containing now. All existing tasks of that
// week are removed first, so applying the same plan twice leaves one copy.
func (a *Applier) Apply(ctx context.Context, userID string, w plan.Weekly) (ApplyResult, error) {
	weekStart := domain.WeekStart(a.now())
	tasks, unresolved := a.resolve(ctx, w, weekStart)
	if inv, ok := a.catalog.(Invalidator); ok && len(unresolved) > 0 {
		// A subject may have been added since the catalog was cached.
		a.logger.Debug("reloading subject catalog", "unresolved", len(unresolved))
		inv.Invalidate()
		tasks, unresolved = a.resolve(ctx, w, weekStart)
	}
	res := ApplyResult{WeekStart: weekStart, Unresolved: unresolved}

	if r, ok := a.store.(WeekReplacer); ok {
		p, err := r.ReplaceWeekTasks(ctx, userID, weekStart, tasks)
		if err != nil {
			return res, fmt.Errorf("%w: %w", ErrStoreWriteFailed, err)
		}
		res.PlanID = p.ID
		res.Inserted = len(tasks)
		a.logger.Info("plan applied", "user", userID, "week", weekStart.Format(domain.DateLayout), "tasks", res.Inserted, "transactional", true)
		return res, nil
	}

	p, err := a.store.GetOrCreateWeek(ctx, userID, weekStart)
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrStoreWriteFailed, err)
	}
	res.PlanID = p.ID

	if err := a.store.DeleteAllTasks(ctx, p.ID); err != nil {
		return res, fmt.Errorf("%w: %w", ErrStoreWriteFailed, err)
	}
	if err := a.store.InsertTasks(ctx, p.ID, tasks); err != nil {
		return res, fmt.Errorf("%w (existing tasks were already removed, the week may be empty): %w", ErrStoreWriteFailed, err)
	}
	res.Inserted = len(tasks)
	a.logger.Info("plan applied", "user", userID, "week", weekStart.Format(domain.DateLayout), "tasks", res.Inserted, "transactional", false)
	return res, nil
}

// resolve binds every task to its calendar date and, when possible, to a
// catalog subject. A catalog failure leaves all tasks unbound.
func (a *Applier) resolve(ctx context.Context, w plan.Weekly, weekStart time.Time) ([]domain.ResolvedTask, []string) {
	subjects, err := a.catalog.Subjects(ctx)
	if err != nil {
		a.logger.Warn("subject catalog unavailable, storing tasks without subjects", "error", err)
		subjects = nil
	}
	names := domain.SubjectNames(subjects)

	var tasks []domain.ResolvedTask
	var unresolved []string
	seen := make(map[string]bool)

	for _, d := range w.Days {
		date := weekStart.AddDate(0, 0, int(d.Key-textnorm.Monday))
		for _, t := range d.Tasks {
			rt := domain.ResolvedTask{
				Date:         date,
				SubjectLabel: t.Subject,
				Minutes:      t.Minutes,
				Description:  t.Description,
				Kind:         domain.TaskKindTest,
			}
			if i, ok := textnorm.MatchSubject(t.Subject, names); ok {
				id := subjects[i].ID
				rt.SubjectID = &id
				rt.SubjectLabel = subjects[i].Name
			} else {
				a.logger.Debug("subject not in catalog", "label", t.Subject)
				if !seen[t.Subject] {
					seen[t.Subject] = true
					unresolved = append(unresolved, t.Subject)
				}
			}
			tasks = append(tasks, rt)
		}
	}
	return tasks, unresolved
}
