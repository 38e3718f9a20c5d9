package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aharnip2705/studylab-sub000/internal/domain"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// GetOrCreateWeek returns the plan for the user's week starting at
// weekStart, creating it when absent.
func (db *DB) GetOrCreateWeek(ctx context.Context, userID string, weekStart time.Time) (domain.WeeklyPlan, error) {
	return getOrCreateWeek(ctx, db.DB, userID, weekStart)
}

func getOrCreateWeek(ctx context.Context, q execer, userID string, weekStart time.Time) (domain.WeeklyPlan, error) {
	key := weekStart.Format(domain.DateLayout)
	if _, err := q.ExecContext(ctx,
		`INSERT INTO weekly_plans (user_id, week_start) VALUES (?, ?) ON CONFLICT(user_id, week_start) DO NOTHING`,
		userID, key,
	); err != nil {
		return domain.WeeklyPlan{}, fmt.Errorf("creating week %s: %w", key, err)
	}

	p := domain.WeeklyPlan{UserID: userID, WeekStart: weekStart}
	if err := q.QueryRowContext(ctx,
		`SELECT id FROM weekly_plans WHERE user_id = ? AND week_start = ?`, userID, key,
	).Scan(&p.ID); err != nil {
		return domain.WeeklyPlan{}, fmt.Errorf("loading week %s: %w", key, err)
	}
	return p, nil
}

// DeleteAllTasks removes every task of the plan.
func (db *DB) DeleteAllTasks(ctx context.Context, planID int64) error {
	return deleteAllTasks(ctx, db.DB, planID)
}

func deleteAllTasks(ctx context.Context, q execer, planID int64) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM plan_tasks WHERE plan_id = ?`, planID); err != nil {
		return fmt.Errorf("deleting tasks of plan %d: %w", planID, err)
	}
	return nil
}

// InsertTasks appends tasks to the plan in the given order.
func (db *DB) InsertTasks(ctx context.Context, planID int64, tasks []domain.ResolvedTask) error {
	return insertTasks(ctx, db.DB, planID, tasks)
}

func insertTasks(ctx context.Context, q execer, planID int64, tasks []domain.ResolvedTask) error {
	for i, t := range tasks {
		kind := t.Kind
		if kind == "" {
			kind = domain.TaskKindTest
		}
		var subjectID any
		if t.SubjectID != nil {
			subjectID = *t.SubjectID
		}
		if _, err := q.ExecContext(ctx,
			`INSERT INTO plan_tasks (plan_id, task_date, subject_id, subject_label, minutes, description, kind, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			planID, t.Date.Format(domain.DateLayout), subjectID, t.SubjectLabel, t.Minutes, t.Description, kind, i,
		); err != nil {
			return fmt.Errorf("inserting task %d of plan %d: %w", i, planID, err)
		}
	}
	return nil
}

// ReplaceWeekTasks swaps the week's tasks for the given ones in a single
// transaction; on failure the previous tasks are left untouched.
func (db *DB) ReplaceWeekTasks(ctx context.Context, userID string, weekStart time.Time, tasks []domain.ResolvedTask) (domain.WeeklyPlan, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return domain.WeeklyPlan{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	p, err := getOrCreateWeek(ctx, tx, userID, weekStart)
	if err != nil {
		return domain.WeeklyPlan{}, err
	}
	if err := deleteAllTasks(ctx, tx, p.ID); err != nil {
		return domain.WeeklyPlan{}, err
	}
	if err := insertTasks(ctx, tx, p.ID, tasks); err != nil {
		return domain.WeeklyPlan{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.WeeklyPlan{}, fmt.Errorf("committing week %s: %w", weekStart.Format(domain.DateLayout), err)
	}
	return p, nil
}

// WeekTasks returns the tasks of the user's week ordered by date, then by
// insertion order. A week that was never planned yields no tasks.
func (db *DB) WeekTasks(ctx context.Context, userID string, weekStart time.Time) ([]domain.ResolvedTask, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT t.id, t.task_date, t.subject_id, t.subject_label, t.minutes, t.description, t.kind
		 FROM plan_tasks t JOIN weekly_plans p ON p.id = t.plan_id
		 WHERE p.user_id = ? AND p.week_start = ?
		 ORDER BY t.task_date ASC, t.position ASC`,
		userID, weekStart.Format(domain.DateLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("querying week tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.ResolvedTask
	for rows.Next() {
		var t domain.ResolvedTask
		var date string
		var subjectID sql.NullInt64
		if err := rows.Scan(&t.ID, &date, &subjectID, &t.SubjectLabel, &t.Minutes, &t.Description, &t.Kind); err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		t.Date, err = time.ParseInLocation(domain.DateLayout, date, weekStart.Location())
		if err != nil {
			return nil, fmt.Errorf("parsing task date %q: %w", date, err)
		}
		if subjectID.Valid {
			id := subjectID.Int64
			t.SubjectID = &id
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// TasksOn returns the user's tasks scheduled on the calendar date of day.
func (db *DB) TasksOn(ctx context.Context, userID string, day time.Time) ([]domain.ResolvedTask, error) {
	tasks, err := db.WeekTasks(ctx, userID, domain.WeekStart(day))
	if err != nil {
		return nil, err
	}
	key := day.Format(domain.DateLayout)
	var out []domain.ResolvedTask
	for _, t := range tasks {
		if t.Date.Format(domain.DateLayout) == key {
			out = append(out, t)
		}
	}
	return out, nil
}
