package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aharnip2705/studylab-sub000/internal/domain"
)

// AddExam stores an exam result and its per-subject breakdown in one
// transaction.
func (db *DB) AddExam(ctx context.Context, e domain.ExamResult) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO exam_results (user_id, exam_kind, taken_at, correct, wrong, minutes)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.UserID, e.Kind, e.TakenAt.UTC().Format(time.RFC3339), e.Correct, e.Wrong, e.Minutes,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting exam result: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading exam id: %w", err)
	}

	labels := make([]string, 0, len(e.Subjects))
	for label := range e.Subjects {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		s := e.Subjects[label]
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO exam_subject_results (exam_id, subject_label, correct, wrong) VALUES (?, ?, ?, ?)`,
			id, label, s.Correct, s.Wrong,
		); err != nil {
			return 0, fmt.Errorf("inserting subject result %q: %w", label, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing exam result: %w", err)
	}
	return id, nil
}

// RecentExams returns up to limit results for the user, newest first.
func (db *DB) RecentExams(ctx context.Context, userID string, limit int) ([]domain.ExamResult, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, user_id, exam_kind, taken_at, correct, wrong, minutes
		 FROM exam_results WHERE user_id = ?
		 ORDER BY taken_at DESC, id DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying exam results: %w", err)
	}

	var exams []domain.ExamResult
	for rows.Next() {
		var e domain.ExamResult
		var takenAt string
		if err := rows.Scan(&e.ID, &e.UserID, &e.Kind, &takenAt, &e.Correct, &e.Wrong, &e.Minutes); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning exam result: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, takenAt); err == nil {
			e.TakenAt = t.Local()
		}
		exams = append(exams, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range exams {
		subjects, err := db.examSubjects(ctx, exams[i].ID)
		if err != nil {
			return nil, err
		}
		exams[i].Subjects = subjects
	}
	return exams, nil
}

func (db *DB) examSubjects(ctx context.Context, examID int64) (map[string]domain.SubjectScore, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT subject_label, correct, wrong FROM exam_subject_results WHERE exam_id = ?`, examID)
	if err != nil {
		return nil, fmt.Errorf("querying subject results: %w", err)
	}
	defer rows.Close()

	var out map[string]domain.SubjectScore
	for rows.Next() {
		var label string
		var s domain.SubjectScore
		if err := rows.Scan(&label, &s.Correct, &s.Wrong); err != nil {
			return nil, fmt.Errorf("scanning subject result: %w", err)
		}
		if out == nil {
			out = make(map[string]domain.SubjectScore)
		}
		out[label] = s
	}
	return out, rows.Err()
}
