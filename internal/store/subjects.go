package store

import (
	"context"
	"fmt"

	"github.com/aharnip2705/studylab-sub000/internal/domain"
)

// defaultSubjects is the YKS catalog inserted into an empty database, with
// the number of questions each subject has in its section.
var defaultSubjects = []domain.Subject{
	{Name: "Türkçe", ExamKind: "TYT", MaxQuestions: 40},
	{Name: "Sosyal Bilimler", ExamKind: "TYT", MaxQuestions: 20},
	{Name: "Temel Matematik", ExamKind: "TYT", MaxQuestions: 40},
	{Name: "Fen Bilimleri", ExamKind: "TYT", MaxQuestions: 20},
	{Name: "Matematik", ExamKind: "AYT", MaxQuestions: 40},
	{Name: "Fizik", ExamKind: "AYT", MaxQuestions: 14},
	{Name: "Kimya", ExamKind: "AYT", MaxQuestions: 13},
	{Name: "Biyoloji", ExamKind: "AYT", MaxQuestions: 13},
	{Name: "Türk Dili ve Edebiyatı", ExamKind: "AYT", MaxQuestions: 24},
	{Name: "Tarih", ExamKind: "AYT", MaxQuestions: 21},
	{Name: "Coğrafya", ExamKind: "AYT", MaxQuestions: 17},
	{Name: "Felsefe", ExamKind: "AYT", MaxQuestions: 12},
}

func (db *DB) seedSubjects(ctx context.Context) error {
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM subjects").Scan(&n); err != nil {
		return fmt.Errorf("counting subjects: %w", err)
	}
	if n > 0 {
		return nil
	}
	for _, s := range defaultSubjects {
		if _, err := db.AddSubject(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// Subjects returns the catalog in display order.
func (db *DB) Subjects(ctx context.Context) ([]domain.Subject, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, exam_kind, max_questions FROM subjects ORDER BY position ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying subjects: %w", err)
	}
	defer rows.Close()

	var out []domain.Subject
	for rows.Next() {
		var s domain.Subject
		if err := rows.Scan(&s.ID, &s.Name, &s.ExamKind, &s.MaxQuestions); err != nil {
			return nil, fmt.Errorf("scanning subject: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (db *DB) AddSubject(ctx context.Context, s domain.Subject) (int64, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO subjects (name, exam_kind, max_questions, position)
		 VALUES (?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM subjects))`,
		s.Name, s.ExamKind, s.MaxQuestions,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting subject %q: %w", s.Name, err)
	}
	return result.LastInsertId()
}
