package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tj/go-naturaldate"

	"github.com/aharnip2705/studylab-sub000/internal/domain"
	"github.com/aharnip2705/studylab-sub000/internal/store"
	"github.com/aharnip2705/studylab-sub000/internal/textnorm"
)

func runExamAdd(cmd *cobra.Command, args []string) error {
	kind, _ := cmd.Flags().GetString("kind")
	correct, _ := cmd.Flags().GetInt("correct")
	wrong, _ := cmd.Flags().GetInt("wrong")
	minutes, _ := cmd.Flags().GetInt("minutes")
	dateExpr, _ := cmd.Flags().GetString("date")
	subjectFlags, _ := cmd.Flags().GetStringArray("subject")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := store.Open()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()
	ctx := context.Background()

	takenAt := time.Now()
	if dateExpr != "" {
		takenAt, err = naturaldate.Parse(dateExpr, takenAt, naturaldate.WithDirection(naturaldate.Past))
		if err != nil {
			return fmt.Errorf("parsing date %q: %w", dateExpr, err)
		}
	}

	subjects, err := db.Subjects(ctx)
	if err != nil {
		return fmt.Errorf("loading subjects: %w", err)
	}

	exam := domain.ExamResult{
		UserID:  cfg.Student.UserID,
		Kind:    strings.ToUpper(kind),
		TakenAt: takenAt,
		Correct: correct,
		Wrong:   wrong,
		Minutes: minutes,
	}
	for _, s := range subjectFlags {
		label, score, err := parseSubjectScore(s)
		if err != nil {
			return err
		}
		if i, ok := textnorm.MatchSubject(label, domain.SubjectNames(subjects)); ok {
			label = subjects[i].Name
		}
		if exam.Subjects == nil {
			exam.Subjects = make(map[string]domain.SubjectScore)
		}
		exam.Subjects[label] = score
	}

	// Totals default to the sum of the breakdown.
	if correct == 0 && wrong == 0 {
		for _, s := range exam.Subjects {
			exam.Correct += s.Correct
			exam.Wrong += s.Wrong
		}
	}

	id, err := db.AddExam(ctx, exam)
	if err != nil {
		return err
	}
	fmt.Printf("Recorded %s exam #%d: %d correct, %d wrong, net %.2f\n", exam.Kind, id, exam.Correct, exam.Wrong, exam.Net())
	return nil
}

// parseSubjectScore parses "Matematik=30/6".
func parseSubjectScore(s string) (string, domain.SubjectScore, error) {
	label, counts, ok := strings.Cut(s, "=")
	if !ok {
		return "", domain.SubjectScore{}, fmt.Errorf("invalid subject result %q, want Name=correct/wrong", s)
	}
	c, w, ok := strings.Cut(counts, "/")
	if !ok {
		return "", domain.SubjectScore{}, fmt.Errorf("invalid subject result %q, want Name=correct/wrong", s)
	}
	correct, err := strconv.Atoi(strings.TrimSpace(c))
	if err != nil {
		return "", domain.SubjectScore{}, fmt.Errorf("invalid correct count in %q: %w", s, err)
	}
	wrong, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil {
		return "", domain.SubjectScore{}, fmt.Errorf("invalid wrong count in %q: %w", s, err)
	}
	return strings.TrimSpace(label), domain.SubjectScore{Correct: correct, Wrong: wrong}, nil
}

func runExamList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := store.Open()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	exams, err := db.RecentExams(context.Background(), cfg.Student.UserID, limit)
	if err != nil {
		return fmt.Errorf("fetching exams: %w", err)
	}
	if len(exams) == 0 {
		fmt.Println("No exam results recorded. Add one with 'studylab exam add'.")
		return nil
	}

	for _, e := range exams {
		fmt.Printf("%s  %-3s  net %6.2f  (%d correct, %d wrong, %d min)\n",
			e.TakenAt.Format("2006-01-02"), e.Kind, e.Net(), e.Correct, e.Wrong, e.Minutes)
		for label, s := range e.Subjects {
			fmt.Printf("    %-24s net %6.2f\n", label, domain.Net(s.Correct, s.Wrong))
		}
	}
	return nil
}

func runSubjects(cmd *cobra.Command, args []string) error {
	db, err := store.Open()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	subjects, err := db.Subjects(context.Background())
	if err != nil {
		return fmt.Errorf("fetching subjects: %w", err)
	}

	fmt.Printf("%d subjects:\n\n", len(subjects))
	for _, s := range subjects {
		fmt.Printf("  %-3s  %-26s %3d questions\n", s.ExamKind, s.Name, s.MaxQuestions)
	}
	return nil
}
