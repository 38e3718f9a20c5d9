package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aharnip2705/studylab-sub000/internal/calendar"
	"github.com/aharnip2705/studylab-sub000/internal/config"
	"github.com/aharnip2705/studylab-sub000/internal/domain"
	"github.com/aharnip2705/studylab-sub000/internal/planner"
	"github.com/aharnip2705/studylab-sub000/internal/store"
	"github.com/aharnip2705/studylab-sub000/internal/textnorm"
)

func runStatus(cmd *cobra.Command, args []string) error {
	weekExpr, _ := cmd.Flags().GetString("week")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	weekStart, err := resolveWeek(weekExpr, time.Now())
	if err != nil {
		return err
	}

	db, err := store.Open()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	tasks, err := db.WeekTasks(context.Background(), cfg.Student.UserID, weekStart)
	if err != nil {
		return fmt.Errorf("fetching week tasks: %w", err)
	}

	if len(tasks) == 0 {
		fmt.Printf("Nothing planned for the week of %s.\n", weekStart.Format("2 Jan 2006"))
		return nil
	}

	fmt.Printf("Week of %s:\n", weekStart.Format("2 Jan 2006"))
	totalMinutes := 0
	for i, day := range textnorm.Week {
		date := weekStart.AddDate(0, 0, i)
		key := date.Format(domain.DateLayout)
		fmt.Printf("\n%s %s\n", day, date.Format("02.01"))

		dayMinutes := 0
		for _, t := range tasks {
			if t.Date.Format(domain.DateLayout) != key {
				continue
			}
			marker := " "
			if t.SubjectID == nil {
				marker = "?"
			}
			fmt.Printf("  %s %-24s %6s  %s\n", marker, t.SubjectLabel, planner.FormatMinutes(t.Minutes), t.Description)
			dayMinutes += t.Minutes
		}
		if dayMinutes == 0 {
			fmt.Println("    rest")
		}
		totalMinutes += dayMinutes
	}

	fmt.Printf("\nTotal: %s (%d tasks)\n", planner.FormatMinutes(totalMinutes), len(tasks))
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	weekExpr, _ := cmd.Flags().GetString("week")
	output, _ := cmd.Flags().GetString("output")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	weekStart, err := resolveWeek(weekExpr, time.Now())
	if err != nil {
		return err
	}

	db, err := store.Open()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	tasks, err := db.WeekTasks(ctx, cfg.Student.UserID, weekStart)
	if err != nil {
		return fmt.Errorf("fetching week tasks: %w", err)
	}
	if len(tasks) == 0 {
		return fmt.Errorf("nothing planned for the week of %s", weekStart.Format("2 Jan 2006"))
	}

	hour, minute, err := config.ParseClock(cfg.Calendar.StudyStart)
	if err != nil {
		return err
	}
	window := calendar.Window{WeekStart: weekStart, Hour: hour, Minute: minute}

	var busy calendar.Busy
	if cfg.Calendar.Busy != "" {
		busy, err = calendar.ReadBusy(ctx, cfg.Calendar.Busy, window)
		if err != nil {
			logger.Warn("busy calendar unavailable", "source", cfg.Calendar.Busy, "error", err)
			fmt.Printf("Warning: could not read busy calendar: %v\n", err)
		}
	}
	slots := calendar.Layout(tasks, window, busy)

	if output == "" {
		output = fmt.Sprintf("studylab-%s.ics", weekStart.Format(domain.DateLayout))
	}
	err = writeFile(output, func(w io.Writer) error {
		return calendar.Encode(w, cfg.Student.UserID, slots, time.Now())
	})
	if err != nil {
		return err
	}

	fmt.Printf("Wrote %d study blocks to %s\n", len(slots), output)
	return nil
}

// writeFile creates path and hands it to write. Close errors are returned.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
