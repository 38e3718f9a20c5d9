// Package scheduler sends a daily desktop notification listing the study
// tasks planned for the day.
package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/aharnip2705/studylab-sub000/internal/config"
	"github.com/aharnip2705/studylab-sub000/internal/domain"
)

// TaskSource returns the user's tasks on a given day.
type TaskSource interface {
	TasksOn(ctx context.Context, userID string, day time.Time) ([]domain.ResolvedTask, error)
}

// Notifier shows a desktop notification.
type Notifier func(title, message string) error

// SendNotification shows a notification through the platform's notifier.
func SendNotification(title, message string) error {
	return beeep.Notify(title, message, "")
}

type Reminder struct {
	tasks  TaskSource
	userID string
	hour   int
	minute int
	notify Notifier
	logger *slog.Logger
}

func New(cfg *config.Config, tasks TaskSource, logger *slog.Logger) (*Reminder, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	h, m, err := config.ParseClock(cfg.Reminder.At)
	if err != nil {
		return nil, fmt.Errorf("reminder time: %w", err)
	}
	return &Reminder{
		tasks:  tasks,
		userID: cfg.Student.UserID,
		hour:   h,
		minute: m,
		notify: SendNotification,
		logger: logger,
	}, nil
}

// Run blocks until ctx is cancelled, sending one reminder a day.
func (r *Reminder) Run(ctx context.Context) error {
	if err := writePID(); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePID()

	fmt.Printf("Reminder started (daily at %02d:%02d)\n", r.hour, r.minute)

	for {
		next := nextReminder(time.Now(), r.hour, r.minute)
		fmt.Printf("Next reminder at %s\n", next.Format("Mon 15:04"))

		select {
		case <-ctx.Done():
			fmt.Println("\nReminder stopped.")
			return nil
		case <-time.After(time.Until(next)):
		}

		if err := r.Remind(ctx, time.Now()); err != nil {
			r.logger.Error("reminder failed", "error", err)
			fmt.Printf("Reminder failed: %v\n", err)
		}
	}
}

// Remind notifies about the tasks planned on day. Days without tasks send
// nothing.
func (r *Reminder) Remind(ctx context.Context, day time.Time) error {
	tasks, err := r.tasks.TasksOn(ctx, r.userID, day)
	if err != nil {
		return fmt.Errorf("loading today's tasks: %w", err)
	}
	if len(tasks) == 0 {
		r.logger.Debug("no tasks today", "day", day.Format(domain.DateLayout))
		return nil
	}
	if err := r.notify("studylab", Message(tasks)); err != nil {
		return fmt.Errorf("sending notification: %w", err)
	}
	r.logger.Info("reminder sent", "tasks", len(tasks))
	return nil
}

// Message lists the tasks with the day's total, e.g.
// "Matematik 90m, Fizik 45m (2h 15m total)".
func Message(tasks []domain.ResolvedTask) string {
	parts := make([]string, len(tasks))
	total := 0
	for i, t := range tasks {
		parts[i] = fmt.Sprintf("%s %dm", t.SubjectLabel, t.Minutes)
		total += t.Minutes
	}
	return fmt.Sprintf("%s (%dh %02dm total)", strings.Join(parts, ", "), total/60, total%60)
}

// nextReminder is the first hour:minute strictly after now.
func nextReminder(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func pidPath() (string, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "studylab.pid"), nil
}

func writePID() error {
	if err := config.EnsureConfigDir(); err != nil {
		return err
	}
	path, err := pidPath()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0644)
}

func removePID() {
	if path, err := pidPath(); err == nil {
		os.Remove(path)
	}
}

func ReadPID() (int, error) {
	path, err := pidPath()
	if err != nil {
		return 0, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("no running reminder found")
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID file")
	}

	return pid, nil
}
