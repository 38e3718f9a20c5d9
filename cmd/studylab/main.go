package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tj/go-naturaldate"

	"github.com/aharnip2705/studylab-sub000/internal/ai"
	"github.com/aharnip2705/studylab-sub000/internal/config"
	"github.com/aharnip2705/studylab-sub000/internal/domain"
	"github.com/aharnip2705/studylab-sub000/internal/scheduler"
	"github.com/aharnip2705/studylab-sub000/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "studylab",
	Short: "Exam study coach powered by AI",
	Long: "studylab chats about your mock exam results, drafts a weekly study program on request, " +
		"and keeps the applied program in a local database.",
	SilenceUsage: true,
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to your coach and build a weekly program",
	RunE:  runChat,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the planned week",
	RunE:  runStatus,
}

var examCmd = &cobra.Command{
	Use:   "exam",
	Short: "Manage mock exam results",
}

var examAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a mock exam result",
	RunE:  runExamAdd,
}

var examListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent mock exam results",
	RunE:  runExamList,
}

var subjectsCmd = &cobra.Command{
	Use:   "subjects",
	Short: "List the subject catalog",
	RunE:  runSubjects,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the planned week as an iCalendar file",
	RunE:  runExport,
}

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Daily reminders of the day's study tasks",
}

var remindStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daily reminder loop",
	RunE:  runRemindStart,
}

var remindStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running reminder loop",
	RunE:  runRemindStop,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Open config file in your editor",
	RunE:  runConfig,
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "Write a debug log to ~/.config/studylab/studylab.log")

	chatCmd.Flags().String("resume", "", `Resume a session by id, or "last"`)

	statusCmd.Flags().String("week", "", `Any day of the week to show, e.g. "next week" or "last monday"`)
	exportCmd.Flags().String("week", "", `Any day of the week to export, e.g. "next week"`)
	exportCmd.Flags().StringP("output", "o", "", "Output file (default studylab-<week>.ics)")

	examAddCmd.Flags().String("kind", "TYT", "Exam kind (TYT or AYT)")
	examAddCmd.Flags().Int("correct", 0, "Total correct answers")
	examAddCmd.Flags().Int("wrong", 0, "Total wrong answers")
	examAddCmd.Flags().Int("minutes", 0, "Minutes spent")
	examAddCmd.Flags().String("date", "", `When the exam was taken, e.g. "yesterday" (default now)`)
	examAddCmd.Flags().StringArray("subject", nil, `Per-subject result as "Name=correct/wrong", repeatable`)
	examListCmd.Flags().Int("limit", ai.MaxRecentExams, "Number of results to show")

	examCmd.AddCommand(examAddCmd)
	examCmd.AddCommand(examListCmd)
	remindCmd.AddCommand(remindStartCmd)
	remindCmd.AddCommand(remindStopCmd)

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(examCmd)
	rootCmd.AddCommand(subjectsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(remindCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// newLogger returns a file logger when --debug is set and a discarding one
// otherwise. The returned close func is always safe to call.
func newLogger(cmd *cobra.Command) (*slog.Logger, func(), error) {
	debug, _ := cmd.Flags().GetBool("debug")
	if !debug {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}

	dir, err := config.ConfigDir()
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, nil, fmt.Errorf("creating config directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "studylab.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, func() { f.Close() }, nil
}

func newAIProvider(cfg *config.Config, logger *slog.Logger) (ai.Provider, error) {
	switch cfg.AI.Provider {
	case "claude-cli":
		return ai.NewClaudeCLI(cfg.AI.Model, logger), nil
	default:
		if cfg.AI.APIKey == "" && cfg.AI.BaseURL == "" {
			return nil, fmt.Errorf("OpenAI API key not configured, set OPENAI_API_KEY or run 'studylab config'")
		}
		return ai.NewOpenAI(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.Model, cfg.AI.Timeout(), logger), nil
	}
}

// grounding collects the student's track, targets and recent exams.
func grounding(ctx context.Context, cfg *config.Config, db *store.DB) (ai.Grounding, error) {
	recent, err := db.RecentExams(ctx, cfg.Student.UserID, ai.MaxRecentExams)
	if err != nil {
		return ai.Grounding{}, fmt.Errorf("loading recent exams: %w", err)
	}
	return ai.Grounding{
		Track:   cfg.Student.Track,
		Targets: cfg.Student.Targets,
		Recent:  recent,
	}, nil
}

// resolveWeek turns a --week value into the Monday of that week.
func resolveWeek(expr string, now time.Time) (time.Time, error) {
	if expr == "" {
		return domain.WeekStart(now), nil
	}
	t, err := naturaldate.Parse(expr, now, naturaldate.WithDirection(naturaldate.Future))
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing week %q: %w", expr, err)
	}
	return domain.WeekStart(t), nil
}

func runRemindStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Reminder.Enabled {
		return fmt.Errorf("reminders are disabled, set reminder.enabled in 'studylab config'")
	}
	logger, closeLog, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	db, err := store.Open()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	reminder, err := scheduler.New(cfg, db, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return reminder.Run(ctx)
}

func runRemindStop(cmd *cobra.Command, args []string) error {
	pid, err := scheduler.ReadPID()
	if err != nil {
		return err
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("finding process %d: %w", pid, err)
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("sending stop signal: %w", err)
	}

	fmt.Printf("Sent stop signal to studylab reminder (PID %d)\n", pid)
	return nil
}

func runConfig(cmd *cobra.Command, args []string) error {
	if err := config.EnsureConfigDir(); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath, err := config.ConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := config.DefaultConfig()
		data := fmt.Sprintf(`[ai]
provider = "%s"   # "openai" or "claude-cli"
model = "%s"
base_url = ""
api_key = ""
temperature = %.1f
plan_temperature = %.1f
max_tokens = %d
plan_max_tokens = %d
history_turns = %d
timeout_seconds = %d
stream = %t

[student]
user_id = "%s"
track = ""   # e.g. "sayisal", "esit agirlik", "sozel"

[student.targets]
# TYT = 90.0
# AYT = 60.0

[reminder]
enabled = %t
at = "%s"

[calendar]
study_start = "%s"
busy = ""   # ICS URL or file with school or course hours
`,
			cfg.AI.Provider,
			cfg.AI.Model,
			cfg.AI.Temperature,
			cfg.AI.PlanTemperature,
			cfg.AI.MaxTokens,
			cfg.AI.PlanMaxTokens,
			cfg.AI.HistoryTurns,
			cfg.AI.TimeoutSeconds,
			cfg.AI.Stream,
			cfg.Student.UserID,
			cfg.Reminder.Enabled,
			cfg.Reminder.At,
			cfg.Calendar.StudyStart,
		)
		if err := os.WriteFile(configPath, []byte(data), 0644); err != nil {
			return fmt.Errorf("writing default config: %w", err)
		}
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	fmt.Printf("Opening %s with %s...\n", configPath, editor)

	proc := os.ProcAttr{
		Files: []*os.File{os.Stdin, os.Stdout, os.Stderr},
	}
	process, err := os.StartProcess(editor, []string{editor, configPath}, &proc)
	if err != nil {
		fmt.Printf("Could not open editor. Config file is at: %s\n", configPath)
		return nil
	}
	_, err = process.Wait()
	return err
}
