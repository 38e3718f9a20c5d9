package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/aharnip2705/studylab-sub000/internal/ai"
	"github.com/aharnip2705/studylab-sub000/internal/catalog"
	"github.com/aharnip2705/studylab-sub000/internal/chat"
	"github.com/aharnip2705/studylab-sub000/internal/config"
	"github.com/aharnip2705/studylab-sub000/internal/planner"
	"github.com/aharnip2705/studylab-sub000/internal/scheduler"
	"github.com/aharnip2705/studylab-sub000/internal/store"
	"github.com/aharnip2705/studylab-sub000/internal/tui"
)

func pipelineConfig(cfg *config.Config) planner.Config {
	return planner.Config{
		ChatTemperature: cfg.AI.Temperature,
		PlanTemperature: cfg.AI.PlanTemperature,
		ChatMaxTokens:   cfg.AI.MaxTokens,
		PlanMaxTokens:   cfg.AI.PlanMaxTokens,
		HistoryTurns:    cfg.AI.HistoryTurns,
	}
}

// blockingPipeline drops stream callbacks when streaming is disabled.
type blockingPipeline struct {
	*planner.Pipeline
}

func (p blockingPipeline) GenerateTurnStream(ctx context.Context, s *chat.Session, message string, g ai.Grounding, _ func(string)) (planner.TurnResult, error) {
	return p.Pipeline.GenerateTurnStream(ctx, s, message, g, nil)
}

func (p blockingPipeline) ChangeRequest(ctx context.Context, s *chat.Session, feedback string, g ai.Grounding, _ func(string)) (planner.TurnResult, error) {
	return p.Pipeline.ChangeRequest(ctx, s, feedback, g, nil)
}

func runChat(cmd *cobra.Command, args []string) error {
	resume, _ := cmd.Flags().GetString("resume")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	provider, err := newAIProvider(cfg, logger)
	if err != nil {
		return err
	}

	db, err := store.Open()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer cancel()

	session, err := openSession(ctx, db, cfg.Student.UserID, resume)
	if err != nil {
		return err
	}
	g, err := grounding(ctx, cfg, db)
	if err != nil {
		return err
	}

	subjects := catalog.NewCache(db, 10*time.Minute, logger)
	pipeline := planner.New(provider, subjects, db, pipelineConfig(cfg), logger)

	var driver tui.Pipeline = pipeline
	if !cfg.AI.Stream {
		driver = blockingPipeline{pipeline}
	}

	logger.Info("chat started", "session", session.ID, "user", session.UserID, "turns", session.Len())
	app := tui.NewApp(ctx, driver, session, g)
	if _, err := tea.NewProgram(app).Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}

	for _, applied := range app.GetResult().Applied {
		msg := fmt.Sprintf("%d tasks saved for the week of %s", applied.Inserted, applied.WeekStart.Format("2 Jan"))
		if err := scheduler.SendNotification("studylab", msg); err != nil {
			logger.Debug("notification failed", "error", err)
		}
	}
	fmt.Printf("Session %s (resume with: studylab chat --resume %s)\n", session.ID, session.ID)
	return nil
}

func openSession(ctx context.Context, db *store.DB, userID, resume string) (*chat.Session, error) {
	switch resume {
	case "":
		return chat.NewSession(userID, db), nil
	case "last":
		id, err := db.LatestSession(ctx, userID)
		if err != nil {
			return nil, err
		}
		if id == "" {
			return chat.NewSession(userID, db), nil
		}
		resume = id
	}
	return chat.Resume(ctx, resume, userID, db)
}
