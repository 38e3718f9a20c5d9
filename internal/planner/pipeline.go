package planner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aharnip2705/studylab-sub000/internal/ai"
	"github.com/aharnip2705/studylab-sub000/internal/chat"
	"github.com/aharnip2705/studylab-sub000/internal/intent"
	"github.com/aharnip2705/studylab-sub000/internal/plan"
)

// Config holds the sampling parameters per mode and the history window.
type Config struct {
	ChatTemperature float64
	PlanTemperature float64
	ChatMaxTokens   int
	PlanMaxTokens   int
	// HistoryTurns is how many prior turns are sent with each request.
	HistoryTurns int
}

func DefaultConfig() Config {
	return Config{
		ChatTemperature: 0.7,
		PlanTemperature: 0.2,
		ChatMaxTokens:   800,
		PlanMaxTokens:   2000,
		HistoryTurns:    16,
	}
}

type Pipeline struct {
	classifier *intent.Classifier
	provider   ai.Provider
	catalog    Catalog
	applier    *Applier
	cfg        Config
	logger     *slog.Logger
}

func New(provider ai.Provider, catalog Catalog, store TaskStore, cfg Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.HistoryTurns <= 0 {
		cfg.HistoryTurns = DefaultConfig().HistoryTurns
	}
	return &Pipeline{
		classifier: intent.Default(),
		provider:   provider,
		catalog:    catalog,
		applier:    NewApplier(store, catalog, logger),
		cfg:        cfg,
		logger:     logger,
	}
}

// WithClassifier replaces the default classifier.
func (p *Pipeline) WithClassifier(c *intent.Classifier) *Pipeline {
	p.classifier = c
	return p
}

// WithClock sets the clock the applier uses to pick the current week.
func (p *Pipeline) WithClock(clock func() time.Time) *Pipeline {
	p.applier = p.applier.WithClock(clock)
	return p
}

// TurnResult is what one turn produced. Plan is non-nil only when a plan was
// requested and recovered; PlanErr explains why it was not.
type TurnResult struct {
	Mode    ai.Mode
	Reply   string
	Raw     string
	Plan    *plan.Weekly
	Report  plan.Report
	PlanErr error
}

// GenerateTurn runs one user message through the pipeline without streaming.
func (p *Pipeline) GenerateTurn(ctx context.Context, s *chat.Session, message string, g ai.Grounding) (TurnResult, error) {
	return p.GenerateTurnStream(ctx, s, message, g, nil)
}

// GenerateTurnStream is GenerateTurn with reply fragments passed to onDelta
// as they arrive. Both turns are appended to the session only after the
// completion succeeds, so a failed call leaves the session unchanged and
// the message can be resent.
func (p *Pipeline) GenerateTurnStream(ctx context.Context, s *chat.Session, message string, g ai.Grounding, onDelta func(string)) (TurnResult, error) {
	history := s.Turns()
	wantsPlan, signal := p.classifier.Explain(history, message)

	res := TurnResult{Mode: ai.ModeChat}
	if wantsPlan {
		res.Mode = ai.ModePlan
	}
	p.logger.Debug("turn classified", "session", s.ID, "mode", res.Mode, "signal", signal)

	subjects, err := p.catalog.Subjects(ctx)
	if err != nil {
		return res, fmt.Errorf("loading subjects: %w", err)
	}

	req := ai.Request{
		System:      ai.BuildSystemPrompt(res.Mode, g.Capped(ai.MaxRecentExams), subjects),
		Messages:    append(s.Window(p.cfg.HistoryTurns), chat.Turn{Role: chat.RoleUser, Text: message, CreatedAt: time.Now()}),
		Temperature: p.cfg.ChatTemperature,
		MaxTokens:   p.cfg.ChatMaxTokens,
	}
	if wantsPlan {
		req.Temperature = p.cfg.PlanTemperature
		req.MaxTokens = p.cfg.PlanMaxTokens
		req.Schema = ai.PlanSchema()
	}

	start := time.Now()
	raw, err := p.provider.Complete(ctx, req, onDelta)
	if err != nil {
		p.logger.Error("completion failed", "session", s.ID, "mode", res.Mode, "error", err)
		return res, fmt.Errorf("generating reply: %w", err)
	}
	p.logger.Info("completion received", "session", s.ID, "mode", res.Mode, "chars", len(raw), "duration", time.Since(start))
	res.Raw = raw
	res.Reply = raw

	if wantsPlan {
		w, rep, err := recoverPlan(raw)
		res.Report = rep
		if err != nil {
			p.logger.Warn("plan not recovered", "session", s.ID, "error", err)
			res.PlanErr = err
			res.Reply = UnrecognizedPlanReply
		} else {
			res.Plan = &w
		}
	}

	if err := s.Append(ctx, chat.RoleUser, message); err != nil {
		p.logger.Warn("user turn not persisted", "session", s.ID, "error", err)
	}
	if err := s.Append(ctx, chat.RoleAssistant, res.Reply); err != nil {
		p.logger.Warn("assistant turn not persisted", "session", s.ID, "error", err)
	}
	return res, nil
}

// ApplyPlan writes a confirmed plan into the current week.
func (p *Pipeline) ApplyPlan(ctx context.Context, userID string, w plan.Weekly) (ApplyResult, error) {
	return p.applier.Apply(ctx, userID, w)
}

func recoverPlan(raw string) (plan.Weekly, plan.Report, error) {
	doc, err := plan.Extract(raw)
	if err != nil {
		return plan.Weekly{}, plan.Report{}, err
	}
	return plan.NormalizeWithReport(doc)
}

// IsFormatError reports whether err came from plan extraction or
// normalization rather than from a collaborator.
func IsFormatError(err error) bool {
	return errors.Is(err, plan.ErrExtractionFailed) || errors.Is(err, plan.ErrNormalizationFailed)
}
