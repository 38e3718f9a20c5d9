package planner_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aharnip2705/studylab-sub000/internal/ai"
	"github.com/aharnip2705/studylab-sub000/internal/catalog"
	"github.com/aharnip2705/studylab-sub000/internal/chat"
	"github.com/aharnip2705/studylab-sub000/internal/domain"
	"github.com/aharnip2705/studylab-sub000/internal/plan"
	"github.com/aharnip2705/studylab-sub000/internal/planner"
	"github.com/aharnip2705/studylab-sub000/internal/store"
	"github.com/aharnip2705/studylab-sub000/internal/textnorm"
)

type fakeProvider struct {
	reply string
	err   error
	reqs  []ai.Request
}

func (f *fakeProvider) Complete(_ context.Context, req ai.Request, onDelta func(string)) (string, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return "", f.err
	}
	if onDelta != nil {
		for _, part := range strings.SplitAfter(f.reply, "\n") {
			onDelta(part)
		}
	}
	return f.reply, nil
}

type staticCatalog []domain.Subject

func (c staticCatalog) Subjects(context.Context) ([]domain.Subject, error) { return c, nil }

// memStore only implements the sequential TaskStore methods.
type memStore struct {
	weeks     map[string]int64
	tasks     map[int64][]domain.ResolvedTask
	insertErr error
}

func newMemStore() *memStore {
	return &memStore{weeks: map[string]int64{}, tasks: map[int64][]domain.ResolvedTask{}}
}

func (m *memStore) GetOrCreateWeek(_ context.Context, userID string, weekStart time.Time) (domain.WeeklyPlan, error) {
	key := userID + "/" + weekStart.Format(domain.DateLayout)
	id, ok := m.weeks[key]
	if !ok {
		id = int64(len(m.weeks) + 1)
		m.weeks[key] = id
	}
	return domain.WeeklyPlan{ID: id, UserID: userID, WeekStart: weekStart}, nil
}

func (m *memStore) DeleteAllTasks(_ context.Context, planID int64) error {
	delete(m.tasks, planID)
	return nil
}

func (m *memStore) InsertTasks(_ context.Context, planID int64, tasks []domain.ResolvedTask) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.tasks[planID] = append(m.tasks[planID], tasks...)
	return nil
}

const fencedPlanReply = "Sure!\n```json\n" + `{"plan":[` +
	`{"day":"Monday","tasks":[{"subject":"Math","duration_minutes":90,"description":"derivative review"}]},` +
	`{"day":"Tuesday","tasks":[]},{"day":"Wednesday","tasks":[]},{"day":"Thursday","tasks":[]},` +
	`{"day":"Friday","tasks":[]},{"day":"Saturday","tasks":[]},{"day":"Sunday","tasks":[]}]}` +
	"\n```"

var thursday = time.Date(2026, 10, 15, 14, 0, 0, 0, time.Local)

func openStore(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.OpenPath(filepath.Join(t.TempDir(), "studylab.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func offeredProgram(t *testing.T, s *chat.Session) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, chat.RoleUser, "my math nets are low"))
	require.NoError(t, s.Append(ctx, chat.RoleAssistant, "want me to build a weekly program?"))
}

func TestEndToEndAffirmationToOneRow(t *testing.T) {
	ctx := context.Background()
	db := openStore(t)
	provider := &fakeProvider{reply: fencedPlanReply}
	p := planner.New(provider, catalog.NewCache(db, time.Minute, nil), db, planner.DefaultConfig(), nil).
		WithClock(func() time.Time { return thursday })

	s := chat.NewSession("student-1", db)
	offeredProgram(t, s)

	res, err := p.GenerateTurn(ctx, s, "yes build it", ai.Grounding{Track: "sayisal"})
	require.NoError(t, err)
	assert.Equal(t, ai.ModePlan, res.Mode)
	require.NoError(t, res.PlanErr)
	require.NotNil(t, res.Plan)

	monday := res.Plan.Day(textnorm.Monday)
	require.Len(t, monday.Tasks, 1)
	assert.Equal(t, plan.Task{Subject: "Math", Minutes: 90, Description: "derivative review"}, monday.Tasks[0])
	for _, d := range res.Plan.Days[1:] {
		assert.Empty(t, d.Tasks, d.Key.String())
	}

	require.Len(t, provider.reqs, 1)
	req := provider.reqs[0]
	assert.Equal(t, planner.DefaultConfig().PlanTemperature, req.Temperature)
	assert.NotEmpty(t, req.Schema)
	require.Len(t, req.Messages, 3)
	assert.Equal(t, "yes build it", req.Messages[2].Text)
	assert.Equal(t, 4, s.Len())

	applied, err := p.ApplyPlan(ctx, "student-1", *res.Plan)
	require.NoError(t, err)
	assert.Equal(t, 1, applied.Inserted)
	assert.Equal(t, "2026-10-12", applied.WeekStart.Format(domain.DateLayout))
	assert.Equal(t, []string{"Math"}, applied.Unresolved)

	rows, err := db.WeekTasks(ctx, "student-1", applied.WeekStart)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2026-10-12", rows[0].Date.Format(domain.DateLayout))
	assert.Equal(t, 90, rows[0].Minutes)
	assert.Nil(t, rows[0].SubjectID)
}

func TestApplyTwiceDoesNotDouble(t *testing.T) {
	ctx := context.Background()
	w := plan.NewWeekly()
	w.Days[textnorm.Monday].Tasks = []plan.Task{{Subject: "Matematik", Minutes: 60}, {Subject: "Fizik", Minutes: 45}}
	w.Days[textnorm.Friday].Tasks = []plan.Task{{Subject: "Kimya", Minutes: 30}}

	t.Run("transactional", func(t *testing.T) {
		db := openStore(t)
		a := planner.NewApplier(db, db, nil).WithClock(func() time.Time { return thursday })

		first, err := a.Apply(ctx, "u1", w)
		require.NoError(t, err)
		second, err := a.Apply(ctx, "u1", w)
		require.NoError(t, err)
		assert.Equal(t, first.Inserted, second.Inserted)
		assert.Empty(t, second.Unresolved)

		rows, err := db.WeekTasks(ctx, "u1", first.WeekStart)
		require.NoError(t, err)
		assert.Len(t, rows, 3)
		require.NotNil(t, rows[0].SubjectID)
		assert.Equal(t, "Matematik", rows[0].SubjectLabel)
		assert.Equal(t, "2026-10-16", rows[2].Date.Format(domain.DateLayout))
	})

	t.Run("sequential", func(t *testing.T) {
		mem := newMemStore()
		a := planner.NewApplier(mem, staticCatalog{{ID: 7, Name: "Matematik"}}, nil).
			WithClock(func() time.Time { return thursday })

		_, err := a.Apply(ctx, "u1", w)
		require.NoError(t, err)
		res, err := a.Apply(ctx, "u1", w)
		require.NoError(t, err)
		assert.Len(t, mem.tasks[res.PlanID], 3)
		assert.Equal(t, []string{"Fizik", "Kimya"}, res.Unresolved)
		require.NotNil(t, mem.tasks[res.PlanID][0].SubjectID)
		assert.Equal(t, int64(7), *mem.tasks[res.PlanID][0].SubjectID)
	})
}

func TestApplyReloadsCatalogForNewSubject(t *testing.T) {
	ctx := context.Background()
	db := openStore(t)
	cache := catalog.NewCache(db, time.Hour, nil)
	_, err := cache.Subjects(ctx)
	require.NoError(t, err)

	_, err = db.AddSubject(ctx, domain.Subject{Name: "Geometri", ExamKind: "AYT", MaxQuestions: 10})
	require.NoError(t, err)

	w := plan.NewWeekly()
	w.Days[textnorm.Tuesday].Tasks = []plan.Task{{Subject: "geometri", Minutes: 40}, {Subject: "Origami", Minutes: 20}}
	res, err := planner.NewApplier(db, cache, nil).WithClock(func() time.Time { return thursday }).Apply(ctx, "u1", w)
	require.NoError(t, err)
	assert.Equal(t, []string{"Origami"}, res.Unresolved)

	rows, err := db.WeekTasks(ctx, "u1", res.WeekStart)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.NotNil(t, rows[0].SubjectID)
	assert.Equal(t, "Geometri", rows[0].SubjectLabel)
}

func TestApplyInsertFailureReportsStoreError(t *testing.T) {
	mem := newMemStore()
	mem.insertErr = errors.New("disk full")
	a := planner.NewApplier(mem, staticCatalog{}, nil)

	w := plan.NewWeekly()
	w.Days[textnorm.Monday].Tasks = []plan.Task{{Subject: "General", Minutes: 60}}
	_, err := a.Apply(context.Background(), "u1", w)
	require.Error(t, err)
	assert.ErrorIs(t, err, planner.ErrStoreWriteFailed)
	assert.Contains(t, err.Error(), "disk full")
	assert.Contains(t, err.Error(), "may be empty")
}

func TestChatTurnHasNoPlan(t *testing.T) {
	provider := &fakeProvider{reply: "Your weakest subject is Fizik."}
	p := planner.New(provider, staticCatalog{{ID: 1, Name: "Fizik"}}, newMemStore(), planner.DefaultConfig(), nil)
	s := chat.NewSession("u1", nil)

	var streamed strings.Builder
	res, err := p.GenerateTurnStream(context.Background(), s, "which subjects am I weak in?", ai.Grounding{},
		func(d string) { streamed.WriteString(d) })
	require.NoError(t, err)
	assert.Equal(t, ai.ModeChat, res.Mode)
	assert.Nil(t, res.Plan)
	assert.NoError(t, res.PlanErr)
	assert.Equal(t, provider.reply, res.Reply)
	assert.Equal(t, provider.reply, streamed.String())
	assert.Empty(t, provider.reqs[0].Schema)
	assert.Equal(t, planner.DefaultConfig().ChatTemperature, provider.reqs[0].Temperature)
}

func TestUnrecognizedPlanGetsUniformReply(t *testing.T) {
	for name, reply := range map[string]string{
		"no key":    "I think you should study more.",
		"truncated": `{"plan":[{"day":"Monday","tasks":[`,
		"no days":   `{"plan":[{"day":"Someday","tasks":[]}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			p := planner.New(&fakeProvider{reply: reply}, staticCatalog{}, newMemStore(), planner.DefaultConfig(), nil)
			s := chat.NewSession("u1", nil)

			res, err := p.GenerateTurn(context.Background(), s, "build me a weekly schedule", ai.Grounding{})
			require.NoError(t, err)
			assert.Nil(t, res.Plan)
			assert.True(t, planner.IsFormatError(res.PlanErr), res.PlanErr)
			assert.Equal(t, planner.UnrecognizedPlanReply, res.Reply)

			last, ok := chat.LastAssistant(s.Turns())
			require.True(t, ok)
			assert.Equal(t, planner.UnrecognizedPlanReply, last.Text)
		})
	}
}

func TestUpstreamFailureLeavesSessionUntouched(t *testing.T) {
	upstream := errors.New("503 overloaded")
	p := planner.New(&fakeProvider{err: upstream}, staticCatalog{}, newMemStore(), planner.DefaultConfig(), nil)
	s := chat.NewSession("u1", nil)

	_, err := p.GenerateTurn(context.Background(), s, "hello", ai.Grounding{})
	require.Error(t, err)
	assert.ErrorIs(t, err, upstream)
	assert.Equal(t, 0, s.Len())
}

func TestHistoryWindowIsTrimmed(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProvider{reply: "ok"}
	cfg := planner.DefaultConfig()
	cfg.HistoryTurns = 4
	p := planner.New(provider, staticCatalog{}, newMemStore(), cfg, nil)
	s := chat.NewSession("u1", nil)
	for i := 0; i < 10; i++ {
		require.NoError(t, s.Append(ctx, chat.RoleUser, "msg"))
	}

	_, err := p.GenerateTurn(ctx, s, "latest", ai.Grounding{})
	require.NoError(t, err)
	msgs := provider.reqs[0].Messages
	require.Len(t, msgs, 5)
	assert.Equal(t, "latest", msgs[4].Text)
}

func TestChangeRequestRunsFreshCompletion(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProvider{reply: fencedPlanReply}
	p := planner.New(provider, staticCatalog{}, newMemStore(), planner.DefaultConfig(), nil)
	s := chat.NewSession("u1", nil)

	_, err := p.GenerateTurn(ctx, s, "build me a weekly schedule", ai.Grounding{})
	require.NoError(t, err)
	res, err := p.ChangeRequest(ctx, s, "make the plan lighter on Monday, recreate it", ai.Grounding{}, nil)
	require.NoError(t, err)
	assert.Len(t, provider.reqs, 2)
	assert.Equal(t, ai.ModePlan, res.Mode)
	assert.Equal(t, 4, s.Len())
}

func TestSummarize(t *testing.T) {
	w := plan.NewWeekly()
	w.Days[textnorm.Monday].Tasks = []plan.Task{{Subject: "A", Minutes: 90}, {Subject: "B", Minutes: 30}}
	w.Days[textnorm.Sunday].Tasks = []plan.Task{{Subject: "C", Minutes: 45}}

	s := planner.Summarize(w)
	assert.Equal(t, 3, s.Tasks)
	assert.Equal(t, 165, s.Minutes)
	assert.Equal(t, planner.DaySummary{Day: "Monday", Label: "Monday (Pazartesi)", Tasks: 2, Minutes: 120}, s.PerDay[0])
	assert.Equal(t, 0, s.PerDay[3].Tasks)

	out := planner.Render(w)
	assert.Contains(t, out, "3 tasks, 2h 45m total")
	assert.Contains(t, out, "rest")
	assert.Contains(t, out, "Wednesday (Çarşamba)\n  rest")
}

func TestFormatMinutes(t *testing.T) {
	assert.Equal(t, "45m", planner.FormatMinutes(45))
	assert.Equal(t, "2h", planner.FormatMinutes(120))
	assert.Equal(t, "1h 30m", planner.FormatMinutes(90))
}
