package plan_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aharnip2705/studylab-sub000/internal/plan"
	"github.com/aharnip2705/studylab-sub000/internal/textnorm"
)

func TestNormalize_FillsSkeleton(t *testing.T) {
	doc, err := plan.Extract(sampleDoc)
	require.NoError(t, err)

	w, err := plan.Normalize(doc)
	require.NoError(t, err)

	for i, d := range w.Days {
		assert.Equal(t, textnorm.Week[i], d.Key)
	}
	require.Len(t, w.Day(textnorm.Monday).Tasks, 1)
	assert.Equal(t, plan.Task{Subject: "Math", Minutes: 90, Description: "derivative review [ch. 3]"}, w.Day(textnorm.Monday).Tasks[0])
	for _, d := range textnorm.Week[1:] {
		assert.Empty(t, w.Day(d).Tasks, d.String())
		assert.NotNil(t, w.Day(d).Tasks)
	}
	assert.Equal(t, 1, w.TaskCount())
	assert.Equal(t, 90, w.TotalMinutes())
}

func TestNormalize_DefaultsAndDrops(t *testing.T) {
	doc := []any{
		map[string]any{"day": "Çarşamba", "tasks": []any{
			map[string]any{"subject": "Kimya", "duration_minutes": "a lot"},
			"not a task",
			map[string]any{"description": "free reading"},
			map[string]any{"subject": "Fizik", "duration_minutes": -5.0, "description": "  optics  "},
			42.0,
		}},
		map[string]any{"day": "Someday", "tasks": []any{map[string]any{"subject": "Lost"}}},
		"garbage",
		map[string]any{"day": "saturday", "tasks": "none"},
		map[string]any{"Gün": "PAZAR", "Görevler": []any{map[string]any{"Ders": "Türkçe", "Süre": 30.0}}},
	}

	w, rep, err := plan.NormalizeWithReport(doc)
	require.NoError(t, err)

	wed := w.Day(textnorm.Wednesday).Tasks
	require.Len(t, wed, 3)
	assert.Equal(t, plan.Task{Subject: "Kimya", Minutes: textnorm.DefaultMinutes}, wed[0])
	assert.Equal(t, plan.Task{Subject: plan.DefaultSubject, Minutes: textnorm.DefaultMinutes, Description: "free reading"}, wed[1])
	assert.Equal(t, plan.Task{Subject: "Fizik", Minutes: textnorm.DefaultMinutes, Description: "optics"}, wed[2])

	assert.Empty(t, w.Day(textnorm.Saturday).Tasks)
	require.Len(t, w.Day(textnorm.Sunday).Tasks, 1)
	assert.Equal(t, plan.Task{Subject: "Türkçe", Minutes: 30}, w.Day(textnorm.Sunday).Tasks[0])

	assert.Equal(t, 5, rep.Entries)
	assert.Equal(t, 2, rep.DroppedDays)
	assert.Equal(t, 2, rep.DroppedTasks)
	assert.Equal(t, 3, rep.Defaulted)
}

func TestNormalize_MissingDurationKeepsTask(t *testing.T) {
	w, err := plan.Normalize([]any{
		map[string]any{"day": "Monday", "tasks": []any{
			map[string]any{"subject": "Math"},
			map[string]any{"subject": "Math", "duration_minutes": nil},
			map[string]any{"subject": "Math", "duration_minutes": "ninety"},
		}},
	})
	require.NoError(t, err)
	require.Len(t, w.Day(textnorm.Monday).Tasks, 3)
	for _, task := range w.Day(textnorm.Monday).Tasks {
		assert.Equal(t, textnorm.DefaultMinutes, task.Minutes)
	}
}

func TestNormalize_MergesRepeatedDays(t *testing.T) {
	w, err := plan.Normalize([]any{
		map[string]any{"day": "Friday", "tasks": []any{map[string]any{"subject": "A", "duration_minutes": 30.0}}},
		map[string]any{"day": "Cuma", "tasks": []any{map[string]any{"subject": "B", "duration_minutes": 40.0}}},
	})
	require.NoError(t, err)
	fri := w.Day(textnorm.Friday).Tasks
	require.Len(t, fri, 2)
	assert.Equal(t, "A", fri[0].Subject)
	assert.Equal(t, "B", fri[1].Subject)
}

func TestNormalize_NoUsableDays(t *testing.T) {
	for _, doc := range [][]any{
		nil,
		{},
		{"x", 1.0},
		{map[string]any{"day": "Day 1", "tasks": []any{}}},
		{map[string]any{"tasks": []any{}}},
	} {
		_, err := plan.Normalize(doc)
		assert.ErrorIs(t, err, plan.ErrNormalizationFailed)
	}
}

func TestNormalize_FoldedKeysFollowFieldOrder(t *testing.T) {
	doc := []any{
		map[string]any{"Gün": "Salı", "Tasks": []any{
			map[string]any{"Subject": "Fizik", "Minutes": 45.0, "Duration": 30.0, "Süre": 20.0},
		}},
	}
	for i := 0; i < 20; i++ {
		w, err := plan.Normalize(doc)
		require.NoError(t, err)
		tasks := w.Day(textnorm.Tuesday).Tasks
		require.Len(t, tasks, 1)
		assert.Equal(t, 30, tasks[0].Minutes, "duration is listed before minutes and sure")
	}
}
