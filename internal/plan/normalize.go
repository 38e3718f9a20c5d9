package plan

import (
	"errors"
	"sort"
	"strings"

	"github.com/aharnip2705/studylab-sub000/internal/textnorm"
)

// ErrNormalizationFailed means no entry of the document named a usable day.
var ErrNormalizationFailed = errors.New("plan has no usable days")

// Accepted spellings of document fields, compared after folding.
var (
	dayFields         = []string{"day", "gun", "weekday"}
	taskFields        = []string{"tasks", "gorevler", "items"}
	subjectFields     = []string{"subject", "ders", "lesson"}
	minutesFields     = []string{"duration_minutes", "durationminutes", "duration", "minutes", "sure"}
	descriptionFields = []string{"description", "aciklama", "desc", "note"}
)

// Report counts what Normalize discarded.
type Report struct {
	Entries      int
	DroppedDays  int
	DroppedTasks int
	Defaulted    int
}

// Normalize converts a parsed plan list into a Weekly plan. Entries that are
// not objects or whose day label is not a weekday are dropped; tasks that
// are not objects are dropped without losing the rest of the day. Days the
// document does not mention stay empty. Repeated days are merged in order.
func Normalize(doc []any) (Weekly, error) {
	w, _, err := NormalizeWithReport(doc)
	return w, err
}

func NormalizeWithReport(doc []any) (Weekly, Report, error) {
	w := NewWeekly()
	rep := Report{Entries: len(doc)}
	usable := 0

	for _, raw := range doc {
		entry, ok := raw.(map[string]any)
		if !ok {
			rep.DroppedDays++
			continue
		}

		label, _ := field(entry, dayFields).(string)
		day, err := textnorm.ParseDay(label)
		if err != nil {
			rep.DroppedDays++
			continue
		}
		usable++

		tasks, _ := field(entry, taskFields).([]any)
		for _, rt := range tasks {
			t, ok := rt.(map[string]any)
			if !ok {
				rep.DroppedTasks++
				continue
			}
			task, defaulted := normalizeTask(t)
			if defaulted {
				rep.Defaulted++
			}
			w.Days[day].Tasks = append(w.Days[day].Tasks, task)
		}
	}

	if usable == 0 {
		return Weekly{}, rep, ErrNormalizationFailed
	}
	return w, rep, nil
}

func normalizeTask(t map[string]any) (Task, bool) {
	defaulted := false

	subject, _ := field(t, subjectFields).(string)
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = DefaultSubject
		defaulted = true
	}

	rawMinutes := field(t, minutesFields)
	minutes := textnorm.CoerceMinutes(rawMinutes)
	if f, ok := rawMinutes.(float64); (!ok || f <= 0) && minutes == textnorm.DefaultMinutes {
		defaulted = true
	}

	description, _ := field(t, descriptionFields).(string)

	return Task{
		Subject:     subject,
		Minutes:     minutes,
		Description: strings.TrimSpace(description),
	}, defaulted
}

// field returns the value for the earliest of names present in m, comparing
// keys exactly first and then folded. Ties between folded keys go to the
// lexically smallest key.
func field(m map[string]any, names []string) any {
	for _, name := range names {
		if v, ok := m[name]; ok {
			return v
		}
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, name := range names {
		for _, k := range keys {
			if strings.ReplaceAll(textnorm.Fold(k), " ", "_") == name {
				return m[k]
			}
		}
	}
	return nil
}
