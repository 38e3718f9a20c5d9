// Package plan turns generated text into a canonical seven-day study plan.
package plan

import "github.com/aharnip2705/studylab-sub000/internal/textnorm"

// DefaultSubject labels tasks that arrive without a subject.
const DefaultSubject = "General"

// Task is one study block as drafted by the model, before catalog resolution.
type Task struct {
	Subject     string
	Minutes     int
	Description string
}

type Day struct {
	Key   textnorm.Day
	Tasks []Task
}

// Weekly always holds the seven canonical days, Monday first.
type Weekly struct {
	Days [7]Day
}

// NewWeekly returns an empty week with every day key set.
func NewWeekly() Weekly {
	var w Weekly
	for i, d := range textnorm.Week {
		w.Days[i] = Day{Key: d, Tasks: []Task{}}
	}
	return w
}

func (w Weekly) Day(d textnorm.Day) Day {
	return w.Days[d]
}

func (w Weekly) TaskCount() int {
	n := 0
	for _, d := range w.Days {
		n += len(d.Tasks)
	}
	return n
}

func (w Weekly) TotalMinutes() int {
	n := 0
	for _, d := range w.Days {
		for _, t := range d.Tasks {
			n += t.Minutes
		}
	}
	return n
}
