// Package calendar lays an applied study week out on the clock and writes it
// as iCalendar, avoiding busy blocks read from an existing calendar.
package calendar

import (
	"fmt"
	"io"
	"time"

	ical "github.com/emersion/go-ical"
	"github.com/google/uuid"

	"github.com/aharnip2705/studylab-sub000/internal/domain"
)

const productID = "-//studylab//weekly plan//EN"

// Slot is a task placed at a concrete time.
type Slot struct {
	Task  domain.ResolvedTask
	Start time.Time
	End   time.Time
}

// Layout places each day's tasks back to back from the window's start time,
// pushing a task past any busy block it would overlap. busy may be nil.
func Layout(tasks []domain.ResolvedTask, w Window, busy Busy) []Slot {
	var slots []Slot
	cursor := map[string]time.Time{}
	for _, t := range tasks {
		key := t.Date.Format(domain.DateLayout)
		start, ok := cursor[key]
		if !ok {
			y, m, d := t.Date.Date()
			start = time.Date(y, m, d, w.Hour, w.Minute, 0, 0, t.Date.Location())
		}
		dur := time.Duration(t.Minutes) * time.Minute

		for _, b := range busy[key] {
			if start.Before(b.End) && start.Add(dur).After(b.Start) {
				start = b.End
			}
		}

		slots = append(slots, Slot{Task: t, Start: start, End: start.Add(dur)})
		cursor[key] = start.Add(dur)
	}
	return slots
}

// Encode writes the slots as one VCALENDAR. A UID is derived from the user,
// the date and the slot's position on that day, so importing a re-export of
// the same week replaces events position by position even after the plan was
// re-applied with new task ids.
func Encode(w io.Writer, userID string, slots []Slot, stamp time.Time) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)

	seen := map[string]int{}
	for _, s := range slots {
		date := s.Task.Date.Format(domain.DateLayout)
		pos := seen[date]
		seen[date]++

		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, SlotUID(userID, date, pos))
		event.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
		event.Props.SetDateTime(ical.PropDateTimeStart, s.Start.UTC())
		event.Props.SetDateTime(ical.PropDateTimeEnd, s.End.UTC())
		event.Props.SetText(ical.PropSummary, summary(s.Task))
		if s.Task.Description != "" {
			event.Props.SetText(ical.PropDescription, s.Task.Description)
		}
		cal.Children = append(cal.Children, event.Component)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encoding calendar: %w", err)
	}
	return nil
}

// SlotUID is the stable event UID of the pos-th slot (zero based) on date.
func SlotUID(userID, date string, pos int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("studylab:%s:%s:%d", userID, date, pos))).String()
}

func summary(t domain.ResolvedTask) string {
	label := t.SubjectLabel
	if label == "" {
		label = "Study"
	}
	return fmt.Sprintf("%s (%d min)", label, t.Minutes)
}
