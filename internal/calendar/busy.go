package calendar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	ical "github.com/emersion/go-ical"

	"github.com/aharnip2705/studylab-sub000/internal/domain"
)

// Block is a span of one study evening that is already taken.
type Block struct {
	Start  time.Time
	End    time.Time
	Labels []string
}

// Busy maps a date (domain.DateLayout) to that day's taken blocks, sorted
// and non-overlapping.
type Busy map[string][]Block

// Window is the part of each day that study tasks may use: from the
// configured start time until midnight.
type Window struct {
	WeekStart time.Time
	Hour      int
	Minute    int
}

func (w Window) day(i int) (time.Time, time.Time) {
	y, m, d := w.WeekStart.AddDate(0, 0, i).Date()
	loc := w.WeekStart.Location()
	return time.Date(y, m, d, w.Hour, w.Minute, 0, 0, loc), time.Date(y, m, d+1, 0, 0, 0, 0, loc)
}

var httpClient = &http.Client{Timeout: 30 * time.Second}

// ReadBusy loads school or course hours from an ICS URL or file and clips
// them to the study window of each day of the week.
func ReadBusy(ctx context.Context, source string, w Window) (Busy, error) {
	var r io.ReadCloser

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, fmt.Errorf("building busy calendar request: %w", err)
		}
		resp, err := httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("downloading busy calendar: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("busy calendar returned status %d", resp.StatusCode)
		}
		r = resp.Body
	} else {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("opening busy calendar: %w", err)
		}
		r = f
	}
	defer r.Close()

	return ParseBusy(r, w)
}

// ParseBusy decodes every VEVENT in r. Events marked TRANSP:TRANSPARENT or
// with unreadable times are ignored. An event spanning several days yields
// one clipped block per day it touches.
func ParseBusy(r io.Reader, w Window) (Busy, error) {
	dec := ical.NewDecoder(r)
	loc := w.WeekStart.Location()
	busy := Busy{}

	for {
		cal, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing busy calendar: %w", err)
		}

		for _, child := range cal.Children {
			if child.Name != ical.CompEvent {
				continue
			}
			ev := ical.Event{Component: child}
			if transp, _ := ev.Props.Text("TRANSP"); strings.EqualFold(transp, "TRANSPARENT") {
				continue
			}
			start, err := ev.DateTimeStart(loc)
			if err != nil {
				continue
			}
			end, err := ev.DateTimeEnd(loc)
			if err != nil || !end.After(start) {
				continue
			}
			label, _ := ev.Props.Text(ical.PropSummary)

			for i := 0; i < 7; i++ {
				from, until := w.day(i)
				s, e := maxTime(start, from), minTime(end, until)
				if !e.After(s) {
					continue
				}
				key := from.Format(domain.DateLayout)
				busy[key] = append(busy[key], Block{Start: s, End: e, Labels: []string{label}})
			}
		}
	}

	for key, blocks := range busy {
		busy[key] = merge(blocks)
	}
	return busy, nil
}

func merge(blocks []Block) []Block {
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].Start.Before(blocks[j].Start) })
	out := blocks[:0]
	for _, b := range blocks {
		if n := len(out); n > 0 && !b.Start.After(out[n-1].End) {
			last := &out[n-1]
			last.End = maxTime(last.End, b.End)
			last.Labels = append(last.Labels, b.Labels...)
			continue
		}
		out = append(out, b)
	}
	return out
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
