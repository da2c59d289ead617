// Package dates holds the time helpers shared by scoring and the CLI:
// half-open query windows and humanized "2 hours" elapsed-time strings.
package dates

import (
	"fmt"
	"time"
)

// Window is a half-open time interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow returns the window covering the given number of hours ending at end.
func NewWindow(end time.Time, hours int) Window {
	return Window{
		Start: end.Add(-time.Duration(hours) * time.Hour),
		End:   end,
	}
}

// Hours returns the window length in hours.
func (w Window) Hours() float64 {
	return w.End.Sub(w.Start).Hours()
}

// Contains reports whether t falls inside the half-open interval.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Since returns the elapsed time between start and now as a pluralized
// string, choosing the largest of days, hours, minutes and seconds that is
// non-zero, e.g. "2 hours" or "1 minute".
func Since(start, now time.Time) string {
	diff := int(now.Sub(start).Seconds())
	if diff < 0 {
		diff = 0
	}
	steps := []struct {
		word string
		amt  int
	}{
		{"day", diff / 60 / 60 / 24},
		{"hour", diff / 60 / 60},
		{"minute", diff / 60},
		{"second", diff},
	}
	for _, s := range steps {
		if s.amt > 0 {
			return pluralize(s.amt, s.word)
		}
	}
	return pluralize(0, "second")
}

// SinceNow is Since against the wall clock.
func SinceNow(start time.Time) string {
	return Since(start, time.Now().UTC())
}

func pluralize(amt int, word string) string {
	s := fmt.Sprintf("%d %s", amt, word)
	if amt == 1 {
		return s
	}
	return s + "s"
}
