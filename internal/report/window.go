package report

import (
	"time"
)

// Preset names a default reporting window anchored at the current instant.
type Preset string

const (
	PresetDay   Preset = "day"
	PresetWeek  Preset = "week"
	PresetMonth Preset = "month"
)

// Window is the time range a report covers. Both bounds are inclusive:
// sessions are selected by start_time >= From AND start_time <= To.
type Window struct {
	From time.Time
	To   time.Time
}

// Resolve computes the window for a preset at the given instant. The
// unknown/empty preset falls back to week, matching the original report
// behavior.
func Resolve(preset Preset, now time.Time) Window {
	switch preset {
	case PresetDay:
		return Window{From: midnight(now), To: now}
	case PresetMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return Window{From: first, To: now}
	default: // week
		daysSinceMonday := (int(now.Weekday()) + 6) % 7
		monday := midnight(now.AddDate(0, 0, -daysSinceMonday))
		return Window{From: monday, To: now}
	}
}

// Explicit builds a window from caller-supplied bounds, used verbatim.
func Explicit(from, to time.Time) Window {
	return Window{From: from, To: to}
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// FromMillis returns the lower bound as unix milliseconds.
func (w Window) FromMillis() int64 { return w.From.UnixMilli() }

// ToMillis returns the upper bound as unix milliseconds.
func (w Window) ToMillis() int64 { return w.To.UnixMilli() }
