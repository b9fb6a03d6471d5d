package models

import "time"

// Window is the half-open UTC interval [Start, End) selecting events for
// one run. Windows are deterministic from invocation wall-clock time, which
// makes retried invocations within the same hour idempotent at the
// window-selection layer.
type Window struct {
	Start time.Time
	End   time.Time
}

// ComputeWindow derives a Window from invocation wall-clock time `now` and
// the configured window size. End is `now` floored to the window boundary;
// Start is End minus the window size. hours must be >= 1.
func ComputeWindow(now time.Time, hours int) Window {
	if hours < 1 {
		hours = 1
	}
	utc := now.UTC()
	size := time.Duration(hours) * time.Hour
	end := utc.Truncate(time.Hour)
	// Truncate(time.Hour) floors to the top of the hour regardless of the
	// configured window size; align End to the nearest size boundary at or
	// before now so multi-hour windows still close cleanly on the hour.
	if size > time.Hour {
		epoch := time.Unix(0, 0).UTC()
		elapsed := end.Sub(epoch)
		end = epoch.Add((elapsed / size) * size)
	}
	return Window{Start: end.Add(-size), End: end}
}

// Contains reports whether t falls in [Start, End).
func (w Window) Contains(t time.Time) bool {
	ut := t.UTC()
	return !ut.Before(w.Start) && ut.Before(w.End)
}

// Key formats the window's Start as the "events-{YYYY}-{MM}-{DD}-{HH}"
// portion of an object key, per spec §4.4/§6.
func (w Window) Key(ext string) string {
	return "events-" + w.Start.UTC().Format("2006-01-02-15") + "." + ext
}
