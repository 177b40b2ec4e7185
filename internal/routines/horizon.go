package routines

import "time"

// Horizon is the closed time window [Start, End] a sync run materializes
// instances into.
type Horizon struct {
	Start time.Time
	End   time.Time
}

// ComputeHorizon returns the inclusive window [now, now+lookaheadDays].
// A negative lookaheadDays falls back to DefaultLookaheadDays.
func ComputeHorizon(now time.Time, lookaheadDays int) Horizon {
	if lookaheadDays < 0 {
		lookaheadDays = DefaultLookaheadDays
	}
	return Horizon{
		Start: now,
		End:   now.AddDate(0, 0, lookaheadDays),
	}
}

// Contains reports whether t falls within the horizon, inclusive on both
// ends. Only instance start times are checked against the horizon; ends may
// extend past it (see Expand).
func (h Horizon) Contains(t time.Time) bool {
	return !t.Before(h.Start) && !t.After(h.End)
}
