package routines

import (
	"log/slog"
	"time"
)

// Instance is one concrete occurrence produced by expanding a routine spec
// within a horizon. SpecIndex records which spec in the source document
// produced it.
type Instance struct {
	Title     string
	Start     time.Time
	End       time.Time
	Notes     string
	Location  string
	SpecIndex int
}

// Expand materializes every spec's occurrences inside the horizon. Output
// order is deterministic: specs in input order, days ascending within each
// spec.
//
// The horizon check is one-sided on purpose: an instance is emitted iff its
// start lies in [horizon.Start, horizon.End]; the end may extend past the
// horizon. Clock times are interpreted in loc without conversion; the
// store attaches a timezone at creation time.
//
// Expansion is per-spec tolerant. A spec with no recognizable weekdays or a
// malformed clock field yields zero instances and a warning, never an
// error: a half-valid rule is skipped whole rather than partially expanded.
func Expand(specs []Spec, horizon Horizon, loc *time.Location) []Instance {
	if loc == nil {
		loc = time.Local
	}

	var out []Instance
	for i := range specs {
		out = append(out, expandSpec(&specs[i], i, horizon, loc)...)
	}
	return out
}

func expandSpec(s *Spec, idx int, horizon Horizon, loc *time.Location) []Instance {
	if s.multiWeekday() {
		return expandMultiWeekday(s, idx, horizon, loc)
	}
	return expandSingleWeekday(s, idx, horizon, loc)
}

func expandMultiWeekday(s *Spec, idx int, horizon Horizon, loc *time.Location) []Instance {
	days := make(map[time.Weekday]bool, len(s.Days))
	for _, name := range s.Days {
		wd, ok := parseWeekday(name)
		if !ok {
			slog.Warn("routine skipped: unknown weekday",
				slog.String("title", s.Title), slog.String("day", name))
			return nil
		}
		days[wd] = true
	}

	startHour, startMin, ok := parseClock(s.Start)
	if !ok {
		slog.Warn("routine skipped: bad start clock",
			slog.String("title", s.Title), slog.String("start", s.Start))
		return nil
	}
	endHour, endMin, ok := parseClock(s.End)
	if !ok {
		slog.Warn("routine skipped: bad end clock",
			slog.String("title", s.Title), slog.String("end", s.End))
		return nil
	}

	var out []Instance
	for d := horizon.Start; !d.After(horizon.End); d = d.AddDate(0, 0, 1) {
		if !days[d.Weekday()] {
			continue
		}
		start := atClock(d, startHour, startMin, loc)
		if !horizon.Contains(start) {
			continue
		}
		out = append(out, Instance{
			Title:     s.Title,
			Start:     start,
			End:       atClock(d, endHour, endMin, loc),
			Notes:     s.Notes,
			Location:  s.Location,
			SpecIndex: idx,
		})
	}
	return out
}

func expandSingleWeekday(s *Spec, idx int, horizon Horizon, loc *time.Location) []Instance {
	wd, ok := parseWeekday(s.Day)
	if !ok {
		slog.Warn("routine skipped: unknown weekday",
			slog.String("title", s.Title), slog.String("day", s.Day))
		return nil
	}

	clock := s.Time
	if clock == "" {
		clock = defaultStartClock
	}
	hour, minute, ok := parseClock(clock)
	if !ok {
		slog.Warn("routine skipped: bad time clock",
			slog.String("title", s.Title), slog.String("time", s.Time))
		return nil
	}

	duration := defaultDurationMinutes
	if s.DurationMinutes != nil && *s.DurationMinutes >= 0 {
		duration = *s.DurationMinutes
	}

	var out []Instance
	for d := horizon.Start; !d.After(horizon.End); d = d.AddDate(0, 0, 1) {
		if d.Weekday() != wd {
			continue
		}
		start := atClock(d, hour, minute, loc)
		if !horizon.Contains(start) {
			continue
		}
		out = append(out, Instance{
			Title:     s.Title,
			Start:     start,
			End:       start.Add(time.Duration(duration) * time.Minute),
			Notes:     s.Notes,
			Location:  s.Location,
			SpecIndex: idx,
		})
	}
	return out
}

// atClock returns day's date at the given wall-clock time in loc.
func atClock(day time.Time, hour, minute int, loc *time.Location) time.Time {
	d := day.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, loc)
}
