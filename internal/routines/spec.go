// Package routines implements the recurring-routine expansion and
// idempotent calendar synchronization engine.
package routines

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/dagaz/internal/apperr"
)

// Default values applied while expanding underspecified routine rules.
const (
	DefaultLookaheadDays   = 14
	defaultStartClock      = "17:00"
	defaultDurationMinutes = 60
)

// Spec is one declarative routine rule. Exactly one of the two variants is
// in play for a given record:
//
//   - multi-weekday: Days + Start + End clock times
//   - single-weekday: Day + Time + DurationMinutes
//
// A spec describes an infinite recurrence; the engine only ever
// materializes instances inside one run's horizon.
type Spec struct {
	Title string `yaml:"title" json:"title"`

	// Multi-weekday variant.
	Days  []string `yaml:"days,omitempty" json:"days,omitempty"`
	Start string   `yaml:"start,omitempty" json:"start,omitempty"`
	End   string   `yaml:"end,omitempty" json:"end,omitempty"`

	// Single-weekday variant.
	Day             string `yaml:"day,omitempty" json:"day,omitempty"`
	Time            string `yaml:"time,omitempty" json:"time,omitempty"`
	DurationMinutes *int   `yaml:"duration_minutes,omitempty" json:"duration_minutes,omitempty"`

	Notes    string `yaml:"notes,omitempty" json:"notes,omitempty"`
	Location string `yaml:"location,omitempty" json:"location,omitempty"`
}

// multiWeekday reports whether the spec uses the multi-weekday variant.
func (s *Spec) multiWeekday() bool {
	return len(s.Days) > 0
}

// Document is the decoded routines document. Sources may provide either a
// bare list of specs or an object wrapping the list. LookaheadDays is zero
// when the document does not set a usable numeric value; the engine then
// falls back to its configured default.
type Document struct {
	Routines      []Spec `yaml:"routines" json:"routines"`
	LookaheadDays int    `yaml:"lookahead_days" json:"lookahead_days"`
}

// rawDocument accepts lookahead_days of any type so a non-numeric value
// degrades to the default instead of failing the whole document.
type rawDocument struct {
	Routines      []Spec `yaml:"routines" json:"routines"`
	LookaheadDays any    `yaml:"lookahead_days" json:"lookahead_days"`
}

// DecodeDocument parses raw document bytes into a Document. format is
// either "yaml" or "json" (see FormatForURL). The document may be a bare
// list of routine records or an object with a routines field.
func DecodeDocument(data []byte, format string) (*Document, error) {
	unmarshal := func(in []byte, out any) error { return yaml.Unmarshal(in, out) }
	if format == "json" {
		unmarshal = func(in []byte, out any) error { return json.Unmarshal(in, out) }
	}

	// Bare list form first.
	var list []Spec
	if err := unmarshal(data, &list); err == nil {
		return &Document{Routines: list}, nil
	}

	var raw rawDocument
	if err := unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrDocumentParse, err)
	}
	if raw.Routines == nil {
		return nil, fmt.Errorf("%w: document has no routines list", apperr.ErrDocumentParse)
	}

	doc := &Document{Routines: raw.Routines}
	if days, ok := asInt(raw.LookaheadDays); ok && days > 0 {
		doc.LookaheadDays = days
	}
	return doc, nil
}

// FormatForURL selects the decode format from the source URL's extension.
// YAML extensions decode as YAML, everything else as JSON.
func FormatForURL(url string) string {
	lower := strings.ToLower(url)
	if strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") {
		return "yaml"
	}
	return "json"
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

// weekdayNames maps accepted weekday spellings to time.Weekday. Lookup is
// case-insensitive over full names and three-letter abbreviations.
var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

func parseWeekday(name string) (time.Weekday, bool) {
	wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
	return wd, ok
}

// parseClock parses "HH:MM" into hour and minute. A bare "HH" gets minute
// zero. Returns false for anything non-numeric or out of range.
func parseClock(clock string) (hour, minute int, ok bool) {
	parts := strings.SplitN(strings.TrimSpace(clock), ":", 2)
	if len(parts) == 0 || parts[0] == "" {
		return 0, 0, false
	}
	hour, ok = atoiStrict(parts[0])
	if !ok || hour < 0 || hour > 23 {
		return 0, 0, false
	}
	if len(parts) == 1 {
		return hour, 0, true
	}
	minute, ok = atoiStrict(parts[1])
	if !ok || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}

// atoiStrict parses a non-negative decimal with no sign or whitespace.
func atoiStrict(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}
