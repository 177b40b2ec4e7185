package routines

import (
	"strings"
	"time"

	"github.com/starford/dagaz/internal/calendar"
)

// Key is the logical identity of an event occurrence: normalized title plus
// the start instant canonicalized to UTC seconds. Two occurrences are the
// same event iff their Keys are equal. Comparison is by value, never by
// serialized-string equality, so title separators and sub-second precision
// cannot break matching.
type Key struct {
	Title string
	Start int64
}

// KeyFor builds the identity key for a title and start instant.
func KeyFor(title string, start time.Time) Key {
	return Key{
		Title: strings.TrimSpace(title),
		Start: start.UTC().Unix(),
	}
}

// IndexEvents builds the dedup baseline from events already present in the
// store within the horizon.
func IndexEvents(events []calendar.Event) map[Key]struct{} {
	keys := make(map[Key]struct{}, len(events))
	for _, ev := range events {
		keys[KeyFor(ev.Title, ev.Start)] = struct{}{}
	}
	return keys
}
