package routines

import (
	"testing"
	"time"

	"github.com/starford/dagaz/internal/calendar"
)

func TestKeyForNormalizesInstant(t *testing.T) {
	// The same instant in two zones must produce the same key.
	utc := time.Date(2024, 1, 3, 6, 0, 0, 0, time.UTC)
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatal(err)
	}

	a := KeyFor("Gym", utc)
	b := KeyFor("Gym", utc.In(berlin))
	if a != b {
		t.Errorf("keys differ across zones: %+v vs %+v", a, b)
	}

	// Sub-second precision must not break matching.
	c := KeyFor("Gym", utc.Add(500*time.Millisecond))
	if a != c {
		t.Errorf("sub-second precision broke matching: %+v vs %+v", a, c)
	}
}

func TestKeyForTrimsTitle(t *testing.T) {
	start := time.Date(2024, 1, 3, 6, 0, 0, 0, time.UTC)
	if KeyFor(" Gym ", start) != KeyFor("Gym", start) {
		t.Error("whitespace around title broke matching")
	}
	// A separator character inside the title is just part of the title.
	if KeyFor("A|B", start) == KeyFor("A", start) {
		t.Error("distinct titles collided")
	}
}

func TestIndexEvents(t *testing.T) {
	start := time.Date(2024, 1, 3, 6, 0, 0, 0, time.UTC)
	events := []calendar.Event{
		{Title: "Gym", Start: start},
		{Title: "Gym", Start: start.AddDate(0, 0, 2)},
		{Title: "Gym", Start: start}, // duplicate collapses
	}

	keys := IndexEvents(events)
	if len(keys) != 2 {
		t.Fatalf("got %d keys, want 2", len(keys))
	}
	if _, ok := keys[KeyFor("Gym", start)]; !ok {
		t.Error("expected key missing")
	}
}
