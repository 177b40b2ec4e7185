// Package testutil provides shared test helpers: an in-memory calendar
// store and a temporary run-history journal.
package testutil

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/calendar"
	"github.com/starford/dagaz/internal/history"
)

// FakeStore is an in-memory calendar.Store for tests.
type FakeStore struct {
	mu     sync.Mutex
	events map[string]calendar.Event
	nextID int

	// ListErr / CreateErr, when set, are returned by the corresponding
	// calls to simulate upstream failures.
	ListErr   error
	CreateErr error

	// CreateCalls counts CreateEvent invocations including failed ones.
	CreateCalls int
}

// NewFakeStore creates an empty in-memory store.
func NewFakeStore() *FakeStore {
	return &FakeStore{events: make(map[string]calendar.Event)}
}

// Seed inserts an event directly, bypassing CreateEvent accounting.
func (f *FakeStore) Seed(ev calendar.Event) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("seed-%d", f.nextID)
	ev.ID = id
	f.events[id] = ev
	return id
}

// Len returns the number of stored events.
func (f *FakeStore) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func (f *FakeStore) ListEvents(_ context.Context, _ string, timeMin, timeMax time.Time) ([]calendar.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListErr != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrExistingList, f.ListErr)
	}
	var out []calendar.Event
	for _, ev := range f.events {
		if !ev.Start.Before(timeMin) && !ev.Start.After(timeMax) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *FakeStore) GetEvent(_ context.Context, _ string, eventID string) (*calendar.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[eventID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &ev, nil
}

func (f *FakeStore) CreateEvent(_ context.Context, _ string, ev calendar.Event) (*calendar.Created, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CreateCalls++
	if f.CreateErr != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrCreateEvent, f.CreateErr)
	}
	f.nextID++
	id := fmt.Sprintf("ev-%d", f.nextID)
	ev.ID = id
	f.events[id] = ev
	return &calendar.Created{ID: id, Link: "https://calendar.example/" + id}, nil
}

func (f *FakeStore) UpdateEvent(_ context.Context, _ string, eventID string, ev calendar.Event) (*calendar.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[eventID]; !ok {
		return nil, apperr.ErrNotFound
	}
	ev.ID = eventID
	f.events[eventID] = ev
	return &ev, nil
}

func (f *FakeStore) DeleteEvent(_ context.Context, _ string, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[eventID]; !ok {
		return apperr.ErrNotFound
	}
	delete(f.events, eventID)
	return nil
}

// Verify FakeStore satisfies calendar.Store at compile time.
var _ calendar.Store = (*FakeStore)(nil)

// TestJournal creates a temporary SQLite run journal that is automatically
// cleaned up.
func TestJournal(t *testing.T) *history.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "dagaz-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := history.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
