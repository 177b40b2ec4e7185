// Package calendar defines the external calendar store abstraction and its
// Google Calendar implementation.
package calendar

import (
	"context"
	"time"
)

// DefaultCalendarID is the implicit calendar targeted when none is configured.
const DefaultCalendarID = "primary"

// Event is the provider-independent representation of a calendar event.
type Event struct {
	ID          string    `json:"id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// Created describes a successfully created event.
type Created struct {
	ID   string `json:"id"`
	Link string `json:"link,omitempty"`
}

// Store is the interface to the remote calendar system of record.
type Store interface {
	// ListEvents returns all events whose start falls within [timeMin, timeMax].
	// Implementations must return an error rather than a silently truncated
	// result set; callers depend on completeness for deduplication.
	ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]Event, error)
	// GetEvent returns a single event by ID.
	GetEvent(ctx context.Context, calendarID, eventID string) (*Event, error)
	// CreateEvent inserts a new event and returns its server-assigned identity.
	CreateEvent(ctx context.Context, calendarID string, ev Event) (*Created, error)
	// UpdateEvent replaces an existing event.
	UpdateEvent(ctx context.Context, calendarID, eventID string, ev Event) (*Event, error)
	// DeleteEvent removes an event by ID.
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}
