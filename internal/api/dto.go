package api

import (
	"time"

	"github.com/starford/dagaz/internal/calendar"
	"github.com/starford/dagaz/internal/history"
	"github.com/starford/dagaz/internal/routines"
)

// EventRequest is the request body for creating or updating an event.
type EventRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// Event converts the request into the domain type.
func (r EventRequest) Event() calendar.Event {
	return calendar.Event{
		Title:       r.Title,
		Description: r.Description,
		Location:    r.Location,
		Start:       r.Start,
		End:         r.End,
	}
}

// EventListResponse wraps event listings.
type EventListResponse struct {
	Events []calendar.Event `json:"events"`
	Total  int              `json:"total"`
}

// SyncResponse is returned after a triggered sync run.
type SyncResponse = routines.Result

// RunListResponse wraps sync-run history listings.
type RunListResponse struct {
	Runs []history.Run `json:"runs"`
}
