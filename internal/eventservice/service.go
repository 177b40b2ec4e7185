// Package eventservice coordinates calendar, sync-engine, and history
// operations for the REST and MCP surfaces.
package eventservice

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/dagaz/internal/calendar"
	"github.com/starford/dagaz/internal/history"
	"github.com/starford/dagaz/internal/routines"
)

// Service is the shared application service behind both agent surfaces.
type Service struct {
	store      calendar.Store
	engine     *routines.Engine
	journal    *history.DB
	calendarID string

	// syncMu serializes sync runs triggered from any surface. The engine
	// itself provides no mutual exclusion, and two concurrent runs against
	// the same calendar could both conclude an event is absent.
	syncMu sync.Mutex
}

// New creates the service. journal may be nil when run history is disabled.
func New(store calendar.Store, engine *routines.Engine, journal *history.DB, calendarID string) *Service {
	if calendarID == "" {
		calendarID = calendar.DefaultCalendarID
	}
	return &Service{store: store, engine: engine, journal: journal, calendarID: calendarID}
}

// ListEvents returns events starting within [timeMin, timeMax].
func (s *Service) ListEvents(ctx context.Context, timeMin, timeMax time.Time) ([]calendar.Event, error) {
	return s.store.ListEvents(ctx, s.calendarID, timeMin, timeMax)
}

// GetEvent returns one event by ID.
func (s *Service) GetEvent(ctx context.Context, eventID string) (*calendar.Event, error) {
	return s.store.GetEvent(ctx, s.calendarID, eventID)
}

// CreateEvent inserts a new event.
func (s *Service) CreateEvent(ctx context.Context, ev calendar.Event) (*calendar.Created, error) {
	if ev.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if !ev.End.After(ev.Start) {
		return nil, fmt.Errorf("end must be after start")
	}
	return s.store.CreateEvent(ctx, s.calendarID, ev)
}

// UpdateEvent replaces an existing event.
func (s *Service) UpdateEvent(ctx context.Context, eventID string, ev calendar.Event) (*calendar.Event, error) {
	return s.store.UpdateEvent(ctx, s.calendarID, eventID, ev)
}

// DeleteEvent removes an event.
func (s *Service) DeleteEvent(ctx context.Context, eventID string) error {
	return s.store.DeleteEvent(ctx, s.calendarID, eventID)
}

// RunSync performs one routines sync run and records it in the journal.
// trigger names the invoker ("cron", "api", "mcp", "watch", "once").
// Concurrent callers are serialized.
func (s *Service) RunSync(ctx context.Context, trigger string) (routines.Result, error) {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	started := time.Now()
	res, err := s.engine.Sync(ctx, started)
	finished := time.Now()

	if s.journal != nil {
		// A journal failure is logged, never allowed to mask the sync outcome.
		if recErr := s.journal.RecordRun(trigger, started, finished, res, err); recErr != nil {
			slog.Warn("sync run journal write failed", slog.String("error", recErr.Error()))
		}
	}
	return res, err
}

// ListRuns returns recent sync runs, newest first.
func (s *Service) ListRuns(ctx context.Context, limit int) ([]history.Run, error) {
	if s.journal == nil {
		return []history.Run{}, nil
	}
	return s.journal.ListRuns(limit)
}
