package routines

import (
	"context"
	"log/slog"
	"time"

	"github.com/starford/dagaz/internal/calendar"
)

// Options configures an Engine.
type Options struct {
	// SourceURL is the routines document location (http(s), file://, or a
	// bare path).
	SourceURL string
	// CalendarID is the target calendar; empty means calendar.DefaultCalendarID.
	CalendarID string
	// LookaheadDays is the horizon length used when the document does not
	// set its own; zero or negative means DefaultLookaheadDays.
	LookaheadDays int
	// Location is the civil calendar clock times are interpreted in; nil
	// means time.Local.
	Location *time.Location
}

// Engine runs routine-document synchronization against a calendar store.
// Each Sync invocation is self-contained; the store is the only state that
// survives between runs.
type Engine struct {
	store   calendar.Store
	fetcher *Fetcher
	opts    Options
}

// NewEngine creates a sync engine bound to a store.
func NewEngine(store calendar.Store, fetcher *Fetcher, opts Options) *Engine {
	if opts.CalendarID == "" {
		opts.CalendarID = calendar.DefaultCalendarID
	}
	if opts.LookaheadDays <= 0 {
		opts.LookaheadDays = DefaultLookaheadDays
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Engine{store: store, fetcher: fetcher, opts: opts}
}

// Sync performs one full synchronization run at the given instant: fetch
// and decode the document, expand every spec over the horizon, index the
// store's existing events, then create whatever is missing.
//
// Fetch, parse, and listing failures abort before any calendar write. A
// creation failure aborts the remainder of the run; prior creations stand
// and the partial Result is returned alongside the error.
func (e *Engine) Sync(ctx context.Context, now time.Time) (Result, error) {
	data, err := e.fetcher.Fetch(ctx, e.opts.SourceURL)
	if err != nil {
		return Result{}, err
	}

	doc, err := DecodeDocument(data, FormatForURL(e.opts.SourceURL))
	if err != nil {
		return Result{}, err
	}

	lookahead := doc.LookaheadDays
	if lookahead <= 0 {
		lookahead = e.opts.LookaheadDays
	}
	horizon := ComputeHorizon(now, lookahead)

	instances := Expand(doc.Routines, horizon, e.opts.Location)

	existingEvents, err := e.store.ListEvents(ctx, e.opts.CalendarID, horizon.Start, horizon.End)
	if err != nil {
		return Result{}, err
	}
	existing := IndexEvents(existingEvents)

	res, err := Schedule(ctx, instances, existing, func(ctx context.Context, ev calendar.Event) (*calendar.Created, error) {
		return e.store.CreateEvent(ctx, e.opts.CalendarID, ev)
	})

	slog.Info("routines sync finished",
		slog.Int("specs", len(doc.Routines)),
		slog.Int("candidates", len(instances)),
		slog.Int("existing", len(existing)),
		slog.Int("created", res.Created),
	)
	return res, err
}
