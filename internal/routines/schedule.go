package routines

import (
	"context"
	"fmt"
	"time"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/calendar"
)

// CreatedItem records one event created during a sync run, in creation order.
type CreatedItem struct {
	ID    string    `json:"id"`
	Title string    `json:"title"`
	Start time.Time `json:"start"`
}

// Result summarizes a sync run.
type Result struct {
	Created int           `json:"created"`
	Items   []CreatedItem `json:"items"`
}

// CreateFunc issues one creation call against the external store.
type CreateFunc func(ctx context.Context, ev calendar.Event) (*calendar.Created, error)

// Schedule filters candidate instances against the existing-event baseline
// and issues creation calls strictly sequentially, in candidate order.
//
// Each successful creation adds its key to the running set so two
// candidates in the same run with identical title and start yield a single
// creation. At most one creation call is ever issued per distinct key per
// run.
//
// A failing creation aborts the remainder of the run. Events created before
// the failure are not rolled back; reruns are safe because the baseline
// check against the store skips them.
func Schedule(ctx context.Context, instances []Instance, existing map[Key]struct{}, create CreateFunc) (Result, error) {
	seen := make(map[Key]struct{}, len(existing))
	for k := range existing {
		seen[k] = struct{}{}
	}

	var res Result
	for _, inst := range instances {
		key := KeyFor(inst.Title, inst.Start)
		if _, ok := seen[key]; ok {
			continue
		}

		created, err := create(ctx, calendar.Event{
			Title:       inst.Title,
			Description: inst.Notes,
			Location:    inst.Location,
			Start:       inst.Start,
			End:         inst.End,
		})
		if err != nil {
			return res, fmt.Errorf("%w: %q at %s: %v",
				apperr.ErrCreateEvent, inst.Title, inst.Start.Format(time.RFC3339), err)
		}

		seen[key] = struct{}{}
		res.Created++
		res.Items = append(res.Items, CreatedItem{
			ID:    created.ID,
			Title: inst.Title,
			Start: inst.Start,
		})
	}
	return res, nil
}
