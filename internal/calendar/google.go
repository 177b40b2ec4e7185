package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/starford/dagaz/internal/apperr"
)

// listPageSize bounds a single ListEvents call. The store reports overflow
// as an error instead of paginating, so that dedup never runs against a
// partial event set.
const listPageSize = 2500

// GoogleStore implements Store against the Google Calendar API.
type GoogleStore struct {
	svc      *gcal.Service
	timezone string
}

// TokenSourceFromFiles builds an oauth2.TokenSource from an OAuth client
// credentials file and a stored token file. The token source is passed
// explicitly to NewGoogleStore; no credential state is held at package level.
func TokenSourceFromFiles(ctx context.Context, credentialsPath, tokenPath string) (oauth2.TokenSource, error) {
	creds, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}
	conf, err := google.ConfigFromJSON(creds, gcal.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials file: %w", err)
	}

	tokData, err := os.ReadFile(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(tokData, &tok); err != nil {
		return nil, fmt.Errorf("parse token file: %w", err)
	}

	return conf.TokenSource(ctx, &tok), nil
}

// NewGoogleStore creates a Store backed by the Google Calendar API.
// timezone is the IANA zone name attached to created event times.
func NewGoogleStore(ctx context.Context, ts oauth2.TokenSource, timezone string) (*GoogleStore, error) {
	svc, err := gcal.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return &GoogleStore{svc: svc, timezone: timezone}, nil
}

// ListEvents returns all single events starting within [timeMin, timeMax].
func (g *GoogleStore) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]Event, error) {
	resp, err := g.svc.Events.List(calendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(listPageSize).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrExistingList, err)
	}
	if resp.NextPageToken != "" {
		return nil, fmt.Errorf("%w: result set exceeds %d events in window", apperr.ErrExistingList, listPageSize)
	}

	events := make([]Event, 0, len(resp.Items))
	for _, item := range resp.Items {
		events = append(events, fromGoogleEvent(item))
	}
	return events, nil
}

func (g *GoogleStore) GetEvent(ctx context.Context, calendarID, eventID string) (*Event, error) {
	item, err := g.svc.Events.Get(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		if isGoogleNotFound(err) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("get event %s: %w", eventID, err)
	}
	ev := fromGoogleEvent(item)
	return &ev, nil
}

func (g *GoogleStore) CreateEvent(ctx context.Context, calendarID string, ev Event) (*Created, error) {
	item, err := g.svc.Events.Insert(calendarID, g.toGoogleEvent(ev)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrCreateEvent, err)
	}
	return &Created{ID: item.Id, Link: item.HtmlLink}, nil
}

func (g *GoogleStore) UpdateEvent(ctx context.Context, calendarID, eventID string, ev Event) (*Event, error) {
	item, err := g.svc.Events.Update(calendarID, eventID, g.toGoogleEvent(ev)).Context(ctx).Do()
	if err != nil {
		if isGoogleNotFound(err) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("update event %s: %w", eventID, err)
	}
	out := fromGoogleEvent(item)
	return &out, nil
}

func (g *GoogleStore) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	if err := g.svc.Events.Delete(calendarID, eventID).Context(ctx).Do(); err != nil {
		if isGoogleNotFound(err) {
			return apperr.ErrNotFound
		}
		return fmt.Errorf("delete event %s: %w", eventID, err)
	}
	return nil
}

// toGoogleEvent converts to the wire type, attaching the configured
// timezone. The timezone is applied only here, at the store boundary.
func (g *GoogleStore) toGoogleEvent(ev Event) *gcal.Event {
	return &gcal.Event{
		Summary:     ev.Title,
		Description: ev.Description,
		Location:    ev.Location,
		Start: &gcal.EventDateTime{
			DateTime: ev.Start.Format(time.RFC3339),
			TimeZone: g.timezone,
		},
		End: &gcal.EventDateTime{
			DateTime: ev.End.Format(time.RFC3339),
			TimeZone: g.timezone,
		},
	}
}

func fromGoogleEvent(item *gcal.Event) Event {
	ev := Event{
		ID:          item.Id,
		Title:       item.Summary,
		Description: item.Description,
		Location:    item.Location,
	}
	ev.Start = parseGoogleTime(item.Start)
	ev.End = parseGoogleTime(item.End)
	return ev
}

// parseGoogleTime handles both timed (DateTime) and all-day (Date) events.
func parseGoogleTime(dt *gcal.EventDateTime) time.Time {
	if dt == nil {
		return time.Time{}
	}
	if dt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, dt.DateTime)
		if err == nil {
			return t
		}
	}
	if dt.Date != "" {
		t, err := time.ParseInLocation("2006-01-02", dt.Date, time.Local)
		if err == nil {
			return t
		}
	}
	return time.Time{}
}

func isGoogleNotFound(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 404 || apiErr.Code == 410
	}
	return false
}
