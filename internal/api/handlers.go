package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/calendar"
	"github.com/starford/dagaz/internal/eventservice"
)

// defaultListWindowDays bounds GET /events when the caller sends no range.
const defaultListWindowDays = 7

// Handler holds API route handlers.
type Handler struct {
	svc *eventservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *eventservice.Service) *Handler {
	return &Handler{svc: svc}
}

// ListEvents handles GET /events?timeMin=...&timeMax=... (RFC 3339).
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	timeMin := time.Now()
	if raw := q.Get("timeMin"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("timeMin must be RFC 3339"))
			return
		}
		timeMin = t
	}
	timeMax := timeMin.AddDate(0, 0, defaultListWindowDays)
	if raw := q.Get("timeMax"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("timeMax must be RFC 3339"))
			return
		}
		timeMax = t
	}
	if timeMax.Before(timeMin) {
		writeJSON(w, http.StatusBadRequest, errorBody("timeMax is before timeMin"))
		return
	}

	events, err := h.svc.ListEvents(r.Context(), timeMin, timeMax)
	if err != nil {
		slog.Error("list events failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, errorBody("calendar listing failed"))
		return
	}
	if events == nil {
		events = []calendar.Event{}
	}
	writeJSON(w, http.StatusOK, EventListResponse{Events: events, Total: len(events)})
}

// GetEvent handles GET /events/{id}.
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ev, err := h.svc.GetEvent(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		slog.Error("get event failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, errorBody("calendar lookup failed"))
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// CreateEvent handles POST /events.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Title == "" || req.Start.IsZero() || req.End.IsZero() {
		writeJSON(w, http.StatusBadRequest, errorBody("title, start and end are required"))
		return
	}

	created, err := h.svc.CreateEvent(r.Context(), req.Event())
	if err != nil {
		if errors.Is(err, apperr.ErrCreateEvent) {
			slog.Error("create event failed", slog.String("title", req.Title), slog.String("error", err.Error()))
			writeJSON(w, http.StatusBadGateway, errorBody("calendar creation failed"))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateEvent handles PUT /events/{id}.
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	id := chi.URLParam(r, "id")

	var req EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	ev, err := h.svc.UpdateEvent(r.Context(), id, req.Event())
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		slog.Error("update event failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, errorBody("calendar update failed"))
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// DeleteEvent handles DELETE /events/{id}.
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.DeleteEvent(r.Context(), id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		slog.Error("delete event failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, errorBody("calendar deletion failed"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RunSync handles POST /sync: one routines sync run, synchronous.
func (h *Handler) RunSync(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.RunSync(r.Context(), "api")
	if err != nil {
		slog.Error("sync run failed", slog.String("error", err.Error()), slog.Int("created", res.Created))
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":   err.Error(),
			"created": res.Created,
			"items":   res.Items,
		})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ListRuns handles GET /runs?limit=N.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.svc.ListRuns(r.Context(), limit)
	if err != nil {
		slog.Error("list runs failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, RunListResponse{Runs: runs})
}
