package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/dagaz/internal/calendar"
	"github.com/starford/dagaz/internal/eventservice"
	"github.com/starford/dagaz/internal/routines"
	"github.com/starford/dagaz/internal/testutil"
)

const testDoc = `
routines:
  - title: Gym
    days: [Mon, Wed, Fri]
    start: "06:00"
    end: "07:00"
`

var errTransport = errors.New("transport reset")

// testEnv sets up a fake store, engine, journal, service, and router.
// An empty authToken means disabled auth mode.
func testEnv(t *testing.T, authToken string) (*testutil.FakeStore, http.Handler) {
	t.Helper()

	store := testutil.NewFakeStore()

	docPath := filepath.Join(t.TempDir(), "routines.yaml")
	if err := os.WriteFile(docPath, []byte(testDoc), 0o600); err != nil {
		t.Fatal(err)
	}

	engine := routines.NewEngine(store, routines.NewFetcher(), routines.Options{
		SourceURL: docPath,
		Location:  time.UTC,
	})
	journal := testutil.TestJournal(t)
	svc := eventservice.New(store, engine, journal, "primary")

	router := NewRouter(svc, authToken != "", authToken)
	return store, router
}

func TestCreateAndGetEvent(t *testing.T) {
	_, router := testEnv(t, "")

	start := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	body, _ := json.Marshal(EventRequest{
		Title: "Dentist",
		Start: start,
		End:   start.Add(30 * time.Minute),
	})
	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}

	var created calendar.Created
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	if created.ID == "" {
		t.Fatal("no event ID returned")
	}

	req = httptest.NewRequest(http.MethodGet, "/events/"+created.ID, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var ev calendar.Event
	_ = json.Unmarshal(w.Body.Bytes(), &ev)
	if ev.Title != "Dentist" {
		t.Errorf("title = %q, want Dentist", ev.Title)
	}
}

func TestCreateEventValidation(t *testing.T) {
	_, router := testEnv(t, "")

	body, _ := json.Marshal(map[string]string{"title": "No times"})
	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader([]byte("{not json")))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGetEventNotFound(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/events/nope", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestUpdateAndDeleteEvent(t *testing.T) {
	store, router := testEnv(t, "")

	start := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	id := store.Seed(calendar.Event{Title: "Old", Start: start, End: start.Add(time.Hour)})

	body, _ := json.Marshal(EventRequest{Title: "New", Start: start, End: start.Add(time.Hour)})
	req := httptest.NewRequest(http.MethodPut, "/events/"+id, bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d", w.Code)
	}
	var ev calendar.Event
	_ = json.Unmarshal(w.Body.Bytes(), &ev)
	if ev.Title != "New" {
		t.Errorf("title = %q, want New", ev.Title)
	}

	req = httptest.NewRequest(http.MethodDelete, "/events/"+id, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	if store.Len() != 0 {
		t.Errorf("store holds %d events after delete, want 0", store.Len())
	}
}

func TestListEvents(t *testing.T) {
	store, router := testEnv(t, "")

	now := time.Now()
	store.Seed(calendar.Event{Title: "Soon", Start: now.Add(time.Hour), End: now.Add(2 * time.Hour)})
	store.Seed(calendar.Event{Title: "Far", Start: now.AddDate(0, 0, 30), End: now.AddDate(0, 0, 30).Add(time.Hour)})

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var resp EventListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 1 || resp.Events[0].Title != "Soon" {
		t.Errorf("default window listing = %+v, want only Soon", resp)
	}
}

func TestListEventsBadRange(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/events?timeMin=yesterday", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSyncEndpointAndRunHistory(t *testing.T) {
	store, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodPost, "/sync", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("sync status = %d, body = %s", w.Code, w.Body.String())
	}
	var res routines.Result
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.Created == 0 {
		t.Error("sync created no events")
	}
	if store.Len() != res.Created {
		t.Errorf("store holds %d events, result says %d", store.Len(), res.Created)
	}

	// Second sync is idempotent.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/sync", nil))
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.Created != 0 {
		t.Errorf("second sync created = %d, want 0", res.Created)
	}

	// Both runs are journaled.
	req = httptest.NewRequest(http.MethodGet, "/runs", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("runs status = %d", w.Code)
	}
	var runs RunListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &runs)
	if len(runs.Runs) != 2 {
		t.Errorf("got %d journaled runs, want 2", len(runs.Runs))
	}
}

func TestSyncListingFailure(t *testing.T) {
	store, router := testEnv(t, "")
	store.ListErr = errTransport

	req := httptest.NewRequest(http.MethodPost, "/sync", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
	if store.CreateCalls != 0 {
		t.Errorf("create calls = %d, want 0", store.CreateCalls)
	}
}

func TestAuthRequired(t *testing.T) {
	_, router := testEnv(t, "secret")

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/events", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/events", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("valid token: status = %d, want 200", w.Code)
	}
}
