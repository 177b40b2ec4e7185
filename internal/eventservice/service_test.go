package eventservice_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/dagaz/internal/calendar"
	"github.com/starford/dagaz/internal/eventservice"
	"github.com/starford/dagaz/internal/routines"
	"github.com/starford/dagaz/internal/testutil"
)

func testService(t *testing.T) (*eventservice.Service, *testutil.FakeStore) {
	t.Helper()

	store := testutil.NewFakeStore()
	docPath := filepath.Join(t.TempDir(), "routines.yaml")
	doc := "routines:\n  - title: Gym\n    days: [Mon, Wed, Fri]\n    start: \"06:00\"\n    end: \"07:00\"\n"
	if err := os.WriteFile(docPath, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	engine := routines.NewEngine(store, routines.NewFetcher(), routines.Options{
		SourceURL: docPath,
		Location:  time.UTC,
	})
	svc := eventservice.New(store, engine, testutil.TestJournal(t), "primary")
	return svc, store
}

func TestCreateEventValidation(t *testing.T) {
	svc, _ := testService(t)
	start := time.Now()

	if _, err := svc.CreateEvent(context.Background(), calendar.Event{Start: start, End: start.Add(time.Hour)}); err == nil {
		t.Error("missing title should fail")
	}
	if _, err := svc.CreateEvent(context.Background(), calendar.Event{Title: "X", Start: start, End: start}); err == nil {
		t.Error("end not after start should fail")
	}
	if _, err := svc.CreateEvent(context.Background(), calendar.Event{Title: "X", Start: start, End: start.Add(time.Hour)}); err != nil {
		t.Errorf("valid event rejected: %v", err)
	}
}

func TestRunSyncRecordsHistory(t *testing.T) {
	svc, store := testService(t)

	res, err := svc.RunSync(context.Background(), "api")
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if res.Created == 0 || store.Len() != res.Created {
		t.Fatalf("created = %d, store = %d", res.Created, store.Len())
	}

	runs, err := svc.ListRuns(context.Background(), 10)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	if runs[0].Trigger != "api" || runs[0].Created != res.Created {
		t.Errorf("journaled run = %+v", runs[0])
	}
	if runs[0].Error != "" {
		t.Errorf("unexpected error text: %q", runs[0].Error)
	}
}

func TestRunSyncSerialized(t *testing.T) {
	svc, store := testService(t)

	// Concurrent triggers must not duplicate creations.
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = svc.RunSync(context.Background(), "cron")
	}()
	_, _ = svc.RunSync(context.Background(), "api")
	<-done

	first := store.Len()
	if first == 0 {
		t.Fatal("no events created")
	}
	if _, err := svc.RunSync(context.Background(), "api"); err != nil {
		t.Fatal(err)
	}
	if store.Len() != first {
		t.Errorf("repeat sync changed store size: %d -> %d", first, store.Len())
	}
}
