package history

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/starford/dagaz/internal/routines"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "dagaz-history-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordAndListRuns(t *testing.T) {
	db := testDB(t)

	started := time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC)
	res := routines.Result{
		Created: 2,
		Items: []routines.CreatedItem{
			{ID: "ev-1", Title: "Gym", Start: started},
			{ID: "ev-2", Title: "Gym", Start: started.AddDate(0, 0, 2)},
		},
	}
	if err := db.RecordRun("cron", started, started.Add(time.Second), res, nil); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := db.RecordRun("api", started.Add(time.Hour), started.Add(time.Hour), routines.Result{}, errors.New("boom")); err != nil {
		t.Fatalf("record: %v", err)
	}

	runs, err := db.ListRuns(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}

	// Newest first.
	if runs[0].Trigger != "api" || runs[0].Error != "boom" {
		t.Errorf("newest run = %+v, want failed api run", runs[0])
	}
	if runs[1].Trigger != "cron" || runs[1].Created != 2 {
		t.Errorf("oldest run = %+v, want cron run with 2 creations", runs[1])
	}
	if len(runs[1].Items) != 2 || runs[1].Items[0].ID != "ev-1" {
		t.Errorf("items not round-tripped: %+v", runs[1].Items)
	}
}

func TestListRunsLimit(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	for i := 0; i < 5; i++ {
		if err := db.RecordRun("cron", now, now, routines.Result{}, nil); err != nil {
			t.Fatal(err)
		}
	}
	runs, err := db.ListRuns(3)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 3 {
		t.Errorf("got %d runs, want 3", len(runs))
	}
}

func TestListRunsEmpty(t *testing.T) {
	db := testDB(t)
	runs, err := db.ListRuns(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("got %d runs, want 0", len(runs))
	}
}
