package attendance

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemoryStoreUpsertConcurrent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	day := date(2024, 1, 15)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status := StatusPresent
			if i%2 == 1 {
				status = StatusLate
			}
			_, err := store.Upsert(ctx, Record{
				ID:        fmt.Sprintf("id-%d", i),
				StudentID: "CSE001",
				Date:      day,
				Period:    "Period 1",
				Status:    status,
				Timestamp: time.Now().UTC(),
			})
			if err != nil {
				t.Errorf("upsert %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	recs, err := store.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("concurrent upserts left %d records for one triple, want 1", len(recs))
	}
}

func TestMemoryStoreSortOrder(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	seed := []Record{
		{ID: "a", StudentID: "S1", Date: date(2024, 1, 15), Period: "Period 2"},
		{ID: "b", StudentID: "S1", Date: date(2024, 1, 16), Period: "Period 1"},
		{ID: "c", StudentID: "S1", Date: date(2024, 1, 15), Period: "Period 1"},
		{ID: "d", StudentID: "S2", Date: date(2024, 1, 16), Period: "Period 1"},
	}
	for _, rec := range seed {
		rec.Status = StatusPresent
		if _, err := store.Upsert(ctx, rec); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	recs, err := store.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	wantOrder := []string{"b", "d", "c", "a"}
	if len(recs) != len(wantOrder) {
		t.Fatalf("records = %d, want %d", len(recs), len(wantOrder))
	}
	for i, id := range wantOrder {
		if recs[i].ID != id {
			t.Errorf("position %d = %s, want %s", i, recs[i].ID, id)
		}
	}
}

func TestMemoryStoreRecent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 8; i++ {
		_, err := store.Upsert(ctx, Record{
			ID:        fmt.Sprintf("id-%d", i),
			StudentID: fmt.Sprintf("S%d", i),
			Date:      date(2024, 1, 15),
			Period:    "Period 1",
			Status:    StatusPresent,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	recent, err := store.Recent(ctx, 5)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 5 {
		t.Fatalf("recent = %d records, want 5", len(recent))
	}
	if recent[0].ID != "id-7" {
		t.Errorf("most recent = %s, want id-7", recent[0].ID)
	}
	for i := 1; i < len(recent); i++ {
		if recent[i].Timestamp.After(recent[i-1].Timestamp) {
			t.Fatal("recent not sorted timestamp descending")
		}
	}
}

func TestMemoryStoreGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	rec := Record{ID: "id-1", StudentID: "S1", Date: date(2024, 1, 15), Period: "Period 1", Status: StatusPresent}
	if _, err := store.Upsert(ctx, rec); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := store.Get(ctx, "id-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.StudentID != "S1" {
		t.Errorf("studentID = %s", got.StudentID)
	}
	if _, err := store.Get(ctx, "missing"); err != ErrNotFound {
		t.Errorf("missing id: err = %v, want ErrNotFound", err)
	}
}

func TestFilterMatches(t *testing.T) {
	rec := Record{
		StudentID:  "CSE001",
		Date:       date(2024, 1, 15),
		Period:     "Period 1",
		Status:     StatusPresent,
		Department: "CSE",
		Section:    "A",
	}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty filter", Filter{}, true},
		{"matching date", Filter{Date: date(2024, 1, 15)}, true},
		{"other date", Filter{Date: date(2024, 1, 16)}, false},
		{"range containing", Filter{StartDate: date(2024, 1, 1), EndDate: date(2024, 1, 31)}, true},
		{"range boundary start", Filter{StartDate: date(2024, 1, 15), EndDate: date(2024, 1, 31)}, true},
		{"range boundary end", Filter{StartDate: date(2024, 1, 1), EndDate: date(2024, 1, 15)}, true},
		{"range excluding", Filter{StartDate: date(2024, 2, 1), EndDate: date(2024, 2, 28)}, false},
		{"range overrides date", Filter{Date: date(2024, 1, 16), StartDate: date(2024, 1, 1), EndDate: date(2024, 1, 31)}, true},
		{"department and section", Filter{Department: "CSE", Section: "A"}, true},
		{"wrong section", Filter{Department: "CSE", Section: "B"}, false},
		{"status", Filter{Status: StatusPresent}, true},
		{"wrong status", Filter{Status: StatusLate}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(rec); got != tt.want {
				t.Errorf("Matches = %v, want %v", got, tt.want)
			}
		})
	}
}
