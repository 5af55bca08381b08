package attendance

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"campusattend/internal/store"
)

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	db, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewSQLStore(db.Client)
}

func TestSQLStoreUpsertConflict(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	day := date(2024, 1, 15)

	first, err := s.Upsert(ctx, Record{
		ID: "id-1", StudentID: "CSE001", Date: day, Period: "Period 1",
		Status: StatusPresent, MarkedBy: "u-1", Method: MethodManual,
		Department: "CSE", Section: "A", Timestamp: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	// Same (student, date, period) with a fresh id must update in place and
	// keep the original row id.
	second, err := s.Upsert(ctx, Record{
		ID: "id-2", StudentID: "CSE001", Date: day, Period: "Period 1",
		Status: StatusLate, MarkedBy: "u-2", Method: MethodManual,
		Department: "CSE", Section: "A", Timestamp: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("id changed on conflict: %s -> %s", first.ID, second.ID)
	}
	if second.Status != StatusLate {
		t.Errorf("status = %s, want late", second.Status)
	}
	if second.MarkedBy != "u-2" {
		t.Errorf("marked_by = %s, want u-2", second.MarkedBy)
	}

	all, err := s.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("rows = %d, want 1", len(all))
	}
}

func TestSQLStoreFilterAndOrder(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	seed := []Record{
		{ID: "a", StudentID: "S1", Date: date(2024, 1, 15), Period: "Period 2", Status: StatusPresent, Department: "CSE", Section: "A"},
		{ID: "b", StudentID: "S1", Date: date(2024, 1, 16), Period: "Period 1", Status: StatusAbsent, Department: "CSE", Section: "A"},
		{ID: "c", StudentID: "S2", Date: date(2024, 1, 15), Period: "Period 1", Status: StatusPresent, Department: "ECE", Section: "B"},
	}
	for _, rec := range seed {
		rec.Method = MethodManual
		rec.Timestamp = time.Now().UTC()
		if _, err := s.Upsert(ctx, rec); err != nil {
			t.Fatalf("seed %s: %v", rec.ID, err)
		}
	}

	all, err := s.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	wantOrder := []string{"b", "c", "a"}
	for i, id := range wantOrder {
		if all[i].ID != id {
			t.Errorf("position %d = %s, want %s", i, all[i].ID, id)
		}
	}

	cse, err := s.List(ctx, Filter{Department: "CSE"})
	if err != nil {
		t.Fatalf("filtered list: %v", err)
	}
	if len(cse) != 2 {
		t.Errorf("CSE rows = %d, want 2", len(cse))
	}

	ranged, err := s.List(ctx, Filter{StartDate: date(2024, 1, 16), EndDate: date(2024, 1, 31)})
	if err != nil {
		t.Fatalf("ranged list: %v", err)
	}
	if len(ranged) != 1 || ranged[0].ID != "b" {
		t.Errorf("ranged rows = %v, want just b", ranged)
	}
}

func TestSQLStorePage(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		_, err := s.Upsert(ctx, Record{
			ID:        string(rune('a' + i)),
			StudentID: "S1",
			Date:      date(2024, 1, 10+i),
			Period:    "Period 1",
			Status:    StatusPresent,
			Method:    MethodManual,
			Timestamp: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}

	page1, total, err := s.Page(ctx, Filter{}, 1, 3)
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if total != 7 {
		t.Errorf("total = %d, want 7", total)
	}
	if len(page1) != 3 {
		t.Fatalf("page 1 rows = %d, want 3", len(page1))
	}

	page3, _, err := s.Page(ctx, Filter{}, 3, 3)
	if err != nil {
		t.Fatalf("page 3: %v", err)
	}
	if len(page3) != 1 {
		t.Errorf("page 3 rows = %d, want 1", len(page3))
	}

	page9, _, err := s.Page(ctx, Filter{}, 9, 3)
	if err != nil {
		t.Fatalf("page 9: %v", err)
	}
	if len(page9) != 0 {
		t.Errorf("past-the-end page rows = %d, want 0", len(page9))
	}
}

func TestSQLStoreGetMissing(t *testing.T) {
	s := newSQLiteStore(t)
	if _, err := s.Get(context.Background(), "missing"); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
