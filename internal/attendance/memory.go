package attendance

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is a map-backed Store for dev mode and tests. The mutex makes
// Upsert atomic on the uniqueness key, mirroring the SQL stores' conflict
// handling.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func recordKey(rec Record) string {
	return rec.StudentID + "\x00" + rec.Date.Format("2006-01-02") + "\x00" + rec.Period
}

func (m *MemoryStore) Upsert(_ context.Context, rec Record) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := recordKey(rec)
	if existing, ok := m.records[key]; ok {
		rec.ID = existing.ID
	}
	m.records[key] = rec
	return rec, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rec := range m.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return Record{}, ErrNotFound
}

func (m *MemoryStore) List(_ context.Context, f Filter) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Record
	for _, rec := range m.records {
		if f.Matches(rec) {
			out = append(out, rec)
		}
	}
	sortByDate(out)
	return out, nil
}

func (m *MemoryStore) Page(ctx context.Context, f Filter, page, limit int) ([]Record, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	all, err := m.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total := len(all)
	start := (page - 1) * limit
	if start >= total {
		return nil, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (m *MemoryStore) Recent(_ context.Context, n int) ([]Record, error) {
	if n <= 0 {
		n = 5
	}
	m.mu.RLock()
	out := make([]Record, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec)
	}
	m.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// sortByDate applies the canonical query order: date descending, then
// period ascending. Student id breaks remaining ties so pagination sees a
// total order.
func sortByDate(recs []Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		if !recs[i].Date.Equal(recs[j].Date) {
			return recs[i].Date.After(recs[j].Date)
		}
		if recs[i].Period != recs[j].Period {
			return recs[i].Period < recs[j].Period
		}
		return recs[i].StudentID < recs[j].StudentID
	})
}
