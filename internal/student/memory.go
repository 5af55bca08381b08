package student

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is a map-backed Store for dev mode and tests.
type MemoryStore struct {
	mu          sync.RWMutex
	students    map[string]Student
	departments map[string]Department
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		students:    make(map[string]Student),
		departments: make(map[string]Department),
	}
}

func (m *MemoryStore) CreateStudent(_ context.Context, st Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.students[st.StudentID]; ok {
		return ErrExists
	}
	m.students[st.StudentID] = st
	return nil
}

func (m *MemoryStore) GetStudent(_ context.Context, studentID string) (Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.students[studentID]
	if !ok {
		return Student{}, ErrNotFound
	}
	return st, nil
}

func (m *MemoryStore) ListStudents(_ context.Context) ([]Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Student, 0, len(m.students))
	for _, st := range m.students {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out, nil
}

func (m *MemoryStore) CountActiveStudents(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, st := range m.students {
		if st.IsActive {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) CreateDepartment(_ context.Context, dep Department) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.departments[dep.Code]; ok {
		return ErrExists
	}
	m.departments[dep.Code] = dep
	return nil
}

func (m *MemoryStore) ListDepartments(_ context.Context) ([]Department, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Department, 0, len(m.departments))
	for _, dep := range m.departments {
		out = append(out, dep)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *MemoryStore) CountDepartments(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.departments), nil
}
