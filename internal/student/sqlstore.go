package student

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// SQLStore keeps the roster in Postgres or SQLite; queries are rebound for
// the active driver.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore creates a store over an open connection.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) CreateStudent(ctx context.Context, st Student) error {
	query := s.db.Rebind(`
		INSERT INTO students (student_id, name, department, section, is_active)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (student_id) DO NOTHING
	`)
	res, err := s.db.ExecContext(ctx, query, st.StudentID, st.Name, st.Department, st.Section, st.IsActive)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrExists
	}
	return nil
}

func (s *SQLStore) GetStudent(ctx context.Context, studentID string) (Student, error) {
	var st Student
	query := s.db.Rebind(`SELECT student_id, name, department, section, is_active
		FROM students WHERE student_id = ?`)
	if err := s.db.GetContext(ctx, &st, query, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Student{}, ErrNotFound
		}
		return Student{}, err
	}
	return st, nil
}

func (s *SQLStore) ListStudents(ctx context.Context) ([]Student, error) {
	var students []Student
	query := `SELECT student_id, name, department, section, is_active
		FROM students ORDER BY student_id`
	if err := s.db.SelectContext(ctx, &students, query); err != nil {
		return nil, err
	}
	return students, nil
}

func (s *SQLStore) CountActiveStudents(ctx context.Context) (int, error) {
	var n int
	query := s.db.Rebind(`SELECT COUNT(*) FROM students WHERE is_active = ?`)
	if err := s.db.GetContext(ctx, &n, query, true); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *SQLStore) CreateDepartment(ctx context.Context, dep Department) error {
	query := s.db.Rebind(`
		INSERT INTO departments (name, code, sections)
		VALUES (?, ?, ?)
		ON CONFLICT (code) DO NOTHING
	`)
	res, err := s.db.ExecContext(ctx, query, dep.Name, dep.Code, dep.Sections)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrExists
	}
	return nil
}

func (s *SQLStore) ListDepartments(ctx context.Context) ([]Department, error) {
	var deps []Department
	query := `SELECT name, code, sections FROM departments ORDER BY code`
	if err := s.db.SelectContext(ctx, &deps, query); err != nil {
		return nil, err
	}
	return deps, nil
}

func (s *SQLStore) CountDepartments(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM departments`); err != nil {
		return 0, err
	}
	return n, nil
}
