// Package student holds the roster entities the attendance core reads:
// students and the departments they belong to.
package student

import (
	"context"
	"errors"
)

// ErrNotFound signals a lookup by id that matched nothing.
var ErrNotFound = errors.New("student: not found")

// ErrExists signals a create that collides with an existing id or code.
var ErrExists = errors.New("student: already exists")

// Student is one enrolled student. StudentID is the stable external id
// (e.g. "CSE001"), not a database key.
type Student struct {
	StudentID  string `db:"student_id" json:"studentId"`
	Name       string `db:"name" json:"name"`
	Department string `db:"department" json:"department"`
	Section    string `db:"section" json:"section"`
	IsActive   bool   `db:"is_active" json:"isActive"`
}

// Department groups students; Sections is the number of sections it runs.
type Department struct {
	Name     string `db:"name" json:"name"`
	Code     string `db:"code" json:"code"`
	Sections int    `db:"sections" json:"sections"`
}

// Store persists the roster. The attendance core only reads from it; the
// CRUD surface exists for the admin routes.
type Store interface {
	CreateStudent(ctx context.Context, st Student) error
	GetStudent(ctx context.Context, studentID string) (Student, error)
	ListStudents(ctx context.Context) ([]Student, error)
	CountActiveStudents(ctx context.Context) (int, error)

	CreateDepartment(ctx context.Context, dep Department) error
	ListDepartments(ctx context.Context) ([]Department, error)
	CountDepartments(ctx context.Context) (int, error)
}
