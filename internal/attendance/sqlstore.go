package attendance

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
)

// SQLStore persists records in Postgres or SQLite. Queries are written with
// ? placeholders and rebound for the active driver, so the same store works
// over pgx and go-sqlite3. The upsert relies on the unique index on
// (student_id, date, period).
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore creates a store over an open connection.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

const recordColumns = `id, student_id, date, period, status, marked_by, method, department, section, timestamp, notes`

func (s *SQLStore) Upsert(ctx context.Context, rec Record) (Record, error) {
	query := s.db.Rebind(`
		INSERT INTO attendance_records (` + recordColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (student_id, date, period) DO UPDATE SET
			status = EXCLUDED.status,
			marked_by = EXCLUDED.marked_by,
			method = EXCLUDED.method,
			department = EXCLUDED.department,
			section = EXCLUDED.section,
			timestamp = EXCLUDED.timestamp,
			notes = EXCLUDED.notes
	`)
	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.StudentID, rec.Date, rec.Period, rec.Status, rec.MarkedBy,
		rec.Method, rec.Department, rec.Section, rec.Timestamp, rec.Notes)
	if err != nil {
		return Record{}, err
	}
	return s.getByKey(ctx, rec)
}

func (s *SQLStore) getByKey(ctx context.Context, rec Record) (Record, error) {
	var out Record
	query := s.db.Rebind(`SELECT ` + recordColumns + ` FROM attendance_records
		WHERE student_id = ? AND date = ? AND period = ?`)
	err := s.db.GetContext(ctx, &out, query, rec.StudentID, rec.Date, rec.Period)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return out, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (Record, error) {
	var out Record
	query := s.db.Rebind(`SELECT ` + recordColumns + ` FROM attendance_records WHERE id = ?`)
	if err := s.db.GetContext(ctx, &out, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return out, nil
}

func (s *SQLStore) List(ctx context.Context, f Filter) ([]Record, error) {
	where, args := buildWhere(f)
	query := s.db.Rebind(`SELECT ` + recordColumns + ` FROM attendance_records` +
		where + ` ORDER BY date DESC, period ASC, student_id ASC`)
	var recs []Record
	if err := s.db.SelectContext(ctx, &recs, query, args...); err != nil {
		return nil, err
	}
	return recs, nil
}

func (s *SQLStore) Page(ctx context.Context, f Filter, page, limit int) ([]Record, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	where, args := buildWhere(f)

	var total int
	countQuery := s.db.Rebind(`SELECT COUNT(*) FROM attendance_records` + where)
	if err := s.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	query := s.db.Rebind(`SELECT ` + recordColumns + ` FROM attendance_records` +
		where + ` ORDER BY date DESC, period ASC, student_id ASC LIMIT ? OFFSET ?`)
	args = append(args, limit, (page-1)*limit)
	var recs []Record
	if err := s.db.SelectContext(ctx, &recs, query, args...); err != nil {
		return nil, 0, err
	}
	return recs, total, nil
}

func (s *SQLStore) Recent(ctx context.Context, n int) ([]Record, error) {
	if n <= 0 {
		n = 5
	}
	query := s.db.Rebind(`SELECT ` + recordColumns + ` FROM attendance_records
		ORDER BY timestamp DESC LIMIT ?`)
	var recs []Record
	if err := s.db.SelectContext(ctx, &recs, query, n); err != nil {
		return nil, err
	}
	return recs, nil
}

func buildWhere(f Filter) (string, []any) {
	var clauses []string
	var args []any
	add := func(clause string, arg any) {
		clauses = append(clauses, clause)
		args = append(args, arg)
	}
	if f.StudentID != "" {
		add("student_id = ?", f.StudentID)
	}
	if f.ranged() {
		if !f.StartDate.IsZero() {
			add("date >= ?", Day(f.StartDate))
		}
		if !f.EndDate.IsZero() {
			add("date <= ?", Day(f.EndDate))
		}
	} else if !f.Date.IsZero() {
		add("date = ?", Day(f.Date))
	}
	if f.Department != "" {
		add("department = ?", f.Department)
	}
	if f.Section != "" {
		add("section = ?", f.Section)
	}
	if f.Period != "" {
		add("period = ?", f.Period)
	}
	if f.Status != "" {
		add("status = ?", f.Status)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
