package attendance

import (
	"fmt"
	"time"
)

// Status classifies one attendance mark.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
)

// ParseStatus maps raw input onto the closed status set.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPresent, StatusAbsent, StatusLate:
		return Status(s), nil
	}
	return "", &ValidationError{Field: "status", Reason: fmt.Sprintf("invalid status %q", s)}
}

// Method records how a mark was captured.
type Method string

const (
	MethodManual Method = "manual"
	MethodFacial Method = "facial-recognition"
)

// ParseMethod maps raw input onto the closed method set; empty input
// defaults to manual.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodManual, MethodFacial:
		return Method(s), nil
	case "":
		return MethodManual, nil
	}
	return "", &ValidationError{Field: "method", Reason: fmt.Sprintf("invalid method %q", s)}
}

// Record is a single attendance mark. At most one record exists per
// (StudentID, Date, Period) triple; Date is the academic day truncated to
// UTC midnight while Timestamp is the wall-clock write time.
type Record struct {
	ID         string    `db:"id" json:"id"`
	StudentID  string    `db:"student_id" json:"studentId"`
	Date       time.Time `db:"date" json:"date"`
	Period     string    `db:"period" json:"period"`
	Status     Status    `db:"status" json:"status"`
	MarkedBy   string    `db:"marked_by" json:"markedBy,omitempty"`
	Method     Method    `db:"method" json:"method"`
	Department string    `db:"department" json:"department"`
	Section    string    `db:"section" json:"section"`
	Timestamp  time.Time `db:"timestamp" json:"timestamp"`
	Notes      string    `db:"notes" json:"notes"`
}

// Day truncates t to midnight UTC. All dates are normalized through this
// before they reach the store so the uniqueness key stays deterministic.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Filter narrows record queries. Zero-valued fields are ignored; set fields
// combine with AND. When StartDate or EndDate is set the (inclusive) range
// takes precedence over the exact Date filter.
type Filter struct {
	StudentID  string
	Date       time.Time
	StartDate  time.Time
	EndDate    time.Time
	Department string
	Section    string
	Period     string
	Status     Status
}

// ranged reports whether the filter selects by date range rather than by
// exact date.
func (f Filter) ranged() bool {
	return !f.StartDate.IsZero() || !f.EndDate.IsZero()
}

// Matches reports whether rec satisfies every set field of the filter.
func (f Filter) Matches(rec Record) bool {
	if f.StudentID != "" && rec.StudentID != f.StudentID {
		return false
	}
	if f.ranged() {
		if !f.StartDate.IsZero() && rec.Date.Before(Day(f.StartDate)) {
			return false
		}
		if !f.EndDate.IsZero() && rec.Date.After(Day(f.EndDate)) {
			return false
		}
	} else if !f.Date.IsZero() && !rec.Date.Equal(Day(f.Date)) {
		return false
	}
	if f.Department != "" && rec.Department != f.Department {
		return false
	}
	if f.Section != "" && rec.Section != f.Section {
		return false
	}
	if f.Period != "" && rec.Period != f.Period {
		return false
	}
	if f.Status != "" && rec.Status != f.Status {
		return false
	}
	return true
}
