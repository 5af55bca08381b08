// Package report computes the aggregation reports served under /reports.
// Every report recomputes from the record store; there is no caching layer
// in front of it.
package report

import (
	"context"
	"math"
	"sort"
	"time"

	"campusattend/internal/attendance"
	"campusattend/internal/student"
)

// Tally accumulates status counts for one group. Records carrying a status
// outside the closed set are excluded from Total.
type Tally struct {
	Present int     `json:"present"`
	Absent  int     `json:"absent"`
	Late    int     `json:"late"`
	Total   int     `json:"total"`
	Rate    float64 `json:"rate"`
}

func (t *Tally) add(status attendance.Status) {
	switch status {
	case attendance.StatusPresent:
		t.Present++
	case attendance.StatusAbsent:
		t.Absent++
	case attendance.StatusLate:
		t.Late++
	default:
		return
	}
	t.Total++
}

// finish computes the attendance rate: present over total as a percentage,
// rounded to two decimals, zero when the group is empty.
func (t *Tally) finish() {
	if t.Total > 0 {
		t.Rate = round2(float64(t.Present) / float64(t.Total) * 100)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// DateSummary is one day's aggregate.
type DateSummary struct {
	Date time.Time `json:"date"`
	Tally
}

// DepartmentSummary is one department's aggregate.
type DepartmentSummary struct {
	Department string `json:"department"`
	Tally
}

// SectionSummary is one (department, section) pair's aggregate.
type SectionSummary struct {
	Department string `json:"department"`
	Section    string `json:"section"`
	Tally
}

// PeriodSummary is one period's aggregate.
type PeriodSummary struct {
	Period string `json:"period"`
	Tally
}

// StudentSummary is one student's aggregate. Student is nil when the
// roster has no entry for the id; the row is kept regardless.
type StudentSummary struct {
	StudentID string           `json:"studentId"`
	Student   *student.Student `json:"student"`
	Tally
}

// MonthlySummary is one calendar month's aggregate.
type MonthlySummary struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Tally
}

// Dashboard is the landing-page snapshot: today's tally, roster counts and
// the most recent marking activity.
type Dashboard struct {
	Date             time.Time           `json:"date"`
	Today            Tally               `json:"today"`
	TotalStudents    int                 `json:"totalStudents"`
	TotalDepartments int                 `json:"totalDepartments"`
	Recent           []attendance.Record `json:"recent"`
}

// Service computes reports over the record store and the roster.
type Service struct {
	records  attendance.Store
	students student.Store
}

// NewService creates a reporting service.
func NewService(records attendance.Store, students student.Store) *Service {
	return &Service{records: records, students: students}
}

// AttendanceSummary aggregates per day, ascending by date.
func (s *Service) AttendanceSummary(ctx context.Context, f attendance.Filter) ([]DateSummary, error) {
	recs, err := s.records.List(ctx, f)
	if err != nil {
		return nil, err
	}
	// Dates are normalized to UTC midnight so rows read back from different
	// drivers group identically.
	groups := make(map[time.Time]*DateSummary)
	for _, rec := range recs {
		day := attendance.Day(rec.Date)
		g, ok := groups[day]
		if !ok {
			g = &DateSummary{Date: day}
			groups[day] = g
		}
		g.add(rec.Status)
	}
	out := make([]DateSummary, 0, len(groups))
	for _, g := range groups {
		g.finish()
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// DepartmentWise aggregates per department, best attendance rate first.
func (s *Service) DepartmentWise(ctx context.Context, f attendance.Filter) ([]DepartmentSummary, error) {
	recs, err := s.records.List(ctx, f)
	if err != nil {
		return nil, err
	}
	groups := make(map[string]*DepartmentSummary)
	for _, rec := range recs {
		g, ok := groups[rec.Department]
		if !ok {
			g = &DepartmentSummary{Department: rec.Department}
			groups[rec.Department] = g
		}
		g.add(rec.Status)
	}
	out := make([]DepartmentSummary, 0, len(groups))
	for _, g := range groups {
		g.finish()
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rate != out[j].Rate {
			return out[i].Rate > out[j].Rate
		}
		return out[i].Department < out[j].Department
	})
	return out, nil
}

// SectionWise aggregates per (department, section) pair. Unlike the other
// wise reports this sorts by key, not by rate.
func (s *Service) SectionWise(ctx context.Context, f attendance.Filter) ([]SectionSummary, error) {
	recs, err := s.records.List(ctx, f)
	if err != nil {
		return nil, err
	}
	type key struct{ department, section string }
	groups := make(map[key]*SectionSummary)
	for _, rec := range recs {
		k := key{rec.Department, rec.Section}
		g, ok := groups[k]
		if !ok {
			g = &SectionSummary{Department: rec.Department, Section: rec.Section}
			groups[k] = g
		}
		g.add(rec.Status)
	}
	out := make([]SectionSummary, 0, len(groups))
	for _, g := range groups {
		g.finish()
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Department != out[j].Department {
			return out[i].Department < out[j].Department
		}
		return out[i].Section < out[j].Section
	})
	return out, nil
}

// PeriodWise aggregates per period, ascending by period.
func (s *Service) PeriodWise(ctx context.Context, f attendance.Filter) ([]PeriodSummary, error) {
	recs, err := s.records.List(ctx, f)
	if err != nil {
		return nil, err
	}
	groups := make(map[string]*PeriodSummary)
	for _, rec := range recs {
		g, ok := groups[rec.Period]
		if !ok {
			g = &PeriodSummary{Period: rec.Period}
			groups[rec.Period] = g
		}
		g.add(rec.Status)
	}
	out := make([]PeriodSummary, 0, len(groups))
	for _, g := range groups {
		g.finish()
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out, nil
}

// StudentWise aggregates per student, best attendance rate first, and
// attaches the roster entry when one exists.
func (s *Service) StudentWise(ctx context.Context, f attendance.Filter) ([]StudentSummary, error) {
	recs, err := s.records.List(ctx, f)
	if err != nil {
		return nil, err
	}
	groups := make(map[string]*StudentSummary)
	for _, rec := range recs {
		g, ok := groups[rec.StudentID]
		if !ok {
			g = &StudentSummary{StudentID: rec.StudentID}
			groups[rec.StudentID] = g
		}
		g.add(rec.Status)
	}
	out := make([]StudentSummary, 0, len(groups))
	for _, g := range groups {
		g.finish()
		if st, err := s.students.GetStudent(ctx, g.StudentID); err == nil {
			copied := st
			g.Student = &copied
		}
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rate != out[j].Rate {
			return out[i].Rate > out[j].Rate
		}
		return out[i].StudentID < out[j].StudentID
	})
	return out, nil
}

// MonthlyTrends aggregates per calendar month, ascending. A non-zero year
// restricts the report to that year.
func (s *Service) MonthlyTrends(ctx context.Context, year int, f attendance.Filter) ([]MonthlySummary, error) {
	recs, err := s.records.List(ctx, f)
	if err != nil {
		return nil, err
	}
	type key struct {
		year  int
		month time.Month
	}
	groups := make(map[key]*MonthlySummary)
	for _, rec := range recs {
		day := attendance.Day(rec.Date)
		y, m := day.Year(), day.Month()
		if year != 0 && y != year {
			continue
		}
		k := key{y, m}
		g, ok := groups[k]
		if !ok {
			g = &MonthlySummary{Year: y, Month: m}
			groups[k] = g
		}
		g.add(rec.Status)
	}
	out := make([]MonthlySummary, 0, len(groups))
	for _, g := range groups {
		g.finish()
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out, nil
}

// BuildDashboard computes the snapshot for the day containing now. "Today"
// means the UTC calendar day; the cutoff is UTC midnight so the snapshot is
// deterministic across server timezones.
func (s *Service) BuildDashboard(ctx context.Context, now time.Time) (Dashboard, error) {
	today := attendance.Day(now)
	recs, err := s.records.List(ctx, attendance.Filter{Date: today})
	if err != nil {
		return Dashboard{}, err
	}
	dash := Dashboard{Date: today}
	for _, rec := range recs {
		dash.Today.add(rec.Status)
	}
	dash.Today.finish()

	if dash.TotalStudents, err = s.students.CountActiveStudents(ctx); err != nil {
		return Dashboard{}, err
	}
	if dash.TotalDepartments, err = s.students.CountDepartments(ctx); err != nil {
		return Dashboard{}, err
	}
	recent, err := s.records.Recent(ctx, 5)
	if err != nil {
		return Dashboard{}, err
	}
	if recent == nil {
		recent = []attendance.Record{}
	}
	dash.Recent = recent
	return dash, nil
}
