package report

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"campusattend/internal/attendance"
	"campusattend/internal/student"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedRecords(t *testing.T, store attendance.Store, recs []attendance.Record) {
	t.Helper()
	ctx := context.Background()
	for i, rec := range recs {
		if rec.ID == "" {
			rec.ID = fmt.Sprintf("rec-%d", i)
		}
		if rec.Period == "" {
			rec.Period = "Period 1"
		}
		if rec.Timestamp.IsZero() {
			rec.Timestamp = rec.Date.Add(9 * time.Hour)
		}
		_, err := store.Upsert(ctx, rec)
		require.NoError(t, err)
	}
}

func TestDepartmentWiseCounts(t *testing.T) {
	records := attendance.NewMemoryStore()
	svc := NewService(records, student.NewMemoryStore())

	// 8 present / 2 absent in CSE.
	var recs []attendance.Record
	for i := 0; i < 8; i++ {
		recs = append(recs, attendance.Record{
			StudentID: fmt.Sprintf("CSE%03d", i+1), Date: date(2024, 1, 15),
			Status: attendance.StatusPresent, Department: "CSE",
		})
	}
	for i := 8; i < 10; i++ {
		recs = append(recs, attendance.Record{
			StudentID: fmt.Sprintf("CSE%03d", i+1), Date: date(2024, 1, 15),
			Status: attendance.StatusAbsent, Department: "CSE",
		})
	}
	seedRecords(t, records, recs)

	out, err := svc.DepartmentWise(context.Background(), attendance.Filter{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "CSE", out[0].Department)
	require.Equal(t, 8, out[0].Present)
	require.Equal(t, 2, out[0].Absent)
	require.Equal(t, 10, out[0].Total)
	require.Equal(t, 80.00, out[0].Rate)
}

func TestDepartmentWiseSortsByRateDescending(t *testing.T) {
	records := attendance.NewMemoryStore()
	svc := NewService(records, student.NewMemoryStore())

	seedRecords(t, records, []attendance.Record{
		{StudentID: "CSE001", Date: date(2024, 1, 15), Status: attendance.StatusPresent, Department: "CSE"},
		{StudentID: "CSE002", Date: date(2024, 1, 15), Status: attendance.StatusAbsent, Department: "CSE"},
		{StudentID: "ECE001", Date: date(2024, 1, 15), Status: attendance.StatusPresent, Department: "ECE"},
		{StudentID: "MEC001", Date: date(2024, 1, 15), Status: attendance.StatusAbsent, Department: "MEC"},
	})

	out, err := svc.DepartmentWise(context.Background(), attendance.Filter{})
	require.NoError(t, err)
	require.Len(t, out, 3)
	require.Equal(t, "ECE", out[0].Department) // 100%
	require.Equal(t, "CSE", out[1].Department) // 50%
	require.Equal(t, "MEC", out[2].Department) // 0%
}

func TestSectionWiseSortsByKeyNotRate(t *testing.T) {
	records := attendance.NewMemoryStore()
	svc := NewService(records, student.NewMemoryStore())

	seedRecords(t, records, []attendance.Record{
		// CSE/B has the better rate but must sort after CSE/A.
		{StudentID: "S1", Date: date(2024, 1, 15), Status: attendance.StatusAbsent, Department: "CSE", Section: "A"},
		{StudentID: "S2", Date: date(2024, 1, 15), Status: attendance.StatusPresent, Department: "CSE", Section: "B"},
		{StudentID: "S3", Date: date(2024, 1, 15), Status: attendance.StatusPresent, Department: "AID", Section: "A"},
	})

	out, err := svc.SectionWise(context.Background(), attendance.Filter{})
	require.NoError(t, err)
	require.Len(t, out, 3)
	require.Equal(t, "AID", out[0].Department)
	require.Equal(t, "CSE", out[1].Department)
	require.Equal(t, "A", out[1].Section)
	require.Equal(t, "CSE", out[2].Department)
	require.Equal(t, "B", out[2].Section)
}

func TestAttendanceSummarySortsByDateAscending(t *testing.T) {
	records := attendance.NewMemoryStore()
	svc := NewService(records, student.NewMemoryStore())

	seedRecords(t, records, []attendance.Record{
		{StudentID: "S1", Date: date(2024, 1, 17), Status: attendance.StatusPresent},
		{StudentID: "S1", Date: date(2024, 1, 15), Status: attendance.StatusPresent},
		{StudentID: "S2", Date: date(2024, 1, 15), Status: attendance.StatusAbsent},
		{StudentID: "S1", Date: date(2024, 1, 16), Status: attendance.StatusLate},
	})

	out, err := svc.AttendanceSummary(context.Background(), attendance.Filter{})
	require.NoError(t, err)
	require.Len(t, out, 3)
	require.True(t, out[0].Date.Equal(date(2024, 1, 15)))
	require.True(t, out[1].Date.Equal(date(2024, 1, 16)))
	require.True(t, out[2].Date.Equal(date(2024, 1, 17)))

	require.Equal(t, 1, out[0].Present)
	require.Equal(t, 1, out[0].Absent)
	require.Equal(t, 2, out[0].Total)
	require.Equal(t, 50.00, out[0].Rate)
	require.Equal(t, 1, out[1].Late)
	require.Equal(t, 0.00, out[1].Rate)
}

func TestStudentWiseAttachesRosterEntry(t *testing.T) {
	records := attendance.NewMemoryStore()
	roster := student.NewMemoryStore()
	svc := NewService(records, roster)
	ctx := context.Background()

	require.NoError(t, roster.CreateStudent(ctx, student.Student{
		StudentID: "CSE001", Name: "Anita Rao", Department: "CSE", Section: "A", IsActive: true,
	}))

	seedRecords(t, records, []attendance.Record{
		{StudentID: "CSE001", Date: date(2024, 1, 15), Status: attendance.StatusPresent},
		{StudentID: "GHOST9", Date: date(2024, 1, 15), Status: attendance.StatusAbsent},
	})

	out, err := svc.StudentWise(ctx, attendance.Filter{})
	require.NoError(t, err)
	require.Len(t, out, 2)

	// Descending by rate: CSE001 (100%) before GHOST9 (0%).
	require.Equal(t, "CSE001", out[0].StudentID)
	require.NotNil(t, out[0].Student)
	require.Equal(t, "Anita Rao", out[0].Student.Name)

	// Unknown ids keep their row with a nil roster entry.
	require.Equal(t, "GHOST9", out[1].StudentID)
	require.Nil(t, out[1].Student)
}

func TestMonthlyTrends(t *testing.T) {
	records := attendance.NewMemoryStore()
	svc := NewService(records, student.NewMemoryStore())

	seedRecords(t, records, []attendance.Record{
		{StudentID: "S1", Date: date(2024, 2, 10), Status: attendance.StatusPresent},
		{StudentID: "S1", Date: date(2024, 1, 10), Status: attendance.StatusPresent},
		{StudentID: "S2", Date: date(2024, 1, 11), Status: attendance.StatusAbsent},
		{StudentID: "S1", Date: date(2023, 12, 20), Status: attendance.StatusPresent},
	})

	out, err := svc.MonthlyTrends(context.Background(), 0, attendance.Filter{})
	require.NoError(t, err)
	require.Len(t, out, 3)
	require.Equal(t, 2023, out[0].Year)
	require.Equal(t, time.December, out[0].Month)
	require.Equal(t, time.January, out[1].Month)
	require.Equal(t, time.February, out[2].Month)
	require.Equal(t, 50.00, out[1].Rate)

	// Year restriction drops other years entirely.
	out, err = svc.MonthlyTrends(context.Background(), 2024, attendance.Filter{})
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, time.January, out[0].Month)
}

func TestTallyRateRounding(t *testing.T) {
	tests := []struct {
		name     string
		statuses []attendance.Status
		want     float64
	}{
		{"empty group", nil, 0},
		{"one third", []attendance.Status{attendance.StatusPresent, attendance.StatusAbsent, attendance.StatusAbsent}, 33.33},
		{"two thirds", []attendance.Status{attendance.StatusPresent, attendance.StatusPresent, attendance.StatusAbsent}, 66.67},
		{"all present", []attendance.Status{attendance.StatusPresent}, 100},
		{"late counts against", []attendance.Status{attendance.StatusPresent, attendance.StatusLate}, 50},
		{"unknown excluded from total", []attendance.Status{attendance.StatusPresent, "holiday"}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tally Tally
			for _, st := range tt.statuses {
				tally.add(st)
			}
			tally.finish()
			require.Equal(t, tt.want, tally.Rate)
		})
	}
}

func TestBuildDashboard(t *testing.T) {
	records := attendance.NewMemoryStore()
	roster := student.NewMemoryStore()
	svc := NewService(records, roster)
	ctx := context.Background()

	require.NoError(t, roster.CreateStudent(ctx, student.Student{StudentID: "CSE001", Name: "A", IsActive: true}))
	require.NoError(t, roster.CreateStudent(ctx, student.Student{StudentID: "CSE002", Name: "B", IsActive: true}))
	require.NoError(t, roster.CreateStudent(ctx, student.Student{StudentID: "CSE003", Name: "C", IsActive: false}))
	require.NoError(t, roster.CreateDepartment(ctx, student.Department{Name: "Computer Science", Code: "CSE", Sections: 2}))

	now := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
	today := date(2024, 1, 15)

	seedRecords(t, records, []attendance.Record{
		{StudentID: "CSE001", Date: today, Status: attendance.StatusPresent, Timestamp: now.Add(-time.Minute)},
		{StudentID: "CSE002", Date: today, Status: attendance.StatusAbsent, Timestamp: now.Add(-2 * time.Minute)},
		{StudentID: "CSE001", Date: date(2024, 1, 14), Status: attendance.StatusPresent, Timestamp: now.Add(-24 * time.Hour)},
	})

	dash, err := svc.BuildDashboard(ctx, now)
	require.NoError(t, err)
	require.True(t, dash.Date.Equal(today))
	require.Equal(t, 1, dash.Today.Present)
	require.Equal(t, 1, dash.Today.Absent)
	require.Equal(t, 2, dash.Today.Total)
	require.Equal(t, 50.00, dash.Today.Rate)
	require.Equal(t, 2, dash.TotalStudents)
	require.Equal(t, 1, dash.TotalDepartments)
	require.Len(t, dash.Recent, 3)
	require.Equal(t, "CSE001", dash.Recent[0].StudentID)
}
