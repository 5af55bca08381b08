package report

import (
	"encoding/csv"
	"io"
	"time"

	"campusattend/internal/attendance"
	"campusattend/internal/student"
)

var csvHeader = []string{
	"date", "student_id", "student_name", "department", "section",
	"period", "status", "marked_by", "timestamp",
}

// WriteCSV renders records in the fixed export column order. resolve maps a
// student id to its roster entry (nil when unknown); markerName maps the
// marking identity to a display name. Records with no marking identity show
// "System". Fields containing commas or newlines come out quoted, which is
// a deliberate tightening over exports that leave them bare.
func WriteCSV(w io.Writer, records []attendance.Record, resolve func(string) *student.Student, markerName func(string) string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, rec := range records {
		name := ""
		if resolve != nil {
			if st := resolve(rec.StudentID); st != nil {
				name = st.Name
			}
		}
		marker := "System"
		if rec.MarkedBy != "" {
			marker = rec.MarkedBy
			if markerName != nil {
				if display := markerName(rec.MarkedBy); display != "" {
					marker = display
				}
			}
		}
		row := []string{
			rec.Date.Format("2006-01-02"),
			rec.StudentID,
			name,
			rec.Department,
			rec.Section,
			rec.Period,
			string(rec.Status),
			marker,
			rec.Timestamp.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
