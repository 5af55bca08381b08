package attendance

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
)

// MarkInput is one requested attendance mark. Status arrives raw and is
// validated against the closed status set.
type MarkInput struct {
	StudentID  string
	Date       time.Time
	Period     string
	Status     string
	Department string
	Section    string
	Notes      string
}

// BulkInput marks many students in one session. Date, period, department
// and section are shared across the batch unless an item overrides them.
type BulkInput struct {
	Date       time.Time
	Period     string
	Department string
	Section    string
	Items      []BulkItem
}

// BulkItem is one student inside a bulk session.
type BulkItem struct {
	StudentID  string
	Status     string
	Notes      string
	Date       time.Time
	Period     string
	Department string
	Section    string
}

// BulkFailure describes one rejected item of a bulk session.
type BulkFailure struct {
	Index     int    `json:"index"`
	StudentID string `json:"studentId"`
	Reason    string `json:"reason"`
}

// BulkResult separates the marks that landed from the items that failed.
// Each item is its own atomic upsert; a failure never rolls back the rest
// of the batch.
type BulkResult struct {
	Marked []Record      `json:"marked"`
	Failed []BulkFailure `json:"failed"`
}

// QueryResult is one page of a filtered query.
type QueryResult struct {
	Records   []Record `json:"records"`
	Total     int      `json:"total"`
	Page      int      `json:"page"`
	PageCount int      `json:"pageCount"`
}

// StudentStats summarizes one student's history.
type StudentStats struct {
	TotalDays         int `json:"totalDays"`
	Present           int `json:"present"`
	Absent            int `json:"absent"`
	Late              int `json:"late"`
	PresentPercentage int `json:"presentPercentage"`
}

// StatusCounts aggregates a filtered record set by status.
type StatusCounts struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Late    int `json:"late"`
	Total   int `json:"total"`
}

// Service implements the attendance write and query paths on top of a
// Store. The marking identity is an explicit parameter on every write, not
// ambient request state.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a service backed by a store.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// MarkOne validates and upserts a single mark. markedBy identifies the
// authenticated caller and may be empty for system-generated records.
func (s *Service) MarkOne(ctx context.Context, in MarkInput, markedBy string, method Method) (Record, error) {
	rec, err := s.buildRecord(in, markedBy, method)
	if err != nil {
		return Record{}, err
	}
	return s.store.Upsert(ctx, rec)
}

// MarkBulk applies MarkOne to every item of the session. Invalid items are
// reported in the result, never silently dropped or defaulted.
func (s *Service) MarkBulk(ctx context.Context, in BulkInput, markedBy string, method Method) (BulkResult, error) {
	res := BulkResult{Marked: []Record{}, Failed: []BulkFailure{}}
	for i, item := range in.Items {
		mi := MarkInput{
			StudentID:  item.StudentID,
			Date:       in.Date,
			Period:     in.Period,
			Status:     item.Status,
			Department: in.Department,
			Section:    in.Section,
			Notes:      item.Notes,
		}
		if !item.Date.IsZero() {
			mi.Date = item.Date
		}
		if item.Period != "" {
			mi.Period = item.Period
		}
		if item.Department != "" {
			mi.Department = item.Department
		}
		if item.Section != "" {
			mi.Section = item.Section
		}
		rec, err := s.MarkOne(ctx, mi, markedBy, method)
		if err != nil {
			res.Failed = append(res.Failed, BulkFailure{Index: i, StudentID: item.StudentID, Reason: err.Error()})
			continue
		}
		res.Marked = append(res.Marked, rec)
	}
	return res, nil
}

func (s *Service) buildRecord(in MarkInput, markedBy string, method Method) (Record, error) {
	if in.StudentID == "" {
		return Record{}, &ValidationError{Field: "studentId", Reason: "required"}
	}
	if in.Date.IsZero() {
		return Record{}, &ValidationError{Field: "date", Reason: "required"}
	}
	if in.Period == "" {
		return Record{}, &ValidationError{Field: "period", Reason: "required"}
	}
	status, err := ParseStatus(in.Status)
	if err != nil {
		return Record{}, err
	}
	if method == "" {
		method = MethodManual
	}
	return Record{
		ID:         uuid.NewString(),
		StudentID:  in.StudentID,
		Date:       Day(in.Date),
		Period:     in.Period,
		Status:     status,
		MarkedBy:   markedBy,
		Method:     method,
		Department: in.Department,
		Section:    in.Section,
		Timestamp:  s.now().UTC(),
		Notes:      in.Notes,
	}, nil
}

// Query returns one page of records matching the filter.
func (s *Service) Query(ctx context.Context, f Filter, page, limit int) (QueryResult, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	recs, total, err := s.store.Page(ctx, f, page, limit)
	if err != nil {
		return QueryResult{}, err
	}
	if recs == nil {
		recs = []Record{}
	}
	return QueryResult{
		Records:   recs,
		Total:     total,
		Page:      page,
		PageCount: (total + limit - 1) / limit,
	}, nil
}

// List returns every record matching the filter in query order; the export
// path uses this to render complete result sets.
func (s *Service) List(ctx context.Context, f Filter) ([]Record, error) {
	recs, err := s.store.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []Record{}
	}
	return recs, nil
}

// ByDate returns one day's records grouped by period.
func (s *Service) ByDate(ctx context.Context, date time.Time) (map[string][]Record, error) {
	if date.IsZero() {
		return nil, &ValidationError{Field: "date", Reason: "required"}
	}
	recs, err := s.store.List(ctx, Filter{Date: Day(date)})
	if err != nil {
		return nil, err
	}
	grouped := make(map[string][]Record)
	for _, rec := range recs {
		grouped[rec.Period] = append(grouped[rec.Period], rec)
	}
	return grouped, nil
}

// StudentHistory returns one student's records plus summary stats.
func (s *Service) StudentHistory(ctx context.Context, studentID string, f Filter) ([]Record, StudentStats, error) {
	if studentID == "" {
		return nil, StudentStats{}, &ValidationError{Field: "studentId", Reason: "required"}
	}
	f.StudentID = studentID
	recs, err := s.store.List(ctx, f)
	if err != nil {
		return nil, StudentStats{}, err
	}
	if recs == nil {
		recs = []Record{}
	}
	return recs, computeStudentStats(recs), nil
}

// Stats aggregates the filtered record set by status.
func (s *Service) Stats(ctx context.Context, f Filter) (StatusCounts, error) {
	recs, err := s.store.List(ctx, f)
	if err != nil {
		return StatusCounts{}, err
	}
	var counts StatusCounts
	for _, rec := range recs {
		switch rec.Status {
		case StatusPresent:
			counts.Present++
		case StatusAbsent:
			counts.Absent++
		case StatusLate:
			counts.Late++
		default:
			continue
		}
		counts.Total++
	}
	return counts, nil
}

func computeStudentStats(recs []Record) StudentStats {
	var stats StudentStats
	for _, rec := range recs {
		switch rec.Status {
		case StatusPresent:
			stats.Present++
		case StatusAbsent:
			stats.Absent++
		case StatusLate:
			stats.Late++
		default:
			continue
		}
		stats.TotalDays++
	}
	if stats.TotalDays > 0 {
		stats.PresentPercentage = int(math.Round(float64(stats.Present) / float64(stats.TotalDays) * 100))
	}
	return stats
}
