// Package handler exposes the attendance core over HTTP.
package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"campusattend/internal/attendance"
	"campusattend/internal/auth"
	"campusattend/internal/metrics"
	"campusattend/internal/queue"
	"campusattend/internal/report"
	"campusattend/internal/student"
	"campusattend/internal/user"
)

// Handler carries the services the routes dispatch into.
type Handler struct {
	att      *attendance.Service
	reports  *report.Service
	students student.Store
	users    *user.Service
	q        queue.Queue

	jwtIssuer  string
	jwtKey     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// New creates a handler.
func New(att *attendance.Service, reports *report.Service, students student.Store, users *user.Service, q queue.Queue, jwtIssuer, jwtKey string, accessTTL, refreshTTL time.Duration) *Handler {
	return &Handler{
		att:        att,
		reports:    reports,
		students:   students,
		users:      users,
		q:          q,
		jwtIssuer:  jwtIssuer,
		jwtKey:     jwtKey,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Routes mounts every endpoint on r. authed runs behind the bearer
// middleware; attendance writes additionally require a teacher or admin
// role, department creation is admin-only.
func (h *Handler) Routes(r *gin.Engine) {
	authMW := auth.Middleware(h.jwtKey, h.jwtIssuer)
	markerRole := auth.RequireRole(user.RoleTeacher, user.RoleAdmin)

	r.POST("/auth/register", h.RegisterUser)
	r.POST("/auth/login", h.Login)

	att := r.Group("/attendance", authMW)
	att.POST("/mark", markerRole, h.MarkOne)
	att.POST("/bulk", markerRole, h.MarkBulk)
	att.GET("", h.QueryAttendance)
	att.GET("/date/:date", h.AttendanceByDate)
	att.GET("/student/:studentId", h.StudentAttendance)
	att.GET("/stats", h.AttendanceStats)

	reports := r.Group("/reports", authMW)
	reports.GET("/dashboard", h.Dashboard)
	reports.GET("/attendance-summary", h.AttendanceSummary)
	reports.GET("/department-wise", h.DepartmentWise)
	reports.GET("/section-wise", h.SectionWise)
	reports.GET("/student-wise", h.StudentWise)
	reports.GET("/monthly-trends", h.MonthlyTrends)
	reports.GET("/attendance", h.GroupedReport)
	reports.GET("/export/csv", h.ExportCSV)

	students := r.Group("/students", authMW)
	students.POST("", markerRole, h.CreateStudent)
	students.GET("", h.ListStudents)
	students.GET("/:studentId", h.GetStudent)

	departments := r.Group("/departments", authMW)
	departments.POST("", auth.RequireRole(user.RoleAdmin), h.CreateDepartment)
	departments.GET("", h.ListDepartments)
}

// ---------- Auth ----------

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

func (h *Handler) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.users.Register(c.Request.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		h.writeError(c, err)
		return
	}
	tokens, err := auth.Issue(u.ID, u.Name, u.Role, h.jwtIssuer, h.jwtKey, h.accessTTL, h.refreshTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"user":          u,
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_at":    tokens.AccessExp.Unix(),
	})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	tokens, err := auth.Issue(u.ID, u.Name, u.Role, h.jwtIssuer, h.jwtKey, h.accessTTL, h.refreshTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":          u,
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_at":    tokens.AccessExp.Unix(),
	})
}

// ---------- Attendance writes ----------

type markRequest struct {
	StudentID  string `json:"studentId" binding:"required"`
	Date       string `json:"date" binding:"required"`
	Period     string `json:"period" binding:"required"`
	Status     string `json:"status" binding:"required"`
	Department string `json:"department"`
	Section    string `json:"section"`
	Notes      string `json:"notes"`
	Method     string `json:"method"`
}

func (h *Handler) MarkOne(c *gin.Context) {
	var req markRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		h.writeError(c, err)
		return
	}
	method, err := attendance.ParseMethod(req.Method)
	if err != nil {
		h.writeError(c, err)
		return
	}
	claims, _ := auth.FromContext(c)
	rec, err := h.att.MarkOne(c.Request.Context(), attendance.MarkInput{
		StudentID:  req.StudentID,
		Date:       date,
		Period:     req.Period,
		Status:     req.Status,
		Department: req.Department,
		Section:    req.Section,
		Notes:      req.Notes,
	}, claims.Subject, method)
	if err != nil {
		metrics.MarkFailures.Inc()
		h.writeError(c, err)
		return
	}
	metrics.MarksTotal.WithLabelValues(string(rec.Status), string(rec.Method)).Inc()
	h.publishMark(c, rec.ID)
	c.JSON(http.StatusOK, gin.H{"message": "attendance marked", "record": rec})
}

type bulkItemRequest struct {
	StudentID  string `json:"studentId" binding:"required"`
	Status     string `json:"status" binding:"required"`
	Notes      string `json:"notes"`
	Date       string `json:"date"`
	Period     string `json:"period"`
	Department string `json:"department"`
	Section    string `json:"section"`
}

type bulkRequest struct {
	Date       string            `json:"date" binding:"required"`
	Period     string            `json:"period" binding:"required"`
	Department string            `json:"department"`
	Section    string            `json:"section"`
	Records    []bulkItemRequest `json:"records" binding:"required,min=1"`
}

func (h *Handler) MarkBulk(c *gin.Context) {
	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		h.writeError(c, err)
		return
	}
	in := attendance.BulkInput{
		Date:       date,
		Period:     req.Period,
		Department: req.Department,
		Section:    req.Section,
	}
	for _, item := range req.Records {
		bi := attendance.BulkItem{
			StudentID:  item.StudentID,
			Status:     item.Status,
			Notes:      item.Notes,
			Period:     item.Period,
			Department: item.Department,
			Section:    item.Section,
		}
		if item.Date != "" {
			d, err := parseDate(item.Date)
			if err != nil {
				h.writeError(c, err)
				return
			}
			bi.Date = d
		}
		in.Items = append(in.Items, bi)
	}
	claims, _ := auth.FromContext(c)
	res, err := h.att.MarkBulk(c.Request.Context(), in, claims.Subject, attendance.MethodManual)
	if err != nil {
		h.writeError(c, err)
		return
	}
	for _, rec := range res.Marked {
		metrics.MarksTotal.WithLabelValues(string(rec.Status), string(rec.Method)).Inc()
		h.publishMark(c, rec.ID)
	}
	if len(res.Failed) > 0 {
		metrics.MarkFailures.Inc()
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   "bulk attendance processed",
		"marked":    res.Marked,
		"failed":    res.Failed,
		"succeeded": len(res.Marked),
		"requested": len(in.Items),
	})
}

func (h *Handler) publishMark(c *gin.Context, recordID string) {
	if h.q == nil {
		return
	}
	if err := h.q.Publish(c.Request.Context(), queue.Event{Kind: queue.EventMark, RecordID: recordID}); err != nil {
		log.Printf("queue publish failed: %v", err)
	}
}

// ---------- Attendance reads ----------

func (h *Handler) QueryAttendance(c *gin.Context) {
	f, err := filterFromQuery(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	page := intQuery(c, "page", 1)
	limit := intQuery(c, "limit", 50)
	res, err := h.att.Query(c.Request.Context(), f, page, limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) AttendanceByDate(c *gin.Context) {
	date, err := parseDate(c.Param("date"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	grouped, err := h.att.ByDate(c.Request.Context(), date)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": attendance.Day(date), "periods": grouped})
}

func (h *Handler) StudentAttendance(c *gin.Context) {
	f, err := filterFromQuery(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	recs, stats, err := h.att.StudentHistory(c.Request.Context(), c.Param("studentId"), f)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": recs, "stats": stats})
}

func (h *Handler) AttendanceStats(c *gin.Context) {
	f, err := filterFromQuery(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	counts, err := h.att.Stats(c.Request.Context(), f)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

// ---------- Reports ----------

func (h *Handler) Dashboard(c *gin.Context) {
	dash, err := h.reports.BuildDashboard(c.Request.Context(), time.Now())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

func (h *Handler) AttendanceSummary(c *gin.Context) {
	h.serveReport(c, func(f attendance.Filter) (any, error) {
		return h.reports.AttendanceSummary(c.Request.Context(), f)
	})
}

func (h *Handler) DepartmentWise(c *gin.Context) {
	h.serveReport(c, func(f attendance.Filter) (any, error) {
		return h.reports.DepartmentWise(c.Request.Context(), f)
	})
}

func (h *Handler) SectionWise(c *gin.Context) {
	h.serveReport(c, func(f attendance.Filter) (any, error) {
		return h.reports.SectionWise(c.Request.Context(), f)
	})
}

func (h *Handler) StudentWise(c *gin.Context) {
	h.serveReport(c, func(f attendance.Filter) (any, error) {
		return h.reports.StudentWise(c.Request.Context(), f)
	})
}

func (h *Handler) MonthlyTrends(c *gin.Context) {
	year := intQuery(c, "year", 0)
	h.serveReport(c, func(f attendance.Filter) (any, error) {
		return h.reports.MonthlyTrends(c.Request.Context(), year, f)
	})
}

// GroupedReport maps the groupBy query parameter onto the typed reports.
func (h *Handler) GroupedReport(c *gin.Context) {
	groupBy := c.DefaultQuery("groupBy", "date")
	h.serveReport(c, func(f attendance.Filter) (any, error) {
		switch groupBy {
		case "date":
			return h.reports.AttendanceSummary(c.Request.Context(), f)
		case "department":
			return h.reports.DepartmentWise(c.Request.Context(), f)
		case "section":
			return h.reports.SectionWise(c.Request.Context(), f)
		case "period":
			return h.reports.PeriodWise(c.Request.Context(), f)
		case "student":
			return h.reports.StudentWise(c.Request.Context(), f)
		case "month":
			return h.reports.MonthlyTrends(c.Request.Context(), intQuery(c, "year", 0), f)
		}
		return nil, &attendance.ValidationError{Field: "groupBy", Reason: "must be one of date, department, section, period, student, month"}
	})
}

func (h *Handler) serveReport(c *gin.Context, build func(attendance.Filter) (any, error)) {
	f, err := filterFromQuery(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	out, err := build(f)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) ExportCSV(c *gin.Context) {
	f, err := filterFromQuery(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	recs, err := h.att.List(c.Request.Context(), f)
	if err != nil {
		h.writeError(c, err)
		return
	}
	ctx := c.Request.Context()
	resolve := func(studentID string) *student.Student {
		st, err := h.students.GetStudent(ctx, studentID)
		if err != nil {
			return nil
		}
		return &st
	}
	markerName := func(id string) string {
		return h.users.DisplayName(ctx, id)
	}
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="attendance.csv"`)
	if err := report.WriteCSV(c.Writer, recs, resolve, markerName); err != nil {
		log.Printf("csv export failed: %v", err)
		return
	}
	metrics.ExportsTotal.Inc()
}

// ---------- Roster ----------

type createStudentRequest struct {
	StudentID  string `json:"studentId" binding:"required"`
	Name       string `json:"name" binding:"required"`
	Department string `json:"department"`
	Section    string `json:"section"`
	IsActive   *bool  `json:"isActive"`
}

func (h *Handler) CreateStudent(c *gin.Context) {
	var req createStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	st := student.Student{
		StudentID:  req.StudentID,
		Name:       req.Name,
		Department: req.Department,
		Section:    req.Section,
		IsActive:   true,
	}
	if req.IsActive != nil {
		st.IsActive = *req.IsActive
	}
	if err := h.students.CreateStudent(c.Request.Context(), st); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

func (h *Handler) ListStudents(c *gin.Context) {
	students, err := h.students.ListStudents(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	if students == nil {
		students = []student.Student{}
	}
	c.JSON(http.StatusOK, students)
}

func (h *Handler) GetStudent(c *gin.Context) {
	st, err := h.students.GetStudent(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

type createDepartmentRequest struct {
	Name     string `json:"name" binding:"required"`
	Code     string `json:"code" binding:"required"`
	Sections int    `json:"sections"`
}

func (h *Handler) CreateDepartment(c *gin.Context) {
	var req createDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dep := student.Department{Name: req.Name, Code: req.Code, Sections: req.Sections}
	if dep.Sections < 1 {
		dep.Sections = 1
	}
	if err := h.students.CreateDepartment(c.Request.Context(), dep); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dep)
}

func (h *Handler) ListDepartments(c *gin.Context) {
	deps, err := h.students.ListDepartments(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	if deps == nil {
		deps = []student.Department{}
	}
	c.JSON(http.StatusOK, deps)
}

// ---------- Helpers ----------

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, &attendance.ValidationError{Field: "date", Reason: "required"}
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		// Accept full timestamps too; the service truncates to the day.
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, &attendance.ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
		}
	}
	return t, nil
}

func filterFromQuery(c *gin.Context) (attendance.Filter, error) {
	var f attendance.Filter
	if v := c.Query("date"); v != "" {
		d, err := parseDate(v)
		if err != nil {
			return f, err
		}
		f.Date = d
	}
	if v := c.Query("startDate"); v != "" {
		d, err := parseDate(v)
		if err != nil {
			return f, &attendance.ValidationError{Field: "startDate", Reason: "must be YYYY-MM-DD"}
		}
		f.StartDate = d
	}
	if v := c.Query("endDate"); v != "" {
		d, err := parseDate(v)
		if err != nil {
			return f, &attendance.ValidationError{Field: "endDate", Reason: "must be YYYY-MM-DD"}
		}
		f.EndDate = d
	}
	if v := c.Query("status"); v != "" {
		status, err := attendance.ParseStatus(v)
		if err != nil {
			return f, err
		}
		f.Status = status
	}
	f.Department = c.Query("department")
	f.Section = c.Query("section")
	f.Period = c.Query("period")
	f.StudentID = c.Query("studentId")
	return f, nil
}

func intQuery(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

// writeError maps error kinds to status codes: validation to 400, missing
// entities to 404, conflicts to 409, bad credentials to 401, everything
// else to 500.
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case attendance.IsValidation(err), errors.Is(err, user.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, attendance.ErrNotFound),
		errors.Is(err, student.ErrNotFound),
		errors.Is(err, user.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, student.ErrExists), errors.Is(err, user.ErrExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, user.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		log.Printf("internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
