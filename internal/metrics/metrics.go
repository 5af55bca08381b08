// Package metrics holds the prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MarksTotal counts successful attendance upserts by status and method.
var MarksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "attendance_marks_total",
	Help: "Attendance marks written, by status and capture method.",
}, []string{"status", "method"})

// MarkFailures counts rejected mark requests.
var MarkFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "attendance_mark_failures_total",
	Help: "Attendance marks rejected by validation or storage.",
})

// ExportsTotal counts CSV exports served.
var ExportsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "attendance_exports_total",
	Help: "CSV exports generated.",
})
