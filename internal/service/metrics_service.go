package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/refdesk/refdesk-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP
// layer and the delegation domain.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	assignments     *prometheus.CounterVec
	responses       *prometheus.CounterVec
	conflicts       *prometheus.CounterVec
	reportJobs      *prometheus.CounterVec
}

// NewMetricsService registers the collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	assignments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "delegation_assignments_total",
		Help: "Slot assignments committed, by slot",
	}, []string{"slot"})

	responses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "delegation_responses_total",
		Help: "Referee responses recorded, by outcome",
	}, []string{"response"})

	conflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "delegation_conflicts_total",
		Help: "Rejected delegation operations, by error code",
	}, []string{"code"})

	reportJobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "report_jobs_total",
		Help: "Report jobs processed, by terminal status",
	}, []string{"status"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, assignments, responses, conflicts, reportJobs, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		assignments:     assignments,
		responses:       responses,
		conflicts:       conflicts,
		reportJobs:      reportJobs,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordAssignment counts a committed slot assignment.
func (m *MetricsService) RecordAssignment(slot models.Slot) {
	if m == nil {
		return
	}
	m.assignments.WithLabelValues(string(slot)).Inc()
}

// RecordResponse counts a referee accept or decline.
func (m *MetricsService) RecordResponse(response models.ResponseStatus) {
	if m == nil {
		return
	}
	m.responses.WithLabelValues(string(response)).Inc()
}

// RecordConflict counts a rejected delegation operation by error code.
func (m *MetricsService) RecordConflict(code string) {
	if m == nil {
		return
	}
	m.conflicts.WithLabelValues(code).Inc()
}

// RecordReportJob counts a report job reaching a terminal status.
func (m *MetricsService) RecordReportJob(status models.ReportStatus) {
	if m == nil {
		return
	}
	m.reportJobs.WithLabelValues(string(status)).Inc()
}
