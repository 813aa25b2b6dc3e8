// Package metrics defines the Prometheus collectors exported by the service.
package metrics

import (
	"strconv"
	"time"

	"github.com/ghseeli/service-booking/pkg/apperror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the HTTP and booking-operation collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	bookingOperations *prometheus.CounterVec
	timeSlotConflicts prometheus.Counter
}

// New registers the collectors on reg with a constant service label.
func New(reg prometheus.Registerer, service string) *Metrics {
	f := promauto.With(reg)
	labels := prometheus.Labels{"service": service}

	return &Metrics{
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests.",
			ConstLabels: labels,
		}, []string{"method", "path", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "path"}),
		bookingOperations: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "booking_operations_total",
			Help:        "Booking use-case invocations by outcome.",
			ConstLabels: labels,
		}, []string{"operation", "outcome"}),
		timeSlotConflicts: f.NewCounter(prometheus.CounterOpts{
			Name:        "booking_time_slot_conflicts_total",
			Help:        "Create or reschedule attempts rejected for overlapping an existing booking.",
			ConstLabels: labels,
		}),
	}
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// ObserveOperation records the outcome of a booking use case. The outcome label
// is "success", the error kind, or "error" for storage failures.
func (m *Metrics) ObserveOperation(operation string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
		if kind := apperror.KindOf(err); kind != "" {
			outcome = string(kind)
		}
		if outcome == string(apperror.KindTimeSlotConflict) {
			m.timeSlotConflicts.Inc()
		}
	}
	m.bookingOperations.WithLabelValues(operation, outcome).Inc()
}
