package metrics

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/complaints/backend/pkg/circuitbreaker"
)

const (
	OutcomeSuccess  = "success"
	OutcomeFallback = "fallback"
)

var (
	ComplaintsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "complaints_created_total",
			Help: "Total number of complaints created",
		},
	)

	ComplaintCategories = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "complaints_category_total",
			Help: "Complaints created per final category",
		},
		[]string{"category"},
	)

	StatusUpdates = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "complaints_status_updates_total",
			Help: "Total number of successful complaint status updates",
		},
	)

	ClassifierRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "complaints_classifier_requests_total",
			Help: "Classifier calls by outcome; fallback means the default label was used",
		},
		[]string{"classifier", "outcome"},
	)

	ClassifierDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "complaints_classifier_duration_seconds",
			Help:    "Classifier call duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"classifier"},
	)

	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "complaints_circuit_breaker_state",
			Help: "Circuit breaker state per upstream (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(ComplaintsCreated)
		prometheus.MustRegister(ComplaintCategories)
		prometheus.MustRegister(StatusUpdates)
		prometheus.MustRegister(ClassifierRequests)
		prometheus.MustRegister(ClassifierDuration)
		prometheus.MustRegister(BreakerState)
	})
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

// ObserveBreakerState is a circuitbreaker.Config.OnStateChange hook.
func ObserveBreakerState(name string, _ circuitbreaker.State, to circuitbreaker.State) {
	BreakerState.WithLabelValues(name).Set(float64(to))
}
