package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/complaints/backend/pkg/circuitbreaker"
)

func scrape(t *testing.T) string {
	t.Helper()

	app := fiber.New()
	app.Get("/metrics", MetricsHandler())

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	return string(body)
}

func TestMetricsHandler_ExposesCollectors(t *testing.T) {
	Init()
	Init()

	ComplaintsCreated.Inc()
	ClassifierRequests.WithLabelValues("sentiment", OutcomeFallback).Inc()

	body := scrape(t)
	assert.Equal(t, true, strings.Contains(body, "complaints_created_total"))
	assert.Equal(t, true, strings.Contains(body, `complaints_classifier_requests_total{classifier="sentiment",outcome="fallback"}`))
}

func TestObserveBreakerState(t *testing.T) {
	Init()

	ObserveBreakerState("llm", circuitbreaker.StateClosed, circuitbreaker.StateOpen)
	assert.Equal(t, true, strings.Contains(scrape(t), `complaints_circuit_breaker_state{name="llm"} 2`))

	ObserveBreakerState("llm", circuitbreaker.StateOpen, circuitbreaker.StateHalfOpen)
	assert.Equal(t, true, strings.Contains(scrape(t), `complaints_circuit_breaker_state{name="llm"} 1`))
}
