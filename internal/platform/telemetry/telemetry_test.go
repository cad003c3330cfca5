package telemetry

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestDropCounters(t *testing.T) {
	p := NewProvider(true)

	p.WebhookEventDropped(DropNoMatch)
	p.WebhookEventDropped(DropNoMatch)
	p.WebhookEventDropped(DropMissingFields)
	p.WebhookEventMatched()

	if got := p.WebhookDroppedCount(DropNoMatch); got != 2 {
		t.Errorf("expected 2 no-match drops, got %d", got)
	}
	if got := p.WebhookDroppedCount(DropMissingFields); got != 1 {
		t.Errorf("expected 1 missing-fields drop, got %d", got)
	}
	if got := p.WebhookDroppedCount(DropUnrecognizedEvent); got != 0 {
		t.Errorf("expected 0 unrecognized-event drops, got %d", got)
	}
	if got := p.WebhookMatchedCount(); got != 1 {
		t.Errorf("expected 1 matched event, got %d", got)
	}
}

func TestCounters_Concurrent(t *testing.T) {
	p := NewProvider(true)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				p.IntakeOperation("create")
			}
		}()
	}
	wg.Wait()

	if got := p.IntakeOperationCount("create"); got != 5000 {
		t.Errorf("expected 5000, got %d", got)
	}
}

func TestDisabledProvider_NoOps(t *testing.T) {
	p := NewProvider(false)
	p.WebhookEventDropped(DropNoMatch)
	p.IntakeOperation("create")

	if got := p.WebhookDroppedCount(DropNoMatch); got != 0 {
		t.Errorf("expected disabled provider to record nothing, got %d", got)
	}
}

func TestMetricsMiddleware_RecordsDuration(t *testing.T) {
	p := NewProvider(true)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/intakes", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}

	if err := p.MetricsMiddleware()(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.durations.Count() != 1 {
		t.Errorf("expected 1 duration observation, got %d", p.durations.Count())
	}
	if p.ActiveRequests() != 0 {
		t.Errorf("expected active requests back to 0, got %d", p.ActiveRequests())
	}
}

func TestPrometheusHandler_Exposition(t *testing.T) {
	p := NewProvider(true)
	p.WebhookEventDropped(DropPersistFailure)
	p.WebhookEventMatched()
	p.IntakeOperation("list")
	p.durations.Observe(0.042)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := p.PrometheusHandler()(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	body := rec.Body.String()
	for _, want := range []string{
		`webhook_events_dropped_total{reason="persist-failure"} 1`,
		"webhook_events_matched_total 1",
		`intake_operations_total{operation="list"} 1`,
		"http_server_request_duration_seconds_count 1",
		"# TYPE webhook_events_dropped_total counter",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected exposition to contain %q, got:\n%s", want, body)
		}
	}
}

func TestHistogram_Buckets(t *testing.T) {
	h := newHistogram([]float64{0.1, 1.0})
	h.Observe(0.05)
	h.Observe(0.5)
	h.Observe(5.0)

	cum := h.cumulativeBuckets()
	if cum[0] != 1 {
		t.Errorf("expected 1 observation <= 0.1, got %d", cum[0])
	}
	if cum[1] != 2 {
		t.Errorf("expected 2 observations <= 1.0, got %d", cum[1])
	}
	if h.Count() != 3 {
		t.Errorf("expected count 3, got %d", h.Count())
	}
	if h.Sum() != 5.55 {
		t.Errorf("expected sum 5.55, got %g", h.Sum())
	}
}
