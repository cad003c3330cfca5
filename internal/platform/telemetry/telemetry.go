// Package telemetry provides lightweight observability for the intake
// service: counters, gauges, and histograms with a Prometheus text
// exposition endpoint, plus an Echo middleware for HTTP server metrics.
package telemetry

import (
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
)

// Drop reasons recorded by the booking reconciler. The webhook boundary
// always acknowledges success, so these counters are the only place a
// dropped event is visible.
const (
	DropUnrecognizedEvent = "unrecognized-event"
	DropMissingFields     = "missing-fields"
	DropNoMatch           = "no-match"
	DropPersistFailure    = "persist-failure"
)

// defaultDurationBuckets are the histogram bucket boundaries (in seconds)
// used for HTTP request duration.
var defaultDurationBuckets = []float64{
	0.010, 0.025, 0.050, 0.100, 0.250, 0.500, 1.0, 2.5, 5.0, 10.0,
}

// histogram is a thread-safe histogram with configurable bucket boundaries.
// Bucket counts are non-cumulative in storage; cumulative counts are computed
// at export time.
type histogram struct {
	boundaries   []float64
	bucketCounts []int64
	count        int64
	sum          uint64     // stored as math.Float64bits for atomic add
	mu           sync.Mutex // protects bucketCounts
}

func newHistogram(boundaries []float64) *histogram {
	return &histogram{
		boundaries:   boundaries,
		bucketCounts: make([]int64, len(boundaries)),
	}
}

// Observe records a single value.
func (h *histogram) Observe(v float64) {
	atomic.AddInt64(&h.count, 1)
	atomicAddFloat64(&h.sum, v)

	h.mu.Lock()
	for i, b := range h.boundaries {
		if v <= b {
			h.bucketCounts[i]++
			h.mu.Unlock()
			return
		}
	}
	// Value exceeds all boundaries, counted in +Inf at export.
	h.mu.Unlock()
}

// Count returns the total number of observations.
func (h *histogram) Count() int64 {
	return atomic.LoadInt64(&h.count)
}

// Sum returns the total sum of all observations.
func (h *histogram) Sum() float64 {
	return math.Float64frombits(atomic.LoadUint64(&h.sum))
}

// cumulativeBuckets returns cumulative bucket counts for Prometheus export.
func (h *histogram) cumulativeBuckets() []int64 {
	h.mu.Lock()
	raw := make([]int64, len(h.bucketCounts))
	copy(raw, h.bucketCounts)
	h.mu.Unlock()

	cum := make([]int64, len(raw))
	var running int64
	for i, c := range raw {
		running += c
		cum[i] = running
	}
	return cum
}

// atomicAddFloat64 performs an atomic add on a uint64 that stores a float64
// using CAS.
func atomicAddFloat64(addr *uint64, delta float64) {
	for {
		old := atomic.LoadUint64(addr)
		newVal := math.Float64frombits(old) + delta
		if atomic.CompareAndSwapUint64(addr, old, math.Float64bits(newVal)) {
			return
		}
	}
}

type counterStore struct {
	mu    sync.RWMutex
	items map[string]*int64
}

func newCounterStore() *counterStore {
	return &counterStore{items: make(map[string]*int64)}
}

func (s *counterStore) inc(key string) {
	s.mu.RLock()
	p, ok := s.items[key]
	s.mu.RUnlock()
	if ok {
		atomic.AddInt64(p, 1)
		return
	}
	s.mu.Lock()
	p, ok = s.items[key]
	if !ok {
		v := int64(1)
		s.items[key] = &v
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	atomic.AddInt64(p, 1)
}

func (s *counterStore) get(key string) int64 {
	s.mu.RLock()
	p, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return 0
	}
	return atomic.LoadInt64(p)
}

func (s *counterStore) snapshot() map[string]int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := make(map[string]int64, len(s.items))
	for k, p := range s.items {
		cp[k] = atomic.LoadInt64(p)
	}
	return cp
}

type gaugeStore struct {
	mu    sync.RWMutex
	items map[string]*int64
}

func newGaugeStore() *gaugeStore {
	return &gaugeStore{items: make(map[string]*int64)}
}

func (s *gaugeStore) add(name string, delta int64) {
	s.mu.RLock()
	p, ok := s.items[name]
	s.mu.RUnlock()
	if ok {
		atomic.AddInt64(p, delta)
		return
	}
	s.mu.Lock()
	p, ok = s.items[name]
	if !ok {
		v := delta
		s.items[name] = &v
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	atomic.AddInt64(p, delta)
}

func (s *gaugeStore) get(name string) int64 {
	s.mu.RLock()
	p, ok := s.items[name]
	s.mu.RUnlock()
	if !ok {
		return 0
	}
	return atomic.LoadInt64(p)
}

// Provider manages all observability state for the intake service.
type Provider struct {
	enabled bool

	durations *histogram
	counters  *counterStore
	gauges    *gaugeStore
}

// NewProvider creates a telemetry provider. When enabled is false all
// recording methods are no-ops and the middleware passes requests through.
func NewProvider(enabled bool) *Provider {
	return &Provider{
		enabled:   enabled,
		durations: newHistogram(defaultDurationBuckets),
		counters:  newCounterStore(),
		gauges:    newGaugeStore(),
	}
}

// IntakeOperation increments the intake operation counter
// (operation is one of create, get, list, update).
func (p *Provider) IntakeOperation(operation string) {
	if !p.enabled {
		return
	}
	p.counters.inc("intake_operations_total|" + operation)
}

// WebhookEventMatched increments the matched-event counter.
func (p *Provider) WebhookEventMatched() {
	if !p.enabled {
		return
	}
	p.counters.inc("webhook_events_matched_total|")
}

// WebhookEventDropped increments the dropped-event counter for the given
// drop reason.
func (p *Provider) WebhookEventDropped(reason string) {
	if !p.enabled {
		return
	}
	p.counters.inc("webhook_events_dropped_total|" + reason)
}

// IntakeOperationCount returns the current value of the intake operation
// counter for the given operation.
func (p *Provider) IntakeOperationCount(operation string) int64 {
	return p.counters.get("intake_operations_total|" + operation)
}

// WebhookMatchedCount returns the matched-event counter value.
func (p *Provider) WebhookMatchedCount() int64 {
	return p.counters.get("webhook_events_matched_total|")
}

// WebhookDroppedCount returns the dropped-event counter value for a reason.
func (p *Provider) WebhookDroppedCount(reason string) int64 {
	return p.counters.get("webhook_events_dropped_total|" + reason)
}

// ActiveRequests returns the current active request gauge value.
func (p *Provider) ActiveRequests() int64 {
	return p.gauges.get("http_server_active_requests")
}

// MetricsMiddleware returns an Echo middleware that records HTTP server
// metrics: request duration and active request count.
func (p *Provider) MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !p.enabled {
				return next(c)
			}

			p.gauges.add("http_server_active_requests", 1)
			start := time.Now()

			err := next(c)

			p.gauges.add("http_server_active_requests", -1)
			p.durations.Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// PrometheusHandler returns an Echo handler that serves metrics in
// Prometheus text exposition format.
func (p *Provider) PrometheusHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		var b strings.Builder

		writeHistogram(&b, "http_server_request_duration_seconds",
			"Duration of HTTP requests in seconds.", p.durations)

		b.WriteString("# HELP http_server_active_requests Number of active HTTP requests.\n")
		b.WriteString("# TYPE http_server_active_requests gauge\n")
		fmt.Fprintf(&b, "http_server_active_requests %d\n\n", p.gauges.get("http_server_active_requests"))

		counters := p.counters.snapshot()

		writeCounter(&b, counters, "intake_operations_total",
			"Total intake record operations by type.", "operation")
		writeCounter(&b, counters, "webhook_events_matched_total",
			"Total booking webhook events matched to an intake record.", "")
		writeCounter(&b, counters, "webhook_events_dropped_total",
			"Total booking webhook events dropped, by reason.", "reason")

		return c.String(http.StatusOK, b.String())
	}
}

func writeHistogram(b *strings.Builder, name, help string, h *histogram) {
	fmt.Fprintf(b, "# HELP %s %s\n", name, help)
	fmt.Fprintf(b, "# TYPE %s histogram\n", name)

	cum := h.cumulativeBuckets()
	total := h.Count()
	for i, boundary := range h.boundaries {
		fmt.Fprintf(b, "%s_bucket{le=\"%g\"} %d\n", name, boundary, cum[i])
	}
	fmt.Fprintf(b, "%s_bucket{le=\"+Inf\"} %d\n", name, total)
	fmt.Fprintf(b, "%s_sum %g\n", name, h.Sum())
	fmt.Fprintf(b, "%s_count %d\n\n", name, total)
}

func writeCounter(b *strings.Builder, counters map[string]int64, name, help, label string) {
	fmt.Fprintf(b, "# HELP %s %s\n", name, help)
	fmt.Fprintf(b, "# TYPE %s counter\n", name)

	keys := make([]string, 0, len(counters))
	for k := range counters {
		if strings.HasPrefix(k, name+"|") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		labelValue := strings.TrimPrefix(k, name+"|")
		if label == "" || labelValue == "" {
			fmt.Fprintf(b, "%s %d\n", name, counters[k])
		} else {
			fmt.Fprintf(b, "%s{%s=%q} %d\n", name, label, labelValue, counters[k])
		}
	}
	b.WriteByte('\n')
}
