package api

import (
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
)

// RequestTrace tracks timing for a single request
type RequestTrace struct {
	RequestID     string        `json:"requestId"`
	Method        string        `json:"method"`
	Path          string        `json:"path"`
	Route         string        `json:"route"`
	Status        int           `json:"status"`
	StartTime     time.Time     `json:"startTime"`
	TotalDuration time.Duration `json:"totalDuration"`
	Error         string        `json:"error,omitempty"`
}

// RouteMetrics aggregates metrics for a specific route
type RouteMetrics struct {
	Method      string        `json:"method"`
	Path        string        `json:"path"`
	Count       int64         `json:"count"`
	ErrorCount  int64         `json:"errorCount"`
	TotalTime   time.Duration `json:"totalTime"`
	AvgTime     time.Duration `json:"avgTime"`
	MinTime     time.Duration `json:"minTime"`
	MaxTime     time.Duration `json:"maxTime"`
	P50Time     time.Duration `json:"p50Time"`
	P95Time     time.Duration `json:"p95Time"`
	P99Time     time.Duration `json:"p99Time"`
	LastRequest time.Time     `json:"lastRequest"`
}

// Summary is the overall view returned by the metrics summary endpoint
type Summary struct {
	TotalRequests int64     `json:"totalRequests"`
	TotalErrors   int64     `json:"totalErrors"`
	ErrorRate     float64   `json:"errorRate"`
	TPS           float64   `json:"tps"`
	WindowStart   time.Time `json:"windowStart"`
	WindowEnd     time.Time `json:"windowEnd"`
	RouteCount    int       `json:"routeCount"`
	TraceCount    int       `json:"traceCount"`
}

// MetricsCollector collects and aggregates request metrics. Recording never
// blocks a request: traces are queued on a buffered channel and dropped when
// it is full.
type MetricsCollector struct {
	mu             sync.RWMutex
	traces         []RequestTrace
	maxTraces      int
	routeMetrics   map[string]*RouteMetrics
	windowStart    time.Time
	windowDuration time.Duration
	totalRequests  int64
	totalErrors    int64
	traceChan      chan RequestTrace
	stopChan       chan struct{}
	stopOnce       sync.Once
}

var (
	globalMetrics   *MetricsCollector
	globalMetricsMu sync.Mutex
)

// NewMetricsCollector starts a collector keeping at most maxTraces recent
// traces for windowDuration
func NewMetricsCollector(maxTraces int, windowDuration time.Duration) *MetricsCollector {
	mc := &MetricsCollector{
		traces:         make([]RequestTrace, 0, maxTraces),
		maxTraces:      maxTraces,
		routeMetrics:   make(map[string]*RouteMetrics),
		windowStart:    time.Now(),
		windowDuration: windowDuration,
		traceChan:      make(chan RequestTrace, 1000),
		stopChan:       make(chan struct{}),
	}
	go mc.processTraces()
	go mc.cleanup()
	return mc
}

// InitMetrics initializes the global metrics collector
func InitMetrics(maxTraces int, windowDuration time.Duration) {
	globalMetricsMu.Lock()
	defer globalMetricsMu.Unlock()
	if globalMetrics != nil {
		globalMetrics.Stop()
	}
	globalMetrics = NewMetricsCollector(maxTraces, windowDuration)
}

// GetMetrics returns the global metrics collector
func GetMetrics() *MetricsCollector {
	globalMetricsMu.Lock()
	defer globalMetricsMu.Unlock()
	if globalMetrics == nil {
		globalMetrics = NewMetricsCollector(10000, time.Hour)
	}
	return globalMetrics
}

// Stop ends the background goroutines
func (mc *MetricsCollector) Stop() {
	mc.stopOnce.Do(func() { close(mc.stopChan) })
}

// RecordTrace records a request trace asynchronously (non-blocking)
func (mc *MetricsCollector) RecordTrace(trace RequestTrace) {
	select {
	case mc.traceChan <- trace:
	default:
	}
}

func (mc *MetricsCollector) processTraces() {
	for {
		select {
		case trace := <-mc.traceChan:
			mc.processTrace(trace)
		case <-mc.stopChan:
			return
		}
	}
}

func (mc *MetricsCollector) processTrace(trace RequestTrace) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if len(mc.traces) >= mc.maxTraces && len(mc.traces) > 0 {
		mc.traces = mc.traces[1:]
	}
	mc.traces = append(mc.traces, trace)

	route := trace.Route
	if route == "" {
		route = normalizeRoutePath(trace.Path)
	}
	routeKey := trace.Method + " " + route

	metrics, exists := mc.routeMetrics[routeKey]
	if !exists {
		metrics = &RouteMetrics{
			Method:  trace.Method,
			Path:    route,
			MinTime: trace.TotalDuration,
		}
		mc.routeMetrics[routeKey] = metrics
	}

	metrics.Count++
	metrics.TotalTime += trace.TotalDuration
	metrics.AvgTime = metrics.TotalTime / time.Duration(metrics.Count)
	metrics.LastRequest = trace.StartTime
	if trace.TotalDuration < metrics.MinTime {
		metrics.MinTime = trace.TotalDuration
	}
	if trace.TotalDuration > metrics.MaxTime {
		metrics.MaxTime = trace.TotalDuration
	}
	if trace.Status >= 400 {
		metrics.ErrorCount++
		mc.totalErrors++
	}
	mc.totalRequests++

	if metrics.Count%100 == 0 || metrics.Count < 100 {
		mc.calculatePercentiles(routeKey)
	}
}

// GetRouteMetrics returns aggregated metrics for all routes
func (mc *MetricsCollector) GetRouteMetrics() map[string]*RouteMetrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	result := make(map[string]*RouteMetrics, len(mc.routeMetrics))
	for k, v := range mc.routeMetrics {
		metrics := *v
		result[k] = &metrics
	}
	return result
}

// GetSummary returns overall summary metrics
func (mc *MetricsCollector) GetSummary() Summary {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	elapsed := time.Since(mc.windowStart)
	if elapsed > mc.windowDuration {
		elapsed = mc.windowDuration
	}
	var tps float64
	if elapsed.Seconds() > 0 {
		tps = float64(mc.totalRequests) / elapsed.Seconds()
	}
	var errorRate float64
	if mc.totalRequests > 0 {
		errorRate = float64(mc.totalErrors) / float64(mc.totalRequests)
	}

	return Summary{
		TotalRequests: mc.totalRequests,
		TotalErrors:   mc.totalErrors,
		ErrorRate:     errorRate,
		TPS:           tps,
		WindowStart:   mc.windowStart,
		WindowEnd:     mc.windowStart.Add(mc.windowDuration),
		RouteCount:    len(mc.routeMetrics),
		TraceCount:    len(mc.traces),
	}
}

// GetSlowestRoutes returns the slowest routes by average time with pagination
func (mc *MetricsCollector) GetSlowestRoutes(limit, offset int) []*RouteMetrics {
	return mc.sortedRoutes(limit, offset, func(a, b *RouteMetrics) bool { return a.AvgTime > b.AvgTime })
}

// GetMostFrequentRoutes returns the most frequently called routes with pagination
func (mc *MetricsCollector) GetMostFrequentRoutes(limit, offset int) []*RouteMetrics {
	return mc.sortedRoutes(limit, offset, func(a, b *RouteMetrics) bool { return a.Count > b.Count })
}

func (mc *MetricsCollector) sortedRoutes(limit, offset int, less func(a, b *RouteMetrics) bool) []*RouteMetrics {
	mc.mu.RLock()
	routes := make([]*RouteMetrics, 0, len(mc.routeMetrics))
	for _, metrics := range mc.routeMetrics {
		m := *metrics
		routes = append(routes, &m)
	}
	mc.mu.RUnlock()

	sort.Slice(routes, func(i, j int) bool { return less(routes[i], routes[j]) })

	if offset < 0 {
		offset = 0
	}
	if offset >= len(routes) {
		return []*RouteMetrics{}
	}
	end := offset + limit
	if limit <= 0 || end > len(routes) {
		end = len(routes)
	}
	return routes[offset:end]
}

// calculatePercentiles calculates P50, P95, P99 for a route. Caller holds mu.
func (mc *MetricsCollector) calculatePercentiles(routeKey string) {
	metrics := mc.routeMetrics[routeKey]
	if metrics == nil {
		return
	}

	var durations []time.Duration
	for _, trace := range mc.traces {
		route := trace.Route
		if route == "" {
			route = normalizeRoutePath(trace.Path)
		}
		if trace.Method+" "+route == routeKey {
			durations = append(durations, trace.TotalDuration)
		}
	}
	if len(durations) == 0 {
		return
	}
	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	metrics.P50Time = durations[percentileIndex(len(durations), 0.50)]
	metrics.P95Time = durations[percentileIndex(len(durations), 0.95)]
	metrics.P99Time = durations[percentileIndex(len(durations), 0.99)]
}

func percentileIndex(n int, p float64) int {
	idx := int(float64(n) * p)
	if idx >= n {
		idx = n - 1
	}
	return idx
}

// cleanup removes old traces and resets window periodically
func (mc *MetricsCollector) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			mc.prune(time.Now())
		case <-mc.stopChan:
			return
		}
	}
}

func (mc *MetricsCollector) prune(now time.Time) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	cutoff := now.Add(-mc.windowDuration)
	valid := mc.traces[:0]
	for _, trace := range mc.traces {
		if trace.StartTime.After(cutoff) {
			valid = append(valid, trace)
		}
	}
	mc.traces = valid

	if now.Sub(mc.windowStart) > mc.windowDuration {
		mc.windowStart = now
	}
}

var (
	objectIDSegment = regexp.MustCompile(`/[0-9a-fA-F]{24}(/|$)`)
	uuidSegment     = regexp.MustCompile(`/[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}(/|$)`)
)

// normalizeRoutePath replaces ids in a raw path with {id}, for requests that
// did not match a named route.
//   - /api/medications/507f1f77bcf86cd799439011/refill -> /api/medications/{id}/refill
func normalizeRoutePath(path string) string {
	path = objectIDSegment.ReplaceAllString(path, "/{id}$1")
	path = uuidSegment.ReplaceAllString(path, "/{id}$1")
	path = strings.ReplaceAll(path, "//", "/")
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}
