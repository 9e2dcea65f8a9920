package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeRoutePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/api/medications/507f1f77bcf86cd799439011", "/api/medications/{id}"},
		{"/api/medications/507f1f77bcf86cd799439011/refill", "/api/medications/{id}/refill"},
		{"/api/push-tokens/123e4567-e89b-12d3-a456-426614174000", "/api/push-tokens/{id}"},
		{"/api/doses/today/", "/api/doses/today"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeRoutePath(tt.in), tt.in)
	}
}

func TestMetricsCollectorAggregates(t *testing.T) {
	mc := NewMetricsCollector(100, time.Hour)
	defer mc.Stop()

	now := time.Now()
	mc.processTrace(RequestTrace{Method: "GET", Route: "/api/medications", Status: 200, StartTime: now, TotalDuration: 10 * time.Millisecond})
	mc.processTrace(RequestTrace{Method: "GET", Route: "/api/medications", Status: 500, StartTime: now, TotalDuration: 30 * time.Millisecond})
	mc.processTrace(RequestTrace{Method: "POST", Path: "/api/medications/507f1f77bcf86cd799439011/refill", Status: 200, StartTime: now, TotalDuration: 5 * time.Millisecond})

	routes := mc.GetRouteMetrics()
	get := routes["GET /api/medications"]
	if assert.NotNil(t, get) {
		assert.Equal(t, int64(2), get.Count)
		assert.Equal(t, int64(1), get.ErrorCount)
		assert.Equal(t, 20*time.Millisecond, get.AvgTime)
		assert.Equal(t, 10*time.Millisecond, get.MinTime)
		assert.Equal(t, 30*time.Millisecond, get.MaxTime)
	}
	assert.NotNil(t, routes["POST /api/medications/{id}/refill"])

	summary := mc.GetSummary()
	assert.Equal(t, int64(3), summary.TotalRequests)
	assert.Equal(t, int64(1), summary.TotalErrors)
	assert.Equal(t, 2, summary.RouteCount)

	slowest := mc.GetSlowestRoutes(1, 0)
	if assert.Len(t, slowest, 1) {
		assert.Equal(t, "/api/medications", slowest[0].Path)
	}
	frequent := mc.GetMostFrequentRoutes(10, 0)
	if assert.Len(t, frequent, 2) {
		assert.Equal(t, int64(2), frequent[0].Count)
	}
	assert.Empty(t, mc.GetSlowestRoutes(10, 5))
}

func TestMetricsCollectorPrune(t *testing.T) {
	mc := NewMetricsCollector(100, time.Minute)
	defer mc.Stop()

	mc.processTrace(RequestTrace{Method: "GET", Route: "/a", StartTime: time.Now().Add(-2 * time.Minute)})
	mc.processTrace(RequestTrace{Method: "GET", Route: "/a", StartTime: time.Now()})
	mc.prune(time.Now())

	assert.Equal(t, 1, mc.GetSummary().TraceCount)
}

func TestMetricsMiddlewareRecordsRouteTemplate(t *testing.T) {
	InitMetrics(100, time.Hour)

	r := mux.NewRouter()
	r.Use(MetricsMiddleware)
	r.HandleFunc("/api/medications/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/api/medications/abc", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	assert.Eventually(t, func() bool {
		m := GetMetrics().GetRouteMetrics()["GET /api/medications/{id}"]
		return m != nil && m.ErrorCount == 1
	}, time.Second, 10*time.Millisecond)
}

func TestHealthCheck(t *testing.T) {
	rr := httptest.NewRecorder()
	New().ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"alive": true}`, rr.Body.String())
}
