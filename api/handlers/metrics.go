package handlers

import (
	"net/http"
	"strconv"

	"github.com/medassist/medassist-api/api"
)

// formatRouteMetrics converts duration fields to milliseconds for JSON serialization
func formatRouteMetrics(routes []*api.RouteMetrics) []map[string]interface{} {
	result := make([]map[string]interface{}, len(routes))
	for i, route := range routes {
		result[i] = map[string]interface{}{
			"method":      route.Method,
			"path":        route.Path,
			"count":       route.Count,
			"errorCount":  route.ErrorCount,
			"avgTime":     route.AvgTime.Milliseconds(),
			"minTime":     route.MinTime.Milliseconds(),
			"maxTime":     route.MaxTime.Milliseconds(),
			"p50Time":     route.P50Time.Milliseconds(),
			"p95Time":     route.P95Time.Milliseconds(),
			"p99Time":     route.P99Time.Milliseconds(),
			"lastRequest": route.LastRequest,
		}
	}
	return result
}

// MetricsHandler handles metrics dashboard requests
type MetricsHandler struct{}

// GetMetricsSummary returns the request totals of the current window
func (m MetricsHandler) GetMetricsSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.GetMetrics().GetSummary())
}

// GetRouteMetrics returns per-route timings, sorted by "slowest" (default)
// or "frequent", with limit/offset pagination
func (m MetricsHandler) GetRouteMetrics(w http.ResponseWriter, r *http.Request) {
	metrics := api.GetMetrics()

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	offset := 0
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	sortBy := r.URL.Query().Get("sort")
	var routes []*api.RouteMetrics
	switch sortBy {
	case "", "slowest":
		sortBy = "slowest"
		routes = metrics.GetSlowestRoutes(limit, offset)
	case "frequent":
		routes = metrics.GetMostFrequentRoutes(limit, offset)
	default:
		writeMessage(w, http.StatusBadRequest, "sort must be slowest or frequent")
		return
	}

	total := len(metrics.GetRouteMetrics())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"routes": formatRouteMetrics(routes),
		"sort":   sortBy,
		"pagination": map[string]interface{}{
			"limit":   limit,
			"offset":  offset,
			"total":   total,
			"hasMore": offset+limit < total,
		},
	})
}
