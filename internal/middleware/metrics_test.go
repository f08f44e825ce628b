package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_ItemIDsFoldIntoRoute(t *testing.T) {
	// Arrange
	m := NewMetrics(prometheus.NewRegistry())
	router := newCollectionRouter(m.Middleware(), respondWith(http.StatusNoContent, ""))

	// Act
	for _, id := range []string{"1", "2", "3"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/api/universal/custodia/"+id, nil))
	}

	// Assert
	counter := m.requests.With(prometheus.Labels{
		LabelMethod:     http.MethodDelete,
		LabelRoute:      "/api/universal/{collection}/{id}",
		LabelCollection: "custodia",
		LabelStatus:     "204",
	})
	if got := testutil.ToFloat64(counter); got != 3 {
		t.Errorf("requests = %v, want 3", got)
	}
	if got := testutil.CollectAndCount(m.requests); got != 1 {
		t.Errorf("request series = %d, want 1", got)
	}
}

func TestMetrics_SeriesPerCollectionAndStatus(t *testing.T) {
	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/api/universal/documentos/list", http.StatusOK},
		{http.MethodGet, "/api/universal/extracoes/list", http.StatusOK},
		{http.MethodPost, "/api/universal/documentos/create", http.StatusCreated},
		{http.MethodPost, "/api/universal/documentos/create", http.StatusBadRequest},
	}

	// Arrange
	m := NewMetrics(prometheus.NewRegistry())

	// Act
	for _, tt := range tests {
		router := newCollectionRouter(m.Middleware(), respondWith(tt.status, ""))
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tt.method, tt.path, nil))
	}

	// Assert
	if got := testutil.CollectAndCount(m.requests); got != len(tests) {
		t.Errorf("request series = %d, want %d", got, len(tests))
	}
	if got := testutil.CollectAndCount(m.duration); got != 3 {
		t.Errorf("duration series = %d, want 3", got)
	}
}

func TestMetrics_InFlight(t *testing.T) {
	// Arrange
	m := NewMetrics(prometheus.NewRegistry())
	var during float64
	router := newCollectionRouter(m.Middleware(), func(w http.ResponseWriter, _ *http.Request) {
		during = testutil.ToFloat64(m.inFlight)
		w.WriteHeader(http.StatusOK)
	})

	// Act
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/universal/documentos/list", nil))

	// Assert
	if during != 1 {
		t.Errorf("in flight during request = %v, want 1", during)
	}
	if after := testutil.ToFloat64(m.inFlight); after != 0 {
		t.Errorf("in flight after request = %v, want 0", after)
	}
}

func TestMetrics_UnmatchedRoute(t *testing.T) {
	// Arrange
	m := NewMetrics(prometheus.NewRegistry())
	h := m.Middleware()(respondWith(http.StatusNotFound, ""))

	// Act
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/universal/documentos/a/b/c", nil))

	// Assert
	counter := m.requests.With(prometheus.Labels{
		LabelMethod:     http.MethodGet,
		LabelRoute:      unmatchedRoute,
		LabelCollection: "",
		LabelStatus:     "404",
	})
	if got := testutil.ToFloat64(counter); got != 1 {
		t.Errorf("unmatched requests = %v, want 1", got)
	}
}

func TestNewMetrics_Registers(t *testing.T) {
	// Arrange
	reg := prometheus.NewRegistry()

	// Act
	NewMetrics(reg)

	// Assert
	count, err := testutil.GatherAndCount(reg, "casedesk_http_requests_in_flight")
	if err != nil {
		t.Fatalf("GatherAndCount() error = %v", err)
	}
	if count != 1 {
		t.Errorf("in flight gauges = %d, want 1", count)
	}
}
