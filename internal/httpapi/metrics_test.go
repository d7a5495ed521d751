package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T) string {
	t.Helper()
	rr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestMetricsMiddleware_EmitsRequestCounters(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})

	rr := httptest.NewRecorder()
	MetricsMiddleware(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))
	require.Equal(t, http.StatusTeapot, rr.Code)
	assert.Equal(t, "short and stout", rr.Body.String())

	body := scrape(t)
	for _, want := range []string{
		"unitconverter_http_requests_total",
		"unitconverter_http_inflight_requests",
		"unitconverter_http_response_size_bytes",
		`status="418"`,
		`route="unmatched"`,
	} {
		assert.Contains(t, body, want)
	}
}

func TestMetricsMiddleware_ImplicitOK(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	MetricsMiddleware(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPut, "/implicit", nil))
	var found bool
	for _, line := range strings.Split(scrape(t), "\n") {
		if strings.HasPrefix(line, "unitconverter_http_requests_total") && strings.Contains(line, `method="PUT"`) {
			found = strings.Contains(line, `status="200"`)
		}
	}
	assert.True(t, found, "handler that never calls WriteHeader counts as 200")
}
