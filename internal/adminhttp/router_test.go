package adminhttp

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"event-shipper/internal/shared/loggers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthzReturnsOK(t *testing.T) {
	t.Parallel()

	logger, err := loggers.New("info")
	require.NoError(t, err)
	router := NewRouter(logger)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"ok"`)
}

func TestMetricsRouteServesPrometheusFormat(t *testing.T) {
	t.Parallel()

	logger, err := loggers.New("info")
	require.NoError(t, err)
	router := NewRouter(logger)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestUnknownRouteReturns404(t *testing.T) {
	t.Parallel()

	logger, err := loggers.New("info")
	require.NoError(t, err)
	router := NewRouter(logger)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
