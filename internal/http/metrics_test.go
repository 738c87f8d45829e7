package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fyrsmithlabs/lifearchitect/internal/telemetry"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestMetricsMiddleware_RecordsRouteTemplateAndStatus(t *testing.T) {
	tt := telemetry.NewTestTelemetry()
	m := newHTTPMetrics(tt.Meter("test"), nil)

	e := echo.New()
	e.Use(m.MetricsMiddleware())
	e.GET("/days/:day/tasks", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	e.GET("/boom", func(c echo.Context) error {
		return errors.New("boom")
	})

	for _, path := range []string{"/days/2024-06-01/tasks", "/days/today/tasks", "/boom"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	rm := tt.Collect(t)
	requests, ok := telemetry.FindMetric(rm, "architect.http.requests_total")
	require.True(t, ok)
	sum, ok := requests.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	counts := map[string]int64{}
	for _, dp := range sum.DataPoints {
		route, _ := dp.Attributes.Value(attribute.Key("route"))
		status, _ := dp.Attributes.Value(attribute.Key("status"))
		counts[route.AsString()+" "+status.Emit()] += dp.Value
	}
	assert.Equal(t, int64(2), counts["/days/:day/tasks 200"])
	assert.Equal(t, int64(1), counts["/boom 500"])

	_, ok = telemetry.FindMetric(rm, "architect.http.request_duration_seconds")
	assert.True(t, ok)
}
