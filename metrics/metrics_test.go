package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMiddlewareRecordsRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/foodItems/getItemId/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/foodItems/getItemId/42", nil))

	out := scrape(t, m)
	assert.Contains(t, out, `quickbite_http_requests_total{method="GET",route="/foodItems/getItemId/:id",status="404"} 1`)
	assert.Contains(t, out, "quickbite_http_request_duration_seconds_bucket")
}

func TestDomainCounters(t *testing.T) {
	m := New()
	m.OrderCreated()
	m.OrderCreated()
	m.PaymentVerified("callback", "success")
	m.PaymentVerified("webhook", "signature_mismatch")
	m.GatewayCall(30*time.Millisecond, nil)
	m.GatewayCall(time.Second, errors.New("timeout"))

	out := scrape(t, m)
	assert.Contains(t, out, "quickbite_orders_created_total 2")
	assert.Contains(t, out, `quickbite_payment_verifications_total{result="success",source="callback"} 1`)
	assert.Contains(t, out, `quickbite_payment_verifications_total{result="signature_mismatch",source="webhook"} 1`)
	assert.Contains(t, out, `quickbite_gateway_request_duration_seconds_count{outcome="error"} 1`)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.OrderCreated()
		m.PaymentVerified("callback", "success")
		m.GatewayCall(time.Millisecond, nil)
	})
}
