package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T) string {
	t.Helper()
	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestMiddleware_LabelsByRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/api/products/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products/abc", nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	body := scrape(t)
	assert.Contains(t, body, `path="/api/products/:id"`)
	assert.NotContains(t, body, `path="/api/products/abc"`)
}

func TestDomainCollectors(t *testing.T) {
	RecordTransaction("created")
	RecordDashboardCache(true)
	RecordEvent("products", "INSERT")
	SetProbeOnline(true)
	SetSubscribers(3)

	body := scrape(t)
	assert.Contains(t, body, `stockinator_sales_transactions_total{outcome="created"}`)
	assert.Contains(t, body, `stockinator_dashboard_cache_lookups_total{result="hit"}`)
	assert.Contains(t, body, `stockinator_realtime_events_total{table="products",type="INSERT"}`)
	assert.Contains(t, body, "stockinator_probe_backend_online 1")
	assert.Contains(t, body, "stockinator_realtime_subscribers 3")
}
