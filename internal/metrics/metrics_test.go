package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsExposed(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Requests.WithLabelValues("GET", "/products", "200").Inc()
	m.Verifications.WithLabelValues("completed").Add(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Verifications.WithLabelValues("completed")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `quickship_http_requests_total{method="GET",route="/products",status="200"} 1`)
}
