package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveReload(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveReload(nil, 5)
	m.ObserveReload(errors.New("boom"), 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Reloads.WithLabelValues(ReloadOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Reloads.WithLabelValues(ReloadFailed)))
	// Неудачная перезагрузка не меняет размер набора
	assert.Equal(t, 5.0, testutil.ToFloat64(m.RecipesLoaded))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.ObserveReload(nil, 1) })
}

func TestServerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.Actions.WithLabelValues("authoritative", ResultMatched).Inc()

	srv := NewServer(":0", reg, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `interactions_actions_total{result="matched",side="authoritative"} 1`)
}
