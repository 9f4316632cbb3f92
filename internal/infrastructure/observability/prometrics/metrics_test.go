package prometrics

import (
	"testing"

	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterIsRegisteredOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New("", "", reg)

	first := r.Counter("usecase_requests_total", "help", "use_case", "outcome")
	second := r.Counter("usecase_requests_total", "help", "use_case", "outcome")

	first.Add(1, observability.L("use_case", "cart.create"), observability.L("outcome", "success"))
	second.Bind(observability.L("use_case", "cart.create"), observability.L("outcome", "success")).Add(2)

	cv, ok := r.(*registry).counters.Load("usecase_requests_total")
	require.True(t, ok)
	assert.Equal(t, 3.0, testutil.ToFloat64(cv.(*prometheus.CounterVec).WithLabelValues("cart.create", "success")))
}

func TestStandardRegistersEveryKey(t *testing.T) {
	reg := prometheus.NewRegistry()
	counters, histograms := Standard(New("storefront", "", reg))

	assert.Len(t, counters, 4)
	assert.Len(t, histograms, 3)
	for key := range observability.MetricLabels {
		_, isCounter := counters[key]
		_, isHistogram := histograms[key]
		assert.True(t, isCounter || isHistogram, "missing instrument %s", key)
	}

	histograms[observability.MUsecaseDuration].Observe(0.2, observability.L("use_case", "purchase.checkout"))
	count, err := testutil.GatherAndCount(reg, "storefront_usecase_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
