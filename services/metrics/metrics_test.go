package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/educore/core/tenant"
	"github.com/trezcool/educore/storage/scope"
)

func TestMetrics_ObserveCall(t *testing.T) {
	m := New(prometheus.NewRegistry())
	next := scope.ExecutorFunc(func(ctx context.Context, call scope.Call) (scope.Result, error) {
		return scope.Result{}, nil
	})
	exec := scope.NewInterceptor(next, scope.Options{Observer: m})

	ctx := tenant.WithContext(context.Background(), tenant.Context{SchoolID: "s1"})
	for i := 0; i < 2; i++ {
		_, err := exec.Execute(ctx, scope.Call{Entity: "learners", Action: scope.FindMany})
		require.NoError(t, err)
	}
	_, err := exec.Execute(tenant.AsSystem(ctx), scope.Call{Entity: "learners", Action: scope.Count})
	require.NoError(t, err)
	_, err = exec.Execute(ctx, scope.Call{Entity: "schools", Action: scope.FindMany})
	require.NoError(t, err)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.scopedCalls.WithLabelValues("learners", "findMany", string(scope.OutcomeScoped))))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.scopedCalls.WithLabelValues("learners", "count", string(scope.OutcomeBypassed))))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.scopedCalls.WithLabelValues("schools", "findMany", string(scope.OutcomePassthrough))))
}

func TestMetrics_ObserveRequest(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveRequest("GET", "/v1/learners", 200, 20*time.Millisecond)
	m.ObserveRequest("GET", "/v1/learners", 200, 30*time.Millisecond)
	m.ObserveRequest("GET", "/v1/learners", 403, time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.requests.WithLabelValues("GET", "/v1/learners", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues("GET", "/v1/learners", "403")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.requestDuration))
}
