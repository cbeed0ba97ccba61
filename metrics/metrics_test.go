package metrics

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/robbyt/go-polyexpr/engines/mocks"
	"github.com/robbyt/go-polyexpr/engines/types"
	"github.com/robbyt/go-polyexpr/platform/future"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("unregistered", func(t *testing.T) {
		m, err := New(nil)
		require.NoError(t, err)
		require.NotNil(t, m)
	})

	t.Run("registering twice reuses collectors", func(t *testing.T) {
		reg := prometheus.NewPedanticRegistry()
		first, err := New(reg)
		require.NoError(t, err)
		second, err := New(reg)
		require.NoError(t, err)
		assert.Same(t, first.evaluations, second.evaluations)
		assert.Same(t, first.duration, second.duration)
		assert.Same(t, first.inflight, second.inflight)
	})

	t.Run("conflicting collector", func(t *testing.T) {
		reg := prometheus.NewPedanticRegistry()
		reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{
			Name: "polyexpr_evaluations_total",
			Help: "something else",
		}))
		_, err := New(reg)
		require.Error(t, err)
	})
}

func TestWrapEval(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewPedanticRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	boom := errors.New("boom")
	inner := new(mocks.Program[string])
	inner.On("Eval", mock.Anything, "ok").Return("out", nil)
	inner.On("Eval", mock.Anything, "bad").Return("", boom)
	inner.On("Eval", mock.Anything, "slow").Return("", context.Canceled)

	p := Wrap(m, types.Graph, inner)

	got, err := p.Eval(t.Context(), "ok")
	require.NoError(t, err)
	assert.Equal(t, "out", got)

	_, err = p.Eval(t.Context(), "bad")
	assert.Equal(t, boom, err, "errors pass through unchanged")

	_, err = p.Eval(t.Context(), "slow")
	require.ErrorIs(t, err, context.Canceled)

	inner.AssertExpectations(t)

	expected := `
# HELP polyexpr_evaluations_total Total number of expression evaluations by strategy and result.
# TYPE polyexpr_evaluations_total counter
polyexpr_evaluations_total{result="canceled",strategy="graph"} 1
polyexpr_evaluations_total{result="error",strategy="graph"} 1
polyexpr_evaluations_total{result="success",strategy="graph"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "polyexpr_evaluations_total"))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
	assert.InDelta(t, 0, testutil.ToFloat64(m.inflight.WithLabelValues("graph")), 0)
}

func TestWrapEvalAsync(t *testing.T) {
	t.Parallel()

	m, err := New(nil)
	require.NoError(t, err)

	pending, complete := future.New()
	inner := new(mocks.Program[string])
	inner.On("EvalAsync", mock.Anything, "env").Return(pending)

	p := Wrap(m, types.Starlark, inner)
	f := p.EvalAsync(t.Context(), "env")
	assert.Same(t, pending, f)

	inflight := m.inflight.WithLabelValues("starlark")
	assert.InDelta(t, 1, testutil.ToFloat64(inflight), 0)

	complete("done", nil)
	v, err := f.Await(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "done", v)

	assert.InDelta(t, 0, testutil.ToFloat64(inflight), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.evaluations.WithLabelValues("starlark", resultSuccess)), 0)
}

func TestResult(t *testing.T) {
	t.Parallel()

	assert.Equal(t, resultSuccess, result(nil))
	assert.Equal(t, resultError, result(errors.New("x")))
	assert.Equal(t, resultCanceled, result(context.DeadlineExceeded))
}
