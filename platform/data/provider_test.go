package data

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/robbyt/go-polyexpr/platform/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	simpleData = map[string]any{
		"string": "value",
		"int":    42,
		"bool":   true,
	}

	complexData = map[string]any{
		"tenant": "acme",
		"nested": map[string]any{
			"key":   "nested value",
			"inner": map[string]any{"deep": "very deep"},
		},
	}
)

// MockProvider is a testify mock implementation of Provider
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) GetData(ctx context.Context) (map[string]any, error) {
	args := m.Called(ctx)
	d, _ := args.Get(0).(map[string]any)
	return d, args.Error(1)
}

func (m *MockProvider) AddDataToContext(ctx context.Context, d ...map[string]any) (context.Context, error) {
	args := m.Called(ctx, d)
	newCtx, _ := args.Get(0).(context.Context)
	return newCtx, args.Error(1)
}

func TestStaticProvider(t *testing.T) {
	t.Parallel()

	t.Run("nil data is empty", func(t *testing.T) {
		got, err := NewStaticProvider(nil).GetData(t.Context())
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("returns copies", func(t *testing.T) {
		input := map[string]any{"a": 1}
		p := NewStaticProvider(input)
		input["a"] = 2

		got, err := p.GetData(t.Context())
		require.NoError(t, err)
		assert.Equal(t, 1, got["a"])

		got["a"] = 3
		again, err := p.GetData(t.Context())
		require.NoError(t, err)
		assert.Equal(t, 1, again["a"])
	})

	t.Run("refuses runtime data", func(t *testing.T) {
		ctx := t.Context()
		got, err := NewStaticProvider(simpleData).AddDataToContext(ctx, map[string]any{"x": 1})
		require.ErrorIs(t, err, ErrStaticProviderNoRuntimeUpdates)
		assert.Equal(t, ctx, got)
	})
}

func TestContextProvider(t *testing.T) {
	t.Parallel()

	t.Run("empty key", func(t *testing.T) {
		p := NewContextProvider("")
		_, err := p.GetData(t.Context())
		require.ErrorIs(t, err, ErrEmptyContextKey)
		_, err = p.AddDataToContext(t.Context(), simpleData)
		require.ErrorIs(t, err, ErrEmptyContextKey)
	})

	t.Run("nothing stored", func(t *testing.T) {
		got, err := NewContextProvider(constants.EvalData).GetData(t.Context())
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("wrong type stored", func(t *testing.T) {
		ctx := context.WithValue(t.Context(), constants.EvalData, "oops")
		_, err := NewContextProvider(constants.EvalData).GetData(ctx)
		require.Error(t, err)
	})

	t.Run("round trip with merge", func(t *testing.T) {
		p := NewContextProvider(constants.EvalData)
		ctx, err := p.AddDataToContext(t.Context(), complexData)
		require.NoError(t, err)
		ctx, err = p.AddDataToContext(ctx, map[string]any{
			"nested": map[string]any{"inner": map[string]any{"other": "x"}},
			"tenant": "globex",
		})
		require.NoError(t, err)

		got, err := p.GetData(ctx)
		require.NoError(t, err)
		assert.Equal(t, "globex", got["tenant"])
		assert.Equal(t, map[string]any{
			"key":   "nested value",
			"inner": map[string]any{"deep": "very deep", "other": "x"},
		}, got["nested"])

		// the input map is never modified
		assert.Equal(t, map[string]any{"deep": "very deep"},
			complexData["nested"].(map[string]any)["inner"])
	})

	t.Run("requests are flattened", func(t *testing.T) {
		p := NewContextProvider(constants.EvalData)
		req := httptest.NewRequest(http.MethodGet, "http://example.com/a", nil)
		ctx, err := p.AddDataToContext(t.Context(), map[string]any{"request": req})
		require.NoError(t, err)

		got, err := p.GetData(ctx)
		require.NoError(t, err)
		attrs, ok := got["request"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "/a", attrs["path"])
	})

	t.Run("empty keys are reported", func(t *testing.T) {
		p := NewContextProvider(constants.EvalData)
		ctx, err := p.AddDataToContext(t.Context(), map[string]any{"": 1, "ok": 2})
		require.ErrorIs(t, err, ErrEmptyKey)

		got, err := p.GetData(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"ok": 2}, got)
	})
}

func TestCompositeProvider(t *testing.T) {
	t.Parallel()

	t.Run("later providers win", func(t *testing.T) {
		ctxProvider := NewContextProvider(constants.EvalData)
		p := NewCompositeProvider(
			NewStaticProvider(map[string]any{"tenant": "default", "region": "eu"}),
			nil,
			ctxProvider,
		)

		ctx, err := p.AddDataToContext(t.Context(), map[string]any{"tenant": "acme"})
		require.NoError(t, err)

		got, err := p.GetData(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"tenant": "acme", "region": "eu"}, got)
	})

	t.Run("only static providers", func(t *testing.T) {
		p := NewCompositeProvider(NewStaticProvider(simpleData))
		_, err := p.AddDataToContext(t.Context(), simpleData)
		require.ErrorIs(t, err, ErrStaticProviderNoRuntimeUpdates)
	})

	t.Run("getter error aborts", func(t *testing.T) {
		boom := errors.New("boom")
		m := new(MockProvider)
		m.On("GetData", mock.Anything).Return(nil, boom)

		_, err := NewCompositeProvider(NewStaticProvider(simpleData), m).GetData(t.Context())
		require.ErrorIs(t, err, boom)
		m.AssertExpectations(t)
	})

	t.Run("one accepting provider is enough", func(t *testing.T) {
		boom := errors.New("boom")
		failing := new(MockProvider)
		failing.On("AddDataToContext", mock.Anything, mock.Anything).Return(nil, boom)

		ctxProvider := NewContextProvider(constants.EvalData)
		p := NewCompositeProvider(failing, ctxProvider)
		ctx, err := p.AddDataToContext(t.Context(), map[string]any{"a": 1})
		require.NoError(t, err)

		got, err := ctxProvider.GetData(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, got["a"])
	})

	t.Run("all providers failing", func(t *testing.T) {
		boom := errors.New("boom")
		failing := new(MockProvider)
		failing.On("AddDataToContext", mock.Anything, mock.Anything).Return(nil, boom)

		_, err := NewCompositeProvider(failing).AddDataToContext(t.Context(), simpleData)
		require.ErrorIs(t, err, boom)
	})
}
