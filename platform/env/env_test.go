package env

import (
	"context"
	"errors"
	"testing"

	"github.com/robbyt/go-polyexpr/platform/constants"
	"github.com/robbyt/go-polyexpr/platform/data"
	"github.com/robbyt/go-polyexpr/platform/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type principal struct{ ID string }

type config struct{ BaseURL string }

type requestEnv struct {
	User    principal
	Backup  principal
	Config  config
	Tenant  string
	Version int64
}

type mockLookup struct {
	mock.Mock
}

func (m *mockLookup) Lookup(ctx context.Context, e *requestEnv, key types.Type) (any, error) {
	args := m.Called(ctx, e, key)
	return args.Get(0), args.Error(1)
}

func TestProp(t *testing.T) {
	t.Parallel()

	p := Prop("tenant", func(e *requestEnv) string { return e.Tenant })
	assert.Equal(t, "tenant", p.Name)
	assert.Equal(t, types.StringType, p.Type)
	assert.Equal(t, "acme", p.Get(&requestEnv{Tenant: "acme"}))
}

func TestSchemaResolve(t *testing.T) {
	t.Parallel()

	e := &requestEnv{
		User:    principal{ID: "u1"},
		Backup:  principal{ID: "u2"},
		Config:  config{BaseURL: "https://x"},
		Tenant:  "acme",
		Version: 3,
	}

	t.Run("unique property match", func(t *testing.T) {
		lookup := new(mockLookup)
		s := Schema[*requestEnv]{
			Properties: []Property[*requestEnv]{
				Prop("user", func(e *requestEnv) principal { return e.User }),
				Prop("config", func(e *requestEnv) config { return e.Config }),
			},
			Lookup: lookup.Lookup,
		}

		acc, err := s.Resolve(types.Of[config]())
		require.NoError(t, err)
		got, err := acc(t.Context(), e)
		require.NoError(t, err)
		assert.Equal(t, config{BaseURL: "https://x"}, got)
		lookup.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ambiguous match falls back to lookup", func(t *testing.T) {
		lookup := new(mockLookup)
		lookup.On("Lookup", mock.Anything, e, types.Of[principal]()).Return(principal{ID: "keyed"}, nil)
		s := Schema[*requestEnv]{
			Properties: []Property[*requestEnv]{
				Prop("user", func(e *requestEnv) principal { return e.User }),
				Prop("backup", func(e *requestEnv) principal { return e.Backup }),
			},
			Lookup: lookup.Lookup,
		}

		acc, err := s.Resolve(types.Of[principal]())
		require.NoError(t, err)
		got, err := acc(t.Context(), e)
		require.NoError(t, err)
		assert.Equal(t, principal{ID: "keyed"}, got)
		lookup.AssertExpectations(t)
	})

	t.Run("no match falls back to lookup", func(t *testing.T) {
		lookup := new(mockLookup)
		lookup.On("Lookup", mock.Anything, e, types.IntType).Return(int64(9), nil)
		s := Schema[*requestEnv]{Lookup: lookup.Lookup}

		acc, err := s.Resolve(types.IntType)
		require.NoError(t, err)
		got, err := acc(t.Context(), e)
		require.NoError(t, err)
		assert.Equal(t, int64(9), got)
	})

	t.Run("lookup errors propagate", func(t *testing.T) {
		boom := errors.New("boom")
		lookup := new(mockLookup)
		lookup.On("Lookup", mock.Anything, e, types.IntType).Return(nil, boom)
		s := Schema[*requestEnv]{Lookup: lookup.Lookup}

		acc, err := s.Resolve(types.IntType)
		require.NoError(t, err)
		_, err = acc(t.Context(), e)
		require.ErrorIs(t, err, boom)
	})

	t.Run("unresolvable without lookup", func(t *testing.T) {
		s := Schema[*requestEnv]{
			Properties: []Property[*requestEnv]{
				Prop("user", func(e *requestEnv) principal { return e.User }),
				Prop("backup", func(e *requestEnv) principal { return e.Backup }),
			},
		}
		_, err := s.Resolve(types.Of[principal]())
		require.ErrorIs(t, err, ErrUnresolvedInjection)

		_, err = s.Resolve(types.IntType)
		require.ErrorIs(t, err, ErrUnresolvedInjection)
	})
}

func TestSchemaFingerprint(t *testing.T) {
	t.Parallel()

	base := func() Schema[*requestEnv] {
		return Schema[*requestEnv]{
			Properties: []Property[*requestEnv]{
				Prop("user", func(e *requestEnv) principal { return e.User }),
				Prop("tenant", func(e *requestEnv) string { return e.Tenant }),
			},
		}
	}

	s := base()
	fp := s.Fingerprint()
	assert.Contains(t, fp, "user ")
	assert.Contains(t, fp, "tenant string")
	assert.Equal(t, fp, base().Fingerprint())

	t.Run("lookup", func(t *testing.T) {
		withLookup := base()
		withLookup.Lookup = func(context.Context, *requestEnv, types.Type) (any, error) { return nil, nil }
		assert.NotEqual(t, fp, withLookup.Fingerprint())
	})

	t.Run("name", func(t *testing.T) {
		named := base()
		named.Name = "backup"
		named.Properties[0] = Prop("user", func(e *requestEnv) principal { return e.Backup })
		assert.NotEqual(t, fp, named.Fingerprint())
	})

	t.Run("property order", func(t *testing.T) {
		swapped := base()
		swapped.Properties[0], swapped.Properties[1] = swapped.Properties[1], swapped.Properties[0]
		assert.NotEqual(t, fp, swapped.Fingerprint())
	})
}

func TestProviderLookup(t *testing.T) {
	t.Parallel()

	p := data.NewCompositeProvider(
		data.NewStaticProvider(map[string]any{"env.config": config{BaseURL: "static"}}),
		data.NewContextProvider(constants.EvalData),
	)
	ctx, err := p.AddDataToContext(t.Context(), map[string]any{"string": "from-request"})
	require.NoError(t, err)

	lookup := ProviderLookup[*requestEnv](p)

	got, err := lookup(ctx, nil, types.Of[config]())
	require.NoError(t, err)
	assert.Equal(t, config{BaseURL: "static"}, got)

	got, err = lookup(ctx, nil, types.StringType)
	require.NoError(t, err)
	assert.Equal(t, "from-request", got)

	_, err = lookup(ctx, nil, types.IntType)
	require.ErrorIs(t, err, ErrKeyNotFound)
}
