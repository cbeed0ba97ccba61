package mocks

import (
	"context"

	"github.com/robbyt/go-polyexpr/platform/future"
	"github.com/stretchr/testify/mock"
)

// Program is a mock implementation of platform.Program for testing purposes.
type Program[E any] struct {
	mock.Mock
}

// Eval is a mock implementation of the Eval method.
func (m *Program[E]) Eval(ctx context.Context, env E) (string, error) {
	args := m.Called(ctx, env)
	return args.String(0), args.Error(1)
}

// EvalAsync is a mock implementation of the EvalAsync method.
func (m *Program[E]) EvalAsync(ctx context.Context, env E) *future.Future {
	args := m.Called(ctx, env)
	return args.Get(0).(*future.Future)
}
