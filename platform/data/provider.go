// Package data supplies keyed values to the env lookup used for injected parameters.
//
// A Provider reads a map of values for one evaluation. Values can be fixed at build time
// (StaticProvider), attached to the context.Context of a request (ContextProvider), or a
// layered mix of both (CompositeProvider). env.ProviderLookup adapts any Getter into the
// keyed lookup an env schema falls back to.
package data

import (
	"context"
)

// Getter retrieves the values visible to one evaluation.
type Getter interface {
	GetData(ctx context.Context) (map[string]any, error)
}

// Setter enriches a context with values for a later evaluation. This separates
// request-time data preparation from evaluation, which may run elsewhere.
//
// Example:
//
//	ctx, err := provider.AddDataToContext(ctx, map[string]any{"request": req})
//	if err != nil {
//	    return err
//	}
//	out, err := program.Eval(ctx, env)
type Setter interface {
	AddDataToContext(ctx context.Context, data ...map[string]any) (context.Context, error)
}

// Provider is both a Getter and a Setter.
type Provider interface {
	Getter
	Setter
}
