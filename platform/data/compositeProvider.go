package data

import (
	"context"
	"errors"
	"fmt"
	"maps"
)

// CompositeProvider layers providers; later providers override earlier ones.
type CompositeProvider struct {
	providers []Provider
}

// NewCompositeProvider creates a provider that queries the given providers in order.
func NewCompositeProvider(providers ...Provider) *CompositeProvider {
	return &CompositeProvider{providers: providers}
}

// GetData merges the data of every provider, deep-merging nested maps.
// The first provider error aborts the merge.
func (p *CompositeProvider) GetData(ctx context.Context) (map[string]any, error) {
	result := make(map[string]any)
	for i, provider := range p.providers {
		if provider == nil {
			continue
		}
		d, err := provider.GetData(ctx)
		if err != nil {
			return nil, fmt.Errorf("error from provider %d: %w", i, err)
		}
		result = deepMerge(result, d)
	}
	return result, nil
}

// deepMerge returns src overlaid with dst. Nested maps merge; other values are replaced.
func deepMerge(src, dst map[string]any) map[string]any {
	result := maps.Clone(src)
	for k, dstVal := range dst {
		srcMap, srcIsMap := result[k].(map[string]any)
		dstMap, dstIsMap := dstVal.(map[string]any)
		if srcIsMap && dstIsMap {
			result[k] = deepMerge(srcMap, dstMap)
			continue
		}
		result[k] = dstVal
	}
	return result
}

// AddDataToContext offers data to every provider. Static providers refuse runtime
// data and are skipped; the call fails only when no other provider accepted it.
func (p *CompositeProvider) AddDataToContext(
	ctx context.Context,
	data ...map[string]any,
) (context.Context, error) {
	finalCtx := ctx
	var errz []error
	accepted, candidates := 0, 0

	for i, provider := range p.providers {
		if provider == nil {
			continue
		}
		nextCtx, err := provider.AddDataToContext(finalCtx, data...)
		if errors.Is(err, ErrStaticProviderNoRuntimeUpdates) {
			continue
		}
		candidates++
		if err != nil {
			errz = append(errz, fmt.Errorf("error from provider %d: %w", i, err))
			continue
		}
		finalCtx = nextCtx
		accepted++
	}

	if candidates == 0 {
		return ctx, ErrStaticProviderNoRuntimeUpdates
	}
	if accepted == 0 {
		return ctx, errors.Join(errz...)
	}
	return finalCtx, nil
}
