package data

import (
	"context"
	"maps"
)

// StaticProvider returns a fixed map, typically host configuration shared by every
// evaluation.
type StaticProvider struct {
	data map[string]any
}

// NewStaticProvider copies data into a new StaticProvider. A nil map is treated as empty.
func NewStaticProvider(data map[string]any) *StaticProvider {
	return &StaticProvider{data: maps.Clone(data)}
}

// GetData returns a copy of the static map.
func (p *StaticProvider) GetData(_ context.Context) (map[string]any, error) {
	if p.data == nil {
		return make(map[string]any), nil
	}
	return maps.Clone(p.data), nil
}

// AddDataToContext always fails: static data cannot change at runtime.
func (p *StaticProvider) AddDataToContext(
	ctx context.Context,
	_ ...map[string]any,
) (context.Context, error) {
	return ctx, ErrStaticProviderNoRuntimeUpdates
}
