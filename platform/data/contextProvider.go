package data

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"

	"github.com/robbyt/go-polyexpr/internal/helpers"
	"github.com/robbyt/go-polyexpr/platform/constants"
)

// ContextProvider stores values in, and reads them from, a context.Context under a key.
type ContextProvider struct {
	contextKey constants.ContextKey
}

// NewContextProvider creates a ContextProvider bound to contextKey.
func NewContextProvider(contextKey constants.ContextKey) *ContextProvider {
	return &ContextProvider{contextKey: contextKey}
}

// GetData returns the map stored in ctx, or an empty map when nothing was stored.
func (p *ContextProvider) GetData(ctx context.Context) (map[string]any, error) {
	if p.contextKey == "" {
		return nil, ErrEmptyContextKey
	}

	value := ctx.Value(p.contextKey)
	if value == nil {
		return make(map[string]any), nil
	}

	d, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid data type in context: expected map[string]any, got %T", value)
	}
	return d, nil
}

// AddDataToContext merges data into the map already stored in ctx and returns a derived
// context. Nested maps merge recursively, later values win, and *http.Request values
// are flattened with helpers.RequestAttributes. Entries that fail are skipped and
// reported together; the returned context still carries the rest.
func (p *ContextProvider) AddDataToContext(
	ctx context.Context,
	data ...map[string]any,
) (context.Context, error) {
	if p.contextKey == "" {
		return ctx, ErrEmptyContextKey
	}

	toStore := make(map[string]any)
	if existing, ok := ctx.Value(p.contextKey).(map[string]any); ok {
		maps.Copy(toStore, existing)
	}

	var errz []error
	for _, dataMap := range data {
		for key, value := range dataMap {
			if key == "" {
				errz = append(errz, ErrEmptyKey)
				continue
			}
			processed, err := processValue(value)
			if err != nil {
				errz = append(errz, fmt.Errorf("processing value for key %q: %w", key, err))
				continue
			}
			mergeIntoMap(toStore, key, processed)
		}
	}

	return context.WithValue(ctx, p.contextKey, toStore), errors.Join(errz...)
}

func processValue(value any) (any, error) {
	switch v := value.(type) {
	case *http.Request:
		if v == nil {
			return nil, nil
		}
		return helpers.RequestAttributes(v)
	case map[string]any:
		result := make(map[string]any, len(v))
		for k, val := range v {
			if k == "" {
				return nil, ErrEmptyKey
			}
			processed, err := processValue(val)
			if err != nil {
				return nil, fmt.Errorf("processing nested value for key %q: %w", k, err)
			}
			result[k] = processed
		}
		return result, nil
	default:
		return v, nil
	}
}

// mergeIntoMap writes value under key, merging recursively when both sides are maps.
func mergeIntoMap(target map[string]any, key string, value any) {
	if newMap, ok := value.(map[string]any); ok {
		if existing, ok := target[key].(map[string]any); ok {
			merged := maps.Clone(existing)
			for k, v := range newMap {
				mergeIntoMap(merged, k, v)
			}
			target[key] = merged
			return
		}
	}
	target[key] = value
}
