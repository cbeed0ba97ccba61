package data

import "errors"

var (
	ErrEmptyContextKey                = errors.New("context key is empty")
	ErrEmptyKey                       = errors.New("empty keys are not allowed")
	ErrStaticProviderNoRuntimeUpdates = errors.New("static provider does not accept runtime data")
)
