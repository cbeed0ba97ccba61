// Package constants holds names shared between the evaluators and their hosts.
package constants

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// EvalData is the context key under which a data.ContextProvider stores the values
	// available to keyed env lookups.
	EvalData ContextKey = "eval_data"

	// EnvParam is the parameter name of every generated starlark entry point.
	EnvParam = "env"
)
