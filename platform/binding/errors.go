package binding

import "errors"

var (
	ErrMissingArgument  = errors.New("missing required argument")
	ErrTooManyArguments = errors.New("too many arguments")
	ErrNotDeferred      = errors.New("async function did not return a deferred value")
	ErrNilDescriptor    = errors.New("descriptor is nil")
	ErrFunctionPanicked = errors.New("function panicked")
)
