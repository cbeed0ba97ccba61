package registry

import "errors"

var (
	ErrBlankName         = errors.New("function name is blank")
	ErrNilEntryPoint     = errors.New("function entry point is nil")
	ErrVoidResult        = errors.New("function result type is void")
	ErrInvalidParameter  = errors.New("function parameter type is invalid")
	ErrInvalidDefault    = errors.New("function parameter default is not convertible")
	ErrDuplicateFunction = errors.New("function is registered more than once")
)
