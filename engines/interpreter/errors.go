package interpreter

import "errors"

var (
	ErrUnknownFunction = errors.New("unknown function")
	ErrNilRegistry     = errors.New("registry is nil")
)
