package graph

import "errors"

var (
	ErrUnknownFunction = errors.New("unknown function")
	ErrNilRegistry     = errors.New("registry is nil")
	ErrCompileFailed   = errors.New("graph compilation failed")
)
