package polyexpr

import "errors"

var (
	ErrNilRegistry   = errors.New("registry is nil")
	ErrTypeCheck     = errors.New("type check failed")
	ErrEmptyBatch    = errors.New("no expressions to compile")
	ErrDuplicateName = errors.New("duplicate expression name")
)
