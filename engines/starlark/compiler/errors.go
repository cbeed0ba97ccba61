package compiler

import (
	"errors"

	"github.com/robbyt/go-polyexpr/engines/starlark/compiler/internal/compile"
)

var (
	// ErrCompileFailed wraps every compilation failure, whether found while emitting
	// source or reported by the Starlark resolver.
	ErrCompileFailed = compile.ErrCompileFailed

	ErrUnknownFunction = errors.New("unknown function")
	ErrEmptyBatch      = errors.New("no expressions to compile")
	ErrDuplicateName   = errors.New("duplicate expression name")
	ErrNilRegistry     = errors.New("registry is nil")
)
