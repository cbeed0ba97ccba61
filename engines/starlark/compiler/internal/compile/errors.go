package compile

import "errors"

var (
	ErrCompileFailed = errors.New("failed to compile starlark source")
	ErrContentNil    = errors.New("starlark content is nil")
)
