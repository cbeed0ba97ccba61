package cache

import "errors"

var (
	ErrInvalidSize = errors.New("cache size must be positive")
	ErrNilNode     = errors.New("cache key needs a node")
)
