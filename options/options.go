package options

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/robbyt/go-polyexpr/cache"
	"github.com/robbyt/go-polyexpr/engines/types"
)

// Config holds all configuration for compiling expressions
type Config struct {
	// Logger for the compilers
	handler slog.Handler
	// Evaluation strategy (interpreter, graph, starlark)
	strategy types.Type
	// Fold constant interpolations before compiling
	folding bool
	// Abort compilation when the checker reports errors
	typeCheck bool
	// Compiled program cache, shared between calls
	cache *cache.Cache
	// Registerer for evaluation metrics; nil disables instrumentation
	metrics prometheus.Registerer
}

// Option is a function that modifies Config
type Option func(*Config) error

// WithStrategy selects the evaluation strategy
func WithStrategy(strategy types.Type) Option {
	return func(c *Config) error {
		if _, err := types.Parse(string(strategy)); err != nil {
			return err
		}
		c.strategy = strategy
		return nil
	}
}

// WithLogHandler sets the log handler passed to the compilers
func WithLogHandler(handler slog.Handler) Option {
	return func(c *Config) error {
		if handler == nil {
			return fmt.Errorf("log handler cannot be nil")
		}
		c.handler = handler
		return nil
	}
}

// WithLogger uses the handler of logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		c.handler = logger.Handler()
		return nil
	}
}

// WithFolding enables or disables constant folding
func WithFolding(enabled bool) Option {
	return func(c *Config) error {
		c.folding = enabled
		return nil
	}
}

// WithTypeCheck enables or disables the type check that runs before compilation
func WithTypeCheck(enabled bool) Option {
	return func(c *Config) error {
		c.typeCheck = enabled
		return nil
	}
}

// WithCache reuses compiled programs from cc
func WithCache(cc *cache.Cache) Option {
	return func(c *Config) error {
		if cc == nil {
			return fmt.Errorf("cache cannot be nil")
		}
		c.cache = cc
		return nil
	}
}

// WithMetrics instruments compiled programs and registers their collectors with reg
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Config) error {
		if reg == nil {
			return fmt.Errorf("metrics registerer cannot be nil")
		}
		c.metrics = reg
		return nil
	}
}

// Validate performs basic validation on the configuration
func (c *Config) Validate() error {
	if c.strategy == "" {
		return fmt.Errorf("no strategy specified")
	}
	if c.handler == nil {
		return fmt.Errorf("no log handler specified")
	}
	return nil
}

// GetHandler returns the configured log handler
func (c *Config) GetHandler() slog.Handler {
	return c.handler
}

// SetHandler sets the log handler
func (c *Config) SetHandler(handler slog.Handler) {
	c.handler = handler
}

// GetStrategy returns the configured strategy
func (c *Config) GetStrategy() types.Type {
	return c.strategy
}

// SetStrategy sets the strategy
func (c *Config) SetStrategy(strategy types.Type) {
	c.strategy = strategy
}

// Folding reports whether constant folding is enabled
func (c *Config) Folding() bool {
	return c.folding
}

// TypeCheck reports whether compilation is preceded by a type check
func (c *Config) TypeCheck() bool {
	return c.typeCheck
}

// GetCache returns the configured cache, or nil
func (c *Config) GetCache() *cache.Cache {
	return c.cache
}

// GetMetrics returns the configured registerer, or nil
func (c *Config) GetMetrics() prometheus.Registerer {
	return c.metrics
}
