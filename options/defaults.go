package options

import (
	"log/slog"
	"os"

	"github.com/robbyt/go-polyexpr/engines/types"
)

// DefaultStrategy is used when no strategy is specified
const DefaultStrategy = types.Graph

// DefaultConfig initializes a Config with sensible defaults: the graph strategy,
// folding and type checking enabled, no cache and no metrics
func DefaultConfig() *Config {
	cfg := &Config{
		folding:   true,
		typeCheck: true,
	}
	cfg.SetStrategy(DefaultStrategy)
	cfg.SetHandler(DefaultHandler())
	return cfg
}

// DefaultHandler returns the default logging handler
func DefaultHandler() slog.Handler {
	return slog.NewTextHandler(os.Stdout, nil)
}

// WithDefaults applies default values to any config properties that are unset
func WithDefaults() Option {
	return func(c *Config) error {
		if c.handler == nil {
			c.handler = DefaultHandler()
		}

		if c.strategy == "" {
			c.strategy = DefaultStrategy
		}

		return nil
	}
}
