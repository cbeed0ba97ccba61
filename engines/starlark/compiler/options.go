package compiler

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/robbyt/go-polyexpr/internal/helpers"
)

// FunctionalOption is a function that configures a Compiler instance
type FunctionalOption func(*options) error

type options struct {
	logHandler slog.Handler
	logger     *slog.Logger
	filename   string
}

// WithLogHandler creates an option to set the log handler for the Starlark compiler.
// This is the preferred option for logging configuration as it provides
// more flexibility through the slog.Handler interface.
func WithLogHandler(handler slog.Handler) FunctionalOption {
	return func(o *options) error {
		if handler == nil {
			return fmt.Errorf("log handler cannot be nil")
		}
		o.logHandler = handler
		// Clear logger if handler is explicitly set
		o.logger = nil
		return nil
	}
}

// WithLogger creates an option to set a specific logger for the Starlark compiler.
func WithLogger(logger *slog.Logger) FunctionalOption {
	return func(o *options) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		o.logger = logger
		// Clear handler if logger is explicitly set
		o.logHandler = nil
		return nil
	}
}

// WithFilename sets the file name reported in Starlark positions and call stacks.
func WithFilename(name string) FunctionalOption {
	return func(o *options) error {
		if name == "" {
			return fmt.Errorf("filename cannot be empty")
		}
		o.filename = name
		return nil
	}
}

// setupLogger configures the logger and handler based on the current state.
func (o *options) setupLogger() {
	if o.logger != nil {
		o.logHandler = o.logger.Handler()
		return
	}
	o.logHandler, o.logger = helpers.SetupLogger(o.logHandler, "starlark", "Compiler")
}

func (o *options) validate() error {
	if o.logHandler == nil && o.logger == nil {
		return fmt.Errorf("either log handler or logger must be specified")
	}
	return nil
}

func (o *options) applyDefaults() {
	if o.logHandler == nil && o.logger == nil {
		o.logHandler = slog.NewTextHandler(os.Stderr, nil)
	}
	if o.filename == "" {
		o.filename = defaultFilename
	}
}
