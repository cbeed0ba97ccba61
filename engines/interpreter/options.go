package interpreter

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/robbyt/go-polyexpr/internal/helpers"
)

// FunctionalOption configures an Interpreter.
type FunctionalOption func(*options) error

type options struct {
	logHandler slog.Handler
	logger     *slog.Logger
}

// WithLogHandler sets the log handler used by the interpreter and its programs.
func WithLogHandler(handler slog.Handler) FunctionalOption {
	return func(o *options) error {
		if handler == nil {
			return fmt.Errorf("log handler cannot be nil")
		}
		o.logHandler = handler
		o.logger = nil
		return nil
	}
}

// WithLogger sets a specific logger. WithLogHandler is usually the better choice.
func WithLogger(logger *slog.Logger) FunctionalOption {
	return func(o *options) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		o.logger = logger
		o.logHandler = nil
		return nil
	}
}

func (o *options) applyDefaults() {
	if o.logHandler == nil && o.logger == nil {
		o.logHandler = slog.NewTextHandler(os.Stderr, nil)
	}
}

func (o *options) validate() error {
	if o.logHandler == nil && o.logger == nil {
		return fmt.Errorf("either log handler or logger must be specified")
	}
	return nil
}

func (o *options) setupLogger() {
	if o.logger != nil {
		o.logHandler = o.logger.Handler()
		return
	}
	o.logHandler, o.logger = helpers.SetupLogger(o.logHandler, "interpreter", "Interpreter")
}
