package reducer

import (
	"log/slog"
	"time"

	"github.com/aretw0/foldtable/pkg/diagnostics"
	"github.com/aretw0/foldtable/pkg/table"
)

// Dispatch describes one call to Reducer.Dispatch, as seen by hooks.
type Dispatch struct {
	// Key is the event discriminant.
	Key string
	// Matched is true when a handler was found for Key.
	Matched bool
	// Duration is the time spent inside the handler.
	Duration time.Duration
	// Err is the handler error, if any.
	Err error
}

// Hooks lets callers observe dispatching without touching handlers.
type Hooks struct {
	OnDispatch func(Dispatch)
}

type config struct {
	glue        string
	strict      bool
	warner      diagnostics.Warner
	diagnostics *bool
	logger      *slog.Logger
	hooks       Hooks
}

// Option defines a functional option for configuring a Reducer.
type Option func(*config)

// WithGlue sets the separator between group and child keys (default "_").
func WithGlue(glue string) Option {
	return func(c *config) {
		c.glue = glue
	}
}

// WithStrict makes construction fail on key collisions.
func WithStrict(strict bool) Option {
	return func(c *config) {
		c.strict = strict
	}
}

// WithWarner sends diagnostics to w instead of Stderr.
// Nothing reaches w while diagnostics are disabled.
func WithWarner(w diagnostics.Warner) Option {
	return func(c *config) {
		c.warner = w
	}
}

// WithDiagnostics overrides the process-wide diagnostics mode for this reducer.
func WithDiagnostics(enabled bool) Option {
	return func(c *config) {
		c.diagnostics = &enabled
	}
}

// WithLogger sets a structured logger for construction-time debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks Hooks) Option {
	return func(c *config) {
		c.hooks = hooks
	}
}

func (c *config) resolveWarner() diagnostics.Warner {
	active := diagnostics.Enabled()
	if c.diagnostics != nil {
		active = *c.diagnostics
	}
	if !active {
		return diagnostics.Nop()
	}
	if c.warner != nil {
		return c.warner
	}
	return diagnostics.NewLogWarner(c.logger)
}

func (c *config) tableOptions(warner diagnostics.Warner) []table.Option {
	opts := []table.Option{
		table.WithGlue(c.glue),
		table.WithStrict(c.strict),
		table.WithWarner(warner),
	}
	if c.logger != nil {
		opts = append(opts, table.WithLogger(c.logger))
	}
	return opts
}
