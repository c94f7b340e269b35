package table

import (
	"log/slog"

	"github.com/aretw0/foldtable/internal/logging"
	"github.com/aretw0/foldtable/pkg/diagnostics"
	"github.com/aretw0/foldtable/pkg/domain"
)

type config struct {
	glue   string
	strict bool
	warner diagnostics.Warner
	logger *slog.Logger
}

// Option configures Flatten.
type Option func(*config)

// WithGlue sets the separator between group and child keys. Empty means domain.DefaultGlue.
func WithGlue(glue string) Option {
	return func(c *config) {
		c.glue = glue
	}
}

// WithStrict makes key collisions fail with domain.ErrKeyCollision instead of overwriting.
func WithStrict(strict bool) Option {
	return func(c *config) {
		c.strict = strict
	}
}

// WithWarner sets the sink for the "undefined" key diagnostic.
func WithWarner(w diagnostics.Warner) Option {
	return func(c *config) {
		c.warner = w
	}
}

// WithLogger sets a logger for debug output (overwritten keys).
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

func newConfig(opts []Option) *config {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}
	if c.glue == "" {
		c.glue = domain.DefaultGlue
	}
	if c.warner == nil {
		c.warner = diagnostics.Default()
	}
	if c.logger == nil {
		c.logger = logging.NewNop()
	}
	return c
}
