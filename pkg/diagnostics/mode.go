package diagnostics

import (
	"os"
	"sync"

	"github.com/caarlos0/env/v11"
)

const (
	// EnvVar names the environment variable holding the runtime mode.
	EnvVar = "FOLDTABLE_ENV"

	// ProductionMode is the only mode that suppresses warnings.
	ProductionMode = "production"
)

type settings struct {
	Mode string `env:"FOLDTABLE_ENV"`
}

var (
	modeOnce sync.Once
	enabled  bool
)

// Enabled reports whether warnings are active for this process.
// The environment is inspected on first use only.
func Enabled() bool {
	modeOnce.Do(func() {
		enabled = FromEnviron(os.Environ())
	})
	return enabled
}

// FromEnviron evaluates the mode from a list of KEY=value pairs as returned by os.Environ.
// Anything that prevents reading the mode results in false (warnings suppressed).
func FromEnviron(environ []string) (active bool) {
	defer func() {
		if r := recover(); r != nil {
			active = false
		}
	}()

	var s settings
	if err := env.ParseWithOptions(&s, env.Options{Environment: env.ToMap(environ)}); err != nil {
		return false
	}
	return s.Mode != ProductionMode
}
