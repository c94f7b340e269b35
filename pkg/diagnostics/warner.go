package diagnostics

import (
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/aretw0/foldtable/internal/logging"
)

// Warner receives diagnostic messages.
type Warner interface {
	Warn(msg string)
}

// WarnFunc adapts a plain function to the Warner interface.
type WarnFunc func(msg string)

// Warn implements Warner.
func (f WarnFunc) Warn(msg string) {
	f(msg)
}

type nopWarner struct{}

func (nopWarner) Warn(string) {}

// Nop returns a Warner that discards everything.
func Nop() Warner {
	return nopWarner{}
}

type logWarner struct {
	logger *slog.Logger
}

func (w logWarner) Warn(msg string) {
	w.logger.Warn(msg)
}

// NewLogWarner writes warnings to the given logger at Warn level.
// A nil logger means NewWriterWarner(os.Stderr).
func NewLogWarner(logger *slog.Logger) Warner {
	if logger == nil {
		return NewWriterWarner(os.Stderr)
	}
	return logWarner{logger: logger}
}

// NewWriterWarner writes each warning to w as a single
// `level=WARN msg="..."` line with no timestamp or other attributes.
func NewWriterWarner(w io.Writer) Warner {
	return logWarner{logger: logging.NewPlain(w, slog.LevelWarn)}
}

// Default returns the process-wide warner: a Stderr logger when Enabled, Nop otherwise.
func Default() Warner {
	return ForMode(Enabled())
}

// ForMode returns a Stderr warner when active is true and Nop otherwise.
func ForMode(active bool) Warner {
	if !active {
		return Nop()
	}
	return NewLogWarner(nil)
}

// Recorder is a Warner that keeps every message. Safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	messages []string
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Warn implements Warner.
func (r *Recorder) Warn(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

// Messages returns a copy of the recorded messages.
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.messages))
	copy(out, r.messages)
	return out
}

// Count returns how many messages were recorded.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}
