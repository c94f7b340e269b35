package cli

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
)

var stopSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// StopContext is cancelled on SIGINT or SIGTERM and remembers which signal arrived.
type StopContext struct {
	context.Context
	cancel context.CancelFunc
	sig    atomic.Pointer[os.Signal]
}

// WithStopSignals returns a StopContext derived from parent.
// Call Stop to release the signal handler.
func WithStopSignals(parent context.Context) *StopContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &StopContext{Context: ctx, cancel: cancel}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, stopSignals...)
	go func() {
		defer signal.Stop(ch)
		select {
		case sig := <-ch:
			sc.sig.Store(&sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return sc
}

// Stop cancels the context.
func (sc *StopContext) Stop() {
	sc.cancel()
}

// Signal returns the signal that cancelled the context, or nil.
func (sc *StopContext) Signal() os.Signal {
	if p := sc.sig.Load(); p != nil {
		return *p
	}
	return nil
}

// StopReason names what ended ctx: the caught signal when there is one,
// otherwise the context error. It is empty while ctx is live.
func StopReason(ctx context.Context) string {
	if s, ok := ctx.(interface{ Signal() os.Signal }); ok {
		if sig := s.Signal(); sig != nil {
			return sig.String()
		}
	}
	if err := ctx.Err(); err != nil {
		return err.Error()
	}
	return ""
}
