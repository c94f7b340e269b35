package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aretw0/foldtable/pkg/domain"
)

// FoldOptions configures the fold command.
type FoldOptions struct {
	EventsPath string
	Format     string
	// Trace prints one JSON line per event with the state diff it caused.
	Trace bool
	// StreamID persists the result through the configured store when set.
	StreamID string
}

// TraceStep is one line of --trace output.
type TraceStep struct {
	Index   int            `json:"index"`
	Type    string         `json:"type"`
	Matched bool           `json:"matched"`
	Diff    map[string]any `json:"diff,omitempty"`
}

// Fold reads events and reduces them, writing the final state (or snapshot) to w.
func Fold(ctx context.Context, app *App, opts FoldOptions, w io.Writer) error {
	events, err := ReadEvents(opts.EventsPath, opts.Format, app.Sanitizer)
	if err != nil {
		return err
	}
	app.Logger.Debug("Events loaded", "count", len(events))

	if opts.StreamID != "" {
		mgr, err := app.NewManager()
		if err != nil {
			return err
		}
		defer app.Close()

		snap, err := mgr.Apply(ctx, opts.StreamID, events...)
		if err != nil && ctx.Err() != nil {
			return fmt.Errorf("fold of %q interrupted (%s): %w", opts.StreamID, StopReason(ctx), err)
		}
		if err != nil {
			return fmt.Errorf("failed to apply events to %q: %w", opts.StreamID, err)
		}
		return writeIndented(w, snap)
	}

	state := app.Reducer.Initial().Clone()
	if state == nil {
		state = domain.Document{}
	}

	enc := json.NewEncoder(w)
	for i, evt := range events {
		next, err := app.Reducer.Reduce(state, evt)
		if err != nil {
			return fmt.Errorf("event %d (%s): %w", i, evt.Type, err)
		}
		if opts.Trace {
			step := TraceStep{
				Index:   i,
				Type:    evt.Type,
				Matched: app.Reducer.Table().Has(evt.Type),
				Diff:    domain.Diff(state, next),
			}
			if err := enc.Encode(step); err != nil {
				return err
			}
		}
		state = next
	}

	return writeIndented(w, state)
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
