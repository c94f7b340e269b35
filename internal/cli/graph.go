package cli

import (
	"io"

	"github.com/aretw0/foldtable/internal/config"
	"github.com/aretw0/foldtable/internal/presentation/graph"
	"github.com/aretw0/foldtable/pkg/reducer"
)

// PrintGraph writes a Mermaid flowchart of the rule file.
// When eventsPath is set, the events are folded and the matched handlers highlighted.
func PrintGraph(cfg *config.Config, opts Options, eventsPath, format string, w io.Writer) error {
	overlay := &graph.Overlay{}
	hooks := reducer.Hooks{OnDispatch: func(d reducer.Dispatch) {
		if d.Matched {
			overlay.Applied = append(overlay.Applied, d.Key)
			overlay.Last = d.Key
		}
	}}

	app, err := NewApp(cfg, opts, reducer.WithHooks(hooks))
	if err != nil {
		return err
	}

	if eventsPath == "" {
		_, err := io.WriteString(w, graph.GenerateMermaid(app.Definition, nil))
		return err
	}

	events, err := ReadEvents(eventsPath, format, app.Sanitizer)
	if err != nil {
		return err
	}
	// The overlay shows the handlers reached before a failure too.
	_, foldErr := app.Reducer.Fold(events...)
	if _, err := io.WriteString(w, graph.GenerateMermaid(app.Definition, overlay)); err != nil {
		return err
	}
	return foldErr
}
