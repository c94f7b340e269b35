package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/foldtable/internal/presentation/tui"
)

// Table output formats.
const (
	TableAuto     = "auto"
	TableText     = "text"
	TableMarkdown = "markdown"
	TableJSON     = "json"
)

// PrintTable writes the flattened handler keys of app to w.
// With TableAuto, a terminal gets rendered markdown and anything else gets plain text.
func PrintTable(app *App, format string, w io.Writer) error {
	keys := app.Keys()
	glue := app.Reducer.Table().Glue()

	if format == TableAuto || format == "" {
		format = TableText
		if f, ok := w.(*os.File); ok && tui.IsTerminal(f) {
			return renderMarkdown(f, tui.TableMarkdown(app.Definition.Name, glue, keys))
		}
	}

	switch format {
	case TableText:
		_, err := fmt.Fprintln(w, strings.Join(keys, "\n"))
		return err
	case TableMarkdown:
		_, err := io.WriteString(w, tui.TableMarkdown(app.Definition.Name, glue, keys))
		return err
	case TableJSON:
		return writeIndented(w, map[string]any{
			"name": app.Definition.Name,
			"glue": glue,
			"keys": keys,
		})
	default:
		return fmt.Errorf("unknown format %q (want auto, text, markdown or json)", format)
	}
}

func renderMarkdown(f *os.File, markdown string) error {
	render, err := tui.NewRenderer(tui.Width(f))
	if err != nil {
		return err
	}
	out, err := render(markdown)
	if err != nil {
		return err
	}
	_, err = io.WriteString(f, out)
	return err
}
