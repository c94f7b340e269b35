package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the foldtable banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"   __       _     _ _        _     _      ", "#818cf8"},
		{"  / _| ___ | | __| | |_ __ _| |__ | | ___ ", "#a78bfa"},
		{" | |_ / _ \\| |/ _` | __/ _` | '_ \\| |/ _ \\", "#c084fc"},
		{" |  _| (_) | | (_| | || (_| | |_) | |  __/", "#e879f9"},
		{" |_|  \\___/|_|\\__,_|\\__\\__,_|_.__/|_|\\___|", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
