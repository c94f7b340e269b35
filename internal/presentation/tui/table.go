package tui

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Width returns the terminal width of f, or 0 when unknown.
func Width(f *os.File) int {
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return w
}

// TableMarkdown renders flattened handler keys as a markdown document.
// Composite keys are split at the first glue occurrence into group and handler columns.
func TableMarkdown(name string, glue string, keys []string) string {
	var sb strings.Builder
	if name == "" {
		name = "reducer"
	}
	sb.WriteString(fmt.Sprintf("# %s\n\n", name))
	sb.WriteString(fmt.Sprintf("%d handlers, glue `%s`\n\n", len(keys), glue))
	sb.WriteString("| # | Key | Group | Handler |\n")
	sb.WriteString("|---|-----|-------|---------|\n")

	for i, key := range keys {
		group, handler := "", key
		if glue != "" {
			if before, after, ok := strings.Cut(key, glue); ok && before != "" {
				group, handler = before, after
			}
		}
		sb.WriteString(fmt.Sprintf("| %d | `%s` | %s | %s |\n", i+1, key, group, handler))
	}
	return sb.String()
}
