package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/foldtable/pkg/rules"
	"github.com/aretw0/foldtable/pkg/domain"
)

// Overlay contains dispatch data to visualize on the graph.
type Overlay struct {
	// Applied lists the keys that matched at least one event.
	Applied []string
	// Last is the key of the last matched event.
	Last string
}

// GenerateMermaid produces a Mermaid flowchart of a rule definition.
// It applies semantic styling:
// - Reducer root: ((Circle))
// - Group: subgraph
// - Null handler: {{Hexagon}}
// - Default: [Rectangle]
// Node IDs are the flattened keys, so overlay keys match them directly.
func GenerateMermaid(def *rules.Definition, overlay *Overlay) string {
	glue := def.Glue
	if glue == "" {
		glue = domain.DefaultGlue
	}

	name := def.Name
	if name == "" {
		name = "reducer"
	}

	var sb strings.Builder
	sb.WriteString("graph LR\n")
	sb.WriteString(fmt.Sprintf("    root((\"%s\"))\n", escapeLabel(name)))

	for _, rule := range def.Rules {
		if !rule.Group {
			writeLeaf(&sb, rule.Key, rule)
			sb.WriteString(fmt.Sprintf("    root --> %s\n", sanitizeMermaidID(rule.Key)))
			continue
		}

		groupID := "group_" + sanitizeMermaidID(rule.Key)
		sb.WriteString(fmt.Sprintf("    subgraph %s[\"%s\"]\n", groupID, escapeLabel(rule.Key)))
		for _, child := range rule.Children {
			sb.WriteString("    ")
			writeLeaf(&sb, rule.Key+glue+child.Key, child)
		}
		sb.WriteString("    end\n")
		sb.WriteString(fmt.Sprintf("    root --> %s\n", groupID))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef applied fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef last fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, key := range overlay.Applied {
			safeID := sanitizeMermaidID(key)
			if !seen[safeID] && safeID != "" {
				seen[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s applied;\n", safeID))
			}
		}

		if overlay.Last != "" {
			sb.WriteString(fmt.Sprintf("    class %s last;\n", sanitizeMermaidID(overlay.Last)))
		}
	}

	return sb.String()
}

func writeLeaf(sb *strings.Builder, key string, rule rules.Rule) {
	opener, closer := "[", "]"
	if rule.Null {
		opener, closer = "{{", "}}"
	}

	label := escapeLabel(key)
	if len(rule.Steps) > 0 {
		label = fmt.Sprintf("%s <br/> %s", label, stepSummary(rule.Steps))
	}
	sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", sanitizeMermaidID(key), opener, label, closer))
}

func stepSummary(steps []rules.Step) string {
	ops := make([]string, len(steps))
	for i, s := range steps {
		ops[i] = s.Op
	}
	return strings.Join(ops, ", ")
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
