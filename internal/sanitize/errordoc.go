package sanitize

import (
	"strings"

	"github.com/aiuml/api/internal/prompt"
)

// ErrorDocument renders a single-node diagram carrying message. Double
// quotes become single quotes and line breaks become spaces so the label
// stays inside its quoted node.
func ErrorDocument(message string, notation prompt.Notation) string {
	label := "AI Error: " + escapeLabel(message)

	if notation == prompt.NotationPlantUML {
		return "@startuml\nrectangle \"" + label + "\" as Error\n@enduml"
	}
	return "graph TD\n  Error[\"" + label + "\"]"
}

var labelReplacer = strings.NewReplacer(
	`"`, `'`,
	"\r\n", " ",
	"\n", " ",
	"\r", " ",
	"\t", " ",
)

func escapeLabel(s string) string {
	s = labelReplacer.Replace(s)
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return "unknown failure"
	}
	return s
}
