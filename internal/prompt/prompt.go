// Package prompt builds the stage prompts sent to the text-generation backend.
package prompt

import (
	"regexp"
	"strings"
)

// Dialect is the diagram kind requested by the caller.
type Dialect string

const (
	DialectClass    Dialect = "CLASS"
	DialectSequence Dialect = "SEQUENCE"
	DialectUseCase  Dialect = "USE_CASE"
	DialectGeneric  Dialect = "GENERIC"
)

// Notation is the textual diagram language the document is written in.
type Notation string

const (
	NotationMermaid  Notation = "mermaid"
	NotationPlantUML Notation = "plantuml"
)

// InputKind is the heuristic classification of the raw input.
type InputKind string

const (
	InputCode  InputKind = "CODE"
	InputProse InputKind = "PROSE"
)

// ParseDialect maps an open diagram-kind string onto the known dialects.
// Matching ignores case, underscores, dashes and spaces; unknown values
// degrade to DialectGeneric.
func ParseDialect(kind string) Dialect {
	key := strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', ' ':
			return -1
		}
		return r
	}, strings.ToUpper(strings.TrimSpace(kind)))

	switch key {
	case "CLASS":
		return DialectClass
	case "SEQUENCE":
		return DialectSequence
	case "USECASE":
		return DialectUseCase
	default:
		return DialectGeneric
	}
}

// ParseNotation returns the notation named by s, defaulting to Mermaid.
func ParseNotation(s string) Notation {
	if strings.EqualFold(strings.TrimSpace(s), string(NotationPlantUML)) {
		return NotationPlantUML
	}
	return NotationMermaid
}

var (
	importLine  = regexp.MustCompile(`(?m)^\s*(import\s|from\s+\S+\s+import\s|package\s|#include\s*[<"]|using\s+[\w.]+;)`)
	declaration = regexp.MustCompile(`(?m)^\s*((public|private|protected|internal|abstract|final|static|sealed|export|data|open)\s+)*(class|interface|struct|enum|trait|record)\s+\w+`)
)

// ClassifyInput reports whether raw looks like source code or prose.
func ClassifyInput(raw string) InputKind {
	if strings.ContainsAny(raw, "{}") || importLine.MatchString(raw) || declaration.MatchString(raw) {
		return InputCode
	}
	return InputProse
}

// Context is the immutable per-request prompt context.
type Context struct {
	RawInput  string
	InputKind InputKind
	Dialect   Dialect
	Notation  Notation
}

// Pair holds both stage prompts for one request.
type Pair struct {
	Context    Context
	Extraction string
	Synthesis  Template
}

// Compose builds the extraction prompt and the dialect-specific synthesis
// template for rawInput.
func Compose(rawInput string, dialect Dialect, notation Notation) Pair {
	dialect = ParseDialect(string(dialect))
	notation = ParseNotation(string(notation))

	ctx := Context{
		RawInput:  rawInput,
		InputKind: ClassifyInput(rawInput),
		Dialect:   dialect,
		Notation:  notation,
	}

	return Pair{
		Context:    ctx,
		Extraction: extractionPrompt(ctx),
		Synthesis:  templateFor(dialect, notation),
	}
}

func extractionPrompt(ctx Context) string {
	framing := "Extract key entities and relationships from these requirements: "
	if ctx.InputKind == InputCode {
		framing = "Identify classes, interfaces, and methods from this code: "
	}

	return "Act as a Senior Architect. " + framing + ctx.RawInput +
		"\nOutput ONLY a structured list of entities and relationships. No prose."
}
