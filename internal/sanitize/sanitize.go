// Package sanitize turns raw model output into a structurally complete
// diagram document.
package sanitize

import (
	"strings"
	"unicode"

	"github.com/aiuml/api/internal/prompt"
)

const fence = "```"

var fillerPrefixes = []string{"Note:", "Here", "Certainly", fence}

var notationEchoes = []string{"mermaid", "plantuml", "uml", "puml"}

// Document cleans raw into a document for dialect in notation. It never
// fails; empty input yields a document holding only the structural markers.
// Applying Document to its own output returns the same text.
func Document(raw string, dialect prompt.Dialect, notation prompt.Notation) string {
	syntax := prompt.SyntaxFor(dialect, notation)

	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = unfence(text)

	lines := strings.Split(text, "\n")
	lines = dropEcho(lines)
	lines = dropFiller(lines)
	lines = trimBlank(lines)
	lines = repair(lines, syntax)

	return strings.Join(trimBlank(lines), "\n")
}

// unfence removes fence delimiter lines. When the text holds at least one
// opener and closer, the bodies of all fenced blocks are kept in order and
// prose outside them is dropped; an unclosed trailing block keeps its body.
// A lone fence line is removed and everything else kept.
func unfence(text string) string {
	lines := strings.Split(text, "\n")

	fences := 0
	for _, line := range lines {
		if kind, _ := fenceKind(line); kind != plainLine {
			fences++
		}
	}
	switch fences {
	case 0:
		return text
	case 1:
		out := lines[:0:0]
		for _, line := range lines {
			kind, body := fenceKind(line)
			switch {
			case kind == plainLine:
				out = append(out, line)
			case kind == inlineBlock && body != "":
				out = append(out, body)
			}
		}
		return strings.Join(out, "\n")
	}

	var (
		out    []string
		inside bool
	)
	for _, line := range lines {
		kind, body := fenceKind(line)
		switch kind {
		case delimiterLine:
			inside = !inside
		case inlineBlock:
			if body != "" {
				out = append(out, body)
			}
		default:
			if inside {
				out = append(out, line)
			}
		}
	}
	return strings.Join(out, "\n")
}

type lineKind int

const (
	plainLine lineKind = iota
	delimiterLine
	inlineBlock
)

// fenceKind classifies a line. A delimiter may carry a language tag; an
// inline block is the single-line "```mermaid graph TD```" style, returned
// without the fences and the echoed tag.
func fenceKind(line string) (lineKind, string) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, fence) {
		return plainLine, ""
	}
	rest := trimmed[len(fence):]
	end := strings.Index(rest, fence)
	if end < 0 {
		return delimiterLine, ""
	}
	inner := strings.TrimSpace(rest[:end])
	for _, echo := range notationEchoes {
		if strings.EqualFold(inner, echo) {
			return inlineBlock, ""
		}
	}
	return inlineBlock, stripEchoWord(inner)
}

func dropEcho(lines []string) []string {
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		for _, echo := range notationEchoes {
			if strings.EqualFold(trimmed, echo) {
				return lines[i+1:]
			}
		}
		return lines
	}
	return lines
}

func stripEchoWord(s string) string {
	for _, echo := range notationEchoes {
		if len(s) > len(echo) && strings.EqualFold(s[:len(echo)], echo) && s[len(echo)] == ' ' {
			return s[len(echo)+1:]
		}
	}
	return s
}

func dropFiller(lines []string) []string {
	out := lines[:0:0]
	for _, line := range lines {
		if isFiller(strings.TrimSpace(line)) {
			continue
		}
		out = append(out, line)
	}
	return out
}

func isFiller(trimmed string) bool {
	for _, p := range fillerPrefixes {
		if strings.HasPrefix(trimmed, p) {
			return true
		}
	}
	return false
}

func trimBlank(lines []string) []string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[start:end]
}

// repair enforces the opener and closer. Stray lines before the first
// accepted header, and after the last closer, are discarded.
func repair(lines []string, syntax prompt.Syntax) []string {
	if i := headerIndex(lines, syntax.Headers); i > 0 {
		lines = lines[i:]
	} else if i < 0 {
		lines = append([]string{syntax.Opener}, lines...)
	}

	if syntax.Closer == "" {
		return lines
	}

	for i := len(lines) - 1; i > 0; i-- {
		if hasHeader(strings.TrimSpace(lines[i]), syntax.Closer) {
			return lines[:i+1]
		}
	}
	return append(lines, syntax.Closer)
}

func headerIndex(lines []string, headers []string) int {
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		for _, h := range headers {
			if hasHeader(trimmed, h) {
				return i
			}
		}
	}
	return -1
}

// hasHeader reports whether line starts with keyword as a whole word.
func hasHeader(line, keyword string) bool {
	if !strings.HasPrefix(line, keyword) {
		return false
	}
	rest := line[len(keyword):]
	if rest == "" {
		return true
	}
	r := rune(rest[0])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
