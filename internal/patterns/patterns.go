// Package patterns asks the generation backend for design pattern
// suggestions and parses its loosely formatted answer.
package patterns

import (
	"context"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/aiuml/api/internal/gemini"
	"github.com/aiuml/api/internal/metrics"
)

// Entry is one suggested pattern.
type Entry struct {
	Name        string `json:"name"`
	Explanation string `json:"explanation"`
}

var defaults = []Entry{
	{Name: "Strategy", Explanation: "Handles different implementations dynamically."},
	{Name: "Singleton", Explanation: "Ensures a single instance of a resource."},
	{Name: "Observer", Explanation: "Notifies dependent objects of state changes."},
}

// Defaults returns a fresh copy of the fallback suggestions.
func Defaults() []Entry {
	return append([]Entry(nil), defaults...)
}

// Prompt builds the single-stage pattern request.
func Prompt(requirements string) string {
	return "Act as a Software Architecture expert. Analyze these requirements:\n" +
		requirements +
		"\nIdentify the 3 most relevant design patterns." +
		"\nOutput format: Pattern Name | Brief Explanation (max 15 words)" +
		"\nOne per line. No other text."
}

// Outcome describes how a detection was answered.
type Outcome struct {
	Entries  []Entry `json:"entries"`
	Fallback bool    `json:"fallback"`
	Model    string  `json:"model,omitempty"`
}

type Extractor struct {
	gen     gemini.Generator
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewExtractor(gen gemini.Generator, logger *zap.Logger, m *metrics.Metrics) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{gen: gen, logger: logger, metrics: m}
}

// Detect returns the suggested patterns for requirements, never empty.
// The only error is a configuration error from the generator.
func (e *Extractor) Detect(ctx context.Context, requirements string) ([]Entry, error) {
	out, err := e.DetectOutcome(ctx, requirements)
	if err != nil {
		return nil, err
	}
	return out.Entries, nil
}

// DetectOutcome is Detect plus whether the defaults were used.
func (e *Extractor) DetectOutcome(ctx context.Context, requirements string) (Outcome, error) {
	res, err := e.gen.Generate(ctx, Prompt(requirements))
	if err != nil {
		return Outcome{}, err
	}

	var out Outcome
	if res.Succeeded {
		out.Entries = Parse(res.Text)
		if res.Candidate != nil {
			out.Model = res.Candidate.Model
		}
	}

	if len(out.Entries) == 0 {
		reason := "no parseable lines"
		if !res.Succeeded {
			reason = res.Failure
		}
		e.logger.Warn("using default pattern suggestions",
			zap.String("stage", "patterns"),
			zap.String("reason", reason),
		)
		e.metrics.PatternFallback()
		return Outcome{Entries: Defaults(), Fallback: true, Model: out.Model}, nil
	}

	e.logger.Info("pattern suggestions parsed",
		zap.String("stage", "patterns"),
		zap.Int("count", len(out.Entries)),
	)
	return out, nil
}

// Parse reads "Name | Explanation" lines, also accepting "Name: Explanation".
// Leading list markers and emphasis are stripped. Lines with neither
// delimiter or with an empty name are dropped, as are colon lines with no
// explanation (headings such as "Here are the patterns:"); order is
// preserved.
func Parse(text string) []Entry {
	var entries []Entry
	for _, line := range strings.Split(text, "\n") {
		line = stripMarker(line)
		if line == "" {
			continue
		}

		colon := false
		i := strings.Index(line, "|")
		if i < 0 {
			i = strings.Index(line, ":")
			colon = true
		}
		if i < 0 {
			continue
		}

		name := cleanName(line[:i])
		explanation := strings.TrimSpace(line[i+1:])
		if name == "" || (colon && explanation == "") {
			continue
		}
		entries = append(entries, Entry{
			Name:        name,
			Explanation: explanation,
		})
	}
	return entries
}

// stripMarker removes bullets, list numbering and other leading
// punctuation. Digits count as numbering only when followed by ".", ")"
// or a space, so "3-Tier" keeps its number.
func stripMarker(line string) string {
	s := strings.TrimSpace(line)
	for {
		prev := s
		s = strings.TrimLeftFunc(s, func(r rune) bool {
			return unicode.IsSpace(r) || isMarkerPunct(r)
		})
		n := 0
		for n < len(s) && s[n] >= '0' && s[n] <= '9' {
			n++
		}
		if n > 0 && n < len(s) && (s[n] == '.' || s[n] == ')' || s[n] == ' ') {
			s = s[n+1:]
		}
		if s == prev {
			return s
		}
	}
}

func isMarkerPunct(r rune) bool {
	switch r {
	case '-', '*', '+', '.', ')', '(', '#', '>', '\u2022', '\u00b7', '\u2013', '\u2014', '_', '[', ']':
		return true
	}
	return false
}

func cleanName(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "*_`"))
}
