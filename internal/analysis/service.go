// Package analysis runs the two-stage diagram pipeline and the pattern
// pipeline against a shared generator.
package analysis

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aiuml/api/internal/gemini"
	"github.com/aiuml/api/internal/metrics"
	"github.com/aiuml/api/internal/patterns"
	"github.com/aiuml/api/internal/prompt"
	"github.com/aiuml/api/internal/sanitize"
)

// Request is one analysis input. Kind and Notation are open strings
// resolved with prompt.ParseDialect and prompt.ParseNotation; an empty
// Notation uses the service default.
type Request struct {
	Requirements string `json:"requirements"`
	Kind         string `json:"kind"`
	Notation     string `json:"notation,omitempty"`
}

// Diagram is the outcome of the diagram pipeline. Degraded documents are
// error placeholders built from Failure.
type Diagram struct {
	Document    string           `json:"document"`
	Dialect     prompt.Dialect   `json:"dialect"`
	Notation    prompt.Notation  `json:"notation"`
	InputKind   prompt.InputKind `json:"inputKind"`
	Degraded    bool             `json:"degraded"`
	Failure     string           `json:"failure,omitempty"`
	Model       string           `json:"model,omitempty"`
	DomainModel string           `json:"-"`
}

// Result bundles a diagram with its pattern suggestions.
type Result struct {
	Diagram          Diagram          `json:"diagram"`
	Patterns         []patterns.Entry `json:"patterns"`
	PatternsFallback bool             `json:"patternsFallback"`
}

// CircuitOpenFailure is the failure reported while the breaker skips the
// backend.
const CircuitOpenFailure = "AI service is temporarily unavailable due to repeated failures"

// Breaker gates backend calls after repeated degraded runs.
type Breaker interface {
	Allow() bool
	Record(degraded bool)
}

type Service struct {
	gen       gemini.Generator
	extractor *patterns.Extractor
	notation  prompt.Notation
	breaker   Breaker
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

type Option func(*Service)

// WithBreaker makes the service skip the backend while b is open. Skipped
// diagrams come back degraded and skipped pattern runs use the defaults.
func WithBreaker(b Breaker) Option {
	return func(s *Service) { s.breaker = b }
}

func NewService(gen gemini.Generator, notation prompt.Notation, logger *zap.Logger, m *metrics.Metrics, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		gen:       gen,
		extractor: patterns.NewExtractor(gen, logger, m),
		notation:  prompt.ParseNotation(string(notation)),
		logger:    logger,
		metrics:   m,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) allow() bool {
	return s.breaker == nil || s.breaker.Allow()
}

func (s *Service) record(degraded bool) {
	if s.breaker != nil {
		s.breaker.Record(degraded)
	}
}

// GenerateDiagram returns a diagram document for requirements. Backend
// exhaustion yields an error placeholder document, not an error; only a
// configuration error is returned.
func (s *Service) GenerateDiagram(ctx context.Context, requirements, kind string) (string, error) {
	d, err := s.Diagram(ctx, Request{Requirements: requirements, Kind: kind})
	if err != nil {
		return "", err
	}
	return d.Document, nil
}

// DetectPatterns returns an ordered, never empty list of suggestions.
func (s *Service) DetectPatterns(ctx context.Context, requirements string) ([]patterns.Entry, error) {
	out, err := s.Patterns(ctx, requirements)
	if err != nil {
		return nil, err
	}
	return out.Entries, nil
}

// Patterns is DetectPatterns with fallback details.
func (s *Service) Patterns(ctx context.Context, requirements string) (patterns.Outcome, error) {
	start := time.Now()
	if !s.allow() {
		s.logger.Warn("using default pattern suggestions",
			zap.String("stage", "patterns"),
			zap.String("reason", CircuitOpenFailure),
		)
		s.metrics.PatternFallback()
		s.metrics.ObservePipeline("patterns", true, time.Since(start).Seconds())
		return patterns.Outcome{Entries: patterns.Defaults(), Fallback: true}, nil
	}
	out, err := s.extractor.DetectOutcome(ctx, requirements)
	if err != nil {
		return patterns.Outcome{}, err
	}
	s.metrics.ObservePipeline("patterns", out.Fallback, time.Since(start).Seconds())
	return out, nil
}

// Resolve returns the dialect and notation req will be rendered in.
func (s *Service) Resolve(req Request) (prompt.Dialect, prompt.Notation) {
	notation := s.notation
	if req.Notation != "" {
		notation = prompt.ParseNotation(req.Notation)
	}
	return prompt.ParseDialect(req.Kind), notation
}

// Diagram runs extraction then synthesis and sanitizes the result.
func (s *Service) Diagram(ctx context.Context, req Request) (Diagram, error) {
	start := time.Now()

	dialect, notation := s.Resolve(req)
	pair := prompt.Compose(req.Requirements, dialect, notation)

	d := Diagram{
		Dialect:   pair.Context.Dialect,
		Notation:  pair.Context.Notation,
		InputKind: pair.Context.InputKind,
	}
	log := s.logger.With(
		zap.String("dialect", string(d.Dialect)),
		zap.String("notation", string(d.Notation)),
	)

	if !s.allow() {
		log.Warn("generation skipped, circuit open", zap.String("stage", "extract"))
		return s.degrade(d, CircuitOpenFailure, start), nil
	}

	extracted, err := s.gen.Generate(ctx, pair.Extraction)
	if err != nil {
		return Diagram{}, err
	}
	if !extracted.Succeeded {
		log.Warn("domain model extraction failed", zap.String("stage", "extract"), zap.String("failure", extracted.Failure))
		s.record(true)
		return s.degrade(d, extracted.Failure, start), nil
	}
	d.DomainModel = extracted.Text
	log.Info("domain model extracted", zap.String("stage", "extract"), zap.Int("chars", len(extracted.Text)))

	synthesized, err := s.gen.Generate(ctx, pair.Synthesis.Render(extracted.Text))
	if err != nil {
		return Diagram{}, err
	}
	if !synthesized.Succeeded {
		log.Warn("diagram synthesis failed", zap.String("stage", "synthesize"), zap.String("failure", synthesized.Failure))
		s.record(true)
		return s.degrade(d, synthesized.Failure, start), nil
	}
	s.record(false)

	d.Document = sanitize.Document(synthesized.Text, d.Dialect, d.Notation)
	if synthesized.Candidate != nil {
		d.Model = synthesized.Candidate.Model
	}
	log.Info("diagram generated", zap.String("stage", "sanitize"), zap.String("model", d.Model))
	s.metrics.ObservePipeline("diagram", false, time.Since(start).Seconds())
	return d, nil
}

func (s *Service) degrade(d Diagram, failure string, start time.Time) Diagram {
	d.Degraded = true
	d.Failure = failure
	d.Document = sanitize.ErrorDocument(failure, d.Notation)
	s.metrics.ObservePipeline("diagram", true, time.Since(start).Seconds())
	return d
}

// Analyze runs the diagram and pattern pipelines concurrently.
func (s *Service) Analyze(ctx context.Context, req Request) (Result, error) {
	var (
		res     Result
		outcome patterns.Outcome
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := s.Diagram(gctx, req)
		res.Diagram = d
		return err
	})
	g.Go(func() error {
		out, err := s.Patterns(gctx, req.Requirements)
		outcome = out
		return err
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	res.Patterns = outcome.Entries
	res.PatternsFallback = outcome.Fallback
	return res, nil
}
