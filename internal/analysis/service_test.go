package analysis

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/aiuml/api/internal/gemini"
	"github.com/aiuml/api/internal/patterns"
	"github.com/aiuml/api/internal/prompt"
)

// scripted answers each stage by prompt prefix.
type scripted struct {
	mu        sync.Mutex
	extract   gemini.Result
	synth     gemini.Result
	patterns  gemini.Result
	err       error
	synthSeen []string
	calls     int
}

func (s *scripted) Generate(_ context.Context, p string) (gemini.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if s.err != nil {
		return gemini.Result{}, s.err
	}
	switch {
	case strings.HasPrefix(p, "Act as a Senior Architect."):
		return s.extract, nil
	case strings.HasPrefix(p, "Generate "):
		s.synthSeen = append(s.synthSeen, p)
		return s.synth, nil
	default:
		return s.patterns, nil
	}
}

func ok(text string) gemini.Result {
	return gemini.Result{Text: text, Succeeded: true, Candidate: &gemini.Candidate{Variant: "v1", Model: "gemini-pro-latest"}}
}

func failed(msg string) gemini.Result {
	return gemini.Result{Failure: msg}
}

func TestGenerateDiagram_RepairsMissingMarkers(t *testing.T) {
	gen := &scripted{
		extract: ok("Order -> Customer"),
		synth:   ok("```\n  Order --> Customer\n```"),
	}
	svc := NewService(gen, prompt.NotationMermaid, zaptest.NewLogger(t), nil)

	doc, err := svc.GenerateDiagram(context.Background(), "Customers place orders.", "class")
	require.NoError(t, err)
	assert.Equal(t, "classDiagram\n  Order --> Customer", doc)

	require.Len(t, gen.synthSeen, 1)
	assert.Contains(t, gen.synthSeen[0], "\nModel: Order -> Customer")
}

func TestGenerateDiagram_PlantUMLMarkers(t *testing.T) {
	gen := &scripted{
		extract: ok("A calls B"),
		synth:   ok("A -> B: call"),
	}
	svc := NewService(gen, prompt.NotationPlantUML, nil, nil)

	doc, err := svc.GenerateDiagram(context.Background(), "A calls B", "SEQUENCE")
	require.NoError(t, err)
	assert.Equal(t, "@startuml\nA -> B: call\n@enduml", doc)
}

func TestDiagram_UnknownKindIsGeneric(t *testing.T) {
	gen := &scripted{extract: ok("x"), synth: ok("A-->B")}
	svc := NewService(gen, prompt.NotationMermaid, nil, nil)

	d, err := svc.Diagram(context.Background(), Request{Requirements: "x", Kind: "timeline"})
	require.NoError(t, err)
	assert.Equal(t, prompt.DialectGeneric, d.Dialect)
	assert.Equal(t, "graph TD\nA-->B", d.Document)
	assert.Equal(t, "gemini-pro-latest", d.Model)
	assert.False(t, d.Degraded)
}

func TestDiagram_RequestNotationOverridesDefault(t *testing.T) {
	gen := &scripted{extract: ok("x"), synth: ok("class A")}
	svc := NewService(gen, prompt.NotationMermaid, nil, nil)

	d, err := svc.Diagram(context.Background(), Request{Requirements: "x", Kind: "class", Notation: "plantuml"})
	require.NoError(t, err)
	assert.Equal(t, prompt.NotationPlantUML, d.Notation)
	assert.Equal(t, "@startuml\nclass A\n@enduml", d.Document)
}

func TestDiagram_ExtractionFailureDegrades(t *testing.T) {
	gen := &scripted{extract: failed(`all 2 generation candidates failed (last v1/m: unexpected status 403: "denied")`)}
	svc := NewService(gen, prompt.NotationMermaid, nil, nil)

	d, err := svc.Diagram(context.Background(), Request{Requirements: "x", Kind: "class"})
	require.NoError(t, err)
	assert.True(t, d.Degraded)
	assert.Empty(t, gen.synthSeen)
	assert.True(t, strings.HasPrefix(d.Document, "graph TD\n  Error[\"AI Error: "))
	assert.Contains(t, d.Document, "'denied'")
}

func TestDiagram_SynthesisFailureDegrades(t *testing.T) {
	gen := &scripted{extract: ok("x"), synth: failed("boom")}
	svc := NewService(gen, prompt.NotationMermaid, nil, nil)

	d, err := svc.Diagram(context.Background(), Request{Requirements: "x"})
	require.NoError(t, err)
	assert.True(t, d.Degraded)
	assert.Equal(t, "boom", d.Failure)
	assert.Equal(t, "graph TD\n  Error[\"AI Error: boom\"]", d.Document)
}

func TestDiagram_ConfigurationErrorPropagates(t *testing.T) {
	gen := &scripted{err: gemini.ValidateCredential("UNSET")}
	svc := NewService(gen, prompt.NotationMermaid, nil, nil)

	_, err := svc.GenerateDiagram(context.Background(), "x", "class")
	assert.ErrorIs(t, err, gemini.ErrMissingCredential)

	_, err = svc.DetectPatterns(context.Background(), "x")
	assert.ErrorIs(t, err, gemini.ErrMissingCredential)

	_, err = svc.Analyze(context.Background(), Request{Requirements: "x"})
	assert.ErrorIs(t, err, gemini.ErrMissingCredential)
}

func TestAnalyze_RunsBothPipelines(t *testing.T) {
	gen := &scripted{
		extract:  ok("User -> Account"),
		synth:    ok("classDiagram\n  User --> Account"),
		patterns: ok("Repository | Isolates persistence"),
	}
	svc := NewService(gen, prompt.NotationMermaid, zaptest.NewLogger(t), nil)

	res, err := svc.Analyze(context.Background(), Request{Requirements: "Users own accounts.", Kind: "CLASS"})
	require.NoError(t, err)
	assert.Equal(t, "classDiagram\n  User --> Account", res.Diagram.Document)
	assert.Equal(t, []patterns.Entry{{Name: "Repository", Explanation: "Isolates persistence"}}, res.Patterns)
	assert.False(t, res.PatternsFallback)
}

func TestAnalyze_PatternFallback(t *testing.T) {
	gen := &scripted{
		extract:  ok("x"),
		synth:    ok("classDiagram"),
		patterns: failed("down"),
	}
	svc := NewService(gen, prompt.NotationMermaid, nil, nil)

	res, err := svc.Analyze(context.Background(), Request{Requirements: "x", Kind: "class"})
	require.NoError(t, err)
	assert.True(t, res.PatternsFallback)
	assert.Equal(t, patterns.Defaults(), res.Patterns)
}

// End to end with the real client against a backend where every
// candidate errors.
func TestGenerateDiagram_AllCandidatesFailing(t *testing.T) {
	calls := 0
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		http.Error(w, `{"error":{"message":"API key not valid. Please pass a \"valid\" key."}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	client, err := gemini.New(gemini.Config{
		APIKey:     "bad-key",
		BaseURL:    srv.URL,
		Candidates: gemini.Candidates([]string{"v1beta", "v1"}, []string{"m1", "m2"}),
		Timeout:    time.Second,
	})
	require.NoError(t, err)

	svc := NewService(client, prompt.NotationMermaid, zaptest.NewLogger(t), nil)
	doc, err := svc.GenerateDiagram(context.Background(), "Customers place orders.", "class")
	require.NoError(t, err)

	assert.Equal(t, 4, calls)
	require.True(t, strings.HasPrefix(doc, "graph TD\n  Error[\"AI Error: "))
	label := strings.TrimSuffix(strings.TrimPrefix(doc, "graph TD\n  Error[\""), "\"]")
	assert.NotContains(t, label, `"`)
	assert.NotContains(t, label, "\n")

	out, err := svc.DetectPatterns(context.Background(), "Customers place orders.")
	require.NoError(t, err)
	assert.Equal(t, patterns.Defaults(), out)
}

type fakeBreaker struct {
	open    bool
	records []bool
}

func (b *fakeBreaker) Allow() bool { return !b.open }

func (b *fakeBreaker) Record(degraded bool) { b.records = append(b.records, degraded) }

func TestDiagram_RecordsOutcomeOnBreaker(t *testing.T) {
	gen := &scripted{extract: failed("quota"), synth: ok("classDiagram\n  A --> B")}
	b := &fakeBreaker{}
	svc := NewService(gen, prompt.NotationMermaid, zaptest.NewLogger(t), nil, WithBreaker(b))

	d, err := svc.Diagram(context.Background(), Request{Requirements: "A uses B", Kind: "class"})
	require.NoError(t, err)
	assert.True(t, d.Degraded)

	gen.extract = ok("A -> B")
	d, err = svc.Diagram(context.Background(), Request{Requirements: "A uses B", Kind: "class"})
	require.NoError(t, err)
	assert.False(t, d.Degraded)

	assert.Equal(t, []bool{true, false}, b.records)
}

func TestOpenBreaker_SkipsBackend(t *testing.T) {
	gen := &scripted{
		extract:  ok("A -> B"),
		synth:    ok("classDiagram\n  A --> B"),
		patterns: ok("1. Observer: notify"),
	}
	b := &fakeBreaker{open: true}
	svc := NewService(gen, prompt.NotationMermaid, zaptest.NewLogger(t), nil, WithBreaker(b))

	d, err := svc.Diagram(context.Background(), Request{Requirements: "A uses B", Kind: "class"})
	require.NoError(t, err)
	assert.True(t, d.Degraded)
	assert.Equal(t, CircuitOpenFailure, d.Failure)
	assert.True(t, strings.HasPrefix(d.Document, "graph TD\n  Error[\"AI Error: "))

	out, err := svc.Patterns(context.Background(), "A uses B")
	require.NoError(t, err)
	assert.True(t, out.Fallback)
	assert.Equal(t, patterns.Defaults(), out.Entries)

	assert.Zero(t, gen.calls)
	assert.Empty(t, b.records)
}
