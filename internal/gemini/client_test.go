package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiuml/api/internal/metrics"
)

// backend scripts a response per "variant/model" path and records calls.
type backend struct {
	mu        sync.Mutex
	calls     []string
	bodies    []string
	headers   []http.Header
	queries   []string
	responses map[string]func(w http.ResponseWriter)
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")
	path = strings.TrimSuffix(path, ":generateContent")
	path = strings.Replace(path, "/models/", "/", 1)

	body, _ := io.ReadAll(r.Body)

	b.mu.Lock()
	b.calls = append(b.calls, path)
	b.bodies = append(b.bodies, string(body))
	b.headers = append(b.headers, r.Header.Clone())
	b.queries = append(b.queries, r.URL.RawQuery)
	respond, ok := b.responses[path]
	b.mu.Unlock()

	if !ok {
		http.Error(w, `{"error":{"code":404,"message":"model not found"}}`, http.StatusNotFound)
		return
	}
	respond(w)
}

func textReply(text string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":%q}]}}]}`, text)
	}
}

func newTestClient(t *testing.T, b *backend, cands []Candidate, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	c, err := New(Config{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		Candidates: cands,
		Timeout:    2 * time.Second,
	}, opts...)
	require.NoError(t, err)
	return c
}

func TestCandidates_VariantOuterLoop(t *testing.T) {
	got := Candidates([]string{"v1beta", "v1"}, []string{"m1", "m2"})
	assert.Equal(t, []Candidate{
		{"v1beta", "m1"}, {"v1beta", "m2"}, {"v1", "m1"}, {"v1", "m2"},
	}, got)

	assert.Len(t, DefaultCandidates(), len(DefaultVariants)*len(DefaultModels))
	assert.Equal(t, Candidate{"v1beta", "gemini-flash-lite-latest"}, DefaultCandidates()[0])
}

func TestValidateCredential(t *testing.T) {
	for _, key := range []string{"", "   ", "UNSET", "unset", "${GEMINI_API_KEY}", "<your-api-key>"} {
		err := ValidateCredential(key)
		require.Error(t, err, "key %q", key)
		assert.True(t, errors.Is(err, ErrMissingCredential))

		var cfgErr *ConfigurationError
		assert.True(t, errors.As(err, &cfgErr))
	}
	assert.NoError(t, ValidateCredential("AIzaSyExample"))
}

func TestGenerate_MissingCredentialMakesNoCalls(t *testing.T) {
	b := &backend{responses: map[string]func(http.ResponseWriter){}}
	srv := httptest.NewServer(b)
	defer srv.Close()

	c, err := New(Config{APIKey: "${GEMINI_API_KEY}", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Empty(t, b.calls)
}

func TestGenerate_FirstCandidateWins(t *testing.T) {
	b := &backend{responses: map[string]func(http.ResponseWriter){
		"v1beta/m1": textReply("classDiagram\nA --> B"),
		"v1beta/m2": textReply("never"),
	}}
	c := newTestClient(t, b, Candidates([]string{"v1beta"}, []string{"m1", "m2"}))

	res, err := c.Generate(context.Background(), "hello")
	require.NoError(t, err)

	assert.True(t, res.Succeeded)
	assert.Equal(t, "classDiagram\nA --> B", res.Text)
	assert.Equal(t, &Candidate{"v1beta", "m1"}, res.Candidate)
	assert.Equal(t, []string{"v1beta/m1"}, b.calls)
	assert.Len(t, res.Attempts, 1)
}

func TestGenerate_FallsBackInOrder(t *testing.T) {
	b := &backend{responses: map[string]func(http.ResponseWriter){
		"v1beta/m1": func(w http.ResponseWriter) { http.Error(w, "quota", http.StatusTooManyRequests) },
		"v1beta/m2": textReply("   \n"),
		"v1/m2":     textReply("graph TD\nA-->B"),
	}}
	c := newTestClient(t, b, Candidates([]string{"v1beta", "v1"}, []string{"m1", "m2"}))

	res, err := c.Generate(context.Background(), "hello")
	require.NoError(t, err)

	assert.True(t, res.Succeeded)
	assert.Equal(t, "graph TD\nA-->B", res.Text)
	assert.Equal(t, []string{"v1beta/m1", "v1beta/m2", "v1/m1", "v1/m2"}, b.calls)

	require.Len(t, res.Attempts, 4)
	assert.Equal(t, http.StatusTooManyRequests, res.Attempts[0].Status)
	assert.Contains(t, res.Attempts[0].Err, "quota")
	assert.Equal(t, "empty response text", res.Attempts[1].Err)
	assert.Equal(t, http.StatusNotFound, res.Attempts[2].Status)
	assert.Empty(t, res.Attempts[3].Err)
}

func TestGenerate_AllCandidatesFail(t *testing.T) {
	b := &backend{responses: map[string]func(http.ResponseWriter){
		"v1/m1": func(w http.ResponseWriter) { http.Error(w, "boom", http.StatusInternalServerError) },
	}}
	c := newTestClient(t, b, Candidates([]string{"v1beta", "v1"}, []string{"m1"}))

	res, err := c.Generate(context.Background(), "hello")
	require.NoError(t, err)

	assert.False(t, res.Succeeded)
	assert.Empty(t, res.Text)
	assert.Nil(t, res.Candidate)
	assert.Contains(t, res.Failure, "all 2 generation candidates failed")
	assert.Contains(t, res.Failure, "v1/m1")
	assert.Len(t, b.calls, 2)
}

func TestGenerate_TransportErrorOmitsKey(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := New(Config{
		APIKey:     "AIzaSECRET123",
		BaseURL:    base,
		Candidates: Candidates([]string{"v1"}, []string{"m"}),
		Timeout:    2 * time.Second,
	})
	require.NoError(t, err)

	res, err := c.Generate(context.Background(), "hello")
	require.NoError(t, err)

	assert.False(t, res.Succeeded)
	require.Len(t, res.Attempts, 1)
	assert.Contains(t, res.Attempts[0].Err, "send request")
	assert.NotContains(t, res.Attempts[0].Err, "AIzaSECRET123")
	assert.NotContains(t, res.Failure, "AIzaSECRET123")
	assert.NotContains(t, res.Failure, "key=")
}

func TestGenerate_RequestShape(t *testing.T) {
	b := &backend{responses: map[string]func(http.ResponseWriter){
		"v1beta/m1": textReply("ok"),
	}}
	c := newTestClient(t, b, []Candidate{{"v1beta", "m1"}})

	_, err := c.Generate(context.Background(), `say "hi"`)
	require.NoError(t, err)
	require.Len(t, b.calls, 1)

	assert.Equal(t, "test-key", b.headers[0].Get("x-goog-api-key"))
	assert.Equal(t, "application/json", b.headers[0].Get("Content-Type"))
	assert.Equal(t, "key=test-key", b.queries[0])

	var body apiRequest
	require.NoError(t, json.Unmarshal([]byte(b.bodies[0]), &body))
	require.Len(t, body.Contents, 1)
	require.Len(t, body.Contents[0].Parts, 1)
	assert.Equal(t, `say "hi"`, body.Contents[0].Parts[0].Text)
}

func TestGenerate_JoinsParts(t *testing.T) {
	b := &backend{responses: map[string]func(http.ResponseWriter){
		"v1beta/m1": func(w http.ResponseWriter) {
			io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"graph TD\n"},{"text":"A-->B"}]}}]}`)
		},
	}}
	c := newTestClient(t, b, []Candidate{{"v1beta", "m1"}})

	res, err := c.Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "graph TD\nA-->B", res.Text)
}

func TestGenerate_NoCandidatesInResponseIsSkipped(t *testing.T) {
	b := &backend{responses: map[string]func(http.ResponseWriter){
		"v1beta/m1": func(w http.ResponseWriter) { io.WriteString(w, `{"candidates":[]}`) },
		"v1beta/m2": textReply("second"),
	}}
	c := newTestClient(t, b, Candidates([]string{"v1beta"}, []string{"m1", "m2"}))

	res, err := c.Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "second", res.Text)
	assert.Equal(t, "m2", res.Candidate.Model)
}

func TestGenerate_CancelledContextStops(t *testing.T) {
	b := &backend{responses: map[string]func(http.ResponseWriter){}}
	c := newTestClient(t, b, DefaultCandidates())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := c.Generate(ctx, "p")
	require.NoError(t, err)
	assert.False(t, res.Succeeded)
	assert.Contains(t, res.Failure, "cancelled")
	assert.Empty(t, b.calls)
}

func TestGenerate_RecordsAttemptMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	b := &backend{responses: map[string]func(http.ResponseWriter){
		"v1beta/m2": textReply("ok"),
	}}
	c := newTestClient(t, b, Candidates([]string{"v1beta"}, []string{"m1", "m2"}), WithMetrics(m))

	_, err := c.Generate(context.Background(), "p")
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "uml_generation_attempts_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestNew_EmptyCandidateList(t *testing.T) {
	_, err := New(Config{APIKey: "k", Candidates: []Candidate{}})
	assert.Error(t, err)

	c, err := New(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultCandidates(), c.Candidates())
	assert.NoError(t, c.Configured())
}
