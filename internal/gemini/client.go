package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/aiuml/api/internal/metrics"
)

const (
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 512
)

// Generator turns a prompt into model text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (Result, error)
}

// Config configures a Client.
type Config struct {
	APIKey     string
	BaseURL    string
	Candidates []Candidate
	// Timeout bounds each individual candidate attempt.
	Timeout time.Duration
}

// Attempt records the outcome of one candidate.
type Attempt struct {
	Candidate Candidate     `json:"candidate"`
	Status    int           `json:"status,omitempty"`
	Err       string        `json:"error,omitempty"`
	Latency   time.Duration `json:"latency"`
}

// Result is the outcome of a Generate call. Exactly one of Text or Failure
// carries the answer, selected by Succeeded.
type Result struct {
	Text      string     `json:"text,omitempty"`
	Succeeded bool       `json:"succeeded"`
	Candidate *Candidate `json:"candidate,omitempty"`
	Failure   string     `json:"failure,omitempty"`
	Attempts  []Attempt  `json:"attempts"`
}

// Client walks the candidate list until one returns usable text.
type Client struct {
	apiKey     string
	baseURL    string
	timeout    time.Duration
	candidates []Candidate
	httpClient *http.Client
	logger     *zap.Logger
	tracer     trace.Tracer
	metrics    *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for backend calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(c *Client) { c.tracer = t }
}

// WithMetrics enables attempt metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New builds a Client. The credential is not checked here; a missing key
// surfaces as a *ConfigurationError from Generate.
func New(cfg Config, opts ...Option) (*Client, error) {
	candidates := cfg.Candidates
	if candidates == nil {
		candidates = DefaultCandidates()
	}
	if len(candidates) == 0 {
		return nil, errors.New("gemini: candidate list is empty")
	}

	c := &Client{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		timeout:    cfg.Timeout,
		candidates: append([]Candidate(nil), candidates...),
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
		tracer:     otel.Tracer("github.com/aiuml/api/internal/gemini"),
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Candidates returns a copy of the configured fallback list.
func (c *Client) Candidates() []Candidate {
	return append([]Candidate(nil), c.candidates...)
}

// Configured reports whether the credential passes validation.
func (c *Client) Configured() error {
	return ValidateCredential(c.apiKey)
}

// Generate sends prompt to each candidate in order and returns the first
// non-blank answer. Backend failures never produce an error; they are
// reported through Result.Failure. The only error is a *ConfigurationError,
// returned before any network call.
func (c *Client) Generate(ctx context.Context, prompt string) (Result, error) {
	if err := ValidateCredential(c.apiKey); err != nil {
		c.logger.Error("generation backend not configured",
			zap.String("stage", "generate"),
			zap.Error(err),
		)
		return Result{}, err
	}

	ctx, span := c.tracer.Start(ctx, "gemini.Generate",
		trace.WithAttributes(attribute.Int("gemini.candidates", len(c.candidates))),
	)
	defer span.End()

	res := Result{Attempts: make([]Attempt, 0, len(c.candidates))}
	for _, cand := range c.candidates {
		if err := ctx.Err(); err != nil {
			res.Failure = fmt.Sprintf("generation cancelled after %d of %d candidates: %v",
				len(res.Attempts), len(c.candidates), err)
			span.SetStatus(codes.Error, res.Failure)
			return res, nil
		}

		text, attempt := c.try(ctx, cand, prompt)
		res.Attempts = append(res.Attempts, attempt)
		if attempt.Err != "" {
			continue
		}

		chosen := cand
		res.Text = text
		res.Succeeded = true
		res.Candidate = &chosen
		span.SetAttributes(attribute.String("gemini.candidate", chosen.String()))
		return res, nil
	}

	last := res.Attempts[len(res.Attempts)-1]
	res.Failure = fmt.Sprintf("all %d generation candidates failed (last %s: %s)",
		len(res.Attempts), last.Candidate, last.Err)
	span.SetStatus(codes.Error, res.Failure)
	c.logger.Error("generation candidates exhausted",
		zap.String("stage", "generate"),
		zap.Int("attempts", len(res.Attempts)),
	)
	return res, nil
}

func (c *Client) try(ctx context.Context, cand Candidate, prompt string) (string, Attempt) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "gemini.attempt", trace.WithAttributes(
		attribute.String("gemini.variant", cand.Variant),
		attribute.String("gemini.model", cand.Model),
	))
	defer span.End()

	start := time.Now()
	text, status, err := c.call(ctx, cand, prompt)
	attempt := Attempt{Candidate: cand, Status: status, Latency: time.Since(start)}

	outcome := "success"
	switch {
	case err != nil:
		attempt.Err = err.Error()
		outcome = "error"
		var se *StatusError
		if errors.As(err, &se) {
			outcome = "status"
		}
	case strings.TrimSpace(text) == "":
		attempt.Err = "empty response text"
		outcome = "empty"
	}
	c.metrics.ObserveAttempt(cand.Variant, cand.Model, outcome, attempt.Latency.Seconds())

	fields := []zap.Field{
		zap.String("stage", "generate"),
		zap.String("variant", cand.Variant),
		zap.String("model", cand.Model),
		zap.Int("status", status),
		zap.Duration("latency", attempt.Latency),
	}
	if attempt.Err != "" {
		span.SetStatus(codes.Error, attempt.Err)
		c.logger.Warn("generation candidate failed", append(fields, zap.String("error", attempt.Err))...)
		return "", attempt
	}
	c.logger.Info("generation candidate succeeded", fields...)
	return text, attempt
}

type apiPart struct {
	Text string `json:"text"`
}

type apiContent struct {
	Role  string    `json:"role,omitempty"`
	Parts []apiPart `json:"parts"`
}

type apiRequest struct {
	Contents []apiContent `json:"contents"`
}

type apiResponse struct {
	Candidates []struct {
		Content      apiContent `json:"content"`
		FinishReason string     `json:"finishReason,omitempty"`
	} `json:"candidates"`
}

func (c *Client) endpoint(cand Candidate) string {
	q := url.Values{}
	q.Set("key", c.apiKey)
	return fmt.Sprintf("%s/%s/models/%s:generateContent?%s",
		c.baseURL, url.PathEscape(cand.Variant), url.PathEscape(cand.Model), q.Encode())
}

func redactQuery(raw string) string {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		return raw[:i]
	}
	return raw
}

func (c *Client) call(ctx context.Context, cand Candidate, prompt string) (string, int, error) {
	body, err := json.Marshal(apiRequest{
		Contents: []apiContent{{Parts: []apiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(cand), bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) {
			// The query carries the API key.
			ue.URL = redactQuery(ue.URL)
		}
		return "", 0, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(raw))
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return "", resp.StatusCode, &StatusError{Code: resp.StatusCode, Body: msg}
	}

	var parsed apiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Candidates) == 0 {
		return "", resp.StatusCode, nil
	}

	var sb strings.Builder
	for _, p := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), resp.StatusCode, nil
}
