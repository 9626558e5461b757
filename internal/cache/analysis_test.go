package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiuml/api/internal/analysis"
	"github.com/aiuml/api/internal/patterns"
	"github.com/aiuml/api/internal/prompt"
)

// fakeRedis overrides the two commands the cache uses.
type fakeRedis struct {
	redis.Cmdable
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx, "get", key)
	switch v, ok := f.data[key]; {
	case f.getErr != nil:
		cmd.SetErr(f.getErr)
	case ok:
		cmd.SetVal(string(v))
	default:
		cmd.SetErr(redis.Nil)
	}
	return cmd
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx, "set", key, value)
	f.data[key] = value.([]byte)
	f.ttls[key] = expiration
	cmd.SetVal("OK")
	return cmd
}

func sampleResult() analysis.Result {
	return analysis.Result{
		Diagram: analysis.Diagram{
			Document: "classDiagram\n  A --> B",
			Dialect:  prompt.DialectClass,
			Notation: prompt.NotationMermaid,
			Model:    "gemini-pro-latest",
		},
		Patterns: []patterns.Entry{{Name: "Facade", Explanation: "Simplifies access"}},
	}
}

func TestKey_DependsOnAllInputs(t *testing.T) {
	base := Key("reqs", prompt.DialectClass, prompt.NotationMermaid)
	assert.Equal(t, base, Key("reqs", prompt.DialectClass, prompt.NotationMermaid))
	assert.NotEqual(t, base, Key("reqs2", prompt.DialectClass, prompt.NotationMermaid))
	assert.NotEqual(t, base, Key("reqs", prompt.DialectSequence, prompt.NotationMermaid))
	assert.NotEqual(t, base, Key("reqs", prompt.DialectClass, prompt.NotationPlantUML))
	assert.Contains(t, base, keyPrefix)
}

func TestAnalyses_RoundTrip(t *testing.T) {
	rdb := newFakeRedis()
	c := NewAnalyses(rdb, time.Hour, nil, nil)
	ctx := context.Background()
	key := Key("x", prompt.DialectClass, prompt.NotationMermaid)

	_, ok := c.Get(ctx, key)
	assert.False(t, ok)

	c.Put(ctx, key, sampleResult())
	assert.Equal(t, time.Hour, rdb.ttls[key])

	got, ok := c.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, sampleResult().Diagram.Document, got.Diagram.Document)
	assert.Equal(t, sampleResult().Patterns, got.Patterns)
}

func TestAnalyses_SkipsDegradedResults(t *testing.T) {
	rdb := newFakeRedis()
	c := NewAnalyses(rdb, time.Hour, nil, nil)

	degraded := sampleResult()
	degraded.Diagram.Degraded = true
	c.Put(context.Background(), "k1", degraded)

	fallback := sampleResult()
	fallback.PatternsFallback = true
	c.Put(context.Background(), "k2", fallback)

	assert.Empty(t, rdb.data)
}

func TestAnalyses_ReadErrorIsMiss(t *testing.T) {
	rdb := newFakeRedis()
	rdb.getErr = errors.New("connection refused")
	c := NewAnalyses(rdb, time.Hour, nil, nil)

	_, ok := c.Get(context.Background(), "k")
	assert.False(t, ok)
}

func TestAnalyses_NilIsAlwaysMiss(t *testing.T) {
	var c *Analyses
	c.Put(context.Background(), "k", sampleResult())
	_, ok := c.Get(context.Background(), "k")
	assert.False(t, ok)
}
