package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeGemini(t *testing.T, text string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []interface{}{
				map[string]interface{}{
					"content": map[string]interface{}{
						"parts": []interface{}{map[string]string{"text": text}},
					},
				},
			},
		})
	}))
	t.Cleanup(srv.Close)

	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("GEMINI_BASE_URL", srv.URL)
	t.Setenv("GEMINI_VARIANTS", "v1beta")
	t.Setenv("GEMINI_MODELS", "m1")
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCandidates_ListsConfiguredOrder(t *testing.T) {
	t.Setenv("GEMINI_VARIANTS", "v1beta,v1")
	t.Setenv("GEMINI_MODELS", "flash")

	out, err := run(t, "", "candidates")
	require.NoError(t, err)
	assert.Equal(t, " 1  v1beta/flash\n 2  v1/flash\n", out)
}

func TestDiagram_FromStdin(t *testing.T) {
	fakeGemini(t, "classDiagram\n  Order --> Item")

	out, err := run(t, "Customers place orders with items.", "diagram", "--kind", "class", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Order --> Item")
}

func TestPatterns_JSON(t *testing.T) {
	fakeGemini(t, "1. Observer: notify customers when an order ships")

	out, err := run(t, "Customers are notified when orders ship.", "patterns", "--json")
	require.NoError(t, err)

	var got struct {
		Entries []struct {
			Name string `json:"name"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.NotEmpty(t, got.Entries)
	assert.Equal(t, "Observer", got.Entries[0].Name)
}

func TestReadInput_RejectsEmpty(t *testing.T) {
	_, err := run(t, "   ", "patterns")
	assert.Error(t, err)
}
