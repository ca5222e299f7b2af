package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTavilyRequiresAPIKey(t *testing.T) {
	_, err := NewTavily(TavilyConfig{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestTavilySearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req tavilyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "solar storage 2026", req.Query)
		assert.Equal(t, 5, req.MaxResults)

		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]string{
				{"title": "NREL report", "url": "https://nrel.gov/report"},
				{"title": "missing url"},
				{"title": "Blog", "url": "https://example.com/blog"},
			},
		})
	}))
	defer srv.Close()

	tav, err := NewTavily(TavilyConfig{APIKey: "test-key", Endpoint: srv.URL})
	require.NoError(t, err)

	results, err := tav.Search(context.Background(), "solar storage 2026", 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, Result{Title: "NREL report", URL: "https://nrel.gov/report"}, results[0])
}

func TestTavilySearchRejectsBlankQuery(t *testing.T) {
	tav, err := NewTavily(TavilyConfig{APIKey: "k"})
	require.NoError(t, err)

	_, err = tav.Search(context.Background(), "   ", 5)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestTavilySearchNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	tav, err := NewTavily(TavilyConfig{APIKey: "k", Endpoint: srv.URL})
	require.NoError(t, err)

	_, err = tav.Search(context.Background(), "anything", 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
