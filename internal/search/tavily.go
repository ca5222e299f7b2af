package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultTavilyEndpoint = "https://api.tavily.com/search"

// TavilyConfig configures the Tavily client.
type TavilyConfig struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
}

// ApplyDefaults fills in zero values.
func (c *TavilyConfig) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = defaultTavilyEndpoint
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
}

// Tavily is a Provider backed by the Tavily search API.
type Tavily struct {
	cfg    TavilyConfig
	client *http.Client
	tracer trace.Tracer
}

var _ Provider = (*Tavily)(nil)

// NewTavily creates a Tavily provider.
func NewTavily(cfg TavilyConfig) (*Tavily, error) {
	cfg.ApplyDefaults()
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	return &Tavily{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		tracer: otel.Tracer("search"),
	}, nil
}

type tavilyRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type tavilyResponse struct {
	Results []struct {
		Title string `json:"title"`
		URL   string `json:"url"`
	} `json:"results"`
}

// Search runs one query and returns up to n results.
func (t *Tavily) Search(ctx context.Context, query string, n int) ([]Result, error) {
	ctx, span := t.tracer.Start(ctx, "search.Tavily.Search",
		trace.WithAttributes(attribute.Int("max_results", n)))
	defer span.End()

	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if n <= 0 {
		n = 10
	}

	body, err := json.Marshal(tavilyRequest{Query: query, MaxResults: n})
	if err != nil {
		return nil, fmt.Errorf("encoding search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.cfg.APIKey)

	resp, err := t.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		err := fmt.Errorf("search returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		span.RecordError(err)
		span.SetStatus(codes.Error, "non-200 response")
		return nil, err
	}

	var decoded tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	results := make([]Result, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		if r.URL == "" {
			continue
		}
		results = append(results, Result{Title: r.Title, URL: r.URL})
	}
	span.SetAttributes(attribute.Int("results", len(results)))
	return results, nil
}
