package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	byQuery map[string][]Result
	fail    map[string]bool
}

func (f *fakeProvider) Search(_ context.Context, query string, _ int) ([]Result, error) {
	if f.fail[query] {
		return nil, errors.New("provider down")
	}
	return f.byQuery[query], nil
}

func TestMultiMergesAndTags(t *testing.T) {
	provider := &fakeProvider{byQuery: map[string][]Result{
		"q1": {{Title: "A", URL: "https://a.example"}, {Title: "B", URL: "https://b.example"}},
		"q2": {{Title: "B again", URL: "https://b.example"}, {Title: "C", URL: "https://c.example"}},
	}}
	multi := NewMulti(provider, nil)

	results := multi.Run(context.Background(), []string{"q1", "q2"}, 10)
	require.Len(t, results, 3)

	// First occurrence wins the dedupe; every result is tagged.
	assert.Equal(t, Result{Title: "A", URL: "https://a.example", Query: "q1"}, results[0])
	assert.Equal(t, Result{Title: "B", URL: "https://b.example", Query: "q1"}, results[1])
	assert.Equal(t, Result{Title: "C", URL: "https://c.example", Query: "q2"}, results[2])
}

func TestMultiSkipsFailedQueries(t *testing.T) {
	provider := &fakeProvider{
		byQuery: map[string][]Result{
			"good": {{Title: "A", URL: "https://a.example"}},
		},
		fail: map[string]bool{"bad": true},
	}
	multi := NewMulti(provider, nil)

	results := multi.Run(context.Background(), []string{"bad", "good"}, 10)
	require.Len(t, results, 1)
	assert.Equal(t, "good", results[0].Query)
}

func TestMultiNilProviderIsEmpty(t *testing.T) {
	multi := NewMulti(nil, nil)
	assert.Empty(t, multi.Run(context.Background(), []string{"q"}, 10))
}

func TestMultiAllFailedIsEmpty(t *testing.T) {
	provider := &fakeProvider{fail: map[string]bool{"q": true}}
	multi := NewMulti(provider, nil)

	assert.Empty(t, multi.Run(context.Background(), []string{"q"}, 10))
}
