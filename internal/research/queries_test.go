package research

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferrolab/researchd/internal/llm"
	"github.com/ferrolab/researchd/internal/memory"
	"github.com/ferrolab/researchd/internal/personalize"
)

// fakeLLM replays canned responses and records prompts.
type fakeLLM struct {
	response string
	usage    llm.Usage
	err      error
	prompts  []string
}

func (f *fakeLLM) Complete(_ context.Context, req llm.Request) (*llm.Result, error) {
	f.prompts = append(f.prompts, req.Prompt)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Result{Text: f.response, Usage: f.usage}, nil
}

func (f *fakeLLM) Model() string { return "test-model" }

type fakeContexts struct{ summary string }

func (f *fakeContexts) ContextSummary(context.Context, string) (string, error) {
	return f.summary, nil
}

type fakePrefs struct{ profile personalize.Profile }

func (f *fakePrefs) Preferences(context.Context, string) personalize.Profile {
	return f.profile
}

type fakeMemSearch struct{ records []memory.Record }

func (f *fakeMemSearch) Search(context.Context, string, string, int) []memory.Record {
	return f.records
}

func TestGenerateQueries(t *testing.T) {
	client := &fakeLLM{response: `{"queries": ["solar storage economics 2026", "grid battery site:nrel.gov", "battery cost trends"]}`}
	svc := NewService(client, nil, nil, nil, nil)

	queries := svc.GenerateQueries(context.Background(), "alice", "solar storage", 3, FocusBalanced)
	assert.Equal(t, []string{
		"solar storage economics 2026",
		"grid battery site:nrel.gov",
		"battery cost trends",
	}, queries)
}

func TestGenerateQueriesTruncatesToN(t *testing.T) {
	client := &fakeLLM{response: `{"queries": ["q1", "q2", "q3", "q4", "q5"]}`}
	svc := NewService(client, nil, nil, nil, nil)

	queries := svc.GenerateQueries(context.Background(), "alice", "topic", 2, FocusBalanced)
	assert.Equal(t, []string{"q1", "q2"}, queries)
}

func TestGenerateQueriesFallsBackToTopic(t *testing.T) {
	tests := []struct {
		name   string
		client *fakeLLM
	}{
		{"llm error", &fakeLLM{err: errors.New("quota exceeded")}},
		{"malformed json", &fakeLLM{response: "I can't help with that"}},
		{"empty query list", &fakeLLM{response: `{"queries": []}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.client, nil, nil, nil, nil)
			queries := svc.GenerateQueries(context.Background(), "alice", "solar storage", 5, FocusBalanced)
			assert.Equal(t, []string{"solar storage"}, queries)
		})
	}
}

func TestGenerateQueriesPromptCarriesPersonalization(t *testing.T) {
	client := &fakeLLM{response: `{"queries": ["q"]}`}
	svc := NewService(client,
		&fakeContexts{summary: "User's Persistent Context:\n- [preference] prefer primary sources\n"},
		&fakePrefs{profile: personalize.Profile{
			PreferredDomains: []personalize.Count{
				{Value: "arxiv.org", Count: 5}, {Value: "nrel.gov", Count: 3},
				{Value: "nature.com", Count: 2}, {Value: "ignored.org", Count: 1},
			},
			Topics: []personalize.Count{{Value: "solar", Count: 4}},
		}},
		&fakeMemSearch{records: make([]memory.Record, 3)},
		nil)

	svc.GenerateQueries(context.Background(), "alice", "grid batteries", 3, FocusAcademic)

	require.Len(t, client.prompts, 1)
	prompt := client.prompts[0]
	assert.Contains(t, prompt, "prefer primary sources")
	// Top three domains only.
	assert.Contains(t, prompt, "arxiv.org, nrel.gov, nature.com")
	assert.NotContains(t, prompt, "ignored.org")
	assert.Contains(t, prompt, "User's research interests: solar")
	assert.Contains(t, prompt, "researched 3 related topics before")
	// Focus preset shapes the prompt.
	assert.Contains(t, prompt, "peer-reviewed journals")
}

func TestGenerateQueriesNoPersonalization(t *testing.T) {
	client := &fakeLLM{response: `{"queries": ["q"]}`}
	svc := NewService(client, nil, nil, nil, nil)

	svc.GenerateQueries(context.Background(), "alice", "topic", 3, "unknown-focus")

	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "First-time researcher on this topic")
	// Unknown focus falls back to the balanced preset.
	assert.Contains(t, client.prompts[0], "balanced mix")
}

func TestRefineQueries(t *testing.T) {
	client := &fakeLLM{response: "1. refined query one\n- refined query two\nrefined query three\nextra query"}
	svc := NewService(client, nil, nil, nil, nil)

	queries := svc.RefineQueries(context.Background(), "topic",
		[]string{"initial"}, []personalize.ScoredSource{{Title: "Found title"}})
	assert.Equal(t, []string{"refined query one", "refined query two", "refined query three"}, queries)

	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "- initial")
	assert.Contains(t, client.prompts[0], "- Found title")
}

func TestRefineQueriesFailureIsEmpty(t *testing.T) {
	svc := NewService(&fakeLLM{err: errors.New("down")}, nil, nil, nil, nil)
	assert.Empty(t, svc.RefineQueries(context.Background(), "t", nil, nil))
}

func TestParseQueryLines(t *testing.T) {
	text := "1. first query\n2) second query\n- third query\n• fourth query\n* fifth query\n\n   \nsixth query"
	assert.Equal(t, []string{
		"first query", "second query", "third query",
		"fourth query", "fifth query", "sixth query",
	}, ParseQueryLines(text))
}
