package research

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLLMScorer(t *testing.T) {
	client := &fakeLLM{response: `{"score": 85, "reasoning": "authoritative source"}`}
	scorer := NewLLMScorer(client)

	rel, err := scorer.Score(context.Background(), "solar", "NREL report", "https://nrel.gov")
	require.NoError(t, err)
	assert.Equal(t, Relevance{Score: 85, Reasoning: "authoritative source"}, rel)

	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "Research Topic: solar")
	assert.Contains(t, client.prompts[0], "Title: NREL report")
}

func TestLLMScorerMissingScoreDefaults(t *testing.T) {
	client := &fakeLLM{response: `{"reasoning": "no score given"}`}
	rel, err := NewLLMScorer(client).Score(context.Background(), "t", "a", "u")
	require.NoError(t, err)
	assert.Equal(t, 50, rel.Score)
}

func TestLLMScorerClampsScore(t *testing.T) {
	client := &fakeLLM{response: `{"score": 140, "reasoning": "enthusiastic"}`}
	rel, err := NewLLMScorer(client).Score(context.Background(), "t", "a", "u")
	require.NoError(t, err)
	assert.Equal(t, 100, rel.Score)
}

func TestLLMScorerErrors(t *testing.T) {
	_, err := NewLLMScorer(&fakeLLM{err: errors.New("quota")}).Score(context.Background(), "t", "a", "u")
	assert.Error(t, err)

	_, err = NewLLMScorer(&fakeLLM{response: "not json"}).Score(context.Background(), "t", "a", "u")
	assert.Error(t, err)
}
