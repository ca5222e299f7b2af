package research

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferrolab/researchd/internal/llm"
)

const contentResponse = `{
	"title": "Research on solar storage",
	"summary": "An overview.",
	"sections": [
		{"heading": "Economics", "content": "Costs are falling.", "key_points": ["cheaper cells", "scale effects"]}
	],
	"recommended_sources": [
		{"title": "NREL annual report", "type": "industry report", "description": "Cost data", "relevance": "Primary data source"}
	],
	"next_steps": ["Grid integration", "Policy landscape"]
}`

func TestGenerateContent(t *testing.T) {
	client := &fakeLLM{
		response: contentResponse,
		usage:    llm.Usage{TotalTokens: 2000},
	}
	svc := NewService(client, nil, nil, nil, nil)

	content := svc.GenerateContent(context.Background(), "alice", "solar storage", DepthQuick)
	require.NotNil(t, content)
	assert.Empty(t, content.Error)
	assert.Equal(t, "Research on solar storage", content.Title)
	require.Len(t, content.Sections, 1)
	assert.Equal(t, "Economics", content.Sections[0].Heading)

	require.NotNil(t, content.Metadata)
	assert.Equal(t, 2000, content.Metadata.TokensUsed)
	assert.InDelta(t, 2000.0/1_000_000*0.20, content.Metadata.EstimatedCost, 1e-12)
	assert.Equal(t, "test-model", content.Metadata.Model)
	assert.Equal(t, "ai_agent", content.Metadata.Mode)

	// Depth controls the requested section count.
	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "with 3 main sections")
}

func TestGenerateContentDepthDefaults(t *testing.T) {
	client := &fakeLLM{response: contentResponse}
	svc := NewService(client, nil, nil, nil, nil)

	svc.GenerateContent(context.Background(), "alice", "t", "bogus-depth")
	assert.Contains(t, client.prompts[0], "with 5 main sections")

	svc.GenerateContent(context.Background(), "alice", "t", DepthDeep)
	assert.Contains(t, client.prompts[1], "with 8 main sections")
}

func TestGenerateContentFailureReturnsErrorReport(t *testing.T) {
	svc := NewService(&fakeLLM{err: errors.New("model overloaded")}, nil, nil, nil, nil)

	content := svc.GenerateContent(context.Background(), "alice", "solar", DepthComprehensive)
	require.NotNil(t, content)
	assert.Equal(t, "Research on solar", content.Title)
	assert.Contains(t, content.Summary, "model overloaded")
	assert.Empty(t, content.Sections)
	assert.NotEmpty(t, content.Error)
	assert.Nil(t, content.Metadata)
}

func TestRenderMarkdown(t *testing.T) {
	content := &Content{
		Title:   "Research on solar storage",
		Summary: "An overview.",
		Sections: []Section{
			{Heading: "Economics", Content: "Costs are falling.", KeyPoints: []string{"cheaper cells"}},
		},
		RecommendedSources: []RecommendedSource{
			{Title: "NREL report", Type: "industry report", Description: "Cost data", Relevance: "Primary data"},
		},
		NextSteps: []string{"Grid integration"},
		Metadata:  &ContentMetadata{Model: "test-model", TokensUsed: 2000, EstimatedCost: 0.0004},
	}

	md := RenderMarkdown(content)
	assert.Contains(t, md, "# Research on solar storage\n")
	assert.Contains(t, md, "## Summary\n\nAn overview.")
	assert.Contains(t, md, "## Economics\n\nCosts are falling.")
	assert.Contains(t, md, "**Key Points:**\n- cheaper cells\n")
	assert.Contains(t, md, "### 1. NREL report\n**Type:** industry report")
	assert.Contains(t, md, "## Suggested Next Steps\n\n- Grid integration")
	assert.Contains(t, md, "Model: test-model | Tokens: 2000 | Est. Cost: $0.0004")
}

func TestRenderMarkdownMinimal(t *testing.T) {
	md := RenderMarkdown(&Content{})
	assert.Equal(t, "# Research Report\n\n", md)
}
