package research

import (
	"context"
	"fmt"

	"github.com/ferrolab/researchd/internal/llm"
)

// Relevance is the quality assessment of one source.
type Relevance struct {
	Score     int    `json:"score"`
	Reasoning string `json:"reasoning"`
}

// Scorer rates how relevant a search result is for a topic, 0-100.
type Scorer interface {
	Score(ctx context.Context, topic, title, url string) (Relevance, error)
}

// LLMScorer scores sources with the LLM against a fixed rubric.
type LLMScorer struct {
	llm llm.Client
}

var _ Scorer = (*LLMScorer)(nil)

// NewLLMScorer creates an LLM-backed scorer.
func NewLLMScorer(client llm.Client) *LLMScorer {
	return &LLMScorer{llm: client}
}

// Score rates one result. Call or parse failures return an error; the
// quality filter substitutes the neutral fallback.
func (s *LLMScorer) Score(ctx context.Context, topic, title, url string) (Relevance, error) {
	prompt := fmt.Sprintf(`You are evaluating the relevance of a search result for a research topic.

Research Topic: %s

Search Result:
Title: %s
URL: %s

Evaluate this search result on a scale of 0-100 based on:
1. Relevance to the topic (0-40 points)
2. Likely quality and authority (0-30 points)
3. Depth and comprehensiveness (0-30 points)

Consider:
- Is this likely to be authoritative? (educational sites, research, official docs = higher)
- Does it appear to be in-depth? (guides, papers, documentation = higher)
- Is it likely spam or low-quality? (random blogs, ads, listicles = lower)

Respond with ONLY a JSON object in this exact format:
{"score": 85, "reasoning": "Brief explanation"}`, topic, title, url)

	result, err := s.llm.Complete(ctx, llm.Request{
		Prompt:      prompt,
		Temperature: 0.3,
		MaxTokens:   150,
		JSONMode:    true,
	})
	if err != nil {
		return Relevance{}, fmt.Errorf("scoring source: %w", err)
	}

	var decoded struct {
		Score     *int   `json:"score"`
		Reasoning string `json:"reasoning"`
	}
	if err := llm.DecodeJSON(result.Text, &decoded); err != nil {
		return Relevance{}, fmt.Errorf("parsing score: %w", err)
	}

	score := 50
	if decoded.Score != nil {
		score = *decoded.Score
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return Relevance{Score: score, Reasoning: decoded.Reasoning}, nil
}
