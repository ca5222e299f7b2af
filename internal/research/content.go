package research

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ferrolab/researchd/internal/llm"
)

// Research depth presets and their section counts.
const (
	DepthQuick         = "quick"
	DepthComprehensive = "comprehensive"
	DepthDeep          = "deep"
)

var depthSections = map[string]int{
	DepthQuick:         3,
	DepthComprehensive: 5,
	DepthDeep:          8,
}

// blended gpt-4o-mini input/output price per million tokens
const contentCostPerMillion = 0.20

// Section is one part of a generated research report.
type Section struct {
	Heading   string   `json:"heading"`
	Content   string   `json:"content"`
	KeyPoints []string `json:"key_points,omitempty"`
}

// RecommendedSource is a source type the model suggests consulting.
type RecommendedSource struct {
	Title       string `json:"title"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Relevance   string `json:"relevance"`
}

// ContentMetadata records the generation cost.
type ContentMetadata struct {
	TokensUsed    int     `json:"tokens_used"`
	EstimatedCost float64 `json:"estimated_cost"`
	Model         string  `json:"model"`
	Mode          string  `json:"mode"`
}

// Content is a generated research report.
type Content struct {
	Title              string              `json:"title"`
	Summary            string              `json:"summary"`
	Sections           []Section           `json:"sections"`
	RecommendedSources []RecommendedSource `json:"recommended_sources"`
	NextSteps          []string            `json:"next_steps"`
	Metadata           *ContentMetadata    `json:"metadata,omitempty"`
	Error              string              `json:"error,omitempty"`
}

// GenerateContent produces a research report straight from the model's
// knowledge, personalized with the user's memory context. Failures
// return an error report with empty sections rather than an error.
func (s *Service) GenerateContent(ctx context.Context, userID, topic, depth string) *Content {
	ctx, span := s.tracer.Start(ctx, "research.GenerateContent",
		trace.WithAttributes(attribute.String("depth", depth)))
	defer span.End()

	sections, ok := depthSections[depth]
	if !ok {
		sections = depthSections[DepthComprehensive]
	}

	userContext := s.userContext(ctx, userID, topic)

	prompt := fmt.Sprintf(`You are a research assistant helping with the topic: "%s"

User Context:
%s

Generate comprehensive research content with %d main sections. For each section:
1. Provide a clear heading
2. Write 2-3 paragraphs of detailed information
3. Include specific facts, concepts, and explanations
4. Cite credible source types (e.g., "According to academic research...", "Industry studies show...")

Format as JSON:
{
    "title": "Research on %s",
    "summary": "2-3 sentence overview",
    "sections": [
        {
            "heading": "Section title",
            "content": "Detailed paragraphs...",
            "key_points": ["point 1", "point 2", "point 3"]
        }
    ],
    "recommended_sources": [
        {
            "title": "Source title",
            "type": "academic paper / industry report / documentation / etc",
            "description": "What this source covers",
            "relevance": "Why it's valuable for this topic"
        }
    ],
    "next_steps": ["Suggested follow-up research topic 1", "Suggested follow-up research topic 2"]
}

Make it thorough, accurate, and well-structured.`, topic, userContext, sections, topic)

	result, err := s.llm.Complete(ctx, llm.Request{
		Prompt:      prompt,
		Temperature: 0.7,
		MaxTokens:   4000,
		JSONMode:    true,
	})
	if err != nil {
		s.logger.Warn(ctx, "content generation failed", zap.Error(err))
		return errorContent(topic, err)
	}

	var content Content
	if err := llm.DecodeJSON(result.Text, &content); err != nil {
		s.logger.Warn(ctx, "content generation returned malformed JSON", zap.Error(err))
		return errorContent(topic, err)
	}
	if content.Title == "" {
		content.Title = "Research on " + topic
	}

	content.Metadata = &ContentMetadata{
		TokensUsed:    result.Usage.TotalTokens,
		EstimatedCost: float64(result.Usage.TotalTokens) / 1_000_000 * contentCostPerMillion,
		Model:         s.llm.Model(),
		Mode:          "ai_agent",
	}
	return &content
}

func errorContent(topic string, err error) *Content {
	return &Content{
		Title:              "Research on " + topic,
		Summary:            fmt.Sprintf("AI research generation encountered an error: %v", err),
		Sections:           []Section{},
		RecommendedSources: []RecommendedSource{},
		NextSteps:          []string{},
		Error:              err.Error(),
	}
}

// RenderMarkdown builds the report document from generated content.
// PDF conversion happens downstream; this is the document boundary.
func RenderMarkdown(c *Content) string {
	var b strings.Builder

	title := c.Title
	if title == "" {
		title = "Research Report"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	if c.Summary != "" {
		fmt.Fprintf(&b, "## Summary\n\n%s\n\n", c.Summary)
	}

	for _, section := range c.Sections {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", section.Heading, section.Content)
		if len(section.KeyPoints) > 0 {
			b.WriteString("**Key Points:**\n")
			for _, point := range section.KeyPoints {
				fmt.Fprintf(&b, "- %s\n", point)
			}
			b.WriteString("\n")
		}
	}

	if len(c.RecommendedSources) > 0 {
		b.WriteString("## Recommended Sources\n\n")
		for i, source := range c.RecommendedSources {
			fmt.Fprintf(&b, "### %d. %s\n", i+1, source.Title)
			fmt.Fprintf(&b, "**Type:** %s\n\n", source.Type)
			fmt.Fprintf(&b, "%s\n\n", source.Description)
			fmt.Fprintf(&b, "*Relevance:* %s\n\n", source.Relevance)
		}
	}

	if len(c.NextSteps) > 0 {
		b.WriteString("## Suggested Next Steps\n\n")
		for _, step := range c.NextSteps {
			fmt.Fprintf(&b, "- %s\n", step)
		}
		b.WriteString("\n")
	}

	if c.Metadata != nil {
		b.WriteString("---\n\n")
		b.WriteString("*Generated by AI Research Agent*\n\n")
		fmt.Fprintf(&b, "Model: %s | Tokens: %d | Est. Cost: $%.4f\n",
			c.Metadata.Model, c.Metadata.TokensUsed, c.Metadata.EstimatedCost)
	}

	return b.String()
}
