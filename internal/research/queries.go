package research

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ferrolab/researchd/internal/llm"
	"github.com/ferrolab/researchd/internal/personalize"
)

// Query focus presets.
const (
	FocusBalanced      = "balanced"
	FocusAcademic      = "academic"
	FocusPractical     = "practical"
	FocusRecent        = "recent"
	FocusTechnical     = "technical"
	FocusComprehensive = "comprehensive"
)

var focusInstructions = map[string]string{
	FocusBalanced: `Generate a balanced mix covering:
- Academic research and scholarly articles
- Practical guides and tutorials
- Recent developments
- Comprehensive overviews
- Technical documentation
- Expert analysis
- Real-world applications`,

	FocusAcademic: `Focus heavily on academic and scholarly sources:
- Research papers and peer-reviewed journals
- University publications and educational resources
- Academic databases and repositories
- Scholarly analysis and literature reviews
- Scientific studies and experiments
Use terms like: research, study, paper, journal, academic, scholarly, analysis`,

	FocusPractical: `Focus on practical, hands-on resources:
- Step-by-step tutorials and how-to guides
- Implementation examples and code samples
- Best practices and practical tips
- Real-world applications and use cases
Use terms like: tutorial, guide, how to, example, implementation, practical, hands-on`,

	FocusRecent: `Focus on the latest information and recent developments:
- Recent news and updates
- Latest trends and breakthroughs
- Current state of the art
- Emerging technologies and innovations
Use terms like: latest, recent, new, trends, updates, breaking`,

	FocusTechnical: `Focus on technical and detailed documentation:
- Official documentation and API references
- Technical specifications and standards
- Architecture and design documents
- Technical deep-dives and detailed explanations
Use terms like: documentation, technical, specification, API, reference, architecture, protocol`,

	FocusComprehensive: `Focus on comprehensive overviews and foundational knowledge:
- Complete guides and definitive resources
- Foundational concepts and principles
- Beginner to advanced coverage
- Encyclopedic resources
Use terms like: complete guide, overview, introduction, comprehensive, fundamentals, basics, definitive`,
}

// GenerateQueries produces up to n personalized search queries for the
// topic. The prompt carries the user's persistent contexts, preference
// profile, and related-memory count. Any failure falls back to a
// single query: the bare topic.
func (s *Service) GenerateQueries(ctx context.Context, userID, topic string, n int, focus string) []string {
	ctx, span := s.tracer.Start(ctx, "research.GenerateQueries",
		trace.WithAttributes(attribute.String("focus", focus), attribute.Int("n", n)))
	defer span.End()

	if n <= 0 {
		n = 7
	}
	instruction, ok := focusInstructions[focus]
	if !ok {
		instruction = focusInstructions[FocusBalanced]
	}

	userContext := s.userContext(ctx, userID, topic)

	prompt := fmt.Sprintf(`You are a research assistant helping to find web sources on: "%s"

User Context:
%s

Generate %d highly effective web search queries to find the best sources for this topic.

%s

Requirements:
- Make queries specific and targeted (not too broad)
- Use search operators when helpful (site:, OR, quotes)
- Consider the user's interests and previous research
- Make queries likely to find high-quality, authoritative sources

Format as JSON:
{
    "queries": ["query 1", "query 2", ...]
}`, topic, userContext, n, instruction)

	result, err := s.llm.Complete(ctx, llm.Request{
		Prompt:      prompt,
		Temperature: 0.8,
		MaxTokens:   800,
		JSONMode:    true,
	})
	if err != nil {
		s.logger.Warn(ctx, "query generation failed", zap.Error(err))
		return []string{topic}
	}

	var decoded struct {
		Queries []string `json:"queries"`
	}
	if err := llm.DecodeJSON(result.Text, &decoded); err != nil || len(decoded.Queries) == 0 {
		s.logger.Warn(ctx, "query generation returned no usable queries", zap.Error(err))
		return []string{topic}
	}

	queries := decoded.Queries
	if len(queries) > n {
		queries = queries[:n]
	}
	span.SetAttributes(attribute.Int("queries", len(queries)))
	return queries
}

// RefineQueries generates up to 3 new queries from a sample of the
// initial results, aiming at angles the first round missed. Failure
// returns an empty slice.
func (s *Service) RefineQueries(ctx context.Context, topic string, initial []string, results []personalize.ScoredSource) []string {
	ctx, span := s.tracer.Start(ctx, "research.RefineQueries")
	defer span.End()

	titles := make([]string, 0, 10)
	for _, r := range results {
		if len(titles) == 10 {
			break
		}
		titles = append(titles, "- "+r.Title)
	}
	initialList := make([]string, 0, len(initial))
	for _, q := range initial {
		initialList = append(initialList, "- "+q)
	}

	prompt := fmt.Sprintf(`You are refining search queries based on initial results.

Research Topic: %s

Initial Queries Used:
%s

Sample Results Found:
%s

Based on these initial results, generate 3 NEW refined search queries that will find:
1. Different angles or aspects not well covered
2. More authoritative or comprehensive sources
3. Complementary information

Output exactly 3 search queries, one per line, with NO bullets, numbers, or extra formatting.`,
		topic, strings.Join(initialList, "\n"), strings.Join(titles, "\n"))

	result, err := s.llm.Complete(ctx, llm.Request{
		Prompt:      prompt,
		Temperature: 0.8,
		MaxTokens:   300,
	})
	if err != nil {
		s.logger.Warn(ctx, "query refinement failed", zap.Error(err))
		return nil
	}

	queries := ParseQueryLines(result.Text)
	if len(queries) > 3 {
		queries = queries[:3]
	}
	return queries
}

var (
	numberedPrefix = regexp.MustCompile(`^\d+[.)]\s*`)
	bulletPrefix   = regexp.MustCompile(`^[-•*]\s*`)
)

// ParseQueryLines splits newline-delimited model output into queries,
// stripping numbering and bullet prefixes and dropping blank lines.
func ParseQueryLines(text string) []string {
	var queries []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = numberedPrefix.ReplaceAllString(line, "")
		line = bulletPrefix.ReplaceAllString(line, "")
		if line != "" {
			queries = append(queries, line)
		}
	}
	return queries
}
