// Package assistant produces the personalized guidance surface:
// greetings, defaults, suggestions, and coaching built from the user's
// research history. Every operation degrades silently; the worst
// failure mode is generic, un-personalized guidance.
package assistant

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ferrolab/researchd/internal/llm"
	"github.com/ferrolab/researchd/internal/logging"
	"github.com/ferrolab/researchd/internal/memory"
	"github.com/ferrolab/researchd/internal/personalize"
)

// MemoryReader lists and searches a user's memory records.
type MemoryReader interface {
	All(ctx context.Context, userID string, limit int) []memory.Record
	Search(ctx context.Context, userID, query string, limit int) []memory.Record
}

// PreferenceSource provides the user's derived preference profile.
type PreferenceSource interface {
	Preferences(ctx context.Context, userID string) personalize.Profile
}

// Greeting is the personalized landing message.
type Greeting struct {
	Greeting   string `json:"greeting"`
	Suggestion string `json:"suggestion"`
}

// Defaults are suggested research settings derived from usage history.
type Defaults struct {
	NumQueries      int    `json:"num_queries"`
	ResultsPerQuery int    `json:"results_per_query"`
	MaxSources      int    `json:"max_sources"`
	QueryFocus      string `json:"query_focus"`
	AIEnhancement   string `json:"ai_enhancement"`
	MinQualityScore int    `json:"min_quality_score"`
	MaxToScore      int    `json:"max_to_score"`
}

// Insight points the user at related past research.
type Insight struct {
	Type     string          `json:"type"`
	Message  string          `json:"message"`
	Memories []memory.Record `json:"-"`
}

// SessionOutcome summarizes a finished session for feedback.
type SessionOutcome struct {
	TotalSources    int `json:"total_sources"`
	SelectedSources int `json:"selected_sources"`
}

// Service builds the guidance surface.
type Service struct {
	llm      llm.Client
	prefs    PreferenceSource
	memories MemoryReader
	logger   *logging.Logger
	tracer   trace.Tracer
}

// New creates an assistant service.
func New(client llm.Client, prefs PreferenceSource, memories MemoryReader, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		llm:      client,
		prefs:    prefs,
		memories: memories,
		logger:   logger,
		tracer:   otel.Tracer("assistant"),
	}
}

// Greeting welcomes the user with their session count and recent
// topics. First-time users get an onboarding message.
func (s *Service) Greeting(ctx context.Context, userID string) Greeting {
	ctx, span := s.tracer.Start(ctx, "assistant.Greeting")
	defer span.End()

	records := s.memories.All(ctx, userID, 10)
	if len(records) == 0 {
		return Greeting{
			Greeting:   "Welcome! Start your first research session below.",
			Suggestion: "Try researching a topic you're curious about. I'll learn your preferences as you go!",
		}
	}

	sessionCount := 0
	var recentTopics []string
	seen := make(map[string]struct{})
	for _, rec := range records {
		if rec.Meta.Kind == memory.KindResearchSession {
			sessionCount++
		}
		if rec.Meta.Topic != "" {
			if _, dup := seen[rec.Meta.Topic]; !dup && len(recentTopics) < 3 {
				seen[rec.Meta.Topic] = struct{}{}
				recentTopics = append(recentTopics, rec.Meta.Topic)
			}
		}
	}

	greeting := fmt.Sprintf("Welcome back! You've completed %d research sessions.", sessionCount)

	var suggestion string
	if len(recentTopics) > 0 {
		if len(recentTopics) > 2 {
			recentTopics = recentTopics[:2]
		}
		suggestion = fmt.Sprintf("Recently researched: %s. Ready for more?", strings.Join(recentTopics, ", "))
	} else {
		mode := "basic"
		if modes := s.prefs.Preferences(ctx, userID).AIModes; len(modes) > 0 {
			mode = modes[0].Value
		}
		suggestion = fmt.Sprintf("Your preferred AI mode is %s. Keep up the great research!", mode)
	}

	return Greeting{Greeting: greeting, Suggestion: suggestion}
}

// SmartDefaults returns research settings seeded from the user's most
// used AI mode.
func (s *Service) SmartDefaults(ctx context.Context, userID string) Defaults {
	defaults := Defaults{
		NumQueries:      7,
		ResultsPerQuery: 30,
		MaxSources:      50,
		QueryFocus:      "balanced",
		AIEnhancement:   "basic",
		MinQualityScore: 60,
		MaxToScore:      30,
	}
	if modes := s.prefs.Preferences(ctx, userID).AIModes; len(modes) > 0 {
		defaults.AIEnhancement = modes[0].Value
	}
	return defaults
}

// TopicSuggestions asks the model for up to 3 related topics based on
// the user's research history. No history or any failure → empty.
func (s *Service) TopicSuggestions(ctx context.Context, userID, currentTopic string) []string {
	ctx, span := s.tracer.Start(ctx, "assistant.TopicSuggestions")
	defer span.End()

	topics := s.prefs.Preferences(ctx, userID).Topics
	if len(topics) == 0 {
		return nil
	}
	if len(topics) > 5 {
		topics = topics[:5]
	}
	values := make([]string, 0, len(topics))
	for _, t := range topics {
		values = append(values, t.Value)
	}

	currentLine := ""
	if currentTopic != "" {
		currentLine = "Current topic being researched: " + currentTopic
	}

	prompt := fmt.Sprintf(`Based on these research topics: %s

Suggest 3 new related research topics that would be interesting to explore next.
%s

Format: Return only a JSON array of topic strings.
Example: ["topic 1", "topic 2", "topic 3"]`, strings.Join(values, ", "), currentLine)

	result, err := s.llm.Complete(ctx, llm.Request{
		Prompt:      prompt,
		Temperature: 0.7,
		MaxTokens:   100,
	})
	if err != nil {
		s.logger.Warn(ctx, "topic suggestion failed", zap.Error(err))
		return nil
	}

	var suggestions []string
	if err := llm.DecodeJSON(result.Text, &suggestions); err != nil {
		s.logger.Warn(ctx, "topic suggestion returned malformed JSON", zap.Error(err))
		return nil
	}
	if len(suggestions) > 3 {
		suggestions = suggestions[:3]
	}
	return suggestions
}

// AnalyzeQueries gives friendly feedback on a generated query set. The
// LLM part degrades to a canned encouragement.
func (s *Service) AnalyzeQueries(ctx context.Context, userID, topic string, queries []string) string {
	ctx, span := s.tracer.Start(ctx, "assistant.AnalyzeQueries")
	defer span.End()

	var b strings.Builder
	b.WriteString("Based on your research history, here's my analysis:\n\n")

	if domains := s.prefs.Preferences(ctx, userID).PreferredDomains; len(domains) > 0 {
		if len(domains) > 3 {
			domains = domains[:3]
		}
		values := make([]string, 0, len(domains))
		for _, d := range domains {
			values = append(values, d.Value)
		}
		fmt.Fprintf(&b, "These queries should help find sources from your preferred domains: %s\n\n",
			strings.Join(values, ", "))
	}

	numbered := make([]string, 0, len(queries))
	for i, q := range queries {
		numbered = append(numbered, fmt.Sprintf("%d. %s", i+1, q))
	}

	prompt := fmt.Sprintf(`Analyze these research queries for the topic "%s":

%s

Provide brief, friendly analysis:
1. Are these queries diverse enough?
2. Any gaps in coverage?
3. One specific suggestion to improve

Keep it under 100 words, be encouraging and specific.`, topic, strings.Join(numbered, "\n"))

	result, err := s.llm.Complete(ctx, llm.Request{
		Prompt:      prompt,
		Temperature: 0.7,
		MaxTokens:   150,
	})
	if err != nil {
		s.logger.Warn(ctx, "query analysis failed", zap.Error(err))
		b.WriteString("Queries look good! Happy researching!")
		return b.String()
	}

	b.WriteString("AI Analysis:\n")
	b.WriteString(result.Text)
	return b.String()
}

// ResearchInsights surfaces related past research for a topic, nil
// when there is none.
func (s *Service) ResearchInsights(ctx context.Context, userID, topic string) *Insight {
	ctx, span := s.tracer.Start(ctx, "assistant.ResearchInsights")
	defer span.End()

	records := s.memories.Search(ctx, userID, topic, 5)
	if len(records) == 0 {
		return nil
	}

	similar := 0
	for _, rec := range records {
		if rec.Meta.Kind == memory.KindResearchSession {
			similar++
		}
	}
	if similar == 0 {
		return nil
	}

	return &Insight{
		Type:     "similar_research",
		Message:  fmt.Sprintf("You've researched similar topics %d time(s) before. Check your history for related insights!", similar),
		Memories: records,
	}
}

// CompletionSummary builds personalized messages after a session.
func (s *Service) CompletionSummary(ctx context.Context, userID string, outcome SessionOutcome) []string {
	profile := s.prefs.Preferences(ctx, userID)

	var messages []string

	if len(profile.Topics) > 0 {
		total := 0
		for _, t := range profile.Topics {
			total += t.Count
		}
		messages = append(messages, fmt.Sprintf("This is your session #%d!", total+1))
	}

	if outcome.TotalSources > 0 {
		rate := float64(outcome.SelectedSources) / float64(outcome.TotalSources) * 100
		if rate > 30 {
			messages = append(messages, fmt.Sprintf("Great curation! You selected %.0f%% of sources.", rate))
		} else if rate < 10 {
			messages = append(messages, fmt.Sprintf("Very selective! Only %.0f%% made the cut.", rate))
		}
	}

	if len(profile.PreferredDomains) >= 3 {
		messages = append(messages, fmt.Sprintf("I'm learning your preferences - I've identified %d domains you prefer!",
			len(profile.PreferredDomains)))
	}

	return messages
}

// SuggestNextResearch asks the model for one follow-up topic. No
// history or any failure → empty string.
func (s *Service) SuggestNextResearch(ctx context.Context, userID string) string {
	ctx, span := s.tracer.Start(ctx, "assistant.SuggestNextResearch")
	defer span.End()

	topics := s.prefs.Preferences(ctx, userID).Topics
	if len(topics) == 0 {
		return ""
	}
	if len(topics) > 5 {
		topics = topics[:5]
	}
	values := make([]string, 0, len(topics))
	for _, t := range topics {
		values = append(values, t.Value)
	}

	prompt := fmt.Sprintf(`Based on these research topics: %s

Suggest ONE specific follow-up research topic that would complement this research.
Be specific and actionable. Return only the topic name (no explanation).`, strings.Join(values, ", "))

	result, err := s.llm.Complete(ctx, llm.Request{
		Prompt:      prompt,
		Temperature: 0.8,
		MaxTokens:   50,
	})
	if err != nil {
		s.logger.Warn(ctx, "next-research suggestion failed", zap.Error(err))
		return ""
	}
	return strings.TrimSpace(result.Text)
}

// CoachingTips returns static tips for a workflow stage.
func CoachingTips(stage string) []string {
	tips := map[string][]string{
		"start": {
			"Be specific with your topic for better results",
			"The AI will learn your preferences over time",
			"Check the usage dashboard to see your research patterns",
		},
		"queries": {
			"Review generated queries - you can deselect any that don't fit",
			"More queries = more diverse results",
			"The AI learns which queries work best for you",
		},
		"sources": {
			"Sources from your preferred domains are highlighted",
			"Click links to preview before selecting",
			"Quality over quantity - select the best sources",
		},
		"complete": {
			"Great job! Your preferences have been saved",
			"Visit the stats page to see your research trends",
			"Memory is learning - future searches will be even better",
		},
	}
	return tips[stage]
}
