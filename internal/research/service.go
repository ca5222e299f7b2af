// Package research drives the query-generation, scoring, and content
// pipeline around the LLM.
//
// External calls degrade to typed fallbacks: a failed query generation
// falls back to the bare topic, a failed score becomes a neutral 50,
// and failed content generation yields an error report. The research
// flow itself never aborts on an LLM hiccup.
package research

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/ferrolab/researchd/internal/llm"
	"github.com/ferrolab/researchd/internal/logging"
	"github.com/ferrolab/researchd/internal/memory"
	"github.com/ferrolab/researchd/internal/personalize"
)

// ContextSource provides the user's persistent-context block for
// prompt injection. Recomputed on every prompt build.
type ContextSource interface {
	ContextSummary(ctx context.Context, userID string) (string, error)
}

// PreferenceSource provides the user's derived preference profile.
type PreferenceSource interface {
	Preferences(ctx context.Context, userID string) personalize.Profile
}

// MemorySearcher finds memories related to a topic.
type MemorySearcher interface {
	Search(ctx context.Context, userID, query string, limit int) []memory.Record
}

// Service generates queries and research content, personalized from
// the user's contexts, preferences, and memories.
type Service struct {
	llm      llm.Client
	contexts ContextSource
	prefs    PreferenceSource
	memories MemorySearcher
	logger   *logging.Logger
	tracer   trace.Tracer
}

// NewService builds a research service. contexts, prefs, and memories
// may be nil; prompts then carry no personalization.
func NewService(client llm.Client, contexts ContextSource, prefs PreferenceSource, memories MemorySearcher, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		llm:      client,
		contexts: contexts,
		prefs:    prefs,
		memories: memories,
		logger:   logger,
		tracer:   otel.Tracer("research"),
	}
}

// userContext assembles the personalization block for prompts:
// persistent contexts first, then top preferred domains, research
// interests, and the related-memory count.
func (s *Service) userContext(ctx context.Context, userID, topic string) string {
	var b strings.Builder

	if s.contexts != nil {
		if summary, err := s.contexts.ContextSummary(ctx, userID); err == nil && summary != "" {
			b.WriteString(summary)
			b.WriteString("\n")
		}
	}

	if s.prefs != nil {
		profile := s.prefs.Preferences(ctx, userID)
		if domains := topValues(profile.PreferredDomains, 3); len(domains) > 0 {
			fmt.Fprintf(&b, "User's preferred source domains: %s\n", strings.Join(domains, ", "))
		}
		if topics := topValues(profile.Topics, 3); len(topics) > 0 {
			fmt.Fprintf(&b, "User's research interests: %s\n", strings.Join(topics, ", "))
		}
	}

	if s.memories != nil {
		if related := s.memories.Search(ctx, userID, topic, 5); len(related) > 0 {
			fmt.Fprintf(&b, "User has researched %d related topics before\n", len(related))
		}
	}

	if b.Len() == 0 {
		return "First-time researcher on this topic"
	}
	return strings.TrimRight(b.String(), "\n")
}

func topValues(counts []personalize.Count, n int) []string {
	if len(counts) > n {
		counts = counts[:n]
	}
	values := make([]string, 0, len(counts))
	for _, c := range counts {
		values = append(values, c.Value)
	}
	return values
}
