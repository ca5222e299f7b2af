// Package memory is the semantic memory layer: it writes research
// sessions, curation decisions, and user notes into the vector store
// and reads them back for personalization.
//
// The layer degrades silently. A memory that fails to write or a search
// that fails loses personalization for one request, nothing more; every
// failure is logged and tracked in the usage log, never propagated to
// the research flow.
package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ferrolab/researchd/internal/logging"
	"github.com/ferrolab/researchd/internal/store"
	"github.com/ferrolab/researchd/internal/vectorstore"
)

// UsageTracker records one usage event per memory operation.
type UsageTracker interface {
	RecordUsage(ctx context.Context, event store.UsageEvent) error
}

// Record is a memory returned from a search or listing.
type Record struct {
	ID    string
	Text  string
	Score float32
	Meta  Metadata
}

// SessionData describes a finished research session for memory capture.
type SessionData struct {
	SessionID       int64
	Topic           string
	AIMode          string
	QueryFocus      string
	NumQueries      int
	TotalSources    int
	SelectedSources int
	TopQueries      []string
	MinQualityScore int
	Date            time.Time
}

// Source is the subset of a retrieved source that memory capture needs.
type Source struct {
	URL            string
	Title          string
	AIScore        int
	ScoreReasoning string
}

// Service wraps a vector store with record formatting, usage tracking,
// and silent degradation.
type Service struct {
	store  vectorstore.Store
	usage  UsageTracker
	logger *logging.Logger
	tracer trace.Tracer
}

// NewService creates a memory service. A nil logger falls back to a
// no-op logger.
func NewService(vs vectorstore.Store, usage UsageTracker, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		store:  vs,
		usage:  usage,
		logger: logger,
		tracer: otel.Tracer("memory"),
	}
}

// AddResearchSession captures a completed session. Returns the record
// ID, or empty string when the write failed.
func (s *Service) AddResearchSession(ctx context.Context, userID string, data SessionData) string {
	ctx, span := s.tracer.Start(ctx, "memory.AddResearchSession",
		trace.WithAttributes(attribute.String("topic", data.Topic)))
	defer span.End()

	if data.Date.IsZero() {
		data.Date = time.Now().UTC()
	}
	if data.AIMode == "" {
		data.AIMode = "basic"
	}
	if data.QueryFocus == "" {
		data.QueryFocus = "balanced"
	}

	topQueries := data.TopQueries
	if len(topQueries) > 3 {
		topQueries = topQueries[:3]
	}
	threshold := "N/A"
	if data.MinQualityScore > 0 {
		threshold = fmt.Sprintf("%d", data.MinQualityScore)
	}

	text := fmt.Sprintf(`Research Session Completed:
Topic: %s
AI Mode: %s
Query Focus: %s
Queries Generated: %d
Sources Found: %d
Sources Selected: %d
Top Queries Used: %s
Quality Threshold: %s
Date: %s`,
		data.Topic, data.AIMode, data.QueryFocus, data.NumQueries,
		data.TotalSources, data.SelectedSources, strings.Join(topQueries, ", "),
		threshold, data.Date.Format(time.RFC3339))

	meta := Metadata{
		Kind:      KindResearchSession,
		Topic:     data.Topic,
		AIMode:    data.AIMode,
		Date:      data.Date.Format(time.RFC3339),
		SessionID: fmt.Sprintf("%d", data.SessionID),
	}

	id := s.add(ctx, userID, text, meta, map[string]string{
		"topic": data.Topic,
		"type":  KindResearchSession,
	})
	if id != "" {
		s.logger.Info(ctx, "captured research session",
			zap.String("topic", data.Topic), zap.String("memory_id", id))
	}
	return id
}

// AddSourcePreference captures one curation decision (selected or
// rejected). Returns the record ID, or empty string on failure.
func (s *Service) AddSourcePreference(ctx context.Context, userID string, src Source, action, topic string) string {
	ctx, span := s.tracer.Start(ctx, "memory.AddSourcePreference",
		trace.WithAttributes(attribute.String("action", action)))
	defer span.End()

	domain := ExtractDomain(src.URL)

	title := src.Title
	if title == "" {
		title = "Unknown"
	}
	score := "N/A"
	if src.AIScore > 0 {
		score = fmt.Sprintf("%d", src.AIScore)
	}
	reasoning := src.ScoreReasoning
	if reasoning == "" {
		reasoning = "N/A"
	}

	text := fmt.Sprintf(`User %s source: %s
Domain: %s
URL: %s
For topic: %s
AI Quality Score: %s
Reasoning: %s`,
		action, title, domain, src.URL, topic, score, reasoning)

	meta := Metadata{
		Kind:   KindSourcePreference,
		Action: action,
		Domain: domain,
		Topic:  topic,
	}

	return s.add(ctx, userID, text, meta, map[string]string{
		"action": action,
		"domain": domain,
		"type":   KindSourcePreference,
	})
}

// AddManual stores a user-authored memory. Blank text is ignored and
// returns an empty ID without error.
func (s *Service) AddManual(ctx context.Context, userID, text, kind string) string {
	ctx, span := s.tracer.Start(ctx, "memory.AddManual")
	defer span.End()

	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	if kind == "" {
		kind = KindManual
	}

	meta := Metadata{
		Kind:          kind,
		Date:          time.Now().UTC().Format(time.RFC3339),
		ManuallyAdded: true,
	}

	return s.add(ctx, userID, text, meta, map[string]string{
		"type":           kind,
		"manually_added": "true",
	})
}

// Search returns up to limit memories semantically similar to the
// query. Failures return an empty slice.
func (s *Service) Search(ctx context.Context, userID, query string, limit int) []Record {
	ctx, span := s.tracer.Start(ctx, "memory.Search")
	defer span.End()

	start := time.Now()
	results, err := s.store.Search(ctx, userID, query, limit, nil)
	event := store.UsageEvent{
		OperationType:   "search",
		UserID:          userID,
		TokensUsed:      wordCount(query),
		EmbeddingTokens: wordCount(query),
		LatencyMS:       int(time.Since(start).Milliseconds()),
		Success:         err == nil,
		Metadata:        map[string]string{"query": query},
	}
	if err != nil {
		event.ErrorMessage = err.Error()
		s.track(ctx, event)
		s.logger.Warn(ctx, "memory search failed", zap.Error(err))
		return nil
	}
	event.Metadata["results_count"] = fmt.Sprintf("%d", len(results))
	s.track(ctx, event)

	return toRecords(results)
}

// All returns up to limit of the user's memories, in no particular
// order. Failures return an empty slice.
func (s *Service) All(ctx context.Context, userID string, limit int) []Record {
	ctx, span := s.tracer.Start(ctx, "memory.All")
	defer span.End()

	start := time.Now()
	results, err := s.store.All(ctx, userID, limit)
	event := store.UsageEvent{
		OperationType: "get_all",
		UserID:        userID,
		LatencyMS:     int(time.Since(start).Milliseconds()),
		Success:       err == nil,
	}
	if err != nil {
		event.ErrorMessage = err.Error()
		s.track(ctx, event)
		s.logger.Warn(ctx, "memory listing failed", zap.Error(err))
		return nil
	}
	event.Metadata = map[string]string{"results_count": fmt.Sprintf("%d", len(results))}
	s.track(ctx, event)

	return toRecords(results)
}

// add writes one record, tracking the operation either way.
func (s *Service) add(ctx context.Context, userID, text string, meta Metadata, eventMeta map[string]string) string {
	start := time.Now()
	id := uuid.NewString()

	_, err := s.store.Add(ctx, []vectorstore.Document{{
		ID:       id,
		UserID:   userID,
		Content:  text,
		Metadata: meta.ToMap(),
	}})

	words := wordCount(text)
	event := store.UsageEvent{
		OperationType:   "add",
		UserID:          userID,
		TokensUsed:      words,
		EmbeddingTokens: words,
		LatencyMS:       int(time.Since(start).Milliseconds()),
		Success:         err == nil,
		Metadata:        eventMeta,
	}
	if err != nil {
		event.ErrorMessage = err.Error()
		s.track(ctx, event)
		s.logger.Warn(ctx, "memory write failed",
			zap.String("kind", meta.Kind), zap.Error(err))
		return ""
	}
	event.MemoryID = id
	s.track(ctx, event)
	return id
}

func (s *Service) track(ctx context.Context, event store.UsageEvent) {
	if s.usage == nil {
		return
	}
	if err := s.usage.RecordUsage(ctx, event); err != nil {
		s.logger.Warn(ctx, "usage tracking failed", zap.Error(err))
	}
}

func toRecords(results []vectorstore.SearchResult) []Record {
	records := make([]Record, 0, len(results))
	for _, r := range results {
		records = append(records, Record{
			ID:    r.ID,
			Text:  r.Content,
			Score: r.Score,
			Meta:  ParseMetadata(r.Metadata),
		})
	}
	return records
}

// wordCount is the rough token estimate used for cost tracking.
func wordCount(text string) int {
	return len(strings.Fields(text))
}
