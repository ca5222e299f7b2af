package httpapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ferrolab/researchd/internal/assistant"
	"github.com/ferrolab/researchd/internal/memory"
	"github.com/ferrolab/researchd/internal/personalize"
	"github.com/ferrolab/researchd/internal/store"
)

// ErrorResponse is the JSON body for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

// QueriesRequest starts a research session.
type QueriesRequest struct {
	Topic           string `json:"topic"`
	NumQueries      int    `json:"num_queries"`
	QueryFocus      string `json:"query_focus"`
	AIMode          string `json:"ai_mode"`
	MinQualityScore int    `json:"min_quality_score"`
	MaxSources      int    `json:"max_sources"`
}

// QueriesResponse returns the generated queries for a new session.
type QueriesResponse struct {
	SessionID int64              `json:"session_id"`
	Queries   []string           `json:"queries"`
	Analysis  string             `json:"analysis,omitempty"`
	Insight   *assistant.Insight `json:"insight,omitempty"`
}

func (s *Server) handleResearchQueries(c echo.Context) error {
	var req QueriesRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Topic == "" {
		return badRequest(c, "topic is required")
	}

	ctx := c.Request().Context()
	uid := userID(c)

	sessionID, err := s.deps.Store.StartSession(ctx, uid, store.Session{
		Topic:           req.Topic,
		Date:            time.Now().UTC(),
		NumQueries:      req.NumQueries,
		AIMode:          req.AIMode,
		QueryFocus:      req.QueryFocus,
		MinQualityScore: req.MinQualityScore,
		MaxSources:      req.MaxSources,
	})
	if err != nil {
		s.logger.Error(ctx, "failed to start session", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to start session"})
	}

	queries := s.deps.Research.GenerateQueries(ctx, uid, req.Topic, req.NumQueries, req.QueryFocus)

	resp := QueriesResponse{SessionID: sessionID, Queries: queries}
	if s.deps.Assistant != nil {
		resp.Analysis = s.deps.Assistant.AnalyzeQueries(ctx, uid, req.Topic, queries)
		resp.Insight = s.deps.Assistant.ResearchInsights(ctx, uid, req.Topic)
	}
	return c.JSON(http.StatusOK, resp)
}

// SearchRequest runs the selected queries through web search and
// quality filtering.
type SearchRequest struct {
	SessionID       int64    `json:"session_id"`
	Topic           string   `json:"topic"`
	Queries         []string `json:"queries"`
	SelectedQueries []string `json:"selected_queries"`
	ResultsPerQuery int      `json:"results_per_query"`
}

// SearchResponse returns the filtered, personalized source list.
type SearchResponse struct {
	Sources    []personalize.ScoredSource `json:"sources"`
	TotalFound int                        `json:"total_found"`
}

func (s *Server) handleResearchSearch(c echo.Context) error {
	var req SearchRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Topic == "" {
		return badRequest(c, "topic is required")
	}

	queries := req.SelectedQueries
	if len(queries) == 0 {
		queries = req.Queries
	}
	if len(queries) == 0 {
		return badRequest(c, "at least one query is required")
	}

	ctx := c.Request().Context()
	uid := userID(c)

	if req.SessionID != 0 && len(req.Queries) > 0 {
		if err := s.deps.Store.SaveQueries(ctx, req.SessionID, req.Queries, queries); err != nil {
			s.logger.Warn(ctx, "failed to save session queries", zap.Error(err))
		}
	}

	results := s.deps.Search.Run(ctx, queries, req.ResultsPerQuery)
	sources := s.deps.Filter.FilterByQuality(ctx, req.Topic, results)
	sources = personalize.Highlight(sources, s.deps.Prefs.Preferences(ctx, uid))

	return c.JSON(http.StatusOK, SearchResponse{
		Sources:    sources,
		TotalFound: len(results),
	})
}

// RefineRequest asks for follow-up queries based on what the first
// round surfaced.
type RefineRequest struct {
	Topic   string                     `json:"topic"`
	Queries []string                   `json:"queries"`
	Sources []personalize.ScoredSource `json:"sources"`
}

// RefineResponse returns the follow-up queries.
type RefineResponse struct {
	Queries []string `json:"queries"`
}

func (s *Server) handleResearchRefine(c echo.Context) error {
	var req RefineRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Topic == "" {
		return badRequest(c, "topic is required")
	}

	ctx := c.Request().Context()
	refined := s.deps.Research.RefineQueries(ctx, req.Topic, req.Queries, req.Sources)
	return c.JSON(http.StatusOK, RefineResponse{Queries: refined})
}

// CompletedSource is one source with its curation outcome, posted back
// when a session finishes.
type CompletedSource struct {
	URL            string `json:"url"`
	Title          string `json:"title"`
	Query          string `json:"query,omitempty"`
	AIScore        int    `json:"ai_score"`
	ScoreReasoning string `json:"score_reasoning,omitempty"`
	Selected       bool   `json:"selected"`
}

// CompleteRequest finishes a research session and feeds the outcome
// into memory.
type CompleteRequest struct {
	SessionID       int64             `json:"session_id"`
	Topic           string            `json:"topic"`
	AIMode          string            `json:"ai_mode"`
	QueryFocus      string            `json:"query_focus"`
	Queries         []string          `json:"queries"`
	MinQualityScore int               `json:"min_quality_score"`
	Sources         []CompletedSource `json:"sources"`
}

// CompleteResponse reports the memory capture and closing feedback.
type CompleteResponse struct {
	MemoryID string             `json:"memory_id,omitempty"`
	Feedback assistant.Feedback `json:"feedback"`
}

func (s *Server) handleResearchComplete(c echo.Context) error {
	var req CompleteRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Topic == "" {
		return badRequest(c, "topic is required")
	}

	ctx := c.Request().Context()
	uid := userID(c)

	selected := 0
	var selectedURLs []string
	rows := make([]store.SessionSource, 0, len(req.Sources))
	for _, src := range req.Sources {
		if src.Selected {
			selected++
			selectedURLs = append(selectedURLs, src.URL)
		}
		rows = append(rows, store.SessionSource{
			URL:            src.URL,
			Title:          src.Title,
			QuerySource:    src.Query,
			AIScore:        src.AIScore,
			ScoreReasoning: src.ScoreReasoning,
		})
	}

	if req.SessionID != 0 {
		if err := s.deps.Store.SaveSources(ctx, req.SessionID, rows, selectedURLs); err != nil {
			s.logger.Warn(ctx, "failed to save session sources", zap.Error(err))
		}
		if err := s.deps.Store.CompleteSession(ctx, req.SessionID); err != nil {
			s.logger.Warn(ctx, "failed to mark session complete", zap.Error(err))
		}
	}

	topQueries := req.Queries
	if len(topQueries) > 3 {
		topQueries = topQueries[:3]
	}
	memoryID := s.deps.Memory.AddResearchSession(ctx, uid, memory.SessionData{
		SessionID:       req.SessionID,
		Topic:           req.Topic,
		AIMode:          req.AIMode,
		QueryFocus:      req.QueryFocus,
		NumQueries:      len(req.Queries),
		TotalSources:    len(req.Sources),
		SelectedSources: selected,
		TopQueries:      topQueries,
		MinQualityScore: req.MinQualityScore,
		Date:            time.Now().UTC(),
	})

	for _, src := range req.Sources {
		action := memory.ActionRejected
		if src.Selected {
			action = memory.ActionSelected
		}
		s.deps.Memory.AddSourcePreference(ctx, uid, memory.Source{
			URL:            src.URL,
			Title:          src.Title,
			AIScore:        src.AIScore,
			ScoreReasoning: src.ScoreReasoning,
		}, action, req.Topic)
	}

	resp := CompleteResponse{MemoryID: memoryID}
	if s.deps.Assistant != nil {
		resp.Feedback = s.deps.Assistant.InteractiveFeedback(ctx, uid, assistant.ActionCompletion, assistant.FeedbackData{
			TotalSources:    len(req.Sources),
			SelectedSources: selected,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// CancelRequest abandons an in-flight session.
type CancelRequest struct {
	SessionID int64 `json:"session_id"`
}

func (s *Server) handleResearchCancel(c echo.Context) error {
	var req CancelRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.SessionID == 0 {
		return badRequest(c, "session_id is required")
	}

	ctx := c.Request().Context()
	if err := s.deps.Store.CancelSession(ctx, req.SessionID); err != nil {
		s.logger.Error(ctx, "failed to cancel session", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to cancel session"})
	}
	return c.JSON(http.StatusOK, map[string]bool{"cancelled": true})
}

// GenerateRequest asks for an AI-written research report.
type GenerateRequest struct {
	Topic string `json:"topic"`
	Depth string `json:"depth"`
}

func (s *Server) handleResearchGenerate(c echo.Context) error {
	var req GenerateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Topic == "" {
		return badRequest(c, "topic is required")
	}

	ctx := c.Request().Context()
	content := s.deps.Research.GenerateContent(ctx, userID(c), req.Topic, req.Depth)
	return c.JSON(http.StatusOK, content)
}
