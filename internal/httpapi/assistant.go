package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ferrolab/researchd/internal/assistant"
)

func (s *Server) handleAssistantGreeting(c echo.Context) error {
	greeting := s.deps.Assistant.Greeting(c.Request().Context(), userID(c))
	return c.JSON(http.StatusOK, greeting)
}

func (s *Server) handleAssistantDefaults(c echo.Context) error {
	defaults := s.deps.Assistant.SmartDefaults(c.Request().Context(), userID(c))
	return c.JSON(http.StatusOK, defaults)
}

// SuggestionsResponse wraps topic suggestions.
type SuggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}

func (s *Server) handleAssistantSuggestions(c echo.Context) error {
	topic := c.QueryParam("topic")
	suggestions := s.deps.Assistant.TopicSuggestions(c.Request().Context(), userID(c), topic)
	return c.JSON(http.StatusOK, SuggestionsResponse{Suggestions: suggestions})
}

// FeedbackRequest asks for workflow-step feedback.
type FeedbackRequest struct {
	Action string                 `json:"action"`
	Data   assistant.FeedbackData `json:"data"`
}

func (s *Server) handleAssistantFeedback(c echo.Context) error {
	var req FeedbackRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Action == "" {
		return badRequest(c, "action is required")
	}

	fb := s.deps.Assistant.InteractiveFeedback(c.Request().Context(), userID(c), req.Action, req.Data)
	return c.JSON(http.StatusOK, fb)
}
