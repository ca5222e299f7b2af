package httpapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ferrolab/researchd/internal/store"
)

// ContextAddRequest stores one persistent context note.
type ContextAddRequest struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

// ContextListResponse wraps the user's active context notes.
type ContextListResponse struct {
	Contexts []store.PersistentContext `json:"contexts"`
	Count    int                       `json:"count"`
}

func (s *Server) handleContextList(c echo.Context) error {
	ctx := c.Request().Context()
	contexts, err := s.deps.Store.Contexts(ctx, userID(c))
	if err != nil {
		s.logger.Error(ctx, "failed to list contexts", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to list contexts"})
	}
	return c.JSON(http.StatusOK, ContextListResponse{Contexts: contexts, Count: len(contexts)})
}

func (s *Server) handleContextAdd(c echo.Context) error {
	var req ContextAddRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	ctx := c.Request().Context()
	id, ok, err := s.deps.Store.AddContext(ctx, userID(c), req.Text, req.Type)
	if err != nil {
		s.logger.Error(ctx, "failed to add context", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to add context"})
	}
	if !ok {
		return badRequest(c, "text is required")
	}
	return c.JSON(http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleContextRemove(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid context id")
	}

	ctx := c.Request().Context()
	removed, err := s.deps.Store.RemoveContext(ctx, userID(c), id)
	if err != nil {
		s.logger.Error(ctx, "failed to remove context", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to remove context"})
	}
	if !removed {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "context not found"})
	}
	return c.JSON(http.StatusOK, map[string]bool{"removed": true})
}

func (s *Server) handleContextClear(c echo.Context) error {
	ctx := c.Request().Context()
	count, err := s.deps.Store.ClearContexts(ctx, userID(c))
	if err != nil {
		s.logger.Error(ctx, "failed to clear contexts", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to clear contexts"})
	}
	return c.JSON(http.StatusOK, map[string]int64{"cleared": count})
}
