package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ferrolab/researchd/internal/store"
)

func (s *Server) handleSessionList(c echo.Context) error {
	ctx := c.Request().Context()
	limit := intQuery(c, "limit", 10)
	sessions, err := s.deps.Store.RecentSessions(ctx, userID(c), limit)
	if err != nil {
		s.logger.Error(ctx, "failed to list sessions", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to list sessions"})
	}
	return c.JSON(http.StatusOK, sessions)
}

func (s *Server) handleSessionDetail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid session id")
	}

	ctx := c.Request().Context()
	detail, err := s.deps.Store.Session(ctx, userID(c), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "session not found"})
		}
		s.logger.Error(ctx, "failed to load session", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to load session"})
	}
	return c.JSON(http.StatusOK, detail)
}

func (s *Server) handleStats(c echo.Context) error {
	ctx := c.Request().Context()
	stats, err := s.deps.Store.Stats(ctx, userID(c))
	if err != nil {
		s.logger.Error(ctx, "failed to load stats", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to load stats"})
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *Server) handleHistorySearch(c echo.Context) error {
	term := c.QueryParam("q")
	if term == "" {
		return badRequest(c, "query parameter q is required")
	}

	ctx := c.Request().Context()
	sessions, err := s.deps.Store.SearchHistory(ctx, userID(c), term)
	if err != nil {
		s.logger.Error(ctx, "failed to search history", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to search history"})
	}
	return c.JSON(http.StatusOK, sessions)
}
