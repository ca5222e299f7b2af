package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func (s *Server) handleUsageTotals(c echo.Context) error {
	ctx := c.Request().Context()
	totals, err := s.deps.Store.Totals(ctx)
	if err != nil {
		s.logger.Error(ctx, "failed to load usage totals", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to load usage totals"})
	}
	return c.JSON(http.StatusOK, totals)
}

func (s *Server) handleUsageDaily(c echo.Context) error {
	ctx := c.Request().Context()
	days := intQuery(c, "days", 30)
	stats, err := s.deps.Store.DailyStats(ctx, days)
	if err != nil {
		s.logger.Error(ctx, "failed to load daily stats", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to load daily stats"})
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *Server) handleUsageRecent(c echo.Context) error {
	ctx := c.Request().Context()
	limit := intQuery(c, "limit", 20)
	events, err := s.deps.Store.RecentEvents(ctx, limit)
	if err != nil {
		s.logger.Error(ctx, "failed to load recent events", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to load recent events"})
	}
	return c.JSON(http.StatusOK, events)
}

func (s *Server) handleUsageCosts(c echo.Context) error {
	ctx := c.Request().Context()
	rows, err := s.deps.Store.CostBreakdown(ctx)
	if err != nil {
		s.logger.Error(ctx, "failed to load cost breakdown", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to load cost breakdown"})
	}
	return c.JSON(http.StatusOK, rows)
}
