package httpapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ferrolab/researchd/internal/memory"
)

// MemoryRecord is a memory entry as the API returns it.
type MemoryRecord struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Score    float32           `json:"score,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func toAPIRecords(records []memory.Record) []MemoryRecord {
	out := make([]MemoryRecord, 0, len(records))
	for _, rec := range records {
		out = append(out, MemoryRecord{
			ID:       rec.ID,
			Text:     rec.Text,
			Score:    rec.Score,
			Metadata: rec.Meta.ToMap(),
		})
	}
	return out
}

// MemoryListResponse wraps a set of memory records.
type MemoryListResponse struct {
	Memories []MemoryRecord `json:"memories"`
	Count    int            `json:"count"`
}

func (s *Server) handleMemoryList(c echo.Context) error {
	limit := intQuery(c, "limit", 50)
	records := s.deps.Memory.All(c.Request().Context(), userID(c), limit)
	return c.JSON(http.StatusOK, MemoryListResponse{
		Memories: toAPIRecords(records),
		Count:    len(records),
	})
}

// MemoryAddRequest stores a manual memory note.
type MemoryAddRequest struct {
	Text string `json:"text"`
	Kind string `json:"kind"`
}

// MemoryAddResponse returns the stored record's ID.
type MemoryAddResponse struct {
	ID string `json:"id"`
}

func (s *Server) handleMemoryAdd(c echo.Context) error {
	var req MemoryAddRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Text == "" {
		return badRequest(c, "text is required")
	}

	id := s.deps.Memory.AddManual(c.Request().Context(), userID(c), req.Text, req.Kind)
	if id == "" {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to store memory"})
	}
	return c.JSON(http.StatusCreated, MemoryAddResponse{ID: id})
}

func (s *Server) handleMemorySearch(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return badRequest(c, "query parameter q is required")
	}
	limit := intQuery(c, "k", 5)

	records := s.deps.Memory.Search(c.Request().Context(), userID(c), query, limit)
	return c.JSON(http.StatusOK, MemoryListResponse{
		Memories: toAPIRecords(records),
		Count:    len(records),
	})
}

func (s *Server) handlePreferences(c echo.Context) error {
	profile := s.deps.Prefs.Preferences(c.Request().Context(), userID(c))
	return c.JSON(http.StatusOK, profile)
}

// intQuery parses an integer query parameter, falling back to def when
// absent or malformed.
func intQuery(c echo.Context, name string, def int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
