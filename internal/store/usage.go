package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Per-million-token pricing used for cost estimates.
// text-embedding-3-small input and gpt-4o-mini input respectively.
const (
	embeddingCostPerMillion = 0.02
	llmCostPerMillion       = 0.15
)

// UsageEvent records one memory-layer call.
type UsageEvent struct {
	ID              int64             `json:"id"`
	Timestamp       time.Time         `json:"timestamp"`
	OperationType   string            `json:"operation_type"` // add, search, get_all
	UserID          string            `json:"user_id"`
	MemoryID        string            `json:"memory_id,omitempty"`
	TokensUsed      int               `json:"tokens_used"`
	EmbeddingTokens int               `json:"embedding_tokens"`
	LLMTokens       int               `json:"llm_tokens"`
	EstimatedCost   float64           `json:"estimated_cost"`
	LatencyMS       int               `json:"latency_ms"`
	Success         bool              `json:"success"`
	ErrorMessage    string            `json:"error_message,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// UsageTotals is the all-time aggregate over the event log.
type UsageTotals struct {
	TotalOperations int     `json:"total_operations"`
	TotalAdds       int     `json:"total_adds"`
	TotalSearches   int     `json:"total_searches"`
	TotalTokens     int     `json:"total_tokens"`
	TotalCost       float64 `json:"total_cost"`
	AvgLatencyMS    float64 `json:"avg_latency_ms"`
	SuccessRate     float64 `json:"success_rate"` // percentage
}

// CostRow is one operation type's share of the total cost.
type CostRow struct {
	Operation       string  `json:"operation"`
	Count           int     `json:"count"`
	EmbeddingTokens int     `json:"embedding_tokens"`
	LLMTokens       int     `json:"llm_tokens"`
	Cost            float64 `json:"cost"`
}

// DailyStat is one calendar day's rollup.
type DailyStat struct {
	Date            string  `json:"date"`
	TotalOperations int     `json:"operations"`
	TotalAdds       int     `json:"memories"`
	TotalSearches   int     `json:"searches"`
	TotalTokens     int     `json:"tokens"`
	TotalCost       float64 `json:"cost"`
	AvgLatencyMS    float64 `json:"latency_ms"`
	SuccessRate     float64 `json:"success_rate"` // 0..1
}

// EstimateCost computes the cost estimate for a token split.
func EstimateCost(embeddingTokens, llmTokens int) float64 {
	return float64(embeddingTokens)/1_000_000*embeddingCostPerMillion +
		float64(llmTokens)/1_000_000*llmCostPerMillion
}

// RecordUsage appends an event and folds it into the calendar day's
// rollup. Both writes happen in one transaction with an incremental
// upsert keyed by date, so concurrent writers for the same day cannot
// lose updates.
func (s *Store) RecordUsage(ctx context.Context, event UsageEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = timeNow().UTC()
	}
	event.EstimatedCost = EstimateCost(event.EmbeddingTokens, event.LLMTokens)

	var metadataJSON any
	if len(event.Metadata) > 0 {
		data, err := json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("marshaling event metadata: %w", err)
		}
		metadataJSON = string(data)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO usage_events
		(timestamp, operation_type, user_id, memory_id, tokens_used, embedding_tokens,
		 llm_tokens, estimated_cost, latency_ms, success, error_message, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.Timestamp, event.OperationType, event.UserID, nullIfEmpty(event.MemoryID),
		event.TokensUsed, event.EmbeddingTokens, event.LLMTokens, event.EstimatedCost,
		event.LatencyMS, event.Success, nullIfEmpty(event.ErrorMessage), metadataJSON)
	if err != nil {
		return fmt.Errorf("inserting usage event: %w", err)
	}

	isAdd := boolToInt(event.OperationType == "add")
	isSearch := boolToInt(event.OperationType == "search")
	success := boolToInt(event.Success)
	date := event.Timestamp.Format("2006-01-02")

	_, err = tx.ExecContext(ctx, `
		INSERT INTO usage_daily
		(date, total_operations, total_adds, total_searches, total_tokens,
		 total_cost, total_latency_ms, successes)
		VALUES (?, 1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			total_operations = total_operations + 1,
			total_adds       = total_adds + excluded.total_adds,
			total_searches   = total_searches + excluded.total_searches,
			total_tokens     = total_tokens + excluded.total_tokens,
			total_cost       = total_cost + excluded.total_cost,
			total_latency_ms = total_latency_ms + excluded.total_latency_ms,
			successes        = successes + excluded.successes`,
		date, isAdd, isSearch, event.TokensUsed, event.EstimatedCost,
		event.LatencyMS, success)
	if err != nil {
		return fmt.Errorf("updating daily rollup: %w", err)
	}

	return tx.Commit()
}

// Totals aggregates the full event log.
func (s *Store) Totals(ctx context.Context) (*UsageTotals, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN operation_type = 'add' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN operation_type = 'search' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(tokens_used), 0),
			COALESCE(SUM(estimated_cost), 0),
			COALESCE(AVG(latency_ms), 0),
			COALESCE(AVG(CAST(success AS REAL)) * 100, 0)
		FROM usage_events`)

	var t UsageTotals
	if err := row.Scan(&t.TotalOperations, &t.TotalAdds, &t.TotalSearches,
		&t.TotalTokens, &t.TotalCost, &t.AvgLatencyMS, &t.SuccessRate); err != nil {
		return nil, fmt.Errorf("aggregating totals: %w", err)
	}
	return &t, nil
}

// CostBreakdown groups cost by operation type, most expensive first.
func (s *Store) CostBreakdown(ctx context.Context) ([]CostRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			operation_type,
			COUNT(*),
			COALESCE(SUM(embedding_tokens), 0),
			COALESCE(SUM(llm_tokens), 0),
			COALESCE(SUM(estimated_cost), 0)
		FROM usage_events
		GROUP BY operation_type
		ORDER BY SUM(estimated_cost) DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying cost breakdown: %w", err)
	}
	defer rows.Close()

	var breakdown []CostRow
	for rows.Next() {
		var r CostRow
		if err := rows.Scan(&r.Operation, &r.Count, &r.EmbeddingTokens, &r.LLMTokens, &r.Cost); err != nil {
			return nil, fmt.Errorf("scanning cost row: %w", err)
		}
		breakdown = append(breakdown, r)
	}
	return breakdown, rows.Err()
}

// RecentEvents returns the newest events first.
func (s *Store) RecentEvents(ctx context.Context, limit int) ([]UsageEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, operation_type, COALESCE(user_id, ''),
			COALESCE(memory_id, ''), tokens_used, embedding_tokens, llm_tokens,
			estimated_cost, latency_ms, success, COALESCE(error_message, ''),
			COALESCE(metadata, '')
		FROM usage_events
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent events: %w", err)
	}
	defer rows.Close()

	var events []UsageEvent
	for rows.Next() {
		var e UsageEvent
		var metadataJSON string
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.OperationType, &e.UserID,
			&e.MemoryID, &e.TokensUsed, &e.EmbeddingTokens, &e.LLMTokens,
			&e.EstimatedCost, &e.LatencyMS, &e.Success, &e.ErrorMessage,
			&metadataJSON); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		if metadataJSON != "" {
			_ = json.Unmarshal([]byte(metadataJSON), &e.Metadata)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// DailyStats returns rollups for the trailing N days, newest first.
// Days with no events are absent, not zero-filled.
func (s *Store) DailyStats(ctx context.Context, days int) ([]DailyStat, error) {
	cutoff := timeNow().UTC().AddDate(0, 0, -days).Format("2006-01-02")

	rows, err := s.db.QueryContext(ctx, `
		SELECT date, total_operations, total_adds, total_searches, total_tokens,
			total_cost, total_latency_ms, successes
		FROM usage_daily
		WHERE date >= ?
		ORDER BY date DESC`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("querying daily stats: %w", err)
	}
	defer rows.Close()

	var stats []DailyStat
	for rows.Next() {
		var d DailyStat
		var totalLatency, successes int
		if err := rows.Scan(&d.Date, &d.TotalOperations, &d.TotalAdds, &d.TotalSearches,
			&d.TotalTokens, &d.TotalCost, &totalLatency, &successes); err != nil {
			return nil, fmt.Errorf("scanning daily stat: %w", err)
		}
		if d.TotalOperations > 0 {
			d.AvgLatencyMS = float64(totalLatency) / float64(d.TotalOperations)
			d.SuccessRate = float64(successes) / float64(d.TotalOperations)
		}
		stats = append(stats, d)
	}
	return stats, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
