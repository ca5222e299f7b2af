package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateCost(t *testing.T) {
	assert.Zero(t, EstimateCost(0, 0))
	assert.InDelta(t, 0.02, EstimateCost(1_000_000, 0), 1e-9)
	assert.InDelta(t, 0.15, EstimateCost(0, 1_000_000), 1e-9)
	assert.InDelta(t, 0.17, EstimateCost(1_000_000, 1_000_000), 1e-9)
}

func TestRecordUsageRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	at := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	err := s.RecordUsage(ctx, UsageEvent{
		Timestamp:       at,
		OperationType:   "add",
		UserID:          "alice",
		MemoryID:        "mem-1",
		TokensUsed:      150,
		EmbeddingTokens: 100,
		LLMTokens:       50,
		LatencyMS:       42,
		Success:         true,
		Metadata:        map[string]string{"topic": "solar"},
	})
	require.NoError(t, err)

	events, err := s.RecentEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)

	e := events[0]
	assert.Equal(t, "add", e.OperationType)
	assert.Equal(t, "alice", e.UserID)
	assert.Equal(t, "mem-1", e.MemoryID)
	assert.Equal(t, 150, e.TokensUsed)
	assert.Equal(t, 42, e.LatencyMS)
	assert.True(t, e.Success)
	assert.Equal(t, map[string]string{"topic": "solar"}, e.Metadata)
	assert.InDelta(t, EstimateCost(100, 50), e.EstimatedCost, 1e-9)
}

func TestTotalsEmptyLog(t *testing.T) {
	s := newTestStore(t)

	totals, err := s.Totals(context.Background())
	require.NoError(t, err)
	assert.Zero(t, totals.TotalOperations)
	assert.Zero(t, totals.TotalCost)
	assert.Zero(t, totals.SuccessRate)
}

func TestTotalsAggregation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	events := []UsageEvent{
		{Timestamp: at, OperationType: "add", TokensUsed: 100, LatencyMS: 10, Success: true},
		{Timestamp: at, OperationType: "add", TokensUsed: 200, LatencyMS: 20, Success: true},
		{Timestamp: at, OperationType: "search", TokensUsed: 50, LatencyMS: 30, Success: false},
		{Timestamp: at, OperationType: "get_all", TokensUsed: 0, LatencyMS: 40, Success: true},
	}
	for _, e := range events {
		require.NoError(t, s.RecordUsage(ctx, e))
	}

	totals, err := s.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, totals.TotalOperations)
	assert.Equal(t, 2, totals.TotalAdds)
	assert.Equal(t, 1, totals.TotalSearches)
	assert.Equal(t, 350, totals.TotalTokens)
	assert.InDelta(t, 25.0, totals.AvgLatencyMS, 1e-9)
	assert.InDelta(t, 75.0, totals.SuccessRate, 1e-9)
}

func TestDailyRollupIsIncremental(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	day1 := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	require.NoError(t, s.RecordUsage(ctx, UsageEvent{
		Timestamp: day1, OperationType: "add", TokensUsed: 100, LatencyMS: 10, Success: true}))
	require.NoError(t, s.RecordUsage(ctx, UsageEvent{
		Timestamp: day1.Add(2 * time.Hour), OperationType: "search", TokensUsed: 40, LatencyMS: 30, Success: false}))
	require.NoError(t, s.RecordUsage(ctx, UsageEvent{
		Timestamp: day2, OperationType: "add", TokensUsed: 60, LatencyMS: 20, Success: true}))

	fixedClock(t, day2.Add(time.Hour))
	stats, err := s.DailyStats(ctx, 7)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	// Newest day first.
	assert.Equal(t, "2026-03-02", stats[0].Date)
	assert.Equal(t, 1, stats[0].TotalOperations)
	assert.Equal(t, 1, stats[0].TotalAdds)
	assert.InDelta(t, 1.0, stats[0].SuccessRate, 1e-9)

	assert.Equal(t, "2026-03-01", stats[1].Date)
	assert.Equal(t, 2, stats[1].TotalOperations)
	assert.Equal(t, 1, stats[1].TotalAdds)
	assert.Equal(t, 1, stats[1].TotalSearches)
	assert.Equal(t, 140, stats[1].TotalTokens)
	assert.InDelta(t, 20.0, stats[1].AvgLatencyMS, 1e-9)
	assert.InDelta(t, 0.5, stats[1].SuccessRate, 1e-9)
}

func TestDailyStatsCutoff(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	recent := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, s.RecordUsage(ctx, UsageEvent{Timestamp: old, OperationType: "add", Success: true}))
	require.NoError(t, s.RecordUsage(ctx, UsageEvent{Timestamp: recent, OperationType: "add", Success: true}))

	fixedClock(t, recent.Add(24*time.Hour))
	stats, err := s.DailyStats(ctx, 7)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "2026-03-01", stats[0].Date)
}

func TestCostBreakdownMostExpensiveFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	// Searches burn LLM tokens, adds mostly embedding tokens; the LLM
	// rate is higher so search should sort first.
	require.NoError(t, s.RecordUsage(ctx, UsageEvent{
		Timestamp: at, OperationType: "add", EmbeddingTokens: 1000, Success: true}))
	require.NoError(t, s.RecordUsage(ctx, UsageEvent{
		Timestamp: at, OperationType: "search", LLMTokens: 1000, Success: true}))
	require.NoError(t, s.RecordUsage(ctx, UsageEvent{
		Timestamp: at, OperationType: "search", LLMTokens: 500, Success: true}))

	breakdown, err := s.CostBreakdown(ctx)
	require.NoError(t, err)
	require.Len(t, breakdown, 2)

	assert.Equal(t, "search", breakdown[0].Operation)
	assert.Equal(t, 2, breakdown[0].Count)
	assert.Equal(t, 1500, breakdown[0].LLMTokens)
	assert.Equal(t, "add", breakdown[1].Operation)
	assert.Equal(t, 1000, breakdown[1].EmbeddingTokens)
	assert.Greater(t, breakdown[0].Cost, breakdown[1].Cost)
}

func TestRecentEventsNewestFirstAndLimited(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.RecordUsage(ctx, UsageEvent{
			Timestamp:     base.Add(time.Duration(i) * time.Minute),
			OperationType: "search",
			TokensUsed:    i,
			Success:       true,
		}))
	}

	events, err := s.RecentEvents(ctx, 3)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, 4, events[0].TokensUsed)
	assert.Equal(t, 2, events[2].TokensUsed)
}
