package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestSession(t *testing.T, s *Store, userID, topic string, at time.Time) int64 {
	t.Helper()
	fixedClock(t, at)
	id, err := s.StartSession(context.Background(), userID, Session{
		Topic:           topic,
		NumQueries:      5,
		AIMode:          "balanced",
		QueryFocus:      "academic",
		MinQualityScore: 70,
		MaxSources:      10,
	})
	require.NoError(t, err)
	return id
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	id := startTestSession(t, s, "alice", "solar storage", at)

	require.NoError(t, s.SaveQueries(ctx, id,
		[]string{"solar storage costs 2026", "grid battery deployment", "home battery ROI"},
		[]string{"solar storage costs 2026", "home battery ROI"}))

	require.NoError(t, s.SaveSources(ctx, id, []SessionSource{
		{URL: "https://nrel.gov/storage", Title: "NREL storage report", QuerySource: "solar storage costs 2026", AIScore: 92, ScoreReasoning: "government lab"},
		{URL: "https://example.com/blog", Title: "Some blog", QuerySource: "home battery ROI", AIScore: 55, ScoreReasoning: "thin content"},
	}, []string{"https://nrel.gov/storage"}))

	require.NoError(t, s.CompleteSession(ctx, id))

	detail, err := s.Session(ctx, "alice", id)
	require.NoError(t, err)
	assert.Equal(t, "solar storage", detail.Session.Topic)
	assert.Equal(t, "balanced", detail.Session.AIMode)
	assert.True(t, detail.Session.Completed)
	assert.False(t, detail.Session.Cancelled)

	require.Len(t, detail.Queries, 3)
	assert.True(t, detail.Queries[0].Selected)
	assert.False(t, detail.Queries[1].Selected)
	assert.True(t, detail.Queries[2].Selected)

	require.Len(t, detail.Sources, 2)
	assert.True(t, detail.Sources[0].Selected)
	assert.Equal(t, 92, detail.Sources[0].AIScore)
	assert.False(t, detail.Sources[1].Selected)
}

func TestSessionIsUserScoped(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	id := startTestSession(t, s, "alice", "solar storage", at)

	_, err := s.Session(ctx, "bob", id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancelSessionKeepsRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	id := startTestSession(t, s, "alice", "heat pumps", at)
	require.NoError(t, s.SaveQueries(ctx, id, []string{"heat pump efficiency"}, nil))
	require.NoError(t, s.CancelSession(ctx, id))

	detail, err := s.Session(ctx, "alice", id)
	require.NoError(t, err)
	assert.False(t, detail.Session.Completed)
	assert.True(t, detail.Session.Cancelled)
	assert.Len(t, detail.Queries, 1)
}

func TestRecentSessionsJoinsCounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	first := startTestSession(t, s, "alice", "solar", base)
	second := startTestSession(t, s, "alice", "wind", base.Add(time.Hour))
	startTestSession(t, s, "bob", "other user", base.Add(2*time.Hour))

	require.NoError(t, s.SaveQueries(ctx, first, []string{"q1", "q2"}, nil))
	require.NoError(t, s.SaveSources(ctx, first, []SessionSource{
		{URL: "https://a.example", AIScore: 80},
		{URL: "https://b.example", AIScore: 60},
		{URL: "https://c.example", AIScore: 40},
	}, []string{"https://a.example", "https://b.example"}))
	require.NoError(t, s.SaveQueries(ctx, second, []string{"q3"}, nil))

	recent, err := s.RecentSessions(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)

	// Newest first.
	assert.Equal(t, "wind", recent[0].Topic)
	assert.Equal(t, 1, recent[0].QueryCount)
	assert.Zero(t, recent[0].SourceCount)

	assert.Equal(t, "solar", recent[1].Topic)
	assert.Equal(t, 2, recent[1].QueryCount)
	assert.Equal(t, 3, recent[1].SourceCount)
	assert.Equal(t, 2, recent[1].SelectedCount)
}

func TestFavoriteSources(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		id := startTestSession(t, s, "alice", "solar", base.Add(time.Duration(i)*time.Hour))
		selected := []string{"https://nrel.gov/storage"}
		if i == 0 {
			selected = append(selected, "https://once.example")
		}
		require.NoError(t, s.SaveSources(ctx, id, []SessionSource{
			{URL: "https://nrel.gov/storage", Title: "NREL", AIScore: 90},
			{URL: "https://once.example", Title: "Once", AIScore: 70},
		}, selected))
	}

	favorites, err := s.FavoriteSources(ctx, "alice", 2)
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	assert.Equal(t, "https://nrel.gov/storage", favorites[0].URL)
	assert.Equal(t, 3, favorites[0].TimesFound)
	assert.Equal(t, 3, favorites[0].TimesSelected)
	assert.InDelta(t, 90.0, favorites[0].AvgScore, 1e-9)

	// Another user sees nothing.
	favorites, err = s.FavoriteSources(ctx, "bob", 1)
	require.NoError(t, err)
	assert.Empty(t, favorites)
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	first := startTestSession(t, s, "alice", "solar", base)
	startTestSession(t, s, "alice", "solar", base.Add(time.Hour))
	startTestSession(t, s, "alice", "wind", base.Add(2*time.Hour))

	require.NoError(t, s.CompleteSession(ctx, first))
	require.NoError(t, s.SaveSources(ctx, first, []SessionSource{
		{URL: "https://a.example", AIScore: 80},
		{URL: "https://b.example", AIScore: 60},
	}, []string{"https://a.example"}))

	stats, err := s.Stats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalSessions)
	assert.Equal(t, 1, stats.CompletedSessions)
	assert.Equal(t, 2, stats.TotalSources)
	assert.Equal(t, 1, stats.SelectedSources)

	require.NotEmpty(t, stats.TopTopics)
	assert.Equal(t, TopicCount{Value: "solar", Count: 2}, stats.TopTopics[0])
	require.NotEmpty(t, stats.AIModeUsage)
	assert.Equal(t, TopicCount{Value: "balanced", Count: 3}, stats.AIModeUsage[0])
}

func TestSearchHistoryMatchesTopicQueryAndTitle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	byTopic := startTestSession(t, s, "alice", "perovskite cells", base)
	byQuery := startTestSession(t, s, "alice", "storage", base.Add(time.Hour))
	byTitle := startTestSession(t, s, "alice", "wind", base.Add(2*time.Hour))
	unrelated := startTestSession(t, s, "alice", "heat pumps", base.Add(3*time.Hour))
	_ = unrelated

	require.NoError(t, s.SaveQueries(ctx, byQuery, []string{"perovskite stability"}, nil))
	require.NoError(t, s.SaveQueries(ctx, byTitle, []string{"q1", "q2", "q3"}, nil))
	require.NoError(t, s.SaveSources(ctx, byTitle, []SessionSource{
		{URL: "https://x.example", Title: "Perovskite breakthroughs", AIScore: 85},
		{URL: "https://y.example", Title: "Turbine siting", AIScore: 60},
	}, []string{"https://x.example"}))

	results, err := s.SearchHistory(ctx, "alice", "perovskite")
	require.NoError(t, err)
	require.Len(t, results, 3)

	ids := []int64{results[0].ID, results[1].ID, results[2].ID}
	assert.Contains(t, ids, byTopic)
	assert.Contains(t, ids, byQuery)
	assert.Contains(t, ids, byTitle)

	// Joined counts stay per-row even with several queries on the session.
	for _, r := range results {
		if r.ID == byTitle {
			assert.Equal(t, 3, r.QueryCount)
			assert.Equal(t, 2, r.SourceCount)
			assert.Equal(t, 1, r.SelectedCount)
		}
	}

	// Scoped to the user.
	results, err = s.SearchHistory(ctx, "bob", "perovskite")
	require.NoError(t, err)
	assert.Empty(t, results)
}
