package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Session is one research run's bookkeeping row.
type Session struct {
	ID              int64     `json:"id"`
	UserID          string    `json:"user_id"`
	Topic           string    `json:"topic"`
	Date            time.Time `json:"date"`
	NumQueries      int       `json:"num_queries"`
	AIMode          string    `json:"ai_mode"`
	QueryFocus      string    `json:"query_focus"`
	MinQualityScore int       `json:"min_quality_score"`
	MaxSources      int       `json:"max_sources"`
	Completed       bool      `json:"completed"`
	Cancelled       bool      `json:"cancelled"`
	CreatedAt       time.Time `json:"created_at"`
}

// SessionSummary is a session row joined with its query and source counts.
type SessionSummary struct {
	ID            int64     `json:"id"`
	Topic         string    `json:"topic"`
	Date          time.Time `json:"date"`
	AIMode        string    `json:"ai_mode"`
	Completed     bool      `json:"completed"`
	Cancelled     bool      `json:"cancelled"`
	QueryCount    int       `json:"query_count"`
	SourceCount   int       `json:"source_count"`
	SelectedCount int       `json:"selected_count"`
}

// SessionQuery is one generated query and whether the user ran it.
type SessionQuery struct {
	ID       int64  `json:"id"`
	Text     string `json:"query_text"`
	Selected bool   `json:"selected"`
}

// SessionSource is one retrieved source and its curation outcome.
type SessionSource struct {
	ID             int64  `json:"id"`
	URL            string `json:"url"`
	Title          string `json:"title"`
	QuerySource    string `json:"query_source"`
	AIScore        int    `json:"ai_score"`
	ScoreReasoning string `json:"score_reasoning"`
	Selected       bool   `json:"selected"`
}

// SessionDetail is a session with its queries and sources.
type SessionDetail struct {
	Session Session         `json:"session"`
	Queries []SessionQuery  `json:"queries"`
	Sources []SessionSource `json:"sources"`
}

// FavoriteSource is a URL the user has selected across sessions.
type FavoriteSource struct {
	URL           string  `json:"url"`
	Title         string  `json:"title"`
	TimesFound    int     `json:"times_found"`
	TimesSelected int     `json:"times_selected"`
	AvgScore      float64 `json:"avg_score"`
}

// TopicCount pairs a value with how often it appears.
type TopicCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// ResearchStats is the overall activity summary for one user.
type ResearchStats struct {
	TotalSessions     int          `json:"total_sessions"`
	CompletedSessions int          `json:"completed_sessions"`
	TotalSources      int          `json:"total_sources"`
	SelectedSources   int          `json:"selected_sources"`
	TopTopics         []TopicCount `json:"top_topics"`
	AIModeUsage       []TopicCount `json:"ai_mode_usage"`
}

// StartSession records the beginning of a research run and returns its id.
func (s *Store) StartSession(ctx context.Context, userID string, sess Session) (int64, error) {
	now := timeNow().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO research_sessions
		(user_id, topic, date, num_queries, ai_mode, query_focus,
		 min_quality_score, max_sources, completed, cancelled, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, 0, ?)`,
		userID, sess.Topic, now, sess.NumQueries, sess.AIMode, sess.QueryFocus,
		sess.MinQualityScore, sess.MaxSources, now)
	if err != nil {
		return 0, fmt.Errorf("inserting session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading session id: %w", err)
	}
	return id, nil
}

// SaveQueries records the generated queries for a session, marking the
// ones the user selected. All inserts happen in one transaction.
func (s *Store) SaveQueries(ctx context.Context, sessionID int64, queries, selected []string) error {
	selectedSet := make(map[string]struct{}, len(selected))
	for _, q := range selected {
		selectedSet[q] = struct{}{}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, q := range queries {
		_, isSelected := selectedSet[q]
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO queries (session_id, query_text, selected)
			VALUES (?, ?, ?)`,
			sessionID, q, isSelected); err != nil {
			return fmt.Errorf("inserting query: %w", err)
		}
	}
	return tx.Commit()
}

// SaveSources records the retrieved sources for a session, marking the
// URLs the user selected.
func (s *Store) SaveSources(ctx context.Context, sessionID int64, sources []SessionSource, selectedURLs []string) error {
	selectedSet := make(map[string]struct{}, len(selectedURLs))
	for _, u := range selectedURLs {
		selectedSet[u] = struct{}{}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, src := range sources {
		_, isSelected := selectedSet[src.URL]
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sources
			(session_id, url, title, query_source, ai_score, score_reasoning, selected)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sessionID, src.URL, src.Title, src.QuerySource, src.AIScore,
			src.ScoreReasoning, isSelected); err != nil {
			return fmt.Errorf("inserting source: %w", err)
		}
	}
	return tx.Commit()
}

// CompleteSession marks a session finished.
func (s *Store) CompleteSession(ctx context.Context, sessionID int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE research_sessions SET completed = 1 WHERE id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("completing session: %w", err)
	}
	return nil
}

// CancelSession marks a session abandoned. Cancelled sessions keep their
// queries and sources; curation signals recorded before the cancel still
// feed preference extraction.
func (s *Store) CancelSession(ctx context.Context, sessionID int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE research_sessions SET completed = 0, cancelled = 1 WHERE id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("cancelling session: %w", err)
	}
	return nil
}

// RecentSessions returns the user's newest sessions with joined counts.
func (s *Store) RecentSessions(ctx context.Context, userID string, limit int) ([]SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			s.id, s.topic, s.date, COALESCE(s.ai_mode, ''), s.completed, s.cancelled,
			COUNT(DISTINCT q.id),
			COUNT(DISTINCT src.id),
			COUNT(DISTINCT CASE WHEN src.selected = 1 THEN src.id END)
		FROM research_sessions s
		LEFT JOIN queries q ON s.id = q.session_id
		LEFT JOIN sources src ON s.id = src.session_id
		WHERE s.user_id = ?
		GROUP BY s.id
		ORDER BY s.date DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent sessions: %w", err)
	}
	defer rows.Close()

	var summaries []SessionSummary
	for rows.Next() {
		var sum SessionSummary
		if err := rows.Scan(&sum.ID, &sum.Topic, &sum.Date, &sum.AIMode,
			&sum.Completed, &sum.Cancelled, &sum.QueryCount, &sum.SourceCount,
			&sum.SelectedCount); err != nil {
			return nil, fmt.Errorf("scanning session summary: %w", err)
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// Session returns one session with its queries and sources. Returns
// ErrNotFound when the id does not exist for this user.
func (s *Store) Session(ctx context.Context, userID string, sessionID int64) (*SessionDetail, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, topic, date, COALESCE(num_queries, 0),
			COALESCE(ai_mode, ''), COALESCE(query_focus, ''),
			COALESCE(min_quality_score, 0), COALESCE(max_sources, 0),
			completed, cancelled, created_at
		FROM research_sessions
		WHERE id = ? AND user_id = ?`, sessionID, userID)

	var detail SessionDetail
	sess := &detail.Session
	err := row.Scan(&sess.ID, &sess.UserID, &sess.Topic, &sess.Date, &sess.NumQueries,
		&sess.AIMode, &sess.QueryFocus, &sess.MinQualityScore, &sess.MaxSources,
		&sess.Completed, &sess.Cancelled, &sess.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	qRows, err := s.db.QueryContext(ctx, `
		SELECT id, query_text, selected FROM queries WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying session queries: %w", err)
	}
	defer qRows.Close()
	for qRows.Next() {
		var q SessionQuery
		if err := qRows.Scan(&q.ID, &q.Text, &q.Selected); err != nil {
			return nil, fmt.Errorf("scanning query: %w", err)
		}
		detail.Queries = append(detail.Queries, q)
	}
	if err := qRows.Err(); err != nil {
		return nil, err
	}

	srcRows, err := s.db.QueryContext(ctx, `
		SELECT id, url, COALESCE(title, ''), COALESCE(query_source, ''),
			COALESCE(ai_score, 0), COALESCE(score_reasoning, ''), selected
		FROM sources WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying session sources: %w", err)
	}
	defer srcRows.Close()
	for srcRows.Next() {
		var src SessionSource
		if err := srcRows.Scan(&src.ID, &src.URL, &src.Title, &src.QuerySource,
			&src.AIScore, &src.ScoreReasoning, &src.Selected); err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		detail.Sources = append(detail.Sources, src)
	}
	return &detail, srcRows.Err()
}

// FavoriteSources returns URLs the user has selected at least
// minSelections times across all sessions, top 20.
func (s *Store) FavoriteSources(ctx context.Context, userID string, minSelections int) ([]FavoriteSource, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			src.url,
			COALESCE(MAX(src.title), ''),
			COUNT(*),
			SUM(src.selected),
			COALESCE(AVG(src.ai_score), 0)
		FROM sources src
		JOIN research_sessions s ON src.session_id = s.id
		WHERE s.user_id = ?
		GROUP BY src.url
		HAVING SUM(src.selected) >= ?
		ORDER BY SUM(src.selected) DESC, AVG(src.ai_score) DESC
		LIMIT 20`, userID, minSelections)
	if err != nil {
		return nil, fmt.Errorf("querying favorite sources: %w", err)
	}
	defer rows.Close()

	var favorites []FavoriteSource
	for rows.Next() {
		var f FavoriteSource
		if err := rows.Scan(&f.URL, &f.Title, &f.TimesFound, &f.TimesSelected, &f.AvgScore); err != nil {
			return nil, fmt.Errorf("scanning favorite source: %w", err)
		}
		favorites = append(favorites, f)
	}
	return favorites, rows.Err()
}

// Stats aggregates the user's research activity.
func (s *Store) Stats(ctx context.Context, userID string) (*ResearchStats, error) {
	var stats ResearchStats

	row := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(completed), 0)
		FROM research_sessions WHERE user_id = ?`, userID)
	if err := row.Scan(&stats.TotalSessions, &stats.CompletedSessions); err != nil {
		return nil, fmt.Errorf("aggregating sessions: %w", err)
	}

	row = s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(src.selected), 0)
		FROM sources src
		JOIN research_sessions s ON src.session_id = s.id
		WHERE s.user_id = ?`, userID)
	if err := row.Scan(&stats.TotalSources, &stats.SelectedSources); err != nil {
		return nil, fmt.Errorf("aggregating sources: %w", err)
	}

	topTopics, err := s.countValues(ctx, `
		SELECT topic, COUNT(*) AS count
		FROM research_sessions
		WHERE user_id = ?
		GROUP BY topic
		ORDER BY count DESC
		LIMIT 5`, userID)
	if err != nil {
		return nil, fmt.Errorf("aggregating topics: %w", err)
	}
	stats.TopTopics = topTopics

	modeUsage, err := s.countValues(ctx, `
		SELECT ai_mode, COUNT(*) AS count
		FROM research_sessions
		WHERE user_id = ? AND ai_mode IS NOT NULL AND ai_mode != ''
		GROUP BY ai_mode
		ORDER BY count DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("aggregating ai modes: %w", err)
	}
	stats.AIModeUsage = modeUsage

	return &stats, nil
}

func (s *Store) countValues(ctx context.Context, query string, args ...any) ([]TopicCount, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []TopicCount
	for rows.Next() {
		var tc TopicCount
		if err := rows.Scan(&tc.Value, &tc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, tc)
	}
	return counts, rows.Err()
}

// SearchHistory finds the user's sessions whose topic, generated
// queries, or source titles match the term, newest first, top 20.
func (s *Store) SearchHistory(ctx context.Context, userID, term string) ([]SessionSummary, error) {
	pattern := "%" + term + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT
			s.id, s.topic, s.date, COALESCE(s.ai_mode, ''), s.completed, s.cancelled,
			COUNT(DISTINCT q.id),
			COUNT(DISTINCT src.id),
			COUNT(DISTINCT CASE WHEN src.selected = 1 THEN src.id END)
		FROM research_sessions s
		LEFT JOIN queries q ON s.id = q.session_id
		LEFT JOIN sources src ON s.id = src.session_id
		WHERE s.user_id = ?
			AND (s.topic LIKE ? OR q.query_text LIKE ? OR src.title LIKE ?)
		GROUP BY s.id
		ORDER BY s.date DESC
		LIMIT 20`, userID, pattern, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("searching history: %w", err)
	}
	defer rows.Close()

	var summaries []SessionSummary
	for rows.Next() {
		var sum SessionSummary
		if err := rows.Scan(&sum.ID, &sum.Topic, &sum.Date, &sum.AIMode,
			&sum.Completed, &sum.Cancelled, &sum.QueryCount, &sum.SourceCount,
			&sum.SelectedCount); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}
