package store

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// PersistentContext is a user-authored note injected into every
// query-generation prompt. Removal is a soft delete: the row stays for
// audit, flagged inactive.
type PersistentContext struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Text      string    `json:"context_text"`
	Type      string    `json:"context_type"`
	CreatedAt time.Time `json:"created_at"`
}

// AddContext inserts a context note. Blank or whitespace-only text is
// rejected without error: the returned ID is zero and ok is false.
func (s *Store) AddContext(ctx context.Context, userID, text, contextType string) (int64, bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false, nil
	}
	if contextType == "" {
		contextType = "general"
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO persistent_contexts (user_id, context_text, context_type, created_at, active)
		VALUES (?, ?, ?, ?, 1)`,
		userID, text, contextType, timeNow().UTC())
	if err != nil {
		return 0, false, fmt.Errorf("inserting context: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, false, fmt.Errorf("reading context id: %w", err)
	}
	return id, true, nil
}

// Contexts returns the user's active contexts, most recent first.
func (s *Store) Contexts(ctx context.Context, userID string) ([]PersistentContext, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, context_text, context_type, created_at
		FROM persistent_contexts
		WHERE user_id = ? AND active = 1
		ORDER BY created_at DESC, id DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("listing contexts: %w", err)
	}
	defer rows.Close()

	var contexts []PersistentContext
	for rows.Next() {
		var c PersistentContext
		if err := rows.Scan(&c.ID, &c.UserID, &c.Text, &c.Type, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning context: %w", err)
		}
		contexts = append(contexts, c)
	}
	return contexts, rows.Err()
}

// RemoveContext soft-deletes one context. The id must belong to the
// user; a cross-user id is a no-op and returns false, not an error.
func (s *Store) RemoveContext(ctx context.Context, userID string, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE persistent_contexts SET active = 0
		WHERE id = ? AND user_id = ? AND active = 1`,
		id, userID)
	if err != nil {
		return false, fmt.Errorf("removing context: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading affected rows: %w", err)
	}
	return affected > 0, nil
}

// ClearContexts soft-deletes all of a user's active contexts and
// returns how many were affected.
func (s *Store) ClearContexts(ctx context.Context, userID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE persistent_contexts SET active = 0
		WHERE user_id = ? AND active = 1`,
		userID)
	if err != nil {
		return 0, fmt.Errorf("clearing contexts: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading affected rows: %w", err)
	}
	return affected, nil
}

// ContextSummary renders the user's active contexts as a block for
// prompt injection, empty string when there are none. Callers must
// compute this fresh on every prompt build; contexts change between
// requests.
func (s *Store) ContextSummary(ctx context.Context, userID string) (string, error) {
	contexts, err := s.Contexts(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(contexts) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString("User's Persistent Context:\n")
	for _, c := range contexts {
		fmt.Fprintf(&b, "- [%s] %s\n", c.Type, c.Text)
	}
	return b.String(), nil
}
