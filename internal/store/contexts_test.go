package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddContextRejectsBlankText(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, text := range []string{"", "   ", "\n\t"} {
		id, ok, err := s.AddContext(ctx, "alice", text, "general")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Zero(t, id)
	}

	contexts, err := s.Contexts(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, contexts)
}

func TestAddContextDefaultsTypeAndTrims(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, ok, err := s.AddContext(ctx, "alice", "  renewable energy researcher  ", "")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotZero(t, id)

	contexts, err := s.Contexts(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, contexts, 1)
	assert.Equal(t, "renewable energy researcher", contexts[0].Text)
	assert.Equal(t, "general", contexts[0].Type)
}

func TestContextsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, text := range []string{"first", "second", "third"} {
		fixedClock(t, base.Add(time.Duration(i)*time.Minute))
		_, ok, err := s.AddContext(ctx, "alice", text, "project")
		require.NoError(t, err)
		require.True(t, ok)
	}

	contexts, err := s.Contexts(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, contexts, 3)
	assert.Equal(t, "third", contexts[0].Text)
	assert.Equal(t, "first", contexts[2].Text)
}

func TestRemoveContextIsUserScoped(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, _, err := s.AddContext(ctx, "alice", "focus on peer-reviewed work", "preference")
	require.NoError(t, err)

	// Another user cannot remove it.
	removed, err := s.RemoveContext(ctx, "bob", id)
	require.NoError(t, err)
	assert.False(t, removed)

	contexts, err := s.Contexts(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, contexts, 1)

	removed, err = s.RemoveContext(ctx, "alice", id)
	require.NoError(t, err)
	assert.True(t, removed)

	contexts, err = s.Contexts(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, contexts)

	// Removing an already-inactive context reports nothing removed.
	removed, err = s.RemoveContext(ctx, "alice", id)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestClearContexts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, text := range []string{"one", "two", "three"} {
		_, _, err := s.AddContext(ctx, "alice", text, "general")
		require.NoError(t, err)
	}
	_, _, err := s.AddContext(ctx, "bob", "untouched", "general")
	require.NoError(t, err)

	cleared, err := s.ClearContexts(ctx, "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 3, cleared)

	contexts, err := s.Contexts(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, contexts)

	contexts, err = s.Contexts(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, contexts, 1)
}

func TestContextSummary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	summary, err := s.ContextSummary(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, summary)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fixedClock(t, base)
	_, _, err = s.AddContext(ctx, "alice", "working on grid storage", "project")
	require.NoError(t, err)
	fixedClock(t, base.Add(time.Minute))
	_, _, err = s.AddContext(ctx, "alice", "prefer primary sources", "preference")
	require.NoError(t, err)

	summary, err = s.ContextSummary(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t,
		"User's Persistent Context:\n"+
			"- [preference] prefer primary sources\n"+
			"- [project] working on grid storage\n",
		summary)
}
