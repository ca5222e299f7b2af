package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr bool
	}{
		{name: "json info", level: "info", format: "json"},
		{name: "console debug", level: "debug", format: "console"},
		{name: "bad level", level: "loud", format: "json", wantErr: true},
		{name: "bad format", level: "info", format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.level, tt.format, nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, logger)
			assert.NoError(t, logger.Sync())
		})
	}
}

func TestContextFieldsAttached(t *testing.T) {
	tl := NewTestLogger()

	ctx := WithUserID(context.Background(), "alice")
	ctx = WithRequestID(ctx, "req-123")

	tl.Info(ctx, "research started", zap.String("topic", "solar storage"))

	entries := tl.FilterMessage("research started").All()
	require.Len(t, entries, 1)

	fields := map[string]string{}
	for _, f := range entries[0].Context {
		if f.Type == zapcore.StringType {
			fields[f.Key] = f.String
		}
	}
	assert.Equal(t, "alice", fields["user_id"])
	assert.Equal(t, "req-123", fields["request_id"])
	assert.Equal(t, "solar storage", fields["topic"])
}

func TestFromContextDefaultsToNop(t *testing.T) {
	logger := FromContext(context.Background())
	require.NotNil(t, logger)
	// Must not panic.
	logger.Info(context.Background(), "ignored")

	tl := NewTestLogger()
	ctx := WithLogger(context.Background(), tl.Logger)
	assert.Same(t, tl.Logger, FromContext(ctx))
}

func TestNamedAndWith(t *testing.T) {
	tl := NewTestLogger()

	child := tl.Named("memory").With(zap.String("component", "vectorstore"))
	child.Warn(context.Background(), "slow query")

	entries := tl.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "memory", entries[0].LoggerName)
	tl.AssertLogged(t, zapcore.WarnLevel, "slow query")
}
