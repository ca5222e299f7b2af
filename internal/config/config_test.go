package config

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := defaultConfig()

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8420, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "chromem", cfg.Vector.Provider)
	assert.Equal(t, "research_memory", cfg.Vector.Chromem.Collection)
	assert.Equal(t, 6334, cfg.Vector.Qdrant.Port)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "text-embedding-3-small", cfg.Embeddings.Model)
	assert.Equal(t, "tavily", cfg.Search.Provider)
	assert.Equal(t, 7, cfg.Research.NumQueries)
	assert.Equal(t, 60, cfg.Research.MinQualityScore)
	assert.Equal(t, 30, cfg.Research.MaxToScore)
	assert.Equal(t, 200, cfg.Memory.FetchLimit)
}

func TestApplyDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 9999
	cfg.Vector.Provider = "qdrant"
	cfg.Research.MinQualityScore = 75
	applyDefaults(cfg)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "qdrant", cfg.Vector.Provider)
	assert.Equal(t, 75, cfg.Research.MinQualityScore)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "invalid server port",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "invalid log level",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "invalid log format",
		},
		{
			name:    "telemetry enabled without endpoint",
			mutate:  func(c *Config) { c.Telemetry.Enabled = true },
			wantErr: "telemetry endpoint required",
		},
		{
			name:    "unknown vector provider",
			mutate:  func(c *Config) { c.Vector.Provider = "pinecone" },
			wantErr: "invalid vector store provider",
		},
		{
			name: "qdrant without vector size",
			mutate: func(c *Config) {
				c.Vector.Provider = "qdrant"
				c.Vector.Qdrant.VectorSize = -1
			},
			wantErr: "qdrant vector size",
		},
		{
			name:    "quality score over 100",
			mutate:  func(c *Config) { c.Research.MinQualityScore = 101 },
			wantErr: "min quality score",
		},
		{
			name:    "unknown search provider",
			mutate:  func(c *Config) { c.Search.Provider = "bing" },
			wantErr: "invalid search provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSecretRedaction(t *testing.T) {
	s := Secret("sk-very-secret")

	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%s", s))
	assert.Equal(t, "Secret([REDACTED])", fmt.Sprintf("%#v", s))
	assert.Equal(t, "sk-very-secret", s.Value())
	assert.True(t, s.IsSet())

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, `"[REDACTED]"`, string(data))

	empty := Secret("")
	assert.Equal(t, "", empty.String())
	assert.False(t, empty.IsSet())
}

func TestDurationUnmarshalText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("90s")))
	assert.Equal(t, 90*time.Second, d.Duration())

	assert.Error(t, d.UnmarshalText([]byte("-1s")))
	assert.Error(t, d.UnmarshalText([]byte("not-a-duration")))
}
