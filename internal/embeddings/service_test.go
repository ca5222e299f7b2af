package embeddings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferrolab/researchd/internal/config"
)

func TestNewServiceValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.EmbeddingsConfig
	}{
		{name: "missing base URL", cfg: config.EmbeddingsConfig{Model: "text-embedding-3-small"}},
		{name: "missing model", cfg: config.EmbeddingsConfig{BaseURL: "http://localhost:8080/v1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewService(tt.cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestNewServiceWithoutAPIKey(t *testing.T) {
	// Keyless local endpoints (TEI) must work; the client gets a
	// placeholder token.
	svc, err := NewService(config.EmbeddingsConfig{
		BaseURL: "http://localhost:8080/v1",
		Model:   "BAAI/bge-small-en-v1.5",
	})
	require.NoError(t, err)
	assert.Equal(t, "BAAI/bge-small-en-v1.5", svc.Model())
}

func TestEmbedDocumentsEmptyInput(t *testing.T) {
	svc, err := NewService(config.EmbeddingsConfig{
		BaseURL: "http://localhost:8080/v1",
		Model:   "BAAI/bge-small-en-v1.5",
	})
	require.NoError(t, err)

	_, err = svc.EmbedDocuments(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = svc.EmbedQuery(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyInput)
}
