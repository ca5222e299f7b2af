package vectorstore

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ferrolab/researchd/internal/config"
)

// New creates a Store for the configured provider.
func New(cfg config.VectorConfig, embedder Embedder, logger *zap.Logger) (Store, error) {
	switch cfg.Provider {
	case "chromem":
		return NewChromemStore(ChromemConfig{
			Path:       cfg.Chromem.Path,
			Collection: cfg.Chromem.Collection,
			Compress:   cfg.Chromem.Compress,
		}, embedder, logger)
	case "qdrant":
		return NewQdrantStore(QdrantConfig{
			Host:       cfg.Qdrant.Host,
			Port:       cfg.Qdrant.Port,
			Collection: cfg.Qdrant.Collection,
			VectorSize: cfg.Qdrant.VectorSize,
			UseTLS:     cfg.Qdrant.UseTLS,
		}, embedder, logger)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
	}
}
