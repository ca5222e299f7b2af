package search

import (
	"context"

	"go.uber.org/zap"

	"github.com/ferrolab/researchd/internal/logging"
)

// Multi fans one research run out over several queries and merges the
// results. A failing query drops its results and nothing else; the run
// only comes back empty when every query failed.
type Multi struct {
	provider Provider
	logger   *logging.Logger
}

// NewMulti wraps a provider for multi-query runs.
func NewMulti(provider Provider, logger *logging.Logger) *Multi {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Multi{provider: provider, logger: logger}
}

// Run searches each query in order, tags every result with the query
// that produced it, and dedupes by URL keeping the first occurrence.
func (m *Multi) Run(ctx context.Context, queries []string, perQuery int) []Result {
	if m.provider == nil {
		m.logger.Warn(ctx, "no search provider configured")
		return nil
	}

	seen := make(map[string]struct{})
	var merged []Result

	for _, query := range queries {
		results, err := m.provider.Search(ctx, query, perQuery)
		if err != nil {
			m.logger.Warn(ctx, "search query failed",
				zap.String("query", query), zap.Error(err))
			continue
		}
		for _, r := range results {
			if _, dup := seen[r.URL]; dup {
				continue
			}
			seen[r.URL] = struct{}{}
			r.Query = query
			merged = append(merged, r)
		}
	}
	return merged
}
