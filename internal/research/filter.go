package research

import (
	"context"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ferrolab/researchd/internal/logging"
	"github.com/ferrolab/researchd/internal/personalize"
	"github.com/ferrolab/researchd/internal/search"
)

// FilterConfig tunes the quality filter.
type FilterConfig struct {
	// MinScore is the threshold a scored source must meet to survive.
	MinScore int

	// MaxToScore caps how many sources get scored; the rest pass
	// through unscored.
	MaxToScore int

	// Concurrency bounds parallel scoring calls.
	Concurrency int

	// RatePerSecond throttles scoring calls against the LLM API.
	RatePerSecond float64
}

// ApplyDefaults fills in zero values.
func (c *FilterConfig) ApplyDefaults() {
	if c.MinScore == 0 {
		c.MinScore = 60
	}
	if c.MaxToScore == 0 {
		c.MaxToScore = 30
	}
	if c.Concurrency == 0 {
		c.Concurrency = 4
	}
	if c.RatePerSecond == 0 {
		c.RatePerSecond = 8
	}
}

// Filter scores candidate sources and drops the low-quality ones.
type Filter struct {
	cfg     FilterConfig
	scorer  Scorer
	limiter *rate.Limiter
	logger  *logging.Logger
	tracer  trace.Tracer
}

// NewFilter creates a quality filter.
func NewFilter(cfg FilterConfig, scorer Scorer, logger *logging.Logger) *Filter {
	cfg.ApplyDefaults()
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Filter{
		cfg:     cfg,
		scorer:  scorer,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Concurrency),
		logger:  logger,
		tracer:  otel.Tracer("research"),
	}
}

// FilterByQuality scores the first MaxToScore results and keeps those
// at or above MinScore; the remainder passes through unscored and
// unfiltered. A single scoring failure substitutes a neutral 50 with
// "Unable to score" and never aborts the batch.
//
// Scoring runs in parallel on a bounded group, but the output is
// identical to scoring sequentially: scored survivors sort by score
// descending (stable), unscored tail items count as score 0 and keep
// their original relative order at the bottom.
func (f *Filter) FilterByQuality(ctx context.Context, topic string, results []search.Result) []personalize.ScoredSource {
	ctx, span := f.tracer.Start(ctx, "research.FilterByQuality",
		trace.WithAttributes(attribute.Int("candidates", len(results))))
	defer span.End()

	head := results
	var tail []search.Result
	if len(results) > f.cfg.MaxToScore {
		head = results[:f.cfg.MaxToScore]
		tail = results[f.cfg.MaxToScore:]
	}

	scores := make([]Relevance, len(head))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.cfg.Concurrency)
	for i := range head {
		g.Go(func() error {
			if err := f.limiter.Wait(gctx); err != nil {
				scores[i] = Relevance{Score: 50, Reasoning: "Unable to score"}
				return nil
			}
			rel, err := f.scorer.Score(gctx, topic, head[i].Title, head[i].URL)
			if err != nil {
				f.logger.Warn(gctx, "scoring failed",
					zap.String("url", head[i].URL), zap.Error(err))
				rel = Relevance{Score: 50, Reasoning: "Unable to score"}
			}
			scores[i] = rel
			return nil
		})
	}
	_ = g.Wait()

	filtered := make([]personalize.ScoredSource, 0, len(results))
	for i, r := range head {
		if scores[i].Score < f.cfg.MinScore {
			continue
		}
		score := scores[i].Score
		filtered = append(filtered, personalize.ScoredSource{
			Title:          r.Title,
			URL:            r.URL,
			Query:          r.Query,
			RelevanceScore: &score,
			ScoreReasoning: scores[i].Reasoning,
		})
	}
	for _, r := range tail {
		filtered = append(filtered, personalize.ScoredSource{
			Title: r.Title,
			URL:   r.URL,
			Query: r.Query,
		})
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return scoreOf(filtered[i]) > scoreOf(filtered[j])
	})

	span.SetAttributes(attribute.Int("kept", len(filtered)))
	return filtered
}

// scoreOf treats unscored sources as 0 for ordering only.
func scoreOf(s personalize.ScoredSource) int {
	if s.RelevanceScore == nil {
		return 0
	}
	return *s.RelevanceScore
}
