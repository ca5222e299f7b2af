package vectorstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	chromem "github.com/philippgille/chromem-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var chromemTracer = otel.Tracer("researchd.vectorstore.chromem")

// allProbeQuery seeds the similarity search used to list a user's
// records. chromem has no scan primitive, so All queries with a fixed
// probe and relies on the user filter; ordering is irrelevant to
// callers that aggregate over the full result set.
const allProbeQuery = "research history and source preferences"

// userMetadataKey is the metadata field that scopes records to a user.
const userMetadataKey = "user_id"

// ChromemConfig holds configuration for the embedded chromem-go store.
type ChromemConfig struct {
	// Path is the directory for persistent storage.
	Path string

	// Collection is the collection name.
	Collection string

	// Compress enables gzip compression for stored data.
	Compress bool
}

// ApplyDefaults sets default values for unset fields.
func (c *ChromemConfig) ApplyDefaults() {
	if c.Path == "" {
		c.Path = "~/.local/share/researchd/vectors"
	}
	if c.Collection == "" {
		c.Collection = "research_memory"
	}
}

// ChromemStore implements Store using chromem-go, an embeddable pure-Go
// vector database with persistence to gob files. No external service
// is needed, which keeps the default deployment a single process.
type ChromemStore struct {
	db         *chromem.DB
	embedder   Embedder
	config     ChromemConfig
	logger     *zap.Logger
	collection string
}

// NewChromemStore creates a ChromemStore backed by persistent storage.
func NewChromemStore(cfg ChromemConfig, embedder Embedder, logger *zap.Logger) (*ChromemStore, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg.ApplyDefaults()

	path, err := expandHome(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("expanding path: %w", err)
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", path, err)
	}

	db, err := chromem.NewPersistentDB(path, cfg.Compress)
	if err != nil {
		return nil, fmt.Errorf("creating chromem DB: %w", err)
	}

	store := &ChromemStore{
		db:         db,
		embedder:   embedder,
		config:     cfg,
		logger:     logger,
		collection: cfg.Collection,
	}

	logger.Info("chromem store initialized",
		zap.String("path", path),
		zap.String("collection", cfg.Collection),
		zap.Bool("compress", cfg.Compress),
	)

	return store, nil
}

func expandHome(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// embeddingFunc adapts the Embedder to chromem's callback.
func (s *ChromemStore) embeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return s.embedder.EmbedQuery(ctx, text)
	}
}

// Add stores documents, embedding their content in one batch.
func (s *ChromemStore) Add(ctx context.Context, docs []Document) ([]string, error) {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.Add")
	defer span.End()

	span.SetAttributes(attribute.Int("document_count", len(docs)))

	if len(docs) == 0 {
		return nil, ErrEmptyDocuments
	}
	for i, doc := range docs {
		if doc.UserID == "" {
			return nil, fmt.Errorf("%w: document at index %d", ErrMissingUser, i)
		}
		if doc.ID == "" {
			return nil, fmt.Errorf("document at index %d has no ID", i)
		}
	}

	collection, err := s.db.GetOrCreateCollection(s.collection, nil, s.embeddingFunc())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("getting collection %s: %w", s.collection, err)
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}
	embeddings, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	chromemDocs := make([]chromem.Document, len(docs))
	ids := make([]string, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
		metadata := make(map[string]string, len(doc.Metadata)+1)
		for k, v := range doc.Metadata {
			metadata[k] = v
		}
		metadata[userMetadataKey] = doc.UserID

		chromemDocs[i] = chromem.Document{
			ID:        doc.ID,
			Content:   doc.Content,
			Metadata:  metadata,
			Embedding: embeddings[i],
		}
	}

	// Concurrency of 1: embeddings are already computed above.
	if err := collection.AddDocuments(ctx, chromemDocs, 1); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("adding documents: %w", err)
	}

	span.SetAttributes(attribute.Int("documents_added", len(ids)))
	span.SetStatus(codes.Ok, "success")

	s.logger.Debug("added documents to chromem",
		zap.String("collection", s.collection),
		zap.Int("count", len(docs)),
	)

	return ids, nil
}

// Search performs similarity search scoped to a single user.
func (s *ChromemStore) Search(ctx context.Context, userID, query string, k int, filters map[string]string) ([]SearchResult, error) {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.Search")
	defer span.End()

	span.SetAttributes(attribute.Int("k", k))

	if userID == "" {
		return nil, ErrMissingUser
	}
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	collection := s.db.GetCollection(s.collection, s.embeddingFunc())
	if collection == nil {
		// Nothing stored yet.
		return []SearchResult{}, nil
	}

	// chromem requires nResults <= document count.
	docCount := collection.Count()
	if docCount == 0 {
		return []SearchResult{}, nil
	}
	if k > docCount {
		k = docCount
	}

	where := make(map[string]string, len(filters)+1)
	for key, v := range filters {
		where[key] = v
	}
	where[userMetadataKey] = userID

	results, err := collection.Query(ctx, query, k, where, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("querying collection %s: %w", s.collection, err)
	}

	searchResults := make([]SearchResult, len(results))
	for i, r := range results {
		searchResults[i] = SearchResult{
			ID:       r.ID,
			Content:  r.Content,
			Score:    r.Similarity,
			Metadata: r.Metadata,
		}
	}

	span.SetAttributes(attribute.Int("results_count", len(searchResults)))
	span.SetStatus(codes.Ok, "success")

	return searchResults, nil
}

// All lists up to limit of a user's documents via a fixed probe query.
func (s *ChromemStore) All(ctx context.Context, userID string, limit int) ([]SearchResult, error) {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.All")
	defer span.End()

	if userID == "" {
		return nil, ErrMissingUser
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	collection := s.db.GetCollection(s.collection, s.embeddingFunc())
	if collection == nil {
		return []SearchResult{}, nil
	}
	docCount := collection.Count()
	if docCount == 0 {
		return []SearchResult{}, nil
	}
	if limit > docCount {
		limit = docCount
	}

	results, err := collection.Query(ctx, allProbeQuery, limit,
		map[string]string{userMetadataKey: userID}, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("listing collection %s: %w", s.collection, err)
	}

	searchResults := make([]SearchResult, len(results))
	for i, r := range results {
		searchResults[i] = SearchResult{
			ID:       r.ID,
			Content:  r.Content,
			Metadata: r.Metadata,
		}
	}

	span.SetAttributes(attribute.Int("results_count", len(searchResults)))
	span.SetStatus(codes.Ok, "success")

	return searchResults, nil
}

// Count returns the total number of stored documents.
func (s *ChromemStore) Count(ctx context.Context) (int, error) {
	collection := s.db.GetCollection(s.collection, s.embeddingFunc())
	if collection == nil {
		return 0, nil
	}
	return collection.Count(), nil
}

// Close is a no-op; chromem persists on every write.
func (s *ChromemStore) Close() error {
	return nil
}

var _ Store = (*ChromemStore)(nil)
