// Package vectorstore provides vector storage for semantic memory records.
//
// Two backends implement the Store interface: an embedded chromem-go
// database (default, zero external services) and a Qdrant gRPC client.
// Every record belongs to a user; stores enforce fail-closed isolation
// by requiring a user ID on writes and injecting a user filter on reads.
package vectorstore

import (
	"context"
	"errors"
)

// Sentinel errors for vector store operations.
var (
	// ErrMissingUser is returned when an operation lacks a user ID.
	ErrMissingUser = errors.New("user ID is required")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyDocuments indicates empty or nil documents.
	ErrEmptyDocuments = errors.New("empty or nil documents")

	// ErrEmbeddingFailed indicates embedding generation failure.
	ErrEmbeddingFailed = errors.New("failed to generate embeddings")

	// ErrConnectionFailed indicates the backend could not be reached.
	ErrConnectionFailed = errors.New("failed to connect to vector store")
)

// Embedder generates vector embeddings from text.
//
// Implementations can use cloud APIs (OpenAI) or any OpenAI-compatible
// local server (TEI, Ollama).
type Embedder interface {
	// EmbedDocuments generates embeddings for multiple texts.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Document is a memory record to store.
type Document struct {
	// ID is the unique identifier. Required.
	ID string

	// UserID is the owning user. Required; writes without it fail.
	UserID string

	// Content is the text that gets embedded.
	Content string

	// Metadata holds filterable key-value pairs (kind, topic, domain, ...).
	Metadata map[string]string
}

// SearchResult is a document returned from a search.
type SearchResult struct {
	ID      string
	Content string

	// Score is the cosine similarity (higher is more similar). Zero for
	// results returned from a full listing.
	Score float32

	Metadata map[string]string
}

// Store is the interface for vector storage operations.
//
// Reads are always scoped to a single user: Search and All inject a
// user filter so one user's records never leak into another's results.
type Store interface {
	// Add stores documents. Every document must carry a UserID; IDs are
	// used as the unique key and overwrite prior versions.
	Add(ctx context.Context, docs []Document) ([]string, error)

	// Search returns up to k documents owned by userID that are most
	// similar to the query, highest similarity first. Extra filters
	// restrict on metadata equality.
	Search(ctx context.Context, userID, query string, k int, filters map[string]string) ([]SearchResult, error)

	// All returns up to limit documents owned by userID, in no
	// particular order.
	All(ctx context.Context, userID string, limit int) ([]SearchResult, error)

	// Count returns the total number of stored documents across users.
	Count(ctx context.Context) (int, error)

	// Close releases backend resources.
	Close() error
}
