package personalize

import (
	"context"

	"github.com/ferrolab/researchd/internal/memory"
)

// fetchLimit bounds the record set the profile is derived from.
const fetchLimit = 200

// MemoryReader lists a user's memory records.
type MemoryReader interface {
	All(ctx context.Context, userID string, limit int) []memory.Record
}

// Service derives preference profiles from the memory layer.
type Service struct {
	memories MemoryReader
}

// NewService creates a preference service.
func NewService(memories MemoryReader) *Service {
	return &Service{memories: memories}
}

// Preferences recomputes the user's profile from their memories. A
// fetch failure surfaces as an empty record list from the memory
// layer, which extracts to a zero profile; this method never errors.
func (s *Service) Preferences(ctx context.Context, userID string) Profile {
	return ExtractProfile(s.memories.All(ctx, userID, fetchLimit))
}
