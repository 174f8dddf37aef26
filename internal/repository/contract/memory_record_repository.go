package contract

import (
	"context"

	"video-rag-chat-be/internal/entity"
	"video-rag-chat-be/internal/repository/specification"
)

// ScoredMemoryRecord wraps MemoryRecord with its similarity score
type ScoredMemoryRecord struct {
	Record     *entity.MemoryRecord
	Similarity float64 // cosine similarity, 1.0 = identical
}

type MemoryRecordRepository interface {
	// CreateBulkSkipDuplicates inserts records, silently skipping any whose
	// (session, text_hash) already exists. Returns the number inserted.
	CreateBulkSkipDuplicates(ctx context.Context, records []*entity.MemoryRecord) (int64, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.MemoryRecord, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	FindExistingHashes(ctx context.Context, session string, hashes []string) (map[string]struct{}, error)
	// SearchSimilarWithScore ranks a session's records by cosine similarity;
	// ties fall back to insertion order.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, session string, threshold float64) ([]*ScoredMemoryRecord, error)
}
