// Package memory is the per-session vector index of conversation and
// transcript snippets.
package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"video-rag-chat-be/internal/pkg/logger"
	"video-rag-chat-be/pkg/store"
)

const logModule = "MEMORY"

// Store is a session-partitioned similarity index. Within one partition a
// text is stored at most once.
type Store interface {
	// Upsert adds the records whose text is not yet in the partition and
	// returns how many were added. Malformed records are skipped.
	Upsert(ctx context.Context, session string, records []store.MemoryRecord) (int, error)
	// Query returns up to k records most similar to text, best first.
	Query(ctx context.Context, session, text string, k int) ([]store.MemoryRecord, error)
	Len(ctx context.Context, session string) (int, error)
	// List returns the partition's records oldest first. A non-empty role
	// keeps only records of that role.
	List(ctx context.Context, session, role string) ([]store.MemoryRecord, error)
}

// TextHash is the dedup key of a snippet.
func TextHash(text string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return hex.EncodeToString(sum[:])
}

type hashedRecord struct {
	store.MemoryRecord
	hash string
}

// normalizeBatch drops malformed records and collapses duplicates inside the
// batch, keeping the first occurrence.
func normalizeBatch(log logger.ILogger, session string, records []store.MemoryRecord) []hashedRecord {
	out := make([]hashedRecord, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for i, r := range records {
		if err := r.Validate(); err != nil {
			log.Warn(logModule, "Skipping malformed record", map[string]interface{}{
				"session": session,
				"index":   i,
				"error":   err,
			})
			continue
		}
		h := TextHash(r.Text)
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		r.Score = 0
		out = append(out, hashedRecord{MemoryRecord: r, hash: h})
	}
	return out
}
