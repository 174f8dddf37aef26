package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"video-rag-chat-be/internal/pkg/logger"
	"video-rag-chat-be/pkg/embedding"
	"video-rag-chat-be/pkg/rag/failure"
	"video-rag-chat-be/pkg/store"
)

type entry struct {
	record store.MemoryRecord
	vector []float32
}

type partition struct {
	entries []entry
	hashes  map[string]struct{}
}

// InMemoryStore keeps every partition in process and searches by brute-force
// cosine similarity. Ties keep insertion order.
type InMemoryStore struct {
	embedder embedding.EmbeddingProvider
	logger   logger.ILogger

	mu         sync.RWMutex
	partitions map[string]*partition
}

var _ Store = (*InMemoryStore)(nil)

func NewInMemoryStore(embedder embedding.EmbeddingProvider, log logger.ILogger) *InMemoryStore {
	return &InMemoryStore{
		embedder:   embedder,
		logger:     log,
		partitions: make(map[string]*partition),
	}
}

func (s *InMemoryStore) Upsert(ctx context.Context, session string, records []store.MemoryRecord) (int, error) {
	batch := normalizeBatch(s.logger, session, records)

	s.mu.RLock()
	p := s.partitions[session]
	fresh := batch[:0:0]
	for _, r := range batch {
		if p != nil {
			if _, ok := p.hashes[r.hash]; ok {
				continue
			}
		}
		fresh = append(fresh, r)
	}
	s.mu.RUnlock()

	if len(fresh) == 0 {
		return 0, nil
	}

	// embed outside the lock; the hash check is repeated on insert
	vectors := make([][]float32, len(fresh))
	for i, r := range fresh {
		res, err := s.embedder.Generate(ctx, r.Text, embedding.TaskRetrievalDocument)
		if err != nil {
			return 0, failure.Wrap(failure.ErrStoreUnavailable, "memory.upsert", err)
		}
		vectors[i] = res.Embedding.Values
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p = s.partitions[session]
	if p == nil {
		p = &partition{hashes: make(map[string]struct{})}
		s.partitions[session] = p
	}

	added := 0
	for i, r := range fresh {
		if _, ok := p.hashes[r.hash]; ok {
			continue
		}
		p.hashes[r.hash] = struct{}{}
		p.entries = append(p.entries, entry{record: r.MemoryRecord, vector: vectors[i]})
		added++
	}

	s.logger.Debug(logModule, "Upserted records", map[string]interface{}{
		"session": session,
		"added":   added,
		"skipped": len(records) - added,
	})
	return added, nil
}

func (s *InMemoryStore) Query(ctx context.Context, session, text string, k int) ([]store.MemoryRecord, error) {
	if k <= 0 {
		return []store.MemoryRecord{}, nil
	}

	s.mu.RLock()
	empty := s.partitions[session] == nil || len(s.partitions[session].entries) == 0
	s.mu.RUnlock()
	if empty {
		return []store.MemoryRecord{}, nil
	}

	res, err := s.embedder.Generate(ctx, text, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, failure.Wrap(failure.ErrStoreUnavailable, "memory.query", err)
	}
	q := res.Embedding.Values

	s.mu.RLock()
	entries := s.partitions[session].entries
	scored := make([]store.MemoryRecord, len(entries))
	for i, e := range entries {
		r := e.record
		r.Score = cosine(q, e.vector)
		scored[i] = r
	}
	s.mu.RUnlock()

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func (s *InMemoryStore) Len(_ context.Context, session string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p := s.partitions[session]; p != nil {
		return len(p.entries), nil
	}
	return 0, nil
}

func (s *InMemoryStore) List(_ context.Context, session, role string) ([]store.MemoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []store.MemoryRecord{}
	p := s.partitions[session]
	if p == nil {
		return out, nil
	}
	for _, e := range p.entries {
		if role != "" && e.record.Metadata.Role != role {
			continue
		}
		out = append(out, e.record)
	}
	return out, nil
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
