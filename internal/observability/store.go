package observability

import (
	"context"

	"video-rag-chat-be/pkg/rag/memory"
	"video-rag-chat-be/pkg/store"
)

// countingStore feeds memory_records_added_total from every successful upsert.
type countingStore struct {
	memory.Store
	metrics *Metrics
}

// InstrumentStore wraps st so newly added records are counted.
func InstrumentStore(st memory.Store, m *Metrics) memory.Store {
	if m == nil {
		return st
	}
	return &countingStore{Store: st, metrics: m}
}

func (s *countingStore) Upsert(ctx context.Context, session string, records []store.MemoryRecord) (int, error) {
	added, err := s.Store.Upsert(ctx, session, records)
	if added > 0 {
		s.metrics.RecordsAdded.Add(float64(added))
	}
	return added, err
}
