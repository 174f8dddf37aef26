package memory

import (
	"context"
	"time"

	"video-rag-chat-be/internal/entity"
	"video-rag-chat-be/internal/pkg/logger"
	"video-rag-chat-be/internal/repository/contract"
	"video-rag-chat-be/internal/repository/specification"
	"video-rag-chat-be/internal/repository/unitofwork"
	"video-rag-chat-be/pkg/embedding"
	"video-rag-chat-be/pkg/rag/failure"
	"video-rag-chat-be/pkg/store"
)

// minSimilarity admits every record; cosine similarity never drops below -1.
const minSimilarity = -1.0

// VectorStore persists partitions in postgres through the memory record
// repository and ranks them with pgvector.
type VectorStore struct {
	uowFactory unitofwork.RepositoryFactory
	embedder   embedding.EmbeddingProvider
	timeout    time.Duration
	logger     logger.ILogger
}

var _ Store = (*VectorStore)(nil)

func NewVectorStore(uowFactory unitofwork.RepositoryFactory, embedder embedding.EmbeddingProvider, timeout time.Duration, log logger.ILogger) *VectorStore {
	return &VectorStore{
		uowFactory: uowFactory,
		embedder:   embedder,
		timeout:    timeout,
		logger:     log,
	}
}

func (s *VectorStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *VectorStore) Upsert(ctx context.Context, session string, records []store.MemoryRecord) (int, error) {
	batch := normalizeBatch(s.logger, session, records)
	if len(batch) == 0 {
		return 0, nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return 0, failure.Wrap(failure.ErrStoreUnavailable, "memory.upsert", err)
	}
	added, err := s.insertNew(ctx, uow.MemoryRecordRepository(), session, batch)
	if err != nil {
		if rbErr := uow.Rollback(); rbErr != nil {
			s.logger.Warn(logModule, "Rollback failed", map[string]interface{}{
				"session": session,
				"error":   rbErr.Error(),
			})
		}
		return 0, failure.Wrap(failure.ErrStoreUnavailable, "memory.upsert", err)
	}
	if err := uow.Commit(); err != nil {
		return 0, failure.Wrap(failure.ErrStoreUnavailable, "memory.upsert", err)
	}

	s.logger.Debug(logModule, "Upserted records", map[string]interface{}{
		"session": session,
		"added":   added,
		"skipped": int64(len(records)) - added,
	})
	return int(added), nil
}

// insertNew embeds and inserts the batch entries whose hash the partition
// does not hold yet. It runs inside the caller's transaction.
func (s *VectorStore) insertNew(ctx context.Context, repo contract.MemoryRecordRepository, session string, batch []hashedRecord) (int64, error) {
	hashes := make([]string, len(batch))
	for i, r := range batch {
		hashes[i] = r.hash
	}
	existing, err := repo.FindExistingHashes(ctx, session, hashes)
	if err != nil {
		return 0, err
	}

	rows := make([]*entity.MemoryRecord, 0, len(batch))
	for _, r := range batch {
		if _, ok := existing[r.hash]; ok {
			continue
		}
		res, err := s.embedder.Generate(ctx, r.Text, embedding.TaskRetrievalDocument)
		if err != nil {
			return 0, err
		}
		rows = append(rows, &entity.MemoryRecord{
			Session:        session,
			Text:           r.Text,
			TextHash:       r.hash,
			Role:           r.Metadata.Role,
			Source:         r.Metadata.Source,
			Metadata:       metadataMap(r.Metadata),
			EmbeddingValue: res.Embedding.Values,
		})
	}
	if len(rows) == 0 {
		return 0, nil
	}

	// a concurrent writer may have inserted the same text meanwhile; the
	// unique index turns that into a skipped row
	return repo.CreateBulkSkipDuplicates(ctx, rows)
}

func (s *VectorStore) Query(ctx context.Context, session, text string, k int) ([]store.MemoryRecord, error) {
	if k <= 0 {
		return []store.MemoryRecord{}, nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	repo := s.uowFactory.NewUnitOfWork(ctx).MemoryRecordRepository()

	count, err := repo.Count(ctx, specification.BySession{Session: session})
	if err != nil {
		return nil, failure.Wrap(failure.ErrStoreUnavailable, "memory.query", err)
	}
	if count == 0 {
		return []store.MemoryRecord{}, nil
	}

	res, err := s.embedder.Generate(ctx, text, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, failure.Wrap(failure.ErrStoreUnavailable, "memory.query", err)
	}

	scored, err := repo.SearchSimilarWithScore(ctx, res.Embedding.Values, k, session, minSimilarity)
	if err != nil {
		return nil, failure.Wrap(failure.ErrStoreUnavailable, "memory.query", err)
	}

	out := make([]store.MemoryRecord, len(scored))
	for i, sr := range scored {
		out[i] = store.MemoryRecord{
			Text:     sr.Record.Text,
			Metadata: store.Metadata{Role: sr.Record.Role, Source: sr.Record.Source},
			Score:    float32(sr.Similarity),
		}
	}
	return out, nil
}

func (s *VectorStore) Len(ctx context.Context, session string) (int, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	count, err := s.uowFactory.NewUnitOfWork(ctx).MemoryRecordRepository().Count(ctx, specification.BySession{Session: session})
	if err != nil {
		return 0, failure.Wrap(failure.ErrStoreUnavailable, "memory.len", err)
	}
	return int(count), nil
}

func (s *VectorStore) List(ctx context.Context, session, role string) ([]store.MemoryRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	specs := []specification.Specification{specification.BySession{Session: session}}
	if role != "" {
		specs = append(specs, specification.ByRole{Role: role})
	}
	specs = append(specs, specification.InsertionOrder{})

	rows, err := s.uowFactory.NewUnitOfWork(ctx).MemoryRecordRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, failure.Wrap(failure.ErrStoreUnavailable, "memory.list", err)
	}

	out := make([]store.MemoryRecord, len(rows))
	for i, row := range rows {
		out[i] = store.MemoryRecord{
			Text:     row.Text,
			Metadata: store.Metadata{Role: row.Role, Source: row.Source},
		}
	}
	return out, nil
}

func metadataMap(m store.Metadata) map[string]interface{} {
	out := map[string]interface{}{"role": m.Role}
	if m.Source != "" {
		out["source"] = m.Source
	}
	return out
}
