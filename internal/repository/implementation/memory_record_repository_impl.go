package implementation

import (
	"context"

	"video-rag-chat-be/internal/entity"
	"video-rag-chat-be/internal/mapper"
	"video-rag-chat-be/internal/model"
	"video-rag-chat-be/internal/repository/contract"
	"video-rag-chat-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MemoryRecordRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.MemoryRecordMapper
}

func NewMemoryRecordRepository(db *gorm.DB) contract.MemoryRecordRepository {
	return &MemoryRecordRepositoryImpl{
		db:     db,
		mapper: mapper.NewMemoryRecordMapper(),
	}
}

func (r *MemoryRecordRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *MemoryRecordRepositoryImpl) CreateBulkSkipDuplicates(ctx context.Context, records []*entity.MemoryRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	models := r.mapper.ToModels(records)
	for _, m := range models {
		// ids are assigned client side because RETURNING skips conflicting rows
		if m.Id == uuid.Nil {
			m.Id = uuid.New()
		}
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session"}, {Name: "text_hash"}},
			DoNothing: true,
		}).
		Create(models)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *MemoryRecordRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.MemoryRecord, error) {
	var models []*model.MemoryRecord
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *MemoryRecordRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.MemoryRecord{}).Count(&count).Error
	return count, err
}

func (r *MemoryRecordRepositoryImpl) FindExistingHashes(ctx context.Context, session string, hashes []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	if len(hashes) == 0 {
		return existing, nil
	}

	var found []string
	err := r.applySpecifications(r.db.WithContext(ctx).Model(&model.MemoryRecord{}),
		specification.BySession{Session: session},
		specification.ByTextHashes{Hashes: hashes},
	).Pluck("text_hash", &found).Error
	if err != nil {
		return nil, err
	}

	for _, h := range found {
		existing[h] = struct{}{}
	}
	return existing, nil
}

// SearchSimilarWithScore returns records with similarity scores, filtered by threshold
func (r *MemoryRecordRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, session string, threshold float64) ([]*contract.ScoredMemoryRecord, error) {
	if limit <= 0 {
		limit = 5
	}

	// pgvector's <=> is cosine distance, so similarity = 1 - distance
	type result struct {
		model.MemoryRecord
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("memory_records").
		Select("memory_records.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Where("session = ?", session).
		Where("1 - (embedding_value <=> ?) >= ?", queryVector, threshold).
		Order("similarity DESC").
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredMemoryRecord, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredMemoryRecord{
			Record:     r.mapper.ToEntity(&res.MemoryRecord),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}
