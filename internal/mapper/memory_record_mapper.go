package mapper

import (
	"video-rag-chat-be/internal/entity"
	"video-rag-chat-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type MemoryRecordMapper struct{}

func NewMemoryRecordMapper() *MemoryRecordMapper {
	return &MemoryRecordMapper{}
}

func (m *MemoryRecordMapper) ToEntity(r *model.MemoryRecord) *entity.MemoryRecord {
	if r == nil {
		return nil
	}

	return &entity.MemoryRecord{
		Id:             r.Id,
		Session:        r.Session,
		Text:           r.Text,
		TextHash:       r.TextHash,
		Role:           r.Role,
		Source:         r.Source,
		Metadata:       map[string]interface{}(r.Metadata),
		EmbeddingValue: r.EmbeddingValue.Slice(),
		CreatedAt:      r.CreatedAt,
	}
}

func (m *MemoryRecordMapper) ToModel(e *entity.MemoryRecord) *model.MemoryRecord {
	if e == nil {
		return nil
	}

	var metadata datatypes.JSONMap
	if len(e.Metadata) > 0 {
		metadata = datatypes.JSONMap(e.Metadata)
	}

	return &model.MemoryRecord{
		Id:             e.Id,
		Session:        e.Session,
		Text:           e.Text,
		TextHash:       e.TextHash,
		Role:           e.Role,
		Source:         e.Source,
		Metadata:       metadata,
		EmbeddingValue: pgvector.NewVector(e.EmbeddingValue),
		CreatedAt:      e.CreatedAt,
	}
}

func (m *MemoryRecordMapper) ToEntities(records []*model.MemoryRecord) []*entity.MemoryRecord {
	entities := make([]*entity.MemoryRecord, len(records))
	for i, r := range records {
		entities[i] = m.ToEntity(r)
	}
	return entities
}

func (m *MemoryRecordMapper) ToModels(records []*entity.MemoryRecord) []*model.MemoryRecord {
	models := make([]*model.MemoryRecord, len(records))
	for i, r := range records {
		models[i] = m.ToModel(r)
	}
	return models
}
