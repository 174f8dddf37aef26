package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// MemoryRecord is one snippet of a session's retrievable memory. The
// (session, text_hash) pair is unique so re-inserting the same text is a no-op.
type MemoryRecord struct {
	Id             uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Session        string            `gorm:"type:varchar(255);not null;uniqueIndex:idx_memory_records_session_hash,priority:1"`
	Text           string            `gorm:"type:text;not null"`
	TextHash       string            `gorm:"type:char(64);not null;uniqueIndex:idx_memory_records_session_hash,priority:2"`
	Role           string            `gorm:"type:varchar(32);not null"`
	Source         string            `gorm:"type:text"`
	Metadata       datatypes.JSONMap `gorm:"type:jsonb"`
	EmbeddingValue pgvector.Vector   `gorm:"type:vector"` // dimension pinned by cmd/migrate
	CreatedAt      time.Time         `gorm:"autoCreateTime;index"`
}

func (MemoryRecord) TableName() string {
	return "memory_records"
}
