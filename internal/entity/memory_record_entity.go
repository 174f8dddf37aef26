package entity

import (
	"time"

	"github.com/google/uuid"
)

type MemoryRecord struct {
	Id             uuid.UUID
	Session        string
	Text           string
	TextHash       string
	Role           string
	Source         string
	Metadata       map[string]interface{}
	EmbeddingValue []float32
	CreatedAt      time.Time
}
