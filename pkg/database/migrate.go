package database

import (
	"fmt"
	"log"

	"video-rag-chat-be/internal/model"

	"gorm.io/gorm"
)

// Migrate creates the pgvector extension and the memory_records table, then
// pins the embedding column to dim and adds the cosine HNSW index. Every step
// is idempotent.
func Migrate(db *gorm.DB, dim int) error {
	if dim <= 0 {
		return fmt.Errorf("embedding dimension must be positive, got %d", dim)
	}

	log.Println("Step 1: Setting up Extensions...")
	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	}
	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	log.Println("Step 2: Running AutoMigrate...")
	if err := db.AutoMigrate(&model.MemoryRecord{}); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	log.Println("Step 3: Pinning vector dimension and indexes...")
	postMigrationSQL := []string{
		fmt.Sprintf(`ALTER TABLE memory_records ALTER COLUMN embedding_value TYPE vector(%d);`, dim),
		`CREATE INDEX IF NOT EXISTS idx_memory_records_embedding ON memory_records USING hnsw (embedding_value vector_cosine_ops);`,
	}
	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("post-migration: %w", err)
		}
	}

	return nil
}
