package main

import (
	"log"

	"video-rag-chat-be/internal/config"
	"video-rag-chat-be/pkg/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	if cfg.VectorStore.Endpoint == "" {
		log.Fatal("Error: VECTOR_STORE_ENDPOINT is not set")
	}

	db, err := database.NewGormDB(database.GormConfig{
		DSN:   cfg.VectorStore.Endpoint,
		Token: cfg.VectorStore.Token,
	})
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting GORM Migration...")
	if err := database.Migrate(db, cfg.Ai.EmbeddingDimension); err != nil {
		log.Fatalf("Error: Migration failed: %v", err)
	}

	log.Println("✅ Success: Database migration completed successfully via GORM.")
}
