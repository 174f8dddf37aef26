package main

import (
	"fmt"

	"video-rag-chat-be/pkg/database"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the pgvector extension and the memory_records table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.VectorStore.Provider != "pgvector" {
			return fmt.Errorf("nothing to migrate for VECTOR_STORE_PROVIDER=%s", cfg.VectorStore.Provider)
		}

		db, err := database.NewGormDB(database.GormConfig{
			DSN:   cfg.VectorStore.Endpoint,
			Token: cfg.VectorStore.Token,
		})
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}

		if err := database.Migrate(db, cfg.Ai.EmbeddingDimension); err != nil {
			return err
		}
		color.Green("✅ memory_records is ready (vector(%d))", cfg.Ai.EmbeddingDimension)
		return nil
	},
}
