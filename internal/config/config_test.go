package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk-test")
	t.Setenv("HF_TOKEN", "hf-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.App.Port)
	assert.Equal(t, "groq", cfg.Ai.LLMProvider)
	assert.Equal(t, "gemma2-9b-it", cfg.Ai.LLMModel)
	assert.Equal(t, "gsk-test", cfg.Ai.LLMAPIKey)
	assert.Equal(t, "hf-test", cfg.Ai.EmbeddingAPIKey)
	assert.Equal(t, 60*time.Second, cfg.Ai.LLMTimeout)
	assert.Equal(t, 5, cfg.Rag.RetrievalK)
	assert.Equal(t, time.Duration(0), cfg.Rag.SessionTTL)
	assert.Equal(t, "pgvector", cfg.VectorStore.Provider)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LLM_API_KEY", "primary")
	t.Setenv("GROQ_API_KEY", "secondary")
	t.Setenv("RETRIEVAL_K", "8")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("VECTOR_STORE_PROVIDER", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "primary", cfg.Ai.LLMAPIKey)
	assert.Equal(t, 8, cfg.Rag.RetrievalK)
	assert.Equal(t, 2*time.Hour, cfg.Rag.SessionTTL)
	assert.Equal(t, "memory", cfg.VectorStore.Provider)
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("LLM_TIMEOUT", "soon")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Ai: AIConfig{
				LLMProvider:        "groq",
				LLMAPIKey:          "key",
				EmbeddingDimension: 384,
			},
			VectorStore: VectorStoreConfig{Provider: "pgvector", Endpoint: "postgres://localhost/rag"},
			Rag:         RAGConfig{RetrievalK: 5},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing model key", mutate: func(c *Config) { c.Ai.LLMAPIKey = "" }, wantErr: "LLM_API_KEY"},
		{name: "ollama needs no key", mutate: func(c *Config) { c.Ai.LLMProvider = "ollama"; c.Ai.LLMAPIKey = "" }},
		{name: "pgvector without endpoint", mutate: func(c *Config) { c.VectorStore.Endpoint = "" }, wantErr: "VECTOR_STORE_ENDPOINT"},
		{name: "memory store", mutate: func(c *Config) { c.VectorStore = VectorStoreConfig{Provider: "memory"} }},
		{name: "unknown store", mutate: func(c *Config) { c.VectorStore.Provider = "astra" }, wantErr: "unsupported"},
		{name: "zero k", mutate: func(c *Config) { c.Rag.RetrievalK = 0 }, wantErr: "RETRIEVAL_K"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
