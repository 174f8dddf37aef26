package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	App         AppConfig
	Ai          AIConfig
	VectorStore VectorStoreConfig
	Rag         RAGConfig
	Tracing     TracingConfig
}

type AppConfig struct {
	Port               string `env:"APP_PORT" envDefault:"3000"`
	Environment        string `env:"GO_ENV" envDefault:"development"`
	LogFilePath        string `env:"LOG_FILE_PATH" envDefault:"logs/app.log"`
	CorsAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`
	NatsURL            string `env:"NATS_URL"`  // empty disables the NATS event publisher
	RedisURL           string `env:"REDIS_URL"` // empty keeps the embedding cache in-process
	MetricsNamespace   string `env:"APP_METRICS_NAMESPACE" envDefault:"videorag"`
}

type AIConfig struct {
	LLMProvider string        `env:"LLM_PROVIDER" envDefault:"groq"` // "groq", "openai", "huggingface", "ollama"
	LLMModel    string        `env:"LLM_MODEL" envDefault:"gemma2-9b-it"`
	LLMBaseURL  string        `env:"LLM_BASE_URL"`
	LLMAPIKey   string        `env:"LLM_API_KEY"`
	GroqAPIKey  string        `env:"GROQ_API_KEY"`
	LLMTimeout  time.Duration `env:"LLM_TIMEOUT" envDefault:"60s"`

	EmbeddingProvider  string        `env:"EMBEDDING_PROVIDER" envDefault:"huggingface"` // "huggingface", "ollama", "gemini", "jina", "local"
	EmbeddingModel     string        `env:"EMBEDDING_MODEL" envDefault:"sentence-transformers/all-MiniLM-L6-v2"`
	EmbeddingAPIKey    string        `env:"EMBEDDING_API_KEY"`
	HFToken            string        `env:"HF_TOKEN"`
	EmbeddingDimension int           `env:"EMBEDDING_DIMENSION" envDefault:"384"`
	EmbeddingTimeout   time.Duration `env:"EMBEDDING_TIMEOUT" envDefault:"30s"`
	EmbeddingCacheTTL  time.Duration `env:"EMBEDDING_CACHE_TTL" envDefault:"24h"`

	OllamaBaseURL string `env:"OLLAMA_BASE_URL" envDefault:"http://localhost:11434"`
}

type VectorStoreConfig struct {
	Provider string        `env:"VECTOR_STORE_PROVIDER" envDefault:"pgvector"` // "pgvector" or "memory"
	Endpoint string        `env:"VECTOR_STORE_ENDPOINT"`                       // postgres DSN
	Token    string        `env:"VECTOR_STORE_TOKEN"`                          // overrides the DSN password
	Timeout  time.Duration `env:"STORE_TIMEOUT" envDefault:"15s"`
}

type RAGConfig struct {
	RetrievalK         int           `env:"RETRIEVAL_K" envDefault:"5"`
	HistoryWindow      int           `env:"HISTORY_WINDOW" envDefault:"0"` // 0 feeds the whole history
	SessionTTL         time.Duration `env:"SESSION_TTL" envDefault:"0s"`   // 0 never evicts
	TranscriptLanguage string        `env:"TRANSCRIPT_LANGUAGE" envDefault:"en"`
	TranscriptTimeout  time.Duration `env:"TRANSCRIPT_TIMEOUT" envDefault:"20s"`
	YouTubeBaseURL     string        `env:"YOUTUBE_BASE_URL" envDefault:"https://www.youtube.com"`
}

type TracingConfig struct {
	Enabled  bool   `env:"OTEL_ENABLED" envDefault:"false"`
	Endpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	// Legacy variable names
	if cfg.Ai.LLMAPIKey == "" {
		cfg.Ai.LLMAPIKey = cfg.Ai.GroqAPIKey
	}
	if cfg.Ai.EmbeddingAPIKey == "" {
		cfg.Ai.EmbeddingAPIKey = cfg.Ai.HFToken
	}

	return cfg, nil
}

// Validate reports configuration the service cannot start with.
func (c *Config) Validate() error {
	if c.Ai.LLMProvider != "ollama" && c.Ai.LLMAPIKey == "" {
		return fmt.Errorf("LLM_API_KEY (or GROQ_API_KEY) must be set for provider %q", c.Ai.LLMProvider)
	}
	switch c.VectorStore.Provider {
	case "pgvector":
		if c.VectorStore.Endpoint == "" {
			return fmt.Errorf("VECTOR_STORE_ENDPOINT must be set when VECTOR_STORE_PROVIDER=pgvector")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported VECTOR_STORE_PROVIDER: %s", c.VectorStore.Provider)
	}
	if c.Rag.RetrievalK <= 0 {
		return fmt.Errorf("RETRIEVAL_K must be positive")
	}
	if c.Ai.EmbeddingDimension <= 0 {
		return fmt.Errorf("EMBEDDING_DIMENSION must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}
