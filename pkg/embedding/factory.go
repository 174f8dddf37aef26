package embedding

import (
	"fmt"
	"time"
)

type Config struct {
	Provider  string
	Model     string
	APIKey    string
	BaseURL   string
	Dimension int
	Timeout   time.Duration
}

func NewProvider(cfg Config) (EmbeddingProvider, error) {
	switch cfg.Provider {
	case "huggingface", "":
		return NewHuggingFaceProvider(cfg.APIKey, "", cfg.Model, cfg.Timeout), nil
	case "ollama":
		return NewOllamaProvider(cfg.BaseURL, cfg.Model, cfg.Timeout), nil
	case "gemini":
		return NewGeminiProvider(cfg.APIKey, cfg.Timeout), nil
	case "jina":
		return NewJinaProvider(cfg.APIKey, cfg.Model, cfg.Timeout), nil
	case "local":
		return NewLocalProvider(cfg.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
