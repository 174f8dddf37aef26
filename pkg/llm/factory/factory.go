package factory

import (
	"fmt"
	"time"

	"video-rag-chat-be/pkg/llm"
	"video-rag-chat-be/pkg/llm/ollama"
	"video-rag-chat-be/pkg/llm/openai"
)

type Config struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
}

func NewLLMProvider(cfg Config) (llm.LLMProvider, error) {
	switch cfg.Provider {
	case "groq", "":
		return openai.NewProvider(cfg.APIKey, orDefault(cfg.BaseURL, openai.GroqBaseURL), cfg.Model, cfg.Timeout), nil
	case "openai":
		return openai.NewProvider(cfg.APIKey, orDefault(cfg.BaseURL, openai.OpenAIBaseURL), cfg.Model, cfg.Timeout), nil
	case "huggingface":
		return openai.NewProvider(cfg.APIKey, orDefault(cfg.BaseURL, openai.HuggingFaceBaseURL), cfg.Model, cfg.Timeout), nil
	case "ollama":
		return ollama.NewOllamaProvider(orDefault(cfg.BaseURL, "http://localhost:11434"), cfg.Model, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
