package bootstrap

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"video-rag-chat-be/internal/config"
	"video-rag-chat-be/internal/controller"
	"video-rag-chat-be/internal/observability"
	"video-rag-chat-be/internal/pkg/logger"
	"video-rag-chat-be/internal/repository/memory"
	"video-rag-chat-be/internal/repository/unitofwork"
	"video-rag-chat-be/internal/service"
	"video-rag-chat-be/pkg/database"
	"video-rag-chat-be/pkg/embedding"
	"video-rag-chat-be/pkg/events"
	"video-rag-chat-be/pkg/llm/factory"
	"video-rag-chat-be/pkg/rag/answer"
	"video-rag-chat-be/pkg/rag/contextualize"
	"video-rag-chat-be/pkg/rag/history"
	ragmemory "video-rag-chat-be/pkg/rag/memory"
	"video-rag-chat-be/pkg/rag/session"
	"video-rag-chat-be/pkg/rag/summarize"
	"video-rag-chat-be/pkg/transcript"

	pktNats "video-rag-chat-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController controller.IChatController

	// Services
	ChatService     service.IChatService
	ConsumerService service.IConsumerService

	Logger   logger.ILogger
	Metrics  *observability.Metrics
	Sessions *memory.SessionRepository
	DB       *gorm.DB // nil with the in-memory store

	closers []func()
}

// NewContainer wires the whole pipeline from cfg. Optional infrastructure
// (NATS, Redis) degrades with a warning instead of failing startup.
func NewContainer(cfg *config.Config, sysLogger logger.ILogger) (*Container, error) {
	c := &Container{Logger: sysLogger}

	// 1. Providers
	embeddingProvider, err := embedding.NewProvider(embedding.Config{
		Provider:  cfg.Ai.EmbeddingProvider,
		Model:     cfg.Ai.EmbeddingModel,
		APIKey:    cfg.Ai.EmbeddingAPIKey,
		BaseURL:   embeddingBaseURL(cfg),
		Dimension: cfg.Ai.EmbeddingDimension,
		Timeout:   cfg.Ai.EmbeddingTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding provider: %w", err)
	}
	log.Printf("[INFO] Using Embedding Provider: %s (%s)", strings.ToUpper(cfg.Ai.EmbeddingProvider), cfg.Ai.EmbeddingModel)

	embeddingProvider = embedding.NewCachedProvider(
		embeddingProvider,
		c.embeddingCache(cfg),
		cfg.Ai.EmbeddingModel,
		cfg.Ai.EmbeddingCacheTTL,
		sysLogger,
	)

	llmProvider, err := factory.NewLLMProvider(factory.Config{
		Provider: cfg.Ai.LLMProvider,
		Model:    cfg.Ai.LLMModel,
		BaseURL:  llmBaseURL(cfg),
		APIKey:   cfg.Ai.LLMAPIKey,
		Timeout:  cfg.Ai.LLMTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 2. Session state
	c.Sessions = memory.NewSessionRepository(cfg.Rag.SessionTTL)
	registry := history.NewRegistry(c.Sessions)
	locks := session.NewLocker()

	c.Metrics = observability.NewMetrics(cfg.App.MetricsNamespace, func() float64 {
		return float64(c.Sessions.Count())
	})

	// 3. Memory store
	var store ragmemory.Store
	switch cfg.VectorStore.Provider {
	case "memory":
		store = ragmemory.NewInMemoryStore(embeddingProvider, sysLogger)
		log.Printf("[INFO] Using Vector Store: in-memory")
	default:
		db, err := database.NewGormDB(database.GormConfig{
			DSN:   cfg.VectorStore.Endpoint,
			Token: cfg.VectorStore.Token,
		})
		if err != nil {
			return nil, fmt.Errorf("connect vector store: %w", err)
		}
		c.DB = db
		c.onClose(func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		})
		store = ragmemory.NewVectorStore(unitofwork.NewRepositoryFactory(db), embeddingProvider, cfg.VectorStore.Timeout, sysLogger)
		log.Printf("[INFO] Using Vector Store: pgvector")
	}
	store = observability.InstrumentStore(store, c.Metrics)

	// 4. Pipeline
	source := transcript.NewYouTubeSource(cfg.Rag.YouTubeBaseURL, cfg.Rag.TranscriptLanguage, cfg.Rag.TranscriptTimeout, sysLogger)
	summarizer := summarize.NewSummarizer(llmProvider, store, cfg.Ai.LLMTimeout, sysLogger)
	retriever := contextualize.NewRetriever(llmProvider, store, registry, contextualize.Config{
		K:             cfg.Rag.RetrievalK,
		HistoryWindow: cfg.Rag.HistoryWindow,
		LLMTimeout:    cfg.Ai.LLMTimeout,
	}, sysLogger)
	synthesizer := answer.NewSynthesizer(llmProvider, retriever, store, registry, locks, answer.Config{
		HistoryWindow: cfg.Rag.HistoryWindow,
		LLMTimeout:    cfg.Ai.LLMTimeout,
	}, sysLogger)

	// 5. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	c.onClose(func() { _ = pubSub.Close() })

	publishers := events.MultiPublisher{service.NewEventBusPublisher(pubSub, service.EventsTopic)}
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			publishers = append(publishers, natsPub)
			c.onClose(natsPub.Close)
		}
	}

	c.ConsumerService = service.NewConsumerService(pubSub, service.EventsTopic, c.Metrics, sysLogger)

	// 6. Services & controllers
	c.ChatService = service.NewChatService(source, summarizer, synthesizer, registry, store, publishers, c.Metrics, sysLogger)
	c.ChatController = controller.NewChatController(c.ChatService)

	return c, nil
}

func (c *Container) embeddingCache(cfg *config.Config) embedding.Backend {
	if cfg.App.RedisURL == "" {
		return embedding.NewMemoryBackend(10 * time.Minute)
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v. Embedding cache stays in-process", err)
		_ = rdb.Close()
		return embedding.NewMemoryBackend(10 * time.Minute)
	}

	c.onClose(func() { _ = rdb.Close() })
	return embedding.NewRedisBackend(rdb, "emb:")
}

func (c *Container) onClose(fn func()) {
	c.closers = append(c.closers, fn)
}

// Close releases connections in reverse order of acquisition.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

func llmBaseURL(cfg *config.Config) string {
	if cfg.Ai.LLMProvider == "ollama" && cfg.Ai.LLMBaseURL == "" {
		return cfg.Ai.OllamaBaseURL
	}
	return cfg.Ai.LLMBaseURL
}

func embeddingBaseURL(cfg *config.Config) string {
	if cfg.Ai.EmbeddingProvider == "ollama" {
		return cfg.Ai.OllamaBaseURL
	}
	return ""
}
