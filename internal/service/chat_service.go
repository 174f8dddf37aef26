package service

import (
	"context"
	"time"

	"video-rag-chat-be/internal/dto"
	"video-rag-chat-be/internal/observability"
	"video-rag-chat-be/internal/pkg/logger"
	"video-rag-chat-be/pkg/events"
	"video-rag-chat-be/pkg/rag/answer"
	"video-rag-chat-be/pkg/rag/history"
	"video-rag-chat-be/pkg/rag/memory"
	"video-rag-chat-be/pkg/rag/summarize"
	"video-rag-chat-be/pkg/store"
	"video-rag-chat-be/pkg/transcript"
)

const (
	opSummarize = "summarize"
	opChat      = "chat"

	publishTimeout = 5 * time.Second
)

type IChatService interface {
	Summarize(ctx context.Context, req *dto.SummarizeRequest) (*dto.SummarizeResponse, error)
	Chat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error)
	History(ctx context.Context, session string) (*dto.HistoryResponse, error)
	Snippets(ctx context.Context, session, role string) (*dto.SnippetsResponse, error)
}

type chatService struct {
	transcripts transcript.Source
	summarizer  *summarize.Summarizer
	synthesizer *answer.Synthesizer
	history     *history.Registry
	store       memory.Store
	publisher   events.Publisher
	metrics     *observability.Metrics
	logger      logger.ILogger
}

func NewChatService(
	transcripts transcript.Source,
	summarizer *summarize.Summarizer,
	synthesizer *answer.Synthesizer,
	hist *history.Registry,
	st memory.Store,
	publisher events.Publisher,
	metrics *observability.Metrics,
	log logger.ILogger,
) IChatService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &chatService{
		transcripts: transcripts,
		summarizer:  summarizer,
		synthesizer: synthesizer,
		history:     hist,
		store:       st,
		publisher:   publisher,
		metrics:     metrics,
		logger:      log,
	}
}

func (c *chatService) Summarize(ctx context.Context, req *dto.SummarizeRequest) (res *dto.SummarizeResponse, err error) {
	defer c.observe(opSummarize, time.Now(), &err)

	c.logger.Info("CHAT_SERVICE", "Summarize requested", map[string]interface{}{
		"session": req.Session,
		"source":  req.YtLink,
		"mode":    req.Mode,
	})

	text, err := c.transcripts.Fetch(ctx, req.YtLink)
	if err != nil {
		return nil, err
	}

	summary, err := c.summarizer.Summarize(ctx, req.Session, req.YtLink, text)
	if err != nil {
		return nil, err
	}

	if summary != summarize.NoTranscriptFallback {
		c.publish(ctx, events.NewSummaryCreated(req.Session, req.YtLink, len(summary)))
	}

	return &dto.SummarizeResponse{Summary: summary}, nil
}

func (c *chatService) Chat(ctx context.Context, req *dto.ChatRequest) (res *dto.ChatResponse, err error) {
	defer c.observe(opChat, time.Now(), &err)

	c.logger.Info("CHAT_SERVICE", "Chat requested", map[string]interface{}{
		"session": req.Session,
		"mode":    req.Mode,
	})

	result, err := c.synthesizer.Answer(ctx, req.Session, req.UserQuery)
	if err != nil {
		return nil, err
	}

	c.publish(ctx, events.NewChatAnswered(req.Session, len(result.Context), len(result.History)))

	return &dto.ChatResponse{Answer: result.Answer}, nil
}

func (c *chatService) History(ctx context.Context, session string) (*dto.HistoryResponse, error) {
	records, err := c.store.Len(ctx, session)
	if err != nil {
		return nil, err
	}
	turns := c.history.Get(session)
	if turns == nil {
		turns = []store.Turn{}
	}
	return &dto.HistoryResponse{
		Session: session,
		Turns:   turns,
		Records: records,
	}, nil
}

func (c *chatService) Snippets(ctx context.Context, session, role string) (*dto.SnippetsResponse, error) {
	records, err := c.store.List(ctx, session, role)
	if err != nil {
		return nil, err
	}
	snippets := make([]dto.Snippet, len(records))
	for i, r := range records {
		snippets[i] = dto.Snippet{Role: r.Metadata.Role, Text: r.Text, Source: r.Metadata.Source}
	}
	return &dto.SnippetsResponse{Session: session, Snippets: snippets}, nil
}

func (c *chatService) observe(op string, start time.Time, err *error) {
	if c.metrics != nil {
		c.metrics.ObservePipeline(op, *err, time.Since(start))
	}
}

// publish is best effort: a lost event never fails the request.
func (c *chatService) publish(ctx context.Context, event events.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := c.publisher.Publish(ctx, event); err != nil {
		c.logger.Warn("CHAT_SERVICE", "Failed to publish event", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
	}
}
