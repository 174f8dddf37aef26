// Package answer runs the conversational question answering step.
package answer

import (
	"context"
	"strings"
	"time"

	"video-rag-chat-be/internal/pkg/logger"
	"video-rag-chat-be/pkg/llm"
	"video-rag-chat-be/pkg/rag/contextualize"
	"video-rag-chat-be/pkg/rag/failure"
	"video-rag-chat-be/pkg/rag/history"
	"video-rag-chat-be/pkg/rag/memory"
	"video-rag-chat-be/pkg/rag/prompt"
	"video-rag-chat-be/pkg/rag/session"
	"video-rag-chat-be/pkg/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const logModule = "ANSWER"

var tracer = otel.Tracer("video-rag-chat-be/pkg/rag/answer")

// Result is everything one answered turn produced.
type Result struct {
	Answer          string
	History         []store.Turn // full session history after the turn
	StandaloneQuery string
	Context         []store.MemoryRecord
}

type Config struct {
	HistoryWindow int
	LLMTimeout    time.Duration
}

type Synthesizer struct {
	llm       llm.LLMProvider
	retriever *contextualize.Retriever
	store     memory.Store
	history   *history.Registry
	locks     *session.Locker
	cfg       Config
	logger    logger.ILogger
}

func NewSynthesizer(
	provider llm.LLMProvider,
	retriever *contextualize.Retriever,
	st memory.Store,
	hist *history.Registry,
	locks *session.Locker,
	cfg Config,
	log logger.ILogger,
) *Synthesizer {
	return &Synthesizer{
		llm:       provider,
		retriever: retriever,
		store:     st,
		history:   hist,
		locks:     locks,
		cfg:       cfg,
		logger:    log,
	}
}

// Answer replies to query within session. On success the question and answer
// are appended to the session history as a pair and mirrored into memory.
// If the model fails neither history nor memory change.
func (s *Synthesizer) Answer(ctx context.Context, sessionID, query string) (*Result, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	ctx, span := tracer.Start(ctx, "answer")
	defer span.End()
	span.SetAttributes(attribute.String("rag.session", sessionID))

	turns := s.history.Recent(sessionID, s.cfg.HistoryWindow)

	snippets, standalone, err := s.retriever.RetrieveWithHistory(ctx, sessionID, turns, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "retrieve failed")
		return nil, err
	}

	reply, err := s.generate(ctx, prompt.BuildAnswer(snippets, turns, query))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		return nil, err
	}

	s.history.AppendPair(sessionID, query, reply)

	if _, err := s.store.Upsert(ctx, sessionID, store.NewTurnRecords(query, reply)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store failed")
		s.logger.Error(logModule, "Failed to mirror turn into memory", map[string]interface{}{
			"session": sessionID,
			"error":   err,
		})
		return nil, err
	}

	s.logger.Info(logModule, "Answered query", map[string]interface{}{
		"session":  sessionID,
		"snippets": len(snippets),
	})

	return &Result{
		Answer:          reply,
		History:         s.history.Get(sessionID),
		StandaloneQuery: standalone,
		Context:         snippets,
	}, nil
}

func (s *Synthesizer) generate(ctx context.Context, messages []llm.Message) (string, error) {
	if s.cfg.LLMTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.LLMTimeout)
		defer cancel()
	}

	out, err := s.llm.Chat(ctx, messages)
	if err != nil {
		return "", failure.Wrap(failure.ErrGenerationFailed, "answer.generate", err)
	}
	reply := strings.TrimSpace(out)
	if reply == "" {
		return "", failure.New(failure.ErrGenerationFailed, "answer.generate", "model returned an empty answer")
	}
	return reply, nil
}
