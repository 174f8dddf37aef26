// Package contextualize turns a follow-up question into a standalone query
// and fetches the matching snippets of the session's memory.
package contextualize

import (
	"context"
	"strings"
	"time"

	"video-rag-chat-be/internal/pkg/logger"
	"video-rag-chat-be/pkg/llm"
	"video-rag-chat-be/pkg/rag/failure"
	"video-rag-chat-be/pkg/rag/history"
	"video-rag-chat-be/pkg/rag/memory"
	"video-rag-chat-be/pkg/rag/prompt"
	"video-rag-chat-be/pkg/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const logModule = "RETRIEVER"

// standaloneMaxTokens caps the reformulation reply; a rewritten question
// never needs more.
const standaloneMaxTokens = 256

var tracer = otel.Tracer("video-rag-chat-be/pkg/rag/contextualize")

type Config struct {
	K             int           // snippets returned per query
	HistoryWindow int           // turns fed to the model, 0 = all
	LLMTimeout    time.Duration // bound on the reformulation call
}

type Retriever struct {
	llm     llm.LLMProvider
	store   memory.Store
	history *history.Registry
	cfg     Config
	logger  logger.ILogger
}

func NewRetriever(provider llm.LLMProvider, st memory.Store, hist *history.Registry, cfg Config, log logger.ILogger) *Retriever {
	if cfg.K <= 0 {
		cfg.K = 5
	}
	return &Retriever{
		llm:     provider,
		store:   st,
		history: hist,
		cfg:     cfg,
		logger:  log,
	}
}

// Reformulate rewrites query so it stands alone. Without history the query
// is returned as is and the model is not called.
func (r *Retriever) Reformulate(ctx context.Context, turns []store.Turn, query string) (string, error) {
	if len(turns) == 0 {
		return query, nil
	}

	ctx, span := tracer.Start(ctx, "contextualize.reformulate")
	defer span.End()

	if r.cfg.LLMTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.LLMTimeout)
		defer cancel()
	}

	out, err := r.llm.Chat(ctx, prompt.BuildContextualize(turns, query), llm.WithTemperature(0), llm.WithMaxTokens(standaloneMaxTokens))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reformulate failed")
		return "", failure.Wrap(failure.ErrGenerationFailed, "contextualize.reformulate", err)
	}

	standalone := strings.TrimSpace(out)
	if standalone == "" {
		r.logger.Warn(logModule, "Blank reformulation, using raw query", nil)
		return query, nil
	}
	return standalone, nil
}

// RetrieveWithHistory reformulates query against the given turns and
// searches the whole session partition. It never mutates state.
func (r *Retriever) RetrieveWithHistory(ctx context.Context, session string, turns []store.Turn, query string) ([]store.MemoryRecord, string, error) {
	ctx, span := tracer.Start(ctx, "contextualize.retrieve")
	defer span.End()
	span.SetAttributes(attribute.String("rag.session", session), attribute.Int("rag.k", r.cfg.K))

	standalone, err := r.Reformulate(ctx, turns, query)
	if err != nil {
		return nil, "", err
	}

	snippets, err := r.store.Query(ctx, session, standalone, r.cfg.K)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, "", err
	}

	r.logger.Debug(logModule, "Retrieved context", map[string]interface{}{
		"session":    session,
		"standalone": standalone,
		"snippets":   len(snippets),
	})
	return snippets, standalone, nil
}

// Retrieve is RetrieveWithHistory over the session's recorded turns.
func (r *Retriever) Retrieve(ctx context.Context, session, query string) ([]store.MemoryRecord, string, error) {
	return r.RetrieveWithHistory(ctx, session, r.history.Recent(session, r.cfg.HistoryWindow), query)
}
