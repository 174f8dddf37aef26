// Package summarize condenses a transcript with one model call and files
// the summary in the session's memory.
package summarize

import (
	"context"
	"strings"
	"time"

	"video-rag-chat-be/internal/pkg/logger"
	"video-rag-chat-be/pkg/llm"
	"video-rag-chat-be/pkg/rag/failure"
	"video-rag-chat-be/pkg/rag/memory"
	"video-rag-chat-be/pkg/rag/prompt"
	"video-rag-chat-be/pkg/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// NoTranscriptFallback is returned in place of a summary when there is
// nothing to summarize.
const NoTranscriptFallback = "No transcript available."

const logModule = "SUMMARIZER"

var tracer = otel.Tracer("video-rag-chat-be/pkg/rag/summarize")

type Summarizer struct {
	llm        llm.LLMProvider
	store      memory.Store
	llmTimeout time.Duration
	logger     logger.ILogger
}

func NewSummarizer(provider llm.LLMProvider, st memory.Store, llmTimeout time.Duration, log logger.ILogger) *Summarizer {
	return &Summarizer{
		llm:        provider,
		store:      st,
		llmTimeout: llmTimeout,
		logger:     log,
	}
}

// Summarize returns a summary of transcript and stores it under session with
// videoRef as its source. A blank transcript short-circuits to
// NoTranscriptFallback without calling the model or touching the store.
func (s *Summarizer) Summarize(ctx context.Context, session, videoRef, transcript string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		s.logger.Info(logModule, "Empty transcript, skipping summarization", map[string]interface{}{
			"session": session,
			"source":  videoRef,
		})
		return NoTranscriptFallback, nil
	}

	ctx, span := tracer.Start(ctx, "summarize")
	defer span.End()
	span.SetAttributes(
		attribute.String("rag.session", session),
		attribute.Int("rag.transcript_chars", len(transcript)),
	)

	summary, err := s.generate(ctx, transcript)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		return "", err
	}

	if _, err := s.store.Upsert(ctx, session, []store.MemoryRecord{store.NewSummaryRecord(summary, videoRef)}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store failed")
		return "", err
	}

	s.logger.Info(logModule, "Summary stored", map[string]interface{}{
		"session":       session,
		"source":        videoRef,
		"summary_chars": len(summary),
	})
	return summary, nil
}

func (s *Summarizer) generate(ctx context.Context, transcript string) (string, error) {
	if s.llmTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.llmTimeout)
		defer cancel()
	}

	out, err := s.llm.Generate(ctx, prompt.BuildSummary(transcript))
	if err != nil {
		return "", failure.Wrap(failure.ErrGenerationFailed, "summarize.generate", err)
	}

	summary := strings.TrimSpace(out)
	if summary == "" {
		return "", failure.New(failure.ErrGenerationFailed, "summarize.generate", "model returned an empty summary")
	}
	return summary, nil
}
