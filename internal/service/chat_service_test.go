package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"video-rag-chat-be/internal/dto"
	"video-rag-chat-be/internal/observability"
	"video-rag-chat-be/internal/pkg/logger"
	intmem "video-rag-chat-be/internal/repository/memory"
	"video-rag-chat-be/pkg/embedding"
	"video-rag-chat-be/pkg/events"
	"video-rag-chat-be/pkg/llm"
	"video-rag-chat-be/pkg/rag/answer"
	"video-rag-chat-be/pkg/rag/contextualize"
	"video-rag-chat-be/pkg/rag/failure"
	"video-rag-chat-be/pkg/rag/history"
	"video-rag-chat-be/pkg/rag/memory"
	"video-rag-chat-be/pkg/rag/session"
	"video-rag-chat-be/pkg/rag/summarize"
	"video-rag-chat-be/pkg/store"
	"video-rag-chat-be/pkg/transcript"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	text string
	err  error
}

func (s stubSource) Fetch(context.Context, string) (string, error) {
	return s.text, s.err
}

// stubLLM summarizes with summary, passes reformulation through and
// answers everything else with answer.
type stubLLM struct {
	summary string
	answer  string
	err     error
}

func (s *stubLLM) Chat(_ context.Context, msgs []llm.Message, _ ...llm.Option) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if strings.Contains(msgs[0].Content, "standalone question") {
		return msgs[len(msgs)-1].Content, nil
	}
	return s.answer, nil
}

func (s *stubLLM) Generate(context.Context, string, ...llm.Option) (string, error) {
	return s.summary, s.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

type serviceFixture struct {
	svc     IChatService
	store   memory.Store
	pub     *recordingPublisher
	metrics *observability.Metrics
}

func newServiceFixture(t *testing.T, src transcript.Source, model *stubLLM) serviceFixture {
	t.Helper()
	log := logger.NewNopLogger()
	metrics := observability.NewMetrics("test", nil)
	st := observability.InstrumentStore(memory.NewInMemoryStore(embedding.NewLocalProvider(256), log), metrics)
	hist := history.NewRegistry(intmem.NewSessionRepository(0))
	retriever := contextualize.NewRetriever(model, st, hist, contextualize.Config{K: 5}, log)
	synth := answer.NewSynthesizer(model, retriever, st, hist, session.NewLocker(), answer.Config{LLMTimeout: time.Second}, log)
	summarizer := summarize.NewSummarizer(model, st, time.Second, log)
	pub := &recordingPublisher{}

	return serviceFixture{
		svc:     NewChatService(src, summarizer, synth, hist, st, pub, metrics, log),
		store:   st,
		pub:     pub,
		metrics: metrics,
	}
}

func TestChatServiceRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t,
		stubSource{text: "goroutines and channels explained"},
		&stubLLM{summary: "The video covers Go concurrency with goroutines and channels.", answer: "It was about Go concurrency."},
	)

	sum, err := f.svc.Summarize(ctx, &dto.SummarizeRequest{YtLink: "https://video?=abc123", Session: "s1", Mode: "brief"})
	require.NoError(t, err)
	assert.Equal(t, "The video covers Go concurrency with goroutines and channels.", sum.Summary)

	chat, err := f.svc.Chat(ctx, &dto.ChatRequest{UserQuery: "what was the video about?", Session: "s1"})
	require.NoError(t, err)
	assert.Equal(t, "It was about Go concurrency.", chat.Answer)

	hist, err := f.svc.History(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []store.Turn{
		{Role: store.RoleUser, Text: "what was the video about?"},
		{Role: store.RoleAssistant, Text: "It was about Go concurrency."},
	}, hist.Turns)
	assert.Equal(t, 3, hist.Records)

	snippets, err := f.svc.Snippets(ctx, "s1", "")
	require.NoError(t, err)
	require.Len(t, snippets.Snippets, 3)
	assert.Equal(t, dto.Snippet{
		Role:   store.RoleAssistant,
		Text:   "The video covers Go concurrency with goroutines and channels.",
		Source: "https://video?=abc123",
	}, snippets.Snippets[0])

	questions, err := f.svc.Snippets(ctx, "s1", store.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, []dto.Snippet{{Role: store.RoleUser, Text: "what was the video about?"}}, questions.Snippets)

	require.Len(t, f.pub.events, 2)
	assert.Equal(t, events.TypeSummaryCreated, f.pub.events[0].EventType())
	assert.Equal(t, events.TypeChatAnswered, f.pub.events[1].EventType())

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PipelineRequests.WithLabelValues("summarize", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PipelineRequests.WithLabelValues("chat", "ok")))
	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.RecordsAdded))
}

func TestChatServiceEmptyTranscript(t *testing.T) {
	f := newServiceFixture(t, stubSource{text: "   "}, &stubLLM{err: errors.New("must not be called")})

	res, err := f.svc.Summarize(context.Background(), &dto.SummarizeRequest{YtLink: "abcdefghijk", Session: "s1"})
	require.NoError(t, err)
	assert.Equal(t, summarize.NoTranscriptFallback, res.Summary)
	assert.Empty(t, f.pub.events)

	n, err := f.store.Len(context.Background(), "s1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestChatServiceEmptyYouTubeTrack(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><script>var ytInitialPlayerResponse = {"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[{"baseUrl":"/api/timedtext?lang=en","languageCode":"en"}]}}};</script></html>`))
	})
	mux.HandleFunc("/api/timedtext", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<transcript><text start="0" dur="1">  </text></transcript>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	src := transcript.NewYouTubeSource(srv.URL, "en", time.Second, logger.NewNopLogger())
	f := newServiceFixture(t, src, &stubLLM{err: errors.New("must not be called")})

	res, err := f.svc.Summarize(context.Background(), &dto.SummarizeRequest{YtLink: "https://video?=abc123", Session: "s1"})
	require.NoError(t, err)
	assert.Equal(t, summarize.NoTranscriptFallback, res.Summary)
	assert.Empty(t, f.pub.events)

	n, err := f.store.Len(context.Background(), "s1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestChatServiceTranscriptFailure(t *testing.T) {
	f := newServiceFixture(t,
		stubSource{err: failure.New(failure.ErrTranscriptUnavailable, "transcript.fetch", "no captions")},
		&stubLLM{summary: "unused"},
	)

	_, err := f.svc.Summarize(context.Background(), &dto.SummarizeRequest{YtLink: "abcdefghijk", Session: "s1"})
	assert.ErrorIs(t, err, failure.ErrTranscriptUnavailable)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PipelineRequests.WithLabelValues("summarize", "transcript_unavailable")))
}

func TestChatServicePublishFailureIsNotFatal(t *testing.T) {
	f := newServiceFixture(t, stubSource{}, &stubLLM{answer: "fine"})
	f.pub.err = errors.New("bus down")

	res, err := f.svc.Chat(context.Background(), &dto.ChatRequest{UserQuery: "hi", Session: "s1"})
	require.NoError(t, err)
	assert.Equal(t, "fine", res.Answer)
}

func TestChatServiceHistoryUnknownSession(t *testing.T) {
	f := newServiceFixture(t, stubSource{}, &stubLLM{})

	res, err := f.svc.History(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, res.Turns)
	assert.Empty(t, res.Turns)
	assert.Zero(t, res.Records)
}
