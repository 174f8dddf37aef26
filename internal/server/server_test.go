package server

import (
	"io"
	"net/http/httptest"
	"testing"

	"video-rag-chat-be/internal/bootstrap"
	"video-rag-chat-be/internal/config"
	"video-rag-chat-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		App: config.AppConfig{Port: "0", CorsAllowedOrigins: "*", MetricsNamespace: "videorag"},
		Ai: config.AIConfig{
			LLMProvider:        "groq",
			LLMModel:           "gemma2-9b-it",
			LLMAPIKey:          "unused",
			EmbeddingProvider:  "local",
			EmbeddingModel:     "local",
			EmbeddingDimension: 64,
		},
		VectorStore: config.VectorStoreConfig{Provider: "memory"},
		Rag:         config.RAGConfig{RetrievalK: 5, TranscriptLanguage: "en"},
	}

	container, err := bootstrap.NewContainer(cfg, logger.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(container.Close)

	return New(cfg, container)
}

func TestServerRoutes(t *testing.T) {
	app := newTestServer(t).GetApp()

	tests := []struct {
		path     string
		status   int
		contains string
	}{
		{path: "/healthz", status: 200, contains: `"active_sessions"`},
		{path: "/metrics", status: 200, contains: "videorag_active_sessions"},
		{path: "/history/s1", status: 200, contains: `"session":"s1"`},
		{path: "/api/history/s1", status: 200, contains: `"turns":[]`},
		{path: "/nope", status: 404},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			if tt.contains != "" {
				assert.Contains(t, string(body), tt.contains)
			}
		})
	}
}

func TestServerValidatesBodies(t *testing.T) {
	app := newTestServer(t).GetApp()

	req := httptest.NewRequest("POST", "/api/chat", nil)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}
