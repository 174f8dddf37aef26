package embedding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHuggingFaceGenerate(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []float32
	}{
		{name: "sentence vector", body: `[3, 4]`, want: []float32{0.6, 0.8}},
		{name: "token matrix is mean pooled", body: `[[2, 0], [4, 8]]`, want: []float32{0.6, 0.8}},
		{name: "batch of one", body: `[[[3, 4]]]`, want: []float32{0.6, 0.8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/sentence-transformers/all-MiniLM-L6-v2/pipeline/feature-extraction", r.URL.Path)
				assert.Equal(t, "Bearer hf-test", r.Header.Get("Authorization"))
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := NewHuggingFaceProvider("hf-test", srv.URL, "", time.Second)
			res, err := p.Generate(context.Background(), "hello", TaskRetrievalQuery)
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.want, res.Embedding.Values, 1e-6)
		})
	}
}

func TestHuggingFaceErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "model loading", status: http.StatusServiceUnavailable, body: `{"error":"Model is currently loading"}`, want: "currently loading"},
		{name: "empty", status: http.StatusOK, body: `[]`, want: "empty"},
		{name: "object", status: http.StatusOK, body: `{"foo":1}`, want: "unexpected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := NewHuggingFaceProvider("", srv.URL, "m", time.Second)
			_, err := p.Generate(context.Background(), "hello", "")
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
