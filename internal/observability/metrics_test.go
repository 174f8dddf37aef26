package observability

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"video-rag-chat-be/pkg/rag/failure"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservePipeline(t *testing.T) {
	m := NewMetrics("test", func() float64 { return 3 })

	m.ObservePipeline("chat", nil, 120*time.Millisecond)
	m.ObservePipeline("chat", failure.Wrap(failure.ErrGenerationFailed, "op", errors.New("boom")), time.Second)
	m.ObservePipeline("chat", nil, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PipelineRequests.WithLabelValues("chat", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PipelineRequests.WithLabelValues("chat", "generation_failed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ActiveSessions))
}

func TestHandlerExposesNamespace(t *testing.T) {
	m := NewMetrics("videorag", nil)
	m.RecordsAdded.Add(2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "videorag_memory_records_added_total 2")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestMetricsAreIsolated(t *testing.T) {
	a := NewMetrics("iso", nil)
	b := NewMetrics("iso", nil)
	a.RecordsAdded.Inc()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.RecordsAdded))
}
