package embedding

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"video-rag-chat-be/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProvider struct {
	calls atomic.Int32
	err   error
	delay time.Duration
}

func (p *countingProvider) Generate(_ context.Context, text string, _ string) (*EmbeddingResponse, error) {
	p.calls.Add(1)
	time.Sleep(p.delay)
	if p.err != nil {
		return nil, p.err
	}
	return newResponse([]float32{float32(len(text)), 1}), nil
}

type brokenBackend struct{}

func (brokenBackend) Get(context.Context, string) ([]float32, bool, error) {
	return nil, false, errors.New("connection refused")
}

func (brokenBackend) Set(context.Context, string, []float32, time.Duration) error {
	return errors.New("connection refused")
}

func TestCachedProviderHit(t *testing.T) {
	next := &countingProvider{}
	p := NewCachedProvider(next, NewMemoryBackend(time.Minute), "m", time.Hour, logger.NewNopLogger())
	ctx := context.Background()

	first, err := p.Generate(ctx, "hello", TaskRetrievalQuery)
	require.NoError(t, err)
	second, err := p.Generate(ctx, "hello", TaskRetrievalQuery)
	require.NoError(t, err)
	_, err = p.Generate(ctx, "hello", TaskRetrievalDocument)
	require.NoError(t, err)

	assert.Equal(t, first.Embedding.Values, second.Embedding.Values)
	assert.Equal(t, int32(2), next.calls.Load(), "task type is part of the key")
}

func TestCachedProviderCollapsesConcurrentMisses(t *testing.T) {
	next := &countingProvider{delay: 50 * time.Millisecond}
	p := NewCachedProvider(next, NewMemoryBackend(time.Minute), "m", time.Hour, logger.NewNopLogger())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Generate(context.Background(), "same text", TaskRetrievalQuery)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, next.calls.Load(), int32(2))
}

// gatedProvider blocks every call until release is closed and records
// whether the ctx it ran under was still live.
type gatedProvider struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	ctxErr  atomic.Value
}

func (p *gatedProvider) Generate(ctx context.Context, text string, _ string) (*EmbeddingResponse, error) {
	if p.calls.Add(1) == 1 {
		close(p.started)
	}
	<-p.release
	if err := ctx.Err(); err != nil {
		p.ctxErr.Store(err)
		return nil, err
	}
	return newResponse([]float32{float32(len(text)), 1}), nil
}

func TestCachedProviderSharedCallSurvivesFirstCallerCancel(t *testing.T) {
	next := &gatedProvider{started: make(chan struct{}), release: make(chan struct{})}
	p := NewCachedProvider(next, NewMemoryBackend(time.Minute), "m", time.Hour, logger.NewNopLogger())

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := p.Generate(firstCtx, "same text", TaskRetrievalQuery)
		firstErr <- err
	}()
	<-next.started

	type result struct {
		res *EmbeddingResponse
		err error
	}
	second := make(chan result, 1)
	go func() {
		res, err := p.Generate(context.Background(), "same text", TaskRetrievalQuery)
		second <- result{res, err}
	}()

	cancelFirst()
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller kept waiting on the shared call")
	}

	close(next.release)
	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, []float32{9, 1}, got.res.Embedding.Values)
	assert.Nil(t, next.ctxErr.Load(), "upstream must not see the first caller's cancellation")
	assert.Equal(t, int32(1), next.calls.Load())
}

func TestCachedProviderBypassesBrokenBackend(t *testing.T) {
	next := &countingProvider{}
	p := NewCachedProvider(next, brokenBackend{}, "m", time.Hour, logger.NewNopLogger())

	res, err := p.Generate(context.Background(), "abc", "")
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 1}, res.Embedding.Values)
}

func TestCachedProviderPropagatesUpstreamError(t *testing.T) {
	next := &countingProvider{err: errors.New("quota exceeded")}
	p := NewCachedProvider(next, NewMemoryBackend(time.Minute), "m", time.Hour, logger.NewNopLogger())

	_, err := p.Generate(context.Background(), "abc", "")
	assert.ErrorContains(t, err, "quota exceeded")

	_, err = p.Generate(context.Background(), "abc", "")
	assert.Error(t, err)
	assert.Equal(t, int32(2), next.calls.Load(), "failures are not cached")
}

func TestVectorPacking(t *testing.T) {
	vec := []float32{0.25, -1.5, 3e-7}
	out, err := unpackVector(packVector(vec))
	require.NoError(t, err)
	assert.Equal(t, vec, out)

	_, err = unpackVector([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestRedisBackend(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opt)
	defer rdb.Close()

	b := NewRedisBackend(rdb, "emb-test:")
	ctx := context.Background()
	key := cacheKey("m", "", t.Name())

	require.NoError(t, b.Set(ctx, key, []float32{1, 2}, time.Minute))
	got, ok, err := b.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []float32{1, 2}, got)

	_, ok, err = b.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}
