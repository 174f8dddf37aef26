package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"video-rag-chat-be/internal/pkg/logger"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Backend stores embedding vectors by key.
type Backend interface {
	Get(ctx context.Context, key string) ([]float32, bool, error)
	Set(ctx context.Context, key string, vec []float32, ttl time.Duration) error
}

// MemoryBackend keeps vectors in the process.
type MemoryBackend struct {
	c *gocache.Cache
}

func NewMemoryBackend(cleanup time.Duration) *MemoryBackend {
	return &MemoryBackend{c: gocache.New(gocache.NoExpiration, cleanup)}
}

func (b *MemoryBackend) Get(_ context.Context, key string) ([]float32, bool, error) {
	v, ok := b.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	return v.([]float32), true, nil
}

func (b *MemoryBackend) Set(_ context.Context, key string, vec []float32, ttl time.Duration) error {
	b.c.Set(key, vec, ttl)
	return nil
}

// RedisBackend shares vectors between instances. Values are packed
// little-endian float32.
type RedisBackend struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisBackend(rdb *redis.Client, prefix string) *RedisBackend {
	if prefix == "" {
		prefix = "emb:"
	}
	return &RedisBackend{rdb: rdb, prefix: prefix}
}

func (b *RedisBackend) Get(ctx context.Context, key string) ([]float32, bool, error) {
	raw, err := b.rdb.Get(ctx, b.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	vec, err := unpackVector(raw)
	if err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

func (b *RedisBackend) Set(ctx context.Context, key string, vec []float32, ttl time.Duration) error {
	return b.rdb.Set(ctx, b.prefix+key, packVector(vec), ttl).Err()
}

func packVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func unpackVector(raw []byte) ([]float32, error) {
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("corrupt cached vector of %d bytes", len(raw))
	}
	vec := make([]float32, len(raw)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return vec, nil
}

// flightTimeout bounds a shared upstream call once it is detached from the
// caller that started it.
const flightTimeout = 2 * time.Minute

// CachedProvider memoizes another provider. Backend failures are logged and
// bypassed; concurrent misses for the same text share one upstream call.
type CachedProvider struct {
	next    EmbeddingProvider
	backend Backend
	model   string
	ttl     time.Duration
	logger  logger.ILogger
	group   singleflight.Group
}

func NewCachedProvider(next EmbeddingProvider, backend Backend, model string, ttl time.Duration, log logger.ILogger) *CachedProvider {
	return &CachedProvider{
		next:    next,
		backend: backend,
		model:   model,
		ttl:     ttl,
		logger:  log,
	}
}

func (p *CachedProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	key := cacheKey(p.model, taskType, text)

	if vec, ok, err := p.backend.Get(ctx, key); err != nil {
		p.logger.Warn("EMBEDDING", "Cache read failed", map[string]interface{}{"error": err})
	} else if ok {
		return newResponse(vec), nil
	}

	// The shared call outlives any single caller; each caller stops waiting
	// when its own ctx is done.
	ch := p.group.DoChan(key, func() (interface{}, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flightTimeout)
		defer cancel()

		res, err := p.next.Generate(flightCtx, text, taskType)
		if err != nil {
			return nil, err
		}
		if err := p.backend.Set(flightCtx, key, res.Embedding.Values, p.ttl); err != nil {
			p.logger.Warn("EMBEDDING", "Cache write failed", map[string]interface{}{"error": err})
		}
		return res, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*EmbeddingResponse), nil
	}
}

func cacheKey(model, taskType, text string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + taskType + "\x00" + text))
	return hex.EncodeToString(sum[:])
}
