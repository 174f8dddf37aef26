package memory

import (
	"sync"
	"testing"
	"time"

	"video-rag-chat-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateReturnsSameSession(t *testing.T) {
	r := NewSessionRepository(0)

	var wg sync.WaitGroup
	got := make([]*store.Session, 16)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = r.GetOrCreate("s1")
		}(i)
	}
	wg.Wait()

	for _, s := range got {
		assert.Same(t, got[0], s)
	}
	assert.Equal(t, 1, r.Count())
}

func TestSessionExpiry(t *testing.T) {
	r := NewSessionRepository(20 * time.Millisecond)
	s := r.GetOrCreate("s1")
	s.Append(store.Turn{Role: store.RoleUser, Text: "hi"})

	_, ok := r.Get("s1")
	require.True(t, ok)

	time.Sleep(40 * time.Millisecond)
	_, ok = r.Get("s1")
	assert.False(t, ok)
	assert.Equal(t, 0, r.GetOrCreate("s1").Len())
}

func TestNoExpiryByDefault(t *testing.T) {
	r := NewSessionRepository(0)
	r.GetOrCreate("s1")
	time.Sleep(5 * time.Millisecond)

	_, ok := r.Get("s1")
	assert.True(t, ok)
}
