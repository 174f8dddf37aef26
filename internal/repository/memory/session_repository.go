package memory

import (
	"time"

	"video-rag-chat-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// SessionRepository holds volatile per-session conversation state. A ttl of
// zero keeps sessions for the life of the process.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	cleanup := 10 * time.Minute
	if ttl <= 0 {
		ttl = cache.NoExpiration
		cleanup = 0
	}
	return &SessionRepository{
		cache: cache.New(ttl, cleanup),
	}
}

// Save stores the session and restarts its expiry clock
func (r *SessionRepository) Save(session *store.Session) {
	r.cache.Set(session.ID, session, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(sessionID string) (*store.Session, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*store.Session), true
	}
	return nil, false
}

// GetOrCreate returns the live session for sessionID, creating it on first use.
func (r *SessionRepository) GetOrCreate(sessionID string) *store.Session {
	if s, ok := r.Get(sessionID); ok {
		return s
	}
	s := store.NewSession(sessionID)
	if err := r.cache.Add(sessionID, s, cache.DefaultExpiration); err != nil {
		// lost the race to another creator
		if existing, ok := r.Get(sessionID); ok {
			return existing
		}
		r.Save(s)
	}
	return s
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}
