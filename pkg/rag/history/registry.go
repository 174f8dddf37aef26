// Package history keeps the ordered conversation log of every session.
package history

import (
	"video-rag-chat-be/internal/repository/memory"
	"video-rag-chat-be/pkg/store"
)

// Registry hands out per-session turn logs. Sessions are created on first
// reference and live until the repository evicts them.
type Registry struct {
	sessions *memory.SessionRepository
}

func NewRegistry(sessions *memory.SessionRepository) *Registry {
	return &Registry{sessions: sessions}
}

// Get returns a copy of the session's turns in insertion order.
func (r *Registry) Get(session string) []store.Turn {
	return r.sessions.GetOrCreate(session).Turns()
}

// Recent returns at most the last n turns; n <= 0 returns all of them.
func (r *Registry) Recent(session string, n int) []store.Turn {
	return r.sessions.GetOrCreate(session).Recent(n)
}

// AppendPair records a question and its answer as one step so no other
// turn can land between them.
func (r *Registry) AppendPair(session, question, answer string) {
	s := r.sessions.GetOrCreate(session)
	s.Append(
		store.Turn{Role: store.RoleUser, Text: question},
		store.Turn{Role: store.RoleAssistant, Text: answer},
	)
	r.sessions.Save(s)
}

func (r *Registry) Len(session string) int {
	if s, ok := r.sessions.Get(session); ok {
		return s.Len()
	}
	return 0
}
