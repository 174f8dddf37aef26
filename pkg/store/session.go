package store

import (
	"strings"
	"sync"

	"video-rag-chat-be/pkg/rag/failure"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Turn is one immutable conversation message
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Metadata travels with every stored snippet
type Metadata struct {
	Role   string `json:"role"`
	Source string `json:"source,omitempty"`
}

// MemoryRecord is a text snippet persisted in a session's vector partition.
// Score is only populated on query results.
type MemoryRecord struct {
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
	Score    float32  `json:"score,omitempty"`
}

// Validate rejects records that cannot be stored: blank text or an unknown role.
func (r MemoryRecord) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return failure.New(failure.ErrMalformedMessage, "record.validate", "text is empty")
	}
	switch r.Metadata.Role {
	case RoleUser, RoleAssistant:
		return nil
	default:
		return failure.New(failure.ErrMalformedMessage, "record.validate", "unknown role %q", r.Metadata.Role)
	}
}

// NewTurnRecords normalizes a question/answer pair into the records mirrored into memory.
func NewTurnRecords(question, answer string) []MemoryRecord {
	return []MemoryRecord{
		{Text: question, Metadata: Metadata{Role: RoleUser}},
		{Text: answer, Metadata: Metadata{Role: RoleAssistant}},
	}
}

// NewSummaryRecord builds the record written after a transcript is summarized
func NewSummaryRecord(summary, source string) MemoryRecord {
	return MemoryRecord{Text: summary, Metadata: Metadata{Role: RoleAssistant, Source: source}}
}

// Session is the volatile, process-local conversation state of one session key
type Session struct {
	ID string `json:"id"`

	mu    sync.RWMutex
	turns []Turn
}

func NewSession(id string) *Session {
	return &Session{ID: id}
}

// Turns returns a copy of the history in insertion order
func (s *Session) Turns() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Recent returns the last n turns; n <= 0 means all of them.
func (s *Session) Recent(n int) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := 0
	if n > 0 && len(s.turns) > n {
		start = len(s.turns) - n
	}
	out := make([]Turn, len(s.turns)-start)
	copy(out, s.turns[start:])
	return out
}

func (s *Session) Append(turns ...Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turns...)
}

func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}
