package dto

import "video-rag-chat-be/pkg/store"

type SummarizeRequest struct {
	YtLink  string `json:"ytlink" validate:"required"`
	Session string `json:"session" validate:"required"`
	Mode    string `json:"mode,omitempty"`
}

type SummarizeResponse struct {
	Summary string `json:"summary"`
}

type ChatRequest struct {
	UserQuery string `json:"user_query" validate:"required"`
	Session   string `json:"session" validate:"required"`
	Mode      string `json:"mode,omitempty"`
}

type ChatResponse struct {
	Answer string `json:"answer"`
}

type HistoryResponse struct {
	Session string       `json:"session"`
	Turns   []store.Turn `json:"turns"`
	Records int          `json:"records"`
}

type Snippet struct {
	Role   string `json:"role"`
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
}

// SnippetsResponse lists the session's stored memory, oldest first.
type SnippetsResponse struct {
	Session  string    `json:"session"`
	Snippets []Snippet `json:"snippets"`
}

type HealthResponse struct {
	Status         string `json:"status"`
	ActiveSessions int    `json:"active_sessions"`
}
