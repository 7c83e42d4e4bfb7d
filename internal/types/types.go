package types

import "assistify-backend/internal/search"

type ChatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

type ChatResponse struct {
	SessionID  string          `json:"sessionId"`
	Reply      string          `json:"reply"`
	Transcript string          `json:"transcript,omitempty"`
	Intent     *IntentResponse `json:"intent,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// IntentResponse tells the frontend which handler produced the reply, with
// any structured data it may want to render (e.g. the task list).
type IntentResponse struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

type SearchRequest struct {
	Query string `json:"query"`
}

// WebOutcome is the web part of a search. Source is empty when every engine
// came back empty.
type WebOutcome struct {
	Results []search.Result `json:"results"`
	Source  string          `json:"source,omitempty"`
}

type SearchResponse struct {
	Query         string          `json:"query"`
	Summary       string          `json:"summary"`
	Web           WebOutcome      `json:"web"`
	Videos        []search.Result `json:"videos"`
	FallbackLinks []search.Result `json:"fallbackLinks,omitempty"`
}

type SummarizeRequest struct {
	Text      string `json:"text"`
	ChunkSize int    `json:"chunkSize,omitempty"`
	MinLength int    `json:"minLength,omitempty"`
	MaxLength int    `json:"maxLength,omitempty"`
	MaxChunks int    `json:"maxChunks,omitempty"`
}

type SummarizeResponse struct {
	Summary string `json:"summary"`
}

type VoiceToggleResponse struct {
	SessionID string `json:"sessionId"`
	Enabled   bool   `json:"enabled"`
}

type HistoryResponse struct {
	SessionID string    `json:"sessionId"`
	Messages  []Message `json:"messages"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type KnowledgeResponse struct {
	Query   string `json:"query"`
	Summary string `json:"summary"`
}

type WebResponse struct {
	Query string `json:"query"`
	WebOutcome
	FallbackLinks []search.Result `json:"fallbackLinks,omitempty"`
}

type VideosResponse struct {
	Query         string          `json:"query"`
	Videos        []search.Result `json:"videos"`
	FallbackLinks []search.Result `json:"fallbackLinks,omitempty"`
}

type TTSRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voiceId,omitempty"`
}

type ArchivedExchange struct {
	Intent    string `json:"intent"`
	UserText  string `json:"userText"`
	ReplyText string `json:"replyText"`
	CreatedAt string `json:"createdAt"`
}

type ArchiveResponse struct {
	SessionID string             `json:"sessionId"`
	Exchanges []ArchivedExchange `json:"exchanges"`
}
