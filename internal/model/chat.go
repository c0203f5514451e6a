package model

import "time"

// ChatMessage is one turn of a conversation, kept in Redis.
type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatResult is the outcome of one chat turn. Degraded distinguishes an
// apology produced by a failed generation or retrieval call from text the
// model actually generated, so callers never have to parse the response
// string to tell the two apart.
type ChatResult struct {
	Response       string   `json:"response"`
	Sources        []string `json:"sources"`
	Degraded       bool     `json:"degraded"`
	DegradedReason string   `json:"degradedReason,omitempty"`
}
