package api

import (
	"time"

	"github.com/hmm29/conversational-emotion-ai/domain/entities"
)

// CreateSessionResponse is returned when a new chat session is opened.
type CreateSessionResponse struct {
	SessionID string    `json:"session_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ChatRequest is the single user-facing interaction: submit text.
type ChatRequest struct {
	Message string `json:"message" validate:"required"`
}

// ChatResponse carries the reply and the emotion metadata of the turn.
type ChatResponse struct {
	Reply           string  `json:"reply"`
	DominantEmotion string  `json:"dominant_emotion"`
	Score           float64 `json:"score"`
	Intensity       string  `json:"intensity"`
	Strategy        string  `json:"strategy"`
	Degraded        bool    `json:"degraded"`
}

// HistoryResponse is the windowed conversation history.
type HistoryResponse struct {
	SessionID string          `json:"session_id"`
	Turns     []entities.Turn `json:"turns"`
}

// ProfileResponse is a snapshot of the session's personality profile.
type ProfileResponse struct {
	Traits      map[string]float64 `json:"traits"`
	Dominant    []string           `json:"dominant_traits"`
	UpdateCount int                `json:"update_count"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
