package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Supported message types
const (
	MessageTypeUserMessage MessageType = "user_message"
	MessageTypeAIResponse  MessageType = "ai_response"
	MessageTypePipeline    MessageType = "pipeline_event"
	MessageTypePing        MessageType = "ping"
	MessageTypePong        MessageType = "pong"
	MessageTypeError       MessageType = "error"
)

// BaseMessage defines the common structure for all WebSocket messages
type BaseMessage struct {
	Type      MessageType `json:"type" validate:"required"`
	Timestamp string      `json:"timestamp"`
	MessageID string      `json:"message_id,omitempty"`
}

// UserMessage represents an incoming chat message from the client
type UserMessage struct {
	BaseMessage
	Text string `json:"text" validate:"required"`
}

// AIResponseMessage carries a generated reply along with the emotion
// analysis that shaped it.
type AIResponseMessage struct {
	BaseMessage
	SessionID      string  `json:"session_id"`
	Text           string  `json:"response_text"`
	Emotion        string  `json:"emotion,omitempty"`
	Confidence     float64 `json:"confidence,omitempty"`
	Intensity      string  `json:"intensity,omitempty"`
	Strategy       string  `json:"strategy,omitempty"`
	Degraded       bool    `json:"degraded,omitempty"`
	ProcessingTime int64   `json:"processing_time_ms,omitempty"`
}

// PipelineEventMessage reports a processing step transition to the client.
type PipelineEventMessage struct {
	BaseMessage
	SessionID string `json:"session_id"`
	Phase     string `json:"phase"`
	State     string `json:"state"`
}

// PingMessage represents a ping message for connection health check
type PingMessage struct {
	BaseMessage
	Data string `json:"data,omitempty"`
}

// PongMessage represents a pong response
type PongMessage struct {
	BaseMessage
	Data string `json:"data,omitempty"`
}

// ErrorMessage represents an error response
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

// ParseMessage parses an incoming frame into its typed message.
func ParseMessage(messageBytes []byte) (interface{}, error) {
	var base BaseMessage
	if err := json.Unmarshal(messageBytes, &base); err != nil {
		return nil, fmt.Errorf("invalid JSON format: %w", err)
	}

	switch base.Type {
	case MessageTypeUserMessage:
		var msg UserMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid user message: %w", err)
		}
		if msg.Text == "" {
			return nil, fmt.Errorf("text is required")
		}
		return &msg, nil

	case MessageTypePing:
		var msg PingMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid ping message: %w", err)
		}
		return &msg, nil

	default:
		return nil, fmt.Errorf("unsupported message type: %s", base.Type)
	}
}

// CreateErrorMessage creates a standardized error message
func CreateErrorMessage(code, message string) *ErrorMessage {
	return &ErrorMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeError,
			Timestamp: time.Now().Format(time.RFC3339),
		},
		Code:    code,
		Message: message,
	}
}

// CreatePongMessage creates a pong response message
func CreatePongMessage(data string) *PongMessage {
	return &PongMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypePong,
			Timestamp: time.Now().Format(time.RFC3339),
		},
		Data: data,
	}
}
