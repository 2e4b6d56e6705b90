package repositories

import "context"

// Role defines the type of message sender in a completion request.
type Role string

const (
	UserRole      Role = "user"
	AssistantRole Role = "assistant"
	SystemRole    Role = "system"
)

// ChatMessage is a single role-tagged message sent to a completion model.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// CompletionOptions carry the sampling parameters for one completion call.
type CompletionOptions struct {
	Temperature      float64
	MaxTokens        int
	PresencePenalty  float64
	FrequencyPenalty float64
}

// ChatCompleter abstracts any chat completion provider. The core depends
// only on this shape, not on a particular vendor protocol.
type ChatCompleter interface {
	Complete(ctx context.Context, messages []ChatMessage, opts CompletionOptions) (string, error)
}
