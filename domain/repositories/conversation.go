package repositories

import (
	"context"

	"github.com/hmm29/conversational-emotion-ai/domain/entities"
)

// ConversationStore owns the live conversations, one per session. A
// checked-out conversation is exclusively held by its session's handling
// context until released.
type ConversationStore interface {
	Create(sessionID string) (*entities.Conversation, error)
	Checkout(sessionID string) (*entities.Conversation, error)
	Release(sessionID string)
	Remove(sessionID string) (*entities.Conversation, bool)
}

// ConversationArchive persists ended conversations. Archiving is an
// external concern; a nil archive disables it.
type ConversationArchive interface {
	Archive(ctx context.Context, conversation *entities.Conversation) error
}
