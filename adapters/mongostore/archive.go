package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/hmm29/conversational-emotion-ai/domain/entities"
	"github.com/hmm29/conversational-emotion-ai/domain/repositories"
)

// Archive persists ended conversations to a MongoDB collection.
type Archive struct {
	collection *mongo.Collection
}

var _ repositories.ConversationArchive = (*Archive)(nil)

// NewArchive creates a conversation archive backed by the
// "conversations" collection.
func NewArchive(db *mongo.Database) *Archive {
	return &Archive{collection: db.Collection("conversations")}
}

// Archive stores the full conversation document. The conversation is no
// longer live at this point, so no further writes follow.
func (a *Archive) Archive(ctx context.Context, conversation *entities.Conversation) error {
	if conversation == nil {
		return errors.New("conversation cannot be nil")
	}

	doc := bson.M{
		"_id":         conversation.ID,
		"created_at":  conversation.CreatedAt,
		"archived_at": time.Now(),
		"turns":       conversation.Turns,
	}

	if _, err := a.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to archive conversation: %w", err)
	}
	return nil
}
