package repositories

import (
	"context"

	"github.com/hmm29/conversational-emotion-ai/domain/entities"
)

// EmotionScorer produces raw label/score pairs for a piece of text.
// Implementations may call out to an external service or score locally;
// the analyzer decides how failures are handled.
type EmotionScorer interface {
	Score(ctx context.Context, text string) ([]entities.EmotionScore, error)
}
