package keyword

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/hmm29/conversational-emotion-ai/domain/entities"
	"github.com/hmm29/conversational-emotion-ai/domain/repositories"
	"github.com/hmm29/conversational-emotion-ai/internal/taxonomy"
)

// Scorer is the local keyword-overlap heuristic used when the remote
// emotion service is unavailable. It never performs I/O and never fails.
type Scorer struct {
	tax    *taxonomy.Taxonomy
	logger *zap.Logger
}

var _ repositories.EmotionScorer = (*Scorer)(nil)

// NewScorer creates a keyword scorer over the given taxonomy.
func NewScorer(tax *taxonomy.Taxonomy, logger *zap.Logger) *Scorer {
	return &Scorer{tax: tax, logger: logger}
}

// Score counts keyword matches per catalog emotion in the lowercased
// input and converts counts to a bounded pseudo-score.
func (s *Scorer) Score(_ context.Context, text string) ([]entities.EmotionScore, error) {
	lowered := strings.ToLower(text)

	var scores []entities.EmotionScore
	for _, emotion := range s.tax.Emotions {
		matches := 0
		for _, kw := range emotion.Keywords {
			if strings.Contains(lowered, kw) {
				matches++
			}
		}
		if matches == 0 {
			continue
		}

		score := float64(matches) * s.tax.KeywordIncrement
		if score > 1.0 {
			score = 1.0
		}
		scores = append(scores, entities.EmotionScore{Name: emotion.Name, Score: score})
	}

	s.logger.Debug("keyword scoring completed", zap.Int("matched", len(scores)))
	return scores, nil
}
