package usecase

import (
	"github.com/hmm29/conversational-emotion-ai/domain/entities"
	"github.com/hmm29/conversational-emotion-ai/internal/taxonomy"
)

// StrategySelector maps a ranked emotion result to exactly one response
// strategy. Select is pure and total: every result, including the
// neutral default, yields a strategy, and identical inputs always yield
// identical outputs.
type StrategySelector struct {
	tax *taxonomy.Taxonomy
}

// NewStrategySelector creates a selector over the given taxonomy.
func NewStrategySelector(tax *taxonomy.Taxonomy) *StrategySelector {
	return &StrategySelector{tax: tax}
}

// Select resolves the strategy for a result. Bands are evaluated high
// to low so overlapping score ranges in the source data resolve
// unambiguously:
//
//  1. The first band containing the dominant emotion whose threshold
//     the score clears wins; when thresholds tie across bands of
//     different polarity, the dominant emotion's polarity decides.
//  2. A dominant emotion that cleared its own intensity threshold but
//     no band threshold falls back to the first band containing it.
//  3. Anything else, including the neutral default result, maps to
//     balanced engagement.
func (s *StrategySelector) Select(result entities.EmotionResult) entities.Strategy {
	dominant := result.Dominant
	emotion, known := s.tax.Emotion(dominant.Name)

	if result.Neutral || !known {
		return s.balanced(dominant.Name)
	}

	// First pass: threshold matches, preferring the band whose polarity
	// agrees with the dominant emotion's.
	var firstMatch *taxonomy.StrategyBand
	for i, band := range s.tax.StrategyBands {
		if !contains(band.Emotions, dominant.Name) || dominant.Score < band.Threshold {
			continue
		}
		if band.Polarity == emotion.Polarity {
			return s.fromBand(band, dominant.Name)
		}
		if firstMatch == nil {
			firstMatch = &s.tax.StrategyBands[i]
		}
	}
	if firstMatch != nil {
		return s.fromBand(*firstMatch, dominant.Name)
	}

	// Second pass: the dominant emotion already cleared its intensity
	// threshold when the result was built, so band membership alone
	// decides the approach.
	for _, band := range s.tax.StrategyBands {
		if contains(band.Emotions, dominant.Name) {
			return s.fromBand(band, dominant.Name)
		}
	}

	return s.balanced(dominant.Name)
}

func (s *StrategySelector) fromBand(band taxonomy.StrategyBand, emotion string) entities.Strategy {
	return entities.Strategy{
		Approach: entities.Approach(band.Approach),
		Band:     band.Name,
		Emotion:  emotion,
		Guidance: s.tax.GuidanceFor(emotion),
	}
}

func (s *StrategySelector) balanced(emotion string) entities.Strategy {
	return entities.Strategy{
		Approach: entities.ApproachBalancedEngagement,
		Band:     "default",
		Emotion:  emotion,
		Guidance: s.tax.GuidanceFor(emotion),
	}
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
