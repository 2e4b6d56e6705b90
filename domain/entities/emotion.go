package entities

import (
	"sort"
	"time"

	"github.com/hmm29/conversational-emotion-ai/internal/taxonomy"
)

// EmotionSource identifies which scorer produced a result.
type EmotionSource string

const (
	EmotionSourceRemote  EmotionSource = "remote"
	EmotionSourceKeyword EmotionSource = "keyword"
)

// EmotionScore is one detected emotion with its confidence score.
// Scores for a single analysis are independent and need not sum to 1.
type EmotionScore struct {
	Name  string  `json:"name" bson:"name"`
	Score float64 `json:"score" bson:"score"`
}

// EmotionResult is the outcome of analyzing one user message. It is
// produced once per user turn and never modified afterwards.
type EmotionResult struct {
	Scores     []EmotionScore `json:"scores" bson:"scores"`
	Dominant   EmotionScore   `json:"dominant" bson:"dominant"`
	Intensity  string         `json:"intensity" bson:"intensity"`
	Source     EmotionSource  `json:"source" bson:"source"`
	Neutral    bool           `json:"neutral" bson:"neutral"`
	AnalyzedAt time.Time      `json:"analyzed_at" bson:"analyzed_at"`
}

// NewEmotionResult ranks raw label/score pairs against the taxonomy and
// derives the dominant emotion and intensity level. Labels outside the
// catalog are dropped, as are scores below the emotion's intensity
// threshold. When nothing clears its threshold the result degrades to
// the taxonomy's neutral default.
func NewEmotionResult(raw []EmotionScore, source EmotionSource, tax *taxonomy.Taxonomy) EmotionResult {
	ranked := make([]EmotionScore, 0, len(raw))
	for _, s := range raw {
		emotion, ok := tax.Emotion(s.Name)
		if !ok {
			continue
		}
		if s.Score < emotion.IntensityThreshold {
			continue
		}
		ranked = append(ranked, s)
	}

	// Highest score first, ties broken by catalog declaration order.
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return tax.DeclarationIndex(ranked[i].Name) < tax.DeclarationIndex(ranked[j].Name)
	})

	if len(ranked) == 0 {
		neutral := EmotionScore{Name: tax.DefaultEmotion, Score: tax.DefaultScore}
		return EmotionResult{
			Scores:     []EmotionScore{neutral},
			Dominant:   neutral,
			Intensity:  tax.IntensityLevel(neutral.Score),
			Source:     source,
			Neutral:    true,
			AnalyzedAt: time.Now(),
		}
	}

	return EmotionResult{
		Scores:     ranked,
		Dominant:   ranked[0],
		Intensity:  tax.IntensityLevel(ranked[0].Score),
		Source:     source,
		AnalyzedAt: time.Now(),
	}
}
