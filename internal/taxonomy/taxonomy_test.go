package taxonomy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadShippedTaxonomy(t *testing.T) {
	tax, err := Load("../../config/emotions.yaml")
	require.NoError(t, err)

	assert.Equal(t, "contentment", tax.DefaultEmotion)
	assert.Equal(t, 0.5, tax.DefaultScore)
	assert.Equal(t, 0.3, tax.KeywordIncrement)
	assert.Len(t, tax.Emotions, 18)
	assert.Len(t, tax.StrategyBands, 4)

	joy, ok := tax.Emotion("joy")
	require.True(t, ok)
	assert.Equal(t, PolarityPositive, joy.Polarity)
	assert.NotEmpty(t, joy.Keywords)
	assert.NotEmpty(t, joy.Fallback)

	_, ok = tax.Emotion("nostalgia")
	assert.False(t, ok)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("does-not-exist.yaml")
	assert.Error(t, err)
}

func writeDoc(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "emotions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

const validDoc = `
default_emotion: calm
default_score: 0.5
keyword_increment: 0.3
emotions:
  - name: calm
    polarity: ambiguous
    intensity_threshold: 0.2
    keywords: [calm]
  - name: joy
    polarity: positive
    intensity_threshold: 0.3
    keywords: [happy]
intensity_levels:
  - name: high
    min_score: 0.7
  - name: low
    min_score: 0.0
strategy_bands:
  - name: positive
    threshold: 0.4
    polarity: positive
    approach: amplify
    emotions: [joy]
approaches:
  amplify: Mirror the positive energy.
`

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "empty catalog",
			doc: `
default_emotion: calm
default_score: 0.5
keyword_increment: 0.3
emotions: []
`,
		},
		{
			name: "duplicate emotion",
			doc: `
default_emotion: joy
default_score: 0.5
keyword_increment: 0.3
emotions:
  - name: joy
    polarity: positive
  - name: joy
    polarity: positive
intensity_levels:
  - name: low
    min_score: 0.0
strategy_bands:
  - name: positive
    threshold: 0.4
    polarity: positive
    approach: amplify
    emotions: [joy]
approaches:
  amplify: text
`,
		},
		{
			name: "unknown polarity",
			doc: `
default_emotion: joy
default_score: 0.5
keyword_increment: 0.3
emotions:
  - name: joy
    polarity: sideways
intensity_levels:
  - name: low
    min_score: 0.0
strategy_bands:
  - name: positive
    threshold: 0.4
    polarity: positive
    approach: amplify
    emotions: [joy]
approaches:
  amplify: text
`,
		},
		{
			name: "default emotion not in catalog",
			doc: `
default_emotion: serenity
default_score: 0.5
keyword_increment: 0.3
emotions:
  - name: joy
    polarity: positive
intensity_levels:
  - name: low
    min_score: 0.0
strategy_bands:
  - name: positive
    threshold: 0.4
    polarity: positive
    approach: amplify
    emotions: [joy]
approaches:
  amplify: text
`,
		},
		{
			name: "intensity levels out of order",
			doc: `
default_emotion: joy
default_score: 0.5
keyword_increment: 0.3
emotions:
  - name: joy
    polarity: positive
intensity_levels:
  - name: low
    min_score: 0.0
  - name: high
    min_score: 0.7
strategy_bands:
  - name: positive
    threshold: 0.4
    polarity: positive
    approach: amplify
    emotions: [joy]
approaches:
  amplify: text
`,
		},
		{
			name: "band references unknown approach",
			doc: `
default_emotion: joy
default_score: 0.5
keyword_increment: 0.3
emotions:
  - name: joy
    polarity: positive
intensity_levels:
  - name: low
    min_score: 0.0
strategy_bands:
  - name: positive
    threshold: 0.4
    polarity: positive
    approach: missing
    emotions: [joy]
approaches:
  amplify: text
`,
		},
		{
			name: "band references unknown emotion",
			doc: `
default_emotion: joy
default_score: 0.5
keyword_increment: 0.3
emotions:
  - name: joy
    polarity: positive
intensity_levels:
  - name: low
    min_score: 0.0
strategy_bands:
  - name: positive
    threshold: 0.4
    polarity: positive
    approach: amplify
    emotions: [bliss]
approaches:
  amplify: text
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeDoc(t, tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestHelpers(t *testing.T) {
	tax, err := Load(writeDoc(t, validDoc))
	require.NoError(t, err)

	t.Run("intensity level buckets high to low", func(t *testing.T) {
		assert.Equal(t, "high", tax.IntensityLevel(0.9))
		assert.Equal(t, "high", tax.IntensityLevel(0.7))
		assert.Equal(t, "low", tax.IntensityLevel(0.1))
	})

	t.Run("declaration index", func(t *testing.T) {
		assert.Equal(t, 0, tax.DeclarationIndex("calm"))
		assert.Equal(t, 1, tax.DeclarationIndex("joy"))
		assert.Equal(t, 2, tax.DeclarationIndex("bliss"))
	})

	t.Run("fallback defaults for unknown emotion", func(t *testing.T) {
		assert.Equal(t, tax.DefaultFallback, tax.FallbackFor("bliss"))
	})

	t.Run("approach text", func(t *testing.T) {
		assert.Equal(t, "Mirror the positive energy.", tax.ApproachText("amplify"))
	})
}
