package entities

import (
	"testing"

	"github.com/hmm29/conversational-emotion-ai/internal/taxonomy"
)

func loadTaxonomy(t *testing.T) *taxonomy.Taxonomy {
	t.Helper()
	tax, err := taxonomy.Load("../../config/emotions.yaml")
	if err != nil {
		t.Fatalf("Failed to load taxonomy: %v", err)
	}
	return tax
}

func TestNewEmotionResultRanking(t *testing.T) {
	tax := loadTaxonomy(t)

	raw := []EmotionScore{
		{Name: "sadness", Score: 0.4},
		{Name: "joy", Score: 0.8},
		{Name: "anger", Score: 0.6},
	}
	result := NewEmotionResult(raw, EmotionSourceRemote, tax)

	if result.Dominant.Name != "joy" {
		t.Errorf("Expected dominant joy, got %s", result.Dominant.Name)
	}
	if result.Neutral {
		t.Error("Expected non-neutral result")
	}
	if result.Intensity != "high" {
		t.Errorf("Expected high intensity for 0.8, got %s", result.Intensity)
	}
	if result.Source != EmotionSourceRemote {
		t.Errorf("Expected remote source, got %s", result.Source)
	}

	expected := []string{"joy", "anger", "sadness"}
	for i, name := range expected {
		if result.Scores[i].Name != name {
			t.Errorf("Rank %d: expected %s, got %s", i, name, result.Scores[i].Name)
		}
	}
}

func TestNewEmotionResultTieBreaksByDeclarationOrder(t *testing.T) {
	tax := loadTaxonomy(t)

	// joy is declared before sadness in the catalog.
	raw := []EmotionScore{
		{Name: "sadness", Score: 0.5},
		{Name: "joy", Score: 0.5},
	}
	result := NewEmotionResult(raw, EmotionSourceRemote, tax)

	if result.Dominant.Name != "joy" {
		t.Errorf("Expected tie broken toward joy, got %s", result.Dominant.Name)
	}
}

func TestNewEmotionResultDropsUnknownAndWeakScores(t *testing.T) {
	tax := loadTaxonomy(t)

	raw := []EmotionScore{
		{Name: "nostalgia", Score: 0.9}, // not in catalog
		{Name: "joy", Score: 0.1},       // below joy's threshold
		{Name: "anger", Score: 0.5},
	}
	result := NewEmotionResult(raw, EmotionSourceRemote, tax)

	if len(result.Scores) != 1 {
		t.Fatalf("Expected 1 retained score, got %d", len(result.Scores))
	}
	if result.Dominant.Name != "anger" {
		t.Errorf("Expected dominant anger, got %s", result.Dominant.Name)
	}
}

func TestNewEmotionResultNeutralDefault(t *testing.T) {
	tax := loadTaxonomy(t)

	result := NewEmotionResult(nil, EmotionSourceKeyword, tax)

	if !result.Neutral {
		t.Error("Expected neutral result for empty input")
	}
	if result.Dominant.Name != tax.DefaultEmotion {
		t.Errorf("Expected default emotion %s, got %s", tax.DefaultEmotion, result.Dominant.Name)
	}
	if result.Dominant.Score != tax.DefaultScore {
		t.Errorf("Expected default score %f, got %f", tax.DefaultScore, result.Dominant.Score)
	}
	if result.Source != EmotionSourceKeyword {
		t.Errorf("Expected keyword source, got %s", result.Source)
	}
}

func TestNewEmotionResultRespectsPerEmotionThreshold(t *testing.T) {
	tax := loadTaxonomy(t)

	// fear's threshold is lower than the default 0.3
	result := NewEmotionResult([]EmotionScore{{Name: "fear", Score: 0.27}}, EmotionSourceRemote, tax)

	if result.Neutral {
		t.Fatal("Expected fear at 0.27 to clear its lowered threshold")
	}
	if result.Dominant.Name != "fear" {
		t.Errorf("Expected dominant fear, got %s", result.Dominant.Name)
	}
}
