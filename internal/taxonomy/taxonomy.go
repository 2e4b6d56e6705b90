package taxonomy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Polarity classifies an emotion's valence.
type Polarity string

const (
	PolarityPositive  Polarity = "positive"
	PolarityNegative  Polarity = "negative"
	PolarityAmbiguous Polarity = "ambiguous"
)

// Emotion is one catalog entry of the taxonomy.
type Emotion struct {
	Name               string   `yaml:"name"`
	Polarity           Polarity `yaml:"polarity"`
	IntensityThreshold float64  `yaml:"intensity_threshold"`
	Trait              string   `yaml:"trait"`
	Keywords           []string `yaml:"keywords"`
	Guidance           []string `yaml:"guidance"`
	Fallback           string   `yaml:"fallback"`
}

// IntensityLevel maps a score range onto a named level.
type IntensityLevel struct {
	Name     string  `yaml:"name"`
	MinScore float64 `yaml:"min_score"`
}

// StrategyBand groups emotions with a score threshold and a response approach.
type StrategyBand struct {
	Name      string   `yaml:"name"`
	Threshold float64  `yaml:"threshold"`
	Polarity  Polarity `yaml:"polarity"`
	Approach  string   `yaml:"approach"`
	Emotions  []string `yaml:"emotions"`
}

// Taxonomy is the static emotion catalog consumed by the rest of the
// system. Loaded once at startup and never mutated afterwards.
type Taxonomy struct {
	DefaultEmotion   string            `yaml:"default_emotion"`
	DefaultScore     float64           `yaml:"default_score"`
	KeywordIncrement float64           `yaml:"keyword_increment"`
	Emotions         []Emotion         `yaml:"emotions"`
	IntensityLevels  []IntensityLevel  `yaml:"intensity_levels"`
	StrategyBands    []StrategyBand    `yaml:"strategy_bands"`
	Approaches       map[string]string `yaml:"approaches"`
	DefaultFallback  string            `yaml:"default_fallback"`

	index map[string]int
}

// Load reads and validates a taxonomy document from path.
func Load(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read taxonomy document: %w", err)
	}

	var tax Taxonomy
	if err := yaml.Unmarshal(data, &tax); err != nil {
		return nil, fmt.Errorf("failed to parse taxonomy document: %w", err)
	}

	if err := tax.validate(); err != nil {
		return nil, fmt.Errorf("invalid taxonomy document: %w", err)
	}

	tax.buildIndex()
	return &tax, nil
}

func (t *Taxonomy) buildIndex() {
	t.index = make(map[string]int, len(t.Emotions))
	for i, e := range t.Emotions {
		t.index[e.Name] = i
	}
}

func (t *Taxonomy) validate() error {
	if len(t.Emotions) == 0 {
		return fmt.Errorf("emotion catalog is empty")
	}

	seen := make(map[string]bool, len(t.Emotions))
	for _, e := range t.Emotions {
		if e.Name == "" {
			return fmt.Errorf("emotion with empty name")
		}
		if seen[e.Name] {
			return fmt.Errorf("duplicate emotion %q", e.Name)
		}
		seen[e.Name] = true

		switch e.Polarity {
		case PolarityPositive, PolarityNegative, PolarityAmbiguous:
		default:
			return fmt.Errorf("emotion %q has unknown polarity %q", e.Name, e.Polarity)
		}

		if e.IntensityThreshold < 0 || e.IntensityThreshold > 1 {
			return fmt.Errorf("emotion %q has intensity threshold %f outside [0,1]", e.Name, e.IntensityThreshold)
		}
	}

	if t.DefaultEmotion == "" || !seen[t.DefaultEmotion] {
		return fmt.Errorf("default emotion %q is not in the catalog", t.DefaultEmotion)
	}
	if t.DefaultScore <= 0 || t.DefaultScore > 1 {
		return fmt.Errorf("default score %f outside (0,1]", t.DefaultScore)
	}
	if t.KeywordIncrement <= 0 || t.KeywordIncrement > 1 {
		return fmt.Errorf("keyword increment %f outside (0,1]", t.KeywordIncrement)
	}

	if len(t.IntensityLevels) == 0 {
		return fmt.Errorf("no intensity levels defined")
	}
	for i := 1; i < len(t.IntensityLevels); i++ {
		if t.IntensityLevels[i].MinScore >= t.IntensityLevels[i-1].MinScore {
			return fmt.Errorf("intensity levels must be declared high to low, %q is out of order", t.IntensityLevels[i].Name)
		}
	}
	if last := t.IntensityLevels[len(t.IntensityLevels)-1]; last.MinScore != 0 {
		return fmt.Errorf("lowest intensity level %q must start at 0", last.Name)
	}

	if len(t.StrategyBands) == 0 {
		return fmt.Errorf("no strategy bands defined")
	}
	for i, band := range t.StrategyBands {
		if band.Approach == "" {
			return fmt.Errorf("strategy band %q has no approach", band.Name)
		}
		if _, ok := t.Approaches[band.Approach]; !ok {
			return fmt.Errorf("strategy band %q references unknown approach %q", band.Name, band.Approach)
		}
		for _, name := range band.Emotions {
			if !seen[name] {
				return fmt.Errorf("strategy band %q references unknown emotion %q", band.Name, name)
			}
		}
		if i > 0 && band.Threshold >= t.StrategyBands[i-1].Threshold {
			return fmt.Errorf("strategy bands must be declared high to low, %q is out of order", band.Name)
		}
	}

	return nil
}

// Emotion returns the catalog entry for name, if present.
func (t *Taxonomy) Emotion(name string) (Emotion, bool) {
	i, ok := t.index[name]
	if !ok {
		return Emotion{}, false
	}
	return t.Emotions[i], true
}

// DeclarationIndex returns the catalog position of name, used for
// deterministic tie-breaking when ranking scores. Unknown names sort last.
func (t *Taxonomy) DeclarationIndex(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return len(t.Emotions)
}

// IntensityLevel buckets a score into a named level. Levels are declared
// high to low, so the first matching floor wins.
func (t *Taxonomy) IntensityLevel(score float64) string {
	for _, level := range t.IntensityLevels {
		if score >= level.MinScore {
			return level.Name
		}
	}
	return t.IntensityLevels[len(t.IntensityLevels)-1].Name
}

// GuidanceFor returns the guidance phrases for an emotion, or nil when
// the emotion is not in the catalog.
func (t *Taxonomy) GuidanceFor(name string) []string {
	e, ok := t.Emotion(name)
	if !ok {
		return nil
	}
	return e.Guidance
}

// FallbackFor returns the user-visible fallback line for an emotion.
func (t *Taxonomy) FallbackFor(name string) string {
	e, ok := t.Emotion(name)
	if !ok || e.Fallback == "" {
		return t.DefaultFallback
	}
	return e.Fallback
}

// ApproachText returns the prompt text for a response approach.
func (t *Taxonomy) ApproachText(approach string) string {
	return t.Approaches[approach]
}
