package entities

// PersonalityProfile keeps a running confidence-weighted estimate per
// personality trait, updated incrementally from each user turn's
// emotion result. It persists for the session lifetime and is never
// reset mid-session.
type PersonalityProfile struct {
	Traits      map[string]float64 `json:"traits"`
	Confidence  map[string]float64 `json:"confidence"`
	UpdateCount int                `json:"update_count"`
}

// NewPersonalityProfile returns an empty profile.
func NewPersonalityProfile() *PersonalityProfile {
	return &PersonalityProfile{
		Traits:     make(map[string]float64),
		Confidence: make(map[string]float64),
	}
}

// Observe folds one trait observation into the profile. The estimate
// moves toward the observed score proportionally to the observation's
// weight relative to accumulated confidence.
func (p *PersonalityProfile) Observe(trait string, score float64) {
	if trait == "" {
		return
	}

	prior := p.Confidence[trait]
	weight := score / (prior + score)
	if prior == 0 {
		weight = 1
	}

	p.Traits[trait] = p.Traits[trait]*(1-weight) + score*weight
	p.Confidence[trait] = prior + score
	p.UpdateCount++
}

// Snapshot returns a deep copy that is safe to read while the original
// keeps receiving observations.
func (p *PersonalityProfile) Snapshot() *PersonalityProfile {
	snapshot := &PersonalityProfile{
		Traits:      make(map[string]float64, len(p.Traits)),
		Confidence:  make(map[string]float64, len(p.Confidence)),
		UpdateCount: p.UpdateCount,
	}
	for trait, value := range p.Traits {
		snapshot.Traits[trait] = value
	}
	for trait, value := range p.Confidence {
		snapshot.Confidence[trait] = value
	}
	return snapshot
}

// DominantTraits returns up to n traits with the highest estimates.
func (p *PersonalityProfile) DominantTraits(n int) []string {
	type entry struct {
		name  string
		value float64
	}
	entries := make([]entry, 0, len(p.Traits))
	for name, value := range p.Traits {
		entries = append(entries, entry{name, value})
	}
	// Insertion sort keeps this deterministic for equal values by name.
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0; j-- {
			a, b := entries[j-1], entries[j]
			if b.value > a.value || (b.value == a.value && b.name < a.name) {
				entries[j-1], entries[j] = b, a
			}
		}
	}

	if n > len(entries) {
		n = len(entries)
	}
	names := make([]string, n)
	for i := 0; i < n; i++ {
		names[i] = entries[i].name
	}
	return names
}
