package entities

// Approach is the coarse response-tone category chosen per turn.
type Approach string

const (
	ApproachAmplifyPositive     Approach = "amplify_positive"
	ApproachGentleEncouragement Approach = "gentle_encouragement"
	ApproachEmpatheticSupport   Approach = "empathetic_support"
	ApproachBalancedEngagement  Approach = "balanced_engagement"
)

// Strategy is the selected response approach together with the ordered
// guidance phrases for the dominant emotion it was chosen for.
type Strategy struct {
	Approach Approach `json:"approach"`
	Band     string   `json:"band"`
	Emotion  string   `json:"emotion"`
	Guidance []string `json:"guidance"`
}
