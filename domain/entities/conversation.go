package entities

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TurnRole identifies the author of a conversation turn.
type TurnRole string

const (
	TurnRoleUser      TurnRole = "user"
	TurnRoleAssistant TurnRole = "assistant"
)

// DefaultCapacity bounds conversation growth when no explicit capacity
// is configured. Oldest turns are evicted first.
const DefaultCapacity = 200

// Turn is one message in a conversation. User turns carry the emotion
// result computed for them; assistant turns carry none. Turns are never
// edited or removed after append, only evicted in FIFO order when the
// conversation exceeds its capacity.
type Turn struct {
	Role      TurnRole       `json:"role" bson:"role"`
	Text      string         `json:"text" bson:"text"`
	Timestamp time.Time      `json:"timestamp" bson:"timestamp"`
	Emotion   *EmotionResult `json:"emotion,omitempty" bson:"emotion,omitempty"`
}

// Conversation is an append-only ordered log of turns owned by exactly
// one session.
type Conversation struct {
	ID        string    `json:"id" bson:"_id"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	Turns     []Turn    `json:"turns" bson:"turns"`

	capacity int
	evicted  int
}

// NewConversation creates an empty conversation with the given turn
// capacity. A non-positive capacity falls back to DefaultCapacity.
func NewConversation(capacity int) *Conversation {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Conversation{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		Turns:     make([]Turn, 0),
		capacity:  capacity,
	}
}

// Append adds a turn to the log, evicting the oldest turn first when
// the configured capacity is exceeded.
func (c *Conversation) Append(turn Turn) error {
	if turn.Role != TurnRoleUser && turn.Role != TurnRoleAssistant {
		return errors.New("turn role must be user or assistant")
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now()
	}

	c.Turns = append(c.Turns, turn)
	if len(c.Turns) > c.capacity {
		over := len(c.Turns) - c.capacity
		c.Turns = append(c.Turns[:0:0], c.Turns[over:]...)
		c.evicted += over
	}
	return nil
}

// All returns the full ordered history.
func (c *Conversation) All() []Turn {
	return c.Turns
}

// Recent returns the most recent n turns in chronological order. When n
// exceeds the conversation length the whole conversation is returned.
func (c *Conversation) Recent(n int) []Turn {
	if n <= 0 {
		return nil
	}
	if n >= len(c.Turns) {
		return c.Turns
	}
	return c.Turns[len(c.Turns)-n:]
}

// Len returns the number of retained turns.
func (c *Conversation) Len() int {
	return len(c.Turns)
}

// Evicted returns how many turns have been dropped by the capacity bound.
func (c *Conversation) Evicted() int {
	return c.evicted
}

// trendWindow is the number of recent user-turn results averaged by
// EmotionTrend, matching the analyzer's history window.
const trendWindow = 5

// EmotionTrend averages emotion scores over the most recent user turns.
// It is a read-time view and does not modify the log.
func (c *Conversation) EmotionTrend() map[string]float64 {
	var results []*EmotionResult
	for i := len(c.Turns) - 1; i >= 0 && len(results) < trendWindow; i-- {
		if c.Turns[i].Role == TurnRoleUser && c.Turns[i].Emotion != nil {
			results = append(results, c.Turns[i].Emotion)
		}
	}
	if len(results) == 0 {
		return nil
	}

	sums := make(map[string]float64)
	for _, r := range results {
		for _, s := range r.Scores {
			sums[s.Name] += s.Score
		}
	}
	trend := make(map[string]float64, len(sums))
	for name, sum := range sums {
		trend[name] = sum / float64(len(results))
	}
	return trend
}

// DominantSequence returns the dominant emotion of each user turn in
// chronological order.
func (c *Conversation) DominantSequence() []string {
	var seq []string
	for _, t := range c.Turns {
		if t.Role == TurnRoleUser && t.Emotion != nil {
			seq = append(seq, t.Emotion.Dominant.Name)
		}
	}
	return seq
}
